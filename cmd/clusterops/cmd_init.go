package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaegashi/clusterops/config/opsenv"
)

func newCmdInit() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yml into the config directory",
		Long: `Write a default config.yml into the config directory.

The config directory is taken from --config-dir, CLUSTEROPS_DIR, the nearest
` + opsenv.OpsDirName + ` directory above the working directory, or ./` + opsenv.OpsDirName + `.
It is created when missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := filepath.Join(opsEnv.OpsDir, opsenv.ConfigFileName)
			if !force {
				if _, err := os.Stat(configPath); err == nil {
					return fmt.Errorf("%s already exists (use -f to overwrite)", configPath)
				}
			}
			data, err := opsenv.InitialConfigYAML()
			if err != nil {
				return err
			}
			if err := os.WriteFile(configPath, data, 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", configPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config.yml")
	return cmd
}
