package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	_ "github.com/yaegashi/clusterops/adapters/drivers/provider/ec2"
	_ "github.com/yaegashi/clusterops/adapters/drivers/provider/hcloud"
	"github.com/yaegashi/clusterops/config/opsenv"
	"github.com/yaegashi/clusterops/internal/logging"
)

// opsEnv holds the resolved config directory and config.yml of this invocation.
var opsEnv *opsenv.Env

// logFile is the log destination opened in PersistentPreRunE.
var (
	logFile     *logging.LogFile
	logToStderr = true
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clusterops",
		Short:   "Cluster lifecycle operations",
		Long:    "Start, stop and terminate controller and worker instances across cloud providers.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(versionString() + "\n")

	pf := cmd.PersistentFlags()
	pf.String("config-dir", os.Getenv(opsenv.OpsDirEnvKey), "Config directory (env "+opsenv.OpsDirEnvKey+", default ./"+opsenv.OpsDirName+")")
	pf.String("db-url", "", "Registry URL (env "+opsenv.DBURLEnvKey+") (sqlite:/path/to.db | memory:)")
	pf.String("log-format", "", "Log format (human|text|json) (env CLUSTEROPS_LOG_FORMAT)")
	pf.String("log-level", "", "Log level (DEBUG|INFO|WARN|ERROR) (env CLUSTEROPS_LOG_LEVEL)")
	pf.String("log-output", "", "Log output (- for stderr, none, or a file path; empty writes to the log directory)")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		configDir, _ := c.Flags().GetString("config-dir")
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		env, err := opsenv.Resolve(configDir, wd)
		if err != nil {
			return err
		}
		opsEnv = env

		logger, err := buildLogger(c, env)
		if err != nil {
			return err
		}
		logger = logger.With("runId", uuid.NewString())
		c.SetContext(logging.WithLogger(c.Context(), logger))
		return nil
	}
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		if logFile != nil {
			return logFile.Close()
		}
		return nil
	}

	cmd.AddCommand(
		newCmdVersion(),
		newCmdInit(),
		newCmdProvider(),
		newCmdController(),
		newCmdWorker(),
		newCmdInstances(),
	)
	cmd.AddCommand(newShortcutCmds()...)
	return cmd
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	executed, err := root.ExecuteC()
	if err != nil {
		ctx := root.Context()
		if executed != nil && executed.Context() != nil {
			ctx = executed.Context()
		}
		logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
		if !logToStderr {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}
