package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/usecase/provider"
)

type providerSpec struct {
	Name     string            `yaml:"name" json:"name"`
	Driver   string            `yaml:"driver" json:"driver"`
	Settings map[string]string `yaml:"settings" json:"settings"`
}

func newCmdProvider() *cobra.Command {
	return newGroupCmd("provider", "Manage providers",
		newCmdProviderSetup(),
		newCmdProviderList(),
		newCmdProviderShow(),
		newCmdProviderDelete(),
	)
}

func newCmdProviderSetup() *cobra.Command {
	var (
		file      string
		driver    string
		sets      []string
		noPrepare bool
	)
	cmd := &cobra.Command{
		Use:   "setup [NAME]",
		Short: "Create or update a provider and prepare its prerequisites",
		Long: `Create or update a provider by name.

Settings are merged into the stored ones; --set key= removes a key. Unless
--no-prepare is given, the driver makes sure the SSH key and firewall or
security group exist on the provider side.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			spec := &providerSpec{}
			if file != "" {
				if err := readSpecFile(cmd, file, spec); err != nil {
					return err
				}
			}
			name, err := nameArg(args, spec.Name)
			if err != nil {
				return err
			}
			settings := maps.Clone(spec.Settings)
			if settings == nil {
				settings = map[string]string{}
			}
			for _, kv := range sets {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid --set %q, want key=value", kv)
				}
				settings[k] = v
			}
			if driver == "" {
				driver = spec.Driver
			}

			u, err := buildProviderUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "provider.setup", name)
			defer cancel()
			defer func() { cleanup(err) }()

			out, err := u.Setup(ctx, &provider.SetupInput{Name: name, Driver: driver, Settings: settings, NoPrepare: noPrepare})
			if out != nil {
				verb := "Updated"
				if out.Created {
					verb = "Created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s provider %s (driver %s)\n", verb, out.Provider.Name, out.Provider.Driver)
				for _, n := range out.Notes {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", n)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to provider spec (YAML), or '-' for stdin")
	cmd.Flags().StringVar(&driver, "driver", "", "Provider driver (hcloud|ec2)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Provider setting as key=value (repeatable)")
	cmd.Flags().BoolVar(&noPrepare, "no-prepare", false, "Skip provider-side prerequisite checks")
	return cmd
}

func newCmdProviderList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := buildProviderUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "provider.list", "")
			defer cancel()
			out, err := u.List(ctx, &provider.ListInput{})
			cleanup(err)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(out.Providers))
			for _, p := range out.Providers {
				rows = append(rows, []string{p.Name, p.Driver, strings.Join(settingKeys(p), ","), p.CreatedAt.Format("2006-01-02 15:04")})
			}
			return renderTable(cmd.OutOrStdout(), []string{"NAME", "DRIVER", "SETTINGS", "CREATED"}, rows)
		},
	}
}

func newCmdProviderShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a provider as JSON (secrets masked)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := buildProviderUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "provider.show", args[0])
			defer cancel()
			out, err := u.Get(ctx, &provider.GetInput{Name: args[0]})
			cleanup(err)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), maskProvider(out.Provider))
		},
	}
}

func newCmdProviderDelete() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a provider that nothing refers to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			u, err := buildProviderUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "provider.delete", args[0])
			defer cancel()
			defer func() { cleanup(err) }()
			if _, err = u.Delete(ctx, &provider.DeleteInput{Name: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted provider %s\n", args[0])
			return nil
		},
	}
}

func settingKeys(p *model.Provider) []string {
	return slices.Sorted(maps.Keys(p.Settings))
}

// maskProvider returns a copy of p with secret-looking settings replaced.
func maskProvider(p *model.Provider) *model.Provider {
	cp := *p
	cp.Settings = maps.Clone(p.Settings)
	for k, v := range cp.Settings {
		lk := strings.ToLower(k)
		if v != "" && (strings.Contains(lk, "token") || strings.Contains(lk, "secret") || strings.Contains(lk, "password")) {
			cp.Settings[k] = "********"
		}
	}
	return &cp
}
