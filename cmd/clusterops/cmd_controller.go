package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaegashi/clusterops/usecase/controller"
)

type controllerSpec struct {
	Name     string `yaml:"name" json:"name"`
	Provider string `yaml:"provider" json:"provider"`
}

func newCmdController() *cobra.Command {
	return newGroupCmd("controller", "Manage controllers",
		newCmdControllerSetup(),
		newCmdControllerList(),
		newCmdControllerShow(),
		newCmdControllerDelete(),
		newCmdControllerStart(),
		newCmdControllerStop(),
		newCmdControllerTerminate(),
		newCmdControllerStatus(),
		newCmdControllerConnect(),
		newCmdControllerSSH(),
	)
}

func newCmdControllerSetup() *cobra.Command {
	var file, providerName string
	cmd := &cobra.Command{
		Use:   "setup [NAME]",
		Short: "Create or update a controller",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			spec := &controllerSpec{}
			if file != "" {
				if err := readSpecFile(cmd, file, spec); err != nil {
					return err
				}
			}
			name, err := nameArg(args, spec.Name)
			if err != nil {
				return err
			}
			if providerName == "" {
				providerName = spec.Provider
			}
			u, err := buildControllerUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "controller.setup", name)
			defer cancel()
			defer func() { cleanup(err) }()

			out, err := u.Setup(ctx, &controller.SetupInput{Name: name, Provider: providerName})
			if err != nil {
				return err
			}
			verb := "Updated"
			if out.Created {
				verb = "Created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s controller %s\n", verb, out.Controller.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to controller spec (YAML), or '-' for stdin")
	cmd.Flags().StringVar(&providerName, "provider", "", "Provider name (required on create)")
	return cmd
}

func newCmdControllerList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List controllers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := buildControllerUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "controller.list", "")
			defer cancel()
			out, err := u.List(ctx, &controller.ListInput{})
			cleanup(err)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(out.Items))
			for _, it := range out.Items {
				rows = append(rows, []string{it.Controller.Name, it.ProviderName, it.Controller.CreatedAt.Format("2006-01-02 15:04")})
			}
			return renderTable(cmd.OutOrStdout(), []string{"NAME", "PROVIDER", "CREATED"}, rows)
		},
	}
}

func newCmdControllerShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a controller as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := buildControllerUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "controller.show", args[0])
			defer cancel()
			out, err := u.Get(ctx, &controller.GetInput{Name: args[0]})
			cleanup(err)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out.Controller)
		},
	}
}

func newCmdControllerDelete() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a controller without worker groups or instance records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			u, err := buildControllerUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "controller.delete", args[0])
			defer cancel()
			defer func() { cleanup(err) }()
			if _, err = u.Delete(ctx, &controller.DeleteInput{Name: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted controller %s\n", args[0])
			return nil
		},
	}
}

func newCmdControllerStart() *cobra.Command {
	return &cobra.Command{
		Use:   "start NAME",
		Short: "Start or resume the controller instance and configure it",
		Args:  cobra.ExactArgs(1),
		RunE:  runControllerStart,
	}
}

func runControllerStart(cmd *cobra.Command, args []string) (err error) {
	u, err := buildControllerUseCase(cmd)
	if err != nil {
		return err
	}
	ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "controller.start", args[0])
	defer cancel()
	defer func() { cleanup(err) }()

	out, err := u.Start(ctx, &controller.StartInput{Name: args[0]})
	if err != nil {
		return err
	}
	switch {
	case out.AlreadyRunning:
		fmt.Fprintf(cmd.OutOrStdout(), "Controller %s is already running at %s\n", args[0], out.Address())
	case out.Resumed:
		fmt.Fprintf(cmd.OutOrStdout(), "Controller %s resumed at %s\n", args[0], out.Address())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Controller %s started at %s\n", args[0], out.Address())
	}
	return nil
}

const controllerStopLong = `Stop the running instances of a controller.

Workers depend on their controller, so the running workers of every worker
group attached to it are stopped as well. Stopped instances keep their
records and can be resumed with "controller start" and "worker start".`

func newCmdControllerStop() *cobra.Command {
	return &cobra.Command{
		Use:   "stop NAME",
		Short: "Stop the controller and the running workers attached to it",
		Long:  controllerStopLong,
		Args:  cobra.ExactArgs(1),
		RunE:  runControllerStop,
	}
}

func runControllerStop(cmd *cobra.Command, args []string) (err error) {
	u, err := buildControllerUseCase(cmd)
	if err != nil {
		return err
	}
	ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "controller.stop", args[0])
	defer cancel()
	defer func() { cleanup(err) }()

	out, err := u.Stop(ctx, &controller.StopInput{Name: args[0]})
	if out != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Stopping %d controller and %d worker instance(s)\n", len(out.Controller), len(out.Workers))
	}
	return err
}

func newCmdControllerTerminate() *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "terminate NAME",
		Short: "Terminate the controller and every worker attached to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runControllerTerminate(cmd, args[0], purge)
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "Delete the records of instances whose termination succeeded")
	return cmd
}

func runControllerTerminate(cmd *cobra.Command, name string, purge bool) (err error) {
	u, err := buildControllerUseCase(cmd)
	if err != nil {
		return err
	}
	ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "controller.terminate", name)
	defer cancel()
	defer func() { cleanup(err) }()

	out, err := u.Terminate(ctx, &controller.TerminateInput{Name: name, Purge: purge})
	if out != nil {
		var nc, nw, np int
		if out.Controller != nil {
			nc, np = len(out.Controller.Targets), len(out.Controller.Purged)
		}
		if out.Workers != nil {
			nw, np = len(out.Workers.Targets), np+len(out.Workers.Purged)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Terminating %d controller and %d worker instance(s)", nc, nw)
		if purge {
			fmt.Fprintf(cmd.OutOrStdout(), ", %d record(s) purged", np)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return err
}

func newCmdControllerStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status NAME",
		Short: "Show live status of the controller and its workers",
		Args:  cobra.ExactArgs(1),
		RunE:  runControllerStatus,
	}
}

func runControllerStatus(cmd *cobra.Command, args []string) error {
	u, err := buildControllerUseCase(cmd)
	if err != nil {
		return err
	}
	ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "controller.status", args[0])
	defer cancel()
	out, err := u.Status(ctx, &controller.StatusInput{Name: args[0]})
	cleanup(err)
	if err != nil {
		return err
	}
	return renderStatusRows(cmd.OutOrStdout(), out.Rows)
}

func newCmdControllerConnect() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "connect NAME",
		Short: "Fetch the client connection file from the running controller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			u, err := buildControllerUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "controller.connect", args[0])
			defer cancel()
			defer func() { cleanup(err) }()

			out, err := u.Connect(ctx, &controller.ConnectInput{Name: args[0]})
			if err != nil {
				return err
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(out.ClientConfig)
				return err
			}
			path := output
			if path == "" {
				path = filepath.Join(opsEnv.OpsDir, args[0]+"-client.json")
			}
			if err := os.WriteFile(path, out.ClientConfig, 0o600); err != nil {
				return fmt.Errorf("writing client config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Controller %s at %s; client config written to %s\n", args[0], out.Address, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path, or '-' for stdout (default $CLUSTEROPS_DIR/NAME-client.json)")
	return cmd
}

func newCmdControllerSSH() *cobra.Command {
	return &cobra.Command{
		Use:   "ssh NAME",
		Short: "Open a shell on the running controller",
		Args:  cobra.ExactArgs(1),
		RunE:  runControllerSSH,
	}
}

func runControllerSSH(cmd *cobra.Command, args []string) (err error) {
	u, err := buildControllerUseCase(cmd)
	if err != nil {
		return err
	}
	ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "controller.ssh", args[0])
	defer cancel()
	defer func() { cleanup(err) }()
	return u.SSH(ctx, &controller.SSHInput{Name: args[0]})
}
