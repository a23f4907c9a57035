package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yaegashi/clusterops/usecase/lifecycle"
	"github.com/yaegashi/clusterops/usecase/workergroup"
)

type workerGroupSpec struct {
	Name         string `yaml:"name" json:"name"`
	Provider     string `yaml:"provider" json:"provider"`
	Controller   string `yaml:"controller" json:"controller"`
	DesiredCount *int   `yaml:"desiredCount" json:"desiredCount"`
}

func newCmdWorker() *cobra.Command {
	return newGroupCmd("worker", "Manage worker groups",
		newCmdWorkerSetup(),
		newCmdWorkerList(),
		newCmdWorkerShow(),
		newCmdWorkerDelete(),
		newCmdWorkerStart(),
		newCmdWorkerAdd(),
		newCmdWorkerStop(),
		newCmdWorkerTerminate(),
		newCmdWorkerStatus(),
	)
}

func newCmdWorkerSetup() *cobra.Command {
	var (
		file           string
		providerName   string
		controllerName string
		count          int
	)
	cmd := &cobra.Command{
		Use:   "setup [NAME]",
		Short: "Create or update a worker group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			spec := &workerGroupSpec{}
			if file != "" {
				if err := readSpecFile(cmd, file, spec); err != nil {
					return err
				}
			}
			name, err := nameArg(args, spec.Name)
			if err != nil {
				return err
			}
			in := &workergroup.SetupInput{
				Name:         name,
				Provider:     providerName,
				Controller:   controllerName,
				DesiredCount: spec.DesiredCount,
			}
			if in.Provider == "" {
				in.Provider = spec.Provider
			}
			if in.Controller == "" {
				in.Controller = spec.Controller
			}
			if cmd.Flags().Changed("count") {
				in.DesiredCount = &count
			}

			u, err := buildWorkerGroupUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "worker.setup", name)
			defer cancel()
			defer func() { cleanup(err) }()

			out, err := u.Setup(ctx, in)
			if err != nil {
				return err
			}
			verb := "Updated"
			if out.Created {
				verb = "Created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s worker group %s (desired %d)\n", verb, out.WorkerGroup.Name, out.WorkerGroup.DesiredCount)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to worker group spec (YAML), or '-' for stdin")
	cmd.Flags().StringVar(&providerName, "provider", "", "Provider name (required on create)")
	cmd.Flags().StringVar(&controllerName, "controller", "", "Controller name (required on create)")
	cmd.Flags().IntVar(&count, "count", workergroup.DefaultDesiredCount, "Desired number of running workers")
	return cmd
}

func newCmdWorkerList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List worker groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := buildWorkerGroupUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "worker.list", "")
			defer cancel()
			out, err := u.List(ctx, &workergroup.ListInput{})
			cleanup(err)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(out.Items))
			for _, it := range out.Items {
				rows = append(rows, []string{
					it.WorkerGroup.Name,
					it.ControllerName,
					it.ProviderName,
					strconv.Itoa(it.WorkerGroup.DesiredCount),
				})
			}
			return renderTable(cmd.OutOrStdout(), []string{"NAME", "CONTROLLER", "PROVIDER", "DESIRED"}, rows)
		},
	}
}

func newCmdWorkerShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a worker group as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := buildWorkerGroupUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "worker.show", args[0])
			defer cancel()
			out, err := u.Get(ctx, &workergroup.GetInput{Name: args[0]})
			cleanup(err)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out.WorkerGroup)
		},
	}
}

func newCmdWorkerDelete() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a worker group without instance records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			u, err := buildWorkerGroupUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "worker.delete", args[0])
			defer cancel()
			defer func() { cleanup(err) }()
			if _, err = u.Delete(ctx, &workergroup.DeleteInput{Name: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted worker group %s\n", args[0])
			return nil
		},
	}
}

func newCmdWorkerStart() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "start NAME",
		Short: "Bring the group to its desired count and attach new workers to the controller",
		Long: `Bring the group to its desired number of running workers.

Stopped workers are resumed first; only the remaining shortfall is started as
new instances. Every resumed or new worker is then configured in parallel and
attached to the running controller. Workers that were already running are left
alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			in := &workergroup.StartInput{Name: args[0]}
			if cmd.Flags().Changed("count") {
				in.Count = &count
			}
			u, err := buildWorkerGroupUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "worker.start", args[0])
			defer cancel()
			defer func() { cleanup(err) }()

			out, err := u.Start(ctx, in)
			if out != nil {
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Worker group %s: desired %d, already running %d, resumed %d, started %d\n",
					args[0], out.Desired, len(out.AlreadyRunning), len(out.Resumed), len(out.Started))
				printDeployed(w, out.Deployed)
			}
			return err
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Override the stored desired count for this run")
	return cmd
}

func newCmdWorkerAdd() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME COUNT",
		Short: "Start COUNT new workers regardless of the desired count",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[1], err)
			}
			u, err := buildWorkerGroupUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "worker.add", args[0])
			defer cancel()
			defer func() { cleanup(err) }()

			out, err := u.Add(ctx, &workergroup.AddInput{Name: args[0], Count: n})
			if out != nil {
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Worker group %s: started %d\n", args[0], len(out.Started))
				printDeployed(w, out.Deployed)
			}
			return err
		},
	}
}

func newCmdWorkerStop() *cobra.Command {
	return &cobra.Command{
		Use:   "stop NAME",
		Short: "Stop the running workers of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			u, err := buildWorkerGroupUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "worker.stop", args[0])
			defer cancel()
			defer func() { cleanup(err) }()

			out, err := u.Stop(ctx, &workergroup.StopInput{Name: args[0]})
			if out != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Stopping %d worker instance(s)\n", len(out.Stopped))
				if len(out.Stopped) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", instanceIPs(out.Stopped))
				}
			}
			return err
		},
	}
}

func newCmdWorkerTerminate() *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "terminate NAME",
		Short: "Terminate the running and stopped workers of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			u, err := buildWorkerGroupUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "worker.terminate", args[0])
			defer cancel()
			defer func() { cleanup(err) }()

			out, err := u.Terminate(ctx, &workergroup.TerminateInput{Name: args[0], Purge: purge})
			if out != nil && out.Result != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Terminating %d worker instance(s)", len(out.Result.Targets))
				if purge {
					fmt.Fprintf(cmd.OutOrStdout(), ", %d record(s) purged", len(out.Result.Purged))
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "Delete the records of instances whose termination succeeded")
	return cmd
}

func newCmdWorkerStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status NAME",
		Short: "Show live status of a group's workers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := buildWorkerGroupUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "worker.status", args[0])
			defer cancel()
			out, err := u.Status(ctx, &workergroup.StatusInput{Name: args[0]})
			cleanup(err)
			if err != nil {
				return err
			}
			return renderStatusRows(cmd.OutOrStdout(), out.Rows)
		},
	}
}

// printDeployed lists per-worker deployment outcomes.
func printDeployed(w io.Writer, results lifecycle.DeployResults) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "  %s  FAILED  %v\n", r.Instance.IPAddress, r.Err)
			continue
		}
		fmt.Fprintf(w, "  %s  deployed\n", r.Instance.IPAddress)
	}
}
