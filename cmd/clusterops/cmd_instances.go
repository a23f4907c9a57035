package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaegashi/clusterops/usecase/instance"
)

func newCmdInstances() *cobra.Command {
	return newGroupCmd("instances", "Inspect and clean up instance records",
		newCmdInstancesList(),
		newCmdInstancesDelete(),
		newCmdInstancesClear(),
	)
}

func newCmdInstancesList() *cobra.Command {
	var live bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List instance records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstancesList(cmd, live)
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "Query each provider for the current status")
	return cmd
}

func runInstancesList(cmd *cobra.Command, live bool) error {
	u, err := buildInstanceUseCase(cmd)
	if err != nil {
		return err
	}
	timeout := registryTimeout
	if live {
		timeout = operationTimeout
	}
	ctx, cancel, cleanup := commandContext(cmd, timeout, "instances.list", "")
	defer cancel()
	out, err := u.List(ctx, &instance.ListInput{Live: live})
	cleanup(err)
	if err != nil {
		return err
	}
	return renderStatusRows(cmd.OutOrStdout(), out.Rows)
}

func newCmdInstancesDelete() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one instance record (the provider resource is not touched)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			u, err := buildInstanceUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, registryTimeout, "instances.delete", args[0])
			defer cancel()
			defer func() { cleanup(err) }()
			if _, err = u.Delete(ctx, &instance.DeleteInput{ID: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted instance record %s\n", args[0])
			return nil
		},
	}
}

func newCmdInstancesClear() *cobra.Command {
	var terminated bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete instance records (all, or only TERMINATED with --terminated)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			u, err := buildInstanceUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel, cleanup := commandContext(cmd, operationTimeout, "instances.clear", "")
			defer cancel()
			defer func() { cleanup(err) }()

			out, err := u.Clear(ctx, &instance.ClearInput{Terminated: terminated})
			if out != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d instance record(s)", len(out.Deleted))
				if out.Skipped > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), ", kept %d with unknown status", out.Skipped)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&terminated, "terminated", false, "Only delete records whose live status is TERMINATED")
	return cmd
}
