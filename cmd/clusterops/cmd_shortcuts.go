package main

import (
	"github.com/spf13/cobra"
)

// newShortcutCmds returns the top-level controller shortcuts.
func newShortcutCmds() []*cobra.Command {
	var purge bool
	terminate := &cobra.Command{
		Use:   "terminate CONTROLLER",
		Short: "Terminate a controller and its workers (same as controller terminate)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runControllerTerminate(cmd, args[0], purge)
		},
	}
	terminate.Flags().BoolVar(&purge, "purge", false, "Delete the records of instances whose termination succeeded")

	return []*cobra.Command{
		{
			Use:   "ssh CONTROLLER",
			Short: "Open a shell on a running controller (same as controller ssh)",
			Args:  cobra.ExactArgs(1),
			RunE:  runControllerSSH,
		},
		{
			Use:   "status [CONTROLLER]",
			Short: "Show live status of a controller and its workers, or of every instance",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 0 {
					return runInstancesList(cmd, true)
				}
				return runControllerStatus(cmd, args)
			},
		},
		{
			Use:   "start CONTROLLER",
			Short: "Start a controller (same as controller start)",
			Args:  cobra.ExactArgs(1),
			RunE:  runControllerStart,
		},
		{
			Use:   "stop CONTROLLER",
			Short: "Stop a controller and its workers (same as controller stop)",
			Long:  controllerStopLong,
			Args:  cobra.ExactArgs(1),
			RunE:  runControllerStop,
		},
		terminate,
	}
}
