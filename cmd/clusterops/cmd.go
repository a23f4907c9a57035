package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	// registryTimeout bounds commands that only touch the registry.
	registryTimeout = 30 * time.Second
	// operationTimeout bounds commands that call providers and remote hosts.
	operationTimeout = 2 * time.Hour
)

// newGroupCmd returns a parent command that only hosts subcommands.
func newGroupCmd(use, short string, subs ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:                use,
		Short:              short,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		Args:               cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(subs...)
	return cmd
}

// commandContext derives the command context with a deadline and starts the
// command span.
func commandContext(cmd *cobra.Command, timeout time.Duration, operation, resourceID string) (context.Context, context.CancelFunc, func(error)) {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	ctx, cleanup := withCmdRunLogger(ctx, operation, resourceID)
	return ctx, cancel, cleanup
}

// readSpecFile decodes a YAML spec from path, or from stdin when path is "-".
func readSpecFile(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// nameArg returns the single positional name, falling back to the spec name.
func nameArg(args []string, specName string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case specName != "":
		return specName, nil
	default:
		return "", fmt.Errorf("name is required")
	}
}
