package sshdeploy

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/terminal"
)

// Shell implements model.ShellPort. When stdin is a terminal a PTY is
// requested, the local terminal is put into raw mode and size changes are
// forwarded. Typing the configured escape sequence closes the session.
func (d *Deployer) Shell(ctx context.Context, provider *model.Provider, host string) error {
	client, err := d.connect(ctx, provider, host)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create SSH session on %s: %w", host, err)
	}
	defer func() { _ = session.Close() }()

	tty := d.stdin == os.Stdin && terminal.IsTerminal()
	if tty {
		size := terminal.CurrentSize()
		termName := os.Getenv("TERM")
		if termName == "" {
			termName = defaultShellTerm
		}
		modes := ssh.TerminalModes{ssh.ECHO: 1, ssh.TTY_OP_ISPEED: 14400, ssh.TTY_OP_OSPEED: 14400}
		if err := session.RequestPty(termName, size.Height, size.Width, modes); err != nil {
			return fmt.Errorf("request pty: %w", err)
		}
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	escape := "none"
	if tty {
		escape = d.cfg.ShellEscape
	}
	ctx, stdin, cleanupStdin := terminal.WrapStdinWithEscape(ctx, d.stdin, escape)
	defer cleanupStdin()

	restore, sizes := terminal.SetupTTYIfRequested(ctx, tty)
	defer restore()
	if sizes != nil {
		go func() {
			for s := range sizes {
				_ = session.WindowChange(s.Height, s.Width)
			}
		}()
	}

	session.Stdin = stdin
	session.Stdout = d.stdout
	session.Stderr = d.stderr
	if err := session.Shell(); err != nil {
		return fmt.Errorf("start shell: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()
	select {
	case <-ctx.Done():
		_ = session.Close()
		return parent.Err()
	case err := <-done:
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("remote shell exited with status %d", exitErr.ExitStatus())
		}
		var missing *ssh.ExitMissingError
		if errors.As(err, &missing) {
			return nil
		}
		return err
	}
}
