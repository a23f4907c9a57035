// Package terminal handles local terminal state for interactive remote shells.
package terminal

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/term"
)

// Size is a terminal size in character cells.
type Size struct {
	Width  int
	Height int
}

// sizePollInterval bounds how late a missed resize is noticed.
const sizePollInterval = 2 * time.Second

// SetupTTYIfRequested sets the local terminal to raw mode and starts a goroutine
// publishing terminal size changes, if tty is true. It returns a restore function
// (no-op if not applied) and the size channel (nil if tty is false). The channel
// is closed when ctx is done.
func SetupTTYIfRequested(ctx context.Context, tty bool) (restore func(), sizes <-chan Size) {
	restore = func() {}
	if !tty {
		return restore, nil
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		if oldState, terr := term.MakeRaw(fd); terr == nil {
			restore = func() { _ = term.Restore(fd, oldState) }
		}
	}
	return restore, watchSize(ctx, func() (Size, bool) {
		w, h, err := term.GetSize(int(os.Stdout.Fd()))
		return Size{Width: w, Height: h}, err == nil
	})
}

// watchSize publishes the current size and then every change, checking on
// resize signals and on a timer.
func watchSize(ctx context.Context, get func() (Size, bool)) <-chan Size {
	ch := make(chan Size, 1)
	var last Size
	publish := func() {
		s, ok := get()
		if !ok || s == last {
			return
		}
		select {
		case ch <- s:
			last = s
		default:
		}
	}
	publish()

	sigch := make(chan os.Signal, 1)
	if sigs := resizeSignals(); len(sigs) > 0 {
		signal.Notify(sigch, sigs...)
	}
	go func() {
		defer close(ch)
		defer signal.Stop(sigch)
		ticker := time.NewTicker(sizePollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigch:
				publish()
			case <-ticker.C:
				publish()
			}
		}
	}()
	return ch
}

// CurrentSize returns the size of the terminal attached to stdout, or 80x24.
func CurrentSize() Size {
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return Size{Width: w, Height: h}
	}
	return Size{Width: 80, Height: 24}
}

// IsTerminal reports whether stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ParseEscapeSequence converts strings like "^]", "^P^Q", or "~." into byte slices.
func ParseEscapeSequence(s string) []byte {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	out := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '^' && i+1 < len(s) {
			x := s[i+1]
			if x == '^' {
				out = append(out, '^')
				i += 2
				continue
			}
			u := byte(x & 31)
			if x == '?' { // DEL
				u = 0x7f
			}
			out = append(out, u)
			i += 2
			continue
		}
		if c == '~' && i+1 < len(s) && s[i+1] == '.' {
			out = append(out, '~', '.')
			i += 2
			continue
		}
		out = append(out, c)
		i++
	}
	return out
}

// WrapStdinWithEscape wraps stdin to intercept a configured escape sequence.
// When the sequence is read, the returned context is canceled and the returned
// reader reaches EOF. Bytes of a partial match are passed through once the match
// breaks. If escape is empty or "none", stdin is returned as is.
func WrapStdinWithEscape(ctx context.Context, stdin io.Reader, escape string) (context.Context, io.Reader, func()) {
	noop := func() {}
	if escape == "" || escape == "none" {
		return ctx, stdin, noop
	}
	escBytes := ParseEscapeSequence(escape)
	if len(escBytes) == 0 {
		return ctx, stdin, noop
	}
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		buf := make([]byte, 1)
		matchIdx := 0
		for {
			n, err := stdin.Read(buf)
			if n > 0 {
				b := buf[0]
				if b == escBytes[matchIdx] {
					matchIdx++
					if matchIdx == len(escBytes) {
						cancel()
						return
					}
					continue
				}
				if matchIdx > 0 {
					if _, werr := pw.Write(escBytes[:matchIdx]); werr != nil {
						return
					}
					matchIdx = 0
				}
				if _, werr := pw.Write([]byte{b}); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	cleanup := func() {
		_ = pr.Close()
		cancel()
	}
	return ctx, pr, cleanup
}
