package terminal

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEscapeSequence(t *testing.T) {
	cases := []struct {
		in   string
		want []byte
	}{
		{"", nil},
		{"  ", nil},
		{"~.", []byte{'~', '.'}},
		{"^]", []byte{0x1d}},
		{"^P^Q", []byte{0x10, 0x11}},
		{"^^", []byte{'^'}},
		{"^?", []byte{0x7f}},
		{"ab", []byte{'a', 'b'}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseEscapeSequence(tc.in))
		})
	}
}

func TestWrapStdinWithEscapeNone(t *testing.T) {
	src := strings.NewReader("hello")
	ctx, r, cleanup := WrapStdinWithEscape(context.Background(), src, "none")
	defer cleanup()
	assert.Same(t, src, r)
	assert.NoError(t, ctx.Err())
}

func TestWrapStdinWithEscapeDetaches(t *testing.T) {
	ctx, r, cleanup := WrapStdinWithEscape(context.Background(), strings.NewReader("ab~x~.zz"), "~.")
	defer cleanup()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "ab~x", string(got))
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestWrapStdinWithEscapeEOF(t *testing.T) {
	ctx, r, cleanup := WrapStdinWithEscape(context.Background(), strings.NewReader("plain"), "^]")
	defer cleanup()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(got))
	assert.NoError(t, ctx.Err())
}

func TestWatchSizePublishesChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	sizes := watchSize(ctx, func() (Size, bool) {
		calls++
		return Size{Width: 120, Height: 40}, true
	})
	assert.Equal(t, Size{Width: 120, Height: 40}, <-sizes)
	cancel()
	for range sizes {
		t.Fatal("unchanged size must not be published twice")
	}
	assert.GreaterOrEqual(t, calls, 1)
}
