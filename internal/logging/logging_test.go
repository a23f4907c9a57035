package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("json", slog.LevelInfo, &buf)
	if err != nil {
		t.Fatal(err)
	}
	l.With("op", "start").Info(context.Background(), "hello", "count", 2)
	out := buf.String()
	for _, want := range []string{`"msg":"hello"`, `"op":"start"`, `"count":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestNewWithWriter_Unsupported(t *testing.T) {
	if _, err := NewWithWriter("xml", slog.LevelInfo, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestContextCarrier(t *testing.T) {
	l := Discard()
	ctx := WithLogger(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("FromContext should return the stored logger")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("human", slog.LevelWarn, &buf)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	l.Infof(ctx, "skipped %d", 1)
	l.Warnf(ctx, "kept %d", 2)
	out := buf.String()
	if strings.Contains(out, "skipped") || !strings.Contains(out, "kept 2") {
		t.Errorf("unexpected output %q", out)
	}
}
