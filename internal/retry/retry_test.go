package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo(t *testing.T) {
	errTemp := errors.New("temporary")
	errPerm := errors.New("permanent")
	tests := []struct {
		name      string
		failFirst int
		fatal     bool
		retries   int
		wantCalls int
		wantErr   error
	}{
		{name: "immediate success", failFirst: 0, retries: 3, wantCalls: 1},
		{name: "success after retries", failFirst: 2, retries: 3, wantCalls: 3},
		{name: "budget exhausted", failFirst: 10, retries: 2, wantCalls: 3, wantErr: errTemp},
		{name: "fatal stops early", failFirst: 10, fatal: true, retries: 5, wantCalls: 1, wantErr: errPerm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			err := Do(context.Background(), func() error {
				calls++
				if calls <= tt.failFirst {
					if tt.fatal {
						return Fatal(errPerm)
					}
					return errTemp
				}
				return nil
			}, WithMaxRetries(tt.retries), WithInitialDelay(time.Millisecond), WithMaxDelay(2*time.Millisecond))
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, func() error { return errors.New("down") }, WithInitialDelay(time.Hour))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFatal_Nil(t *testing.T) {
	if Fatal(nil) != nil {
		t.Error("Fatal(nil) should be nil")
	}
	if IsFatal(errors.New("x")) {
		t.Error("plain error must not be fatal")
	}
}
