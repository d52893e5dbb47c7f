package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		failUntil int // attempt index at which fn starts succeeding
		wantErr   bool
		wantCalls int
	}{
		{
			name:      "First attempt succeeds",
			policy:    Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
			failUntil: 0,
			wantErr:   false,
			wantCalls: 1,
		},
		{
			name:      "Succeeds on last attempt",
			policy:    Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
			failUntil: 2,
			wantErr:   false,
			wantCalls: 3,
		},
		{
			name:      "All attempts fail",
			policy:    Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
			failUntil: 5,
			wantErr:   true,
			wantCalls: 3,
		},
		{
			name:      "Zero attempts treated as one",
			policy:    Policy{MaxAttempts: 0, BaseDelay: time.Millisecond},
			failUntil: 0,
			wantErr:   false,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := tt.policy.Do(context.Background(), func() error {
				calls++
				if calls <= tt.failUntil {
					return errors.New("transient")
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("Do() calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestDoDelayCapped(t *testing.T) {
	p := Policy{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	start := time.Now()
	err := p.Do(context.Background(), func() error { return errors.New("always") })
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	// 1ms + 2ms + 2ms of capped delays; anything near a second means the
	// cap was ignored.
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("backoff not capped, took %v", elapsed)
	}
}

func TestDoContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}.Do(ctx, func() error {
		calls++
		return nil
	})
	if err == nil {
		t.Error("expected context error")
	}
	if calls != 0 {
		t.Errorf("fn called %d times after cancellation, want 0", calls)
	}
}

func TestDoStopsRetryingWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Policy{MaxAttempts: 5, BaseDelay: time.Minute}.Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if err == nil {
		t.Error("expected error")
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 (no sleep after cancellation)", calls)
	}
}
