package schedule

import (
	"context"
	"testing"
	"time"

	logx "primecast/pkg/logx"
)

func TestNextAfter(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 26, 8, 30, 0, 0, time.UTC)
	next, err := NextAfter("0 9 * * *", now)
	if err != nil {
		t.Fatalf("NextAfter: %v", err)
	}
	want := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextAfterInvalidSpec(t *testing.T) {
	t.Parallel()
	if _, err := NextAfter("not-a-spec", time.Now()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestWaitEmptySpecReturnsImmediately(t *testing.T) {
	t.Parallel()
	start := time.Now()
	if err := Wait(context.Background(), "  ", logx.Nop()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("empty spec must not block")
	}
}

func TestWaitCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		// yearly spec: the fire time is far out, cancel always beats it
		done <- Wait(ctx, "0 0 1 1 *", logx.Nop())
	}()
	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("cancelled wait must return ctx error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not honor cancellation")
	}
}
