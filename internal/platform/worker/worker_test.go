package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait = %v, want context.Canceled", err)
	}
}

func TestWaitZeroDuration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Zero duration returns immediately even with a canceled context.
	if err := Wait(ctx, 0); err != nil {
		t.Errorf("Wait(0) = %v, want nil", err)
	}
}

func TestWaitUntilPast(t *testing.T) {
	if err := WaitUntil(context.Background(), time.Now().Add(-time.Minute)); err != nil {
		t.Errorf("WaitUntil(past) = %v, want nil", err)
	}
}

func TestWaitElapses(t *testing.T) {
	start := time.Now()

	if err := Wait(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}

	if time.Since(start) < 10*time.Millisecond {
		t.Error("Wait returned before the duration elapsed")
	}
}
