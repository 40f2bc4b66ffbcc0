package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	ticked := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "@every 1s", time.UTC, nil, func(now time.Time) {
			if now.Location() != time.UTC {
				t.Errorf("now in %v, want UTC", now.Location())
			}
			calls.Add(1)
			ticked <- struct{}{}
		})
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-ticked:
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d calls before timeout", calls.Load())
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if calls.Load() < 2 {
		t.Errorf("calls = %d, want >= 2", calls.Load())
	}
}

func TestRunBadSpec(t *testing.T) {
	called := false
	err := Run(context.Background(), "not a schedule", time.UTC, nil, func(time.Time) { called = true })
	if err == nil {
		t.Fatal("expected an error")
	}
	if called {
		t.Error("fn must not run for an invalid spec")
	}
}

func TestRunUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2017, time.January, 18, 12, 0, 0, 0, time.UTC)
	jst := time.FixedZone("JST", 9*60*60)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got []time.Time
	err := Run(ctx, "@daily", jst, func() time.Time { return fixed }, func(now time.Time) {
		got = append(got, now)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("calls = %d, want 1", len(got))
	}
	if !got[0].Equal(fixed) || got[0].Location() != jst {
		t.Errorf("now = %v, want %v in JST", got[0], fixed)
	}
}
