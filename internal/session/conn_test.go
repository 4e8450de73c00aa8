package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nfarrow/appliancelink/internal/transport"
)

// ============================================================
// Backoff Progression
// ============================================================

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{1 * time.Second, 2 * time.Second},
		{2 * time.Second, 4 * time.Second},
		{4 * time.Second, 8 * time.Second},
		{32 * time.Second, 60 * time.Second},
		{60 * time.Second, 60 * time.Second},
	}

	for _, tt := range tests {
		if got := nextBackoff(tt.in); got != tt.want {
			t.Errorf("nextBackoff(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBackoffSequenceFromFloor(t *testing.T) {
	want := []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 32 * time.Second, 60 * time.Second, 60 * time.Second,
	}

	wait := backoffFloor
	for i, w := range want {
		if wait != w {
			t.Fatalf("attempt %d wait = %v, want %v", i, wait, w)
		}
		wait = nextBackoff(wait)
	}
}

func TestAfterCloseResetsAfterStableUptime(t *testing.T) {
	m := newConnManager(transport.NewReplayFromEntries(nil, nil), noopLogger{})

	tests := []struct {
		name      string
		wait      time.Duration
		uptime    time.Duration
		wantSleep time.Duration
		wantNext  time.Duration
	}{
		{
			name:      "stable connection resets to the floor",
			wait:      32 * time.Second,
			uptime:    stableUptime + time.Second,
			wantSleep: backoffFloor,
			wantNext:  backoffFloor,
		},
		{
			name:      "exactly the threshold counts as stable",
			wait:      8 * time.Second,
			uptime:    stableUptime,
			wantSleep: backoffFloor,
			wantNext:  backoffFloor,
		},
		{
			name:      "flapping connection keeps doubling",
			wait:      2 * time.Second,
			uptime:    stableUptime - time.Second,
			wantSleep: 2 * time.Second,
			wantNext:  4 * time.Second,
		},
		{
			name:      "flapping at the ceiling stays at the ceiling",
			wait:      60 * time.Second,
			uptime:    time.Second,
			wantSleep: 60 * time.Second,
			wantNext:  60 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleep, next := m.afterClose(tt.wait, tt.uptime)
			if sleep != tt.wantSleep {
				t.Errorf("afterClose(%v, %v) sleep = %v, want %v", tt.wait, tt.uptime, sleep, tt.wantSleep)
			}
			if next != tt.wantNext {
				t.Errorf("afterClose(%v, %v) next = %v, want %v", tt.wait, tt.uptime, next, tt.wantNext)
			}
		})
	}

	// Shortening the threshold moves the reset point with it.
	m.stableUptime = 20 * time.Millisecond
	sleep, next := m.afterClose(32*time.Second, 30*time.Millisecond)
	if sleep != backoffFloor || next != backoffFloor {
		t.Errorf("afterClose with shortened threshold = (%v, %v), want (%v, %v)",
			sleep, next, backoffFloor, backoffFloor)
	}
}

// ============================================================
// Run Lifecycle
// ============================================================

func TestConnManagerStopsOnCancel(t *testing.T) {
	tr := transport.NewReplayFromEntries(nil, nil)
	m := newConnManager(tr, noopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	waitForState(t, m, ConnConnected)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if got := m.State(); got != ConnStopped {
		t.Errorf("State() = %v, want %v after cancel", got, ConnStopped)
	}
}

func TestConnManagerReconnectsAfterClose(t *testing.T) {
	tr := transport.NewReplayFromEntries(nil, nil)
	m := newConnManager(tr, noopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitForState(t, m, ConnConnected)

	// The replay transport must be closed before it accepts a new
	// Connect; a real broker drop closes the old connection too.
	_ = tr.Close(context.Background())
	m.notifyClose(errors.New("broker went away"))

	waitForState(t, m, ConnBackingOff)

	// An unstable connection backs off for the floor wait, then retries.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == ConnConnected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("State() = %v, want reconnected within backoff window", m.State())
}

func waitForState(t *testing.T, m *connManager, want ConnState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("State() = %v, never reached %v", m.State(), want)
}
