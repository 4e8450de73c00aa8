package session

import (
	"sync"
	"testing"
	"time"
)

func TestReachabilityStartsReachable(t *testing.T) {
	r := newReachability(nil)
	defer r.Stop()

	if !r.Reachable() {
		t.Error("Reachable() = false at start, want true")
	}
}

func TestReachabilityDebouncedDownIsNotImmediate(t *testing.T) {
	r := newReachability(nil)
	defer r.Stop()

	r.SignalDown(signalTransport)

	// Still inside the debounce window.
	if !r.Reachable() {
		t.Error("Reachable() = false immediately after SignalDown, want true until debounce elapses")
	}
}

func TestReachabilityUpCancelsPendingDown(t *testing.T) {
	var mu sync.Mutex
	var transitions []bool
	r := newReachability(func(reachable bool) {
		mu.Lock()
		transitions = append(transitions, reachable)
		mu.Unlock()
	})
	defer r.Stop()

	r.SignalDown(signalTransport)
	r.SignalUp(signalTransport)

	// The debounce timer was cancelled; no transition may fire even
	// after the window would have elapsed. A short settle window keeps
	// the test honest without waiting out the full debounce.
	time.Sleep(50 * time.Millisecond)

	if !r.Reachable() {
		t.Error("Reachable() = false after up cancelled pending down, want true")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 0 {
		t.Errorf("transitions = %v, want none", transitions)
	}
}

// waitReachable polls until Reachable() reports want or the deadline
// passes. Transitions fire from a timer goroutine, so tests cannot
// observe them synchronously.
func waitReachable(t *testing.T, r *reachability, want bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.Reachable() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Reachable() never became %v", want)
}

func TestReachabilityDownAfterDebounceElapses(t *testing.T) {
	var mu sync.Mutex
	var transitions []bool
	r := newReachability(func(reachable bool) {
		mu.Lock()
		transitions = append(transitions, reachable)
		mu.Unlock()
	})
	r.debounce = 10 * time.Millisecond
	defer r.Stop()

	r.SignalDown(signalProtocol)
	waitReachable(t, r, false)

	mu.Lock()
	got := append([]bool(nil), transitions...)
	mu.Unlock()
	if len(got) != 1 || got[0] != false {
		t.Errorf("transitions = %v, want [false]", got)
	}
}

func TestReachabilityRequiresAllSignalsUp(t *testing.T) {
	r := newReachability(nil)
	r.debounce = 10 * time.Millisecond
	defer r.Stop()

	r.SignalDown(signalTransport)
	r.SignalDown(signalProtocol)
	waitReachable(t, r, false)

	r.SignalUp(signalTransport)
	if r.Reachable() {
		t.Error("Reachable() = true with protocol signal still down, want false")
	}

	r.SignalUp(signalProtocol)
	if !r.Reachable() {
		t.Error("Reachable() = false with all signals up, want true")
	}
}

func TestReachabilityRepeatedDownNotDoubled(t *testing.T) {
	var mu sync.Mutex
	count := 0
	r := newReachability(func(bool) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	r.debounce = 10 * time.Millisecond
	defer r.Stop()

	r.SignalDown(signalTransport)
	r.SignalDown(signalTransport)
	waitReachable(t, r, false)
	r.SignalDown(signalTransport)

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	got := count
	mu.Unlock()
	if got != 1 {
		t.Errorf("onChange fired %d times, want 1 for repeated downs", got)
	}
}
