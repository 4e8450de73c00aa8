package session

import (
	"sync"
	"time"
)

// reachabilityDebounce is how long a down signal must persist before the
// device is considered unreachable. Brief broker hiccups and the gap
// between close and reconnect stay invisible to consumers.
const reachabilityDebounce = 5 * time.Second

// Reachability signal names. Each is tracked independently; the device
// is reachable only while no signal is down.
const (
	signalTransport = "transport"
	signalProtocol  = "protocolMessage"
)

// reachability tracks whether the appliance is reachable, debouncing
// down transitions per signal. An up signal cancels a pending down.
type reachability struct {
	onChange func(reachable bool)
	debounce time.Duration

	mu     sync.Mutex
	down   map[string]bool
	timers map[string]*time.Timer
}

// newReachability creates a tracker. onChange fires on every effective
// transition (nil allowed); all signals start up.
func newReachability(onChange func(reachable bool)) *reachability {
	if onChange == nil {
		onChange = func(bool) {}
	}
	return &reachability{
		onChange: onChange,
		debounce: reachabilityDebounce,
		down:     make(map[string]bool),
		timers:   make(map[string]*time.Timer),
	}
}

// Reachable reports whether every signal is currently up.
func (r *reachability) Reachable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reachableLocked()
}

func (r *reachability) reachableLocked() bool {
	for _, d := range r.down {
		if d {
			return false
		}
	}
	return true
}

// SignalUp marks a signal healthy, cancelling any pending debounced
// down for it.
func (r *reachability) SignalUp(name string) {
	r.mu.Lock()

	if t, ok := r.timers[name]; ok {
		t.Stop()
		delete(r.timers, name)
	}

	wasReachable := r.reachableLocked()
	r.down[name] = false
	nowReachable := r.reachableLocked()
	r.mu.Unlock()

	if !wasReachable && nowReachable {
		r.onChange(true)
	}
}

// SignalDown schedules the signal to go down after the debounce window,
// unless an up arrives first. Repeated downs do not extend the window.
// Protocol farewells take this path too: a device that announces it is
// leaving and reconnects within the window never looked unreachable.
func (r *reachability) SignalDown(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.down[name] {
		return
	}
	if _, pending := r.timers[name]; pending {
		return
	}

	r.timers[name] = time.AfterFunc(r.debounce, func() {
		r.markDown(name)
	})
}

func (r *reachability) markDown(name string) {
	r.mu.Lock()

	delete(r.timers, name)
	if r.down[name] {
		r.mu.Unlock()
		return
	}

	wasReachable := r.reachableLocked()
	r.down[name] = true
	r.mu.Unlock()

	if wasReachable {
		r.onChange(false)
	}
}

// Stop cancels all pending debounce timers.
func (r *reachability) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, t := range r.timers {
		t.Stop()
		delete(r.timers, name)
	}
}
