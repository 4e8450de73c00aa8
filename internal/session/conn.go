package session

import (
	"context"
	"sync"
	"time"

	"github.com/nfarrow/appliancelink/internal/transport"
)

// Backoff constants.
const (
	// backoffFloor is the first (and minimum) wait between attempts.
	backoffFloor = 1 * time.Second

	// backoffCeiling caps the wait between attempts.
	backoffCeiling = 60 * time.Second

	// stableUptime is the connected duration after which the next
	// backoff wait resets to the floor.
	stableUptime = 10 * time.Second

	// closeQuiesceTimeout bounds the graceful transport close on stop.
	closeQuiesceTimeout = 5 * time.Second
)

// ConnState is the connection manager's externally visible state.
type ConnState string

const (
	ConnIdle       ConnState = "idle"
	ConnConnecting ConnState = "connecting"
	ConnConnected  ConnState = "connected"
	ConnBackingOff ConnState = "backing-off"
	ConnStopped    ConnState = "stopped"
)

// connManager owns the reconnect loop for one transport. The transport
// itself never retries; every reconnect decision is made here, driven
// by close notifications fed in via notifyClose.
type connManager struct {
	transport transport.Transport
	logger    Logger

	// stableUptime is the connected duration after which the next wait
	// resets to the floor. Defaults to the package constant.
	stableUptime time.Duration

	closeCh chan error

	mu    sync.Mutex
	state ConnState
}

func newConnManager(tr transport.Transport, logger Logger) *connManager {
	return &connManager{
		transport:    tr,
		logger:       logger,
		stableUptime: stableUptime,
		closeCh:      make(chan error, 4),
		state:        ConnIdle,
	}
}

// notifyClose records an unexpected connection loss. Safe to call from
// transport callbacks; never blocks.
func (m *connManager) notifyClose(err error) {
	select {
	case m.closeCh <- err:
	default:
	}
}

// State returns the current connection state.
func (m *connManager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *connManager) setState(s ConnState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Run drives the connect/monitor/backoff loop until ctx is cancelled.
// Connect failures and connection losses are logged, never returned;
// only cancellation ends the loop.
//
// Returns:
//   - error: ctx.Err() once the loop stops.
func (m *connManager) Run(ctx context.Context) error {
	wait := backoffFloor

	for {
		// Stale close notifications from a previous connection must not
		// be mistaken for a loss of the next one.
		m.drainCloses()

		m.setState(ConnConnecting)
		if err := m.transport.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				m.setState(ConnStopped)
				return ctx.Err()
			}

			m.logger.Warn("connect attempt failed",
				"error", err,
				"retry_in", wait.String())

			m.setState(ConnBackingOff)
			if !m.sleep(ctx, wait) {
				m.setState(ConnStopped)
				return ctx.Err()
			}
			wait = nextBackoff(wait)
			continue
		}

		m.setState(ConnConnected)
		connectedAt := time.Now()

		select {
		case err := <-m.closeCh:
			uptime := time.Since(connectedAt)
			sleepWait, nextWait := m.afterClose(wait, uptime)

			m.logger.Warn("connection lost",
				"error", err,
				"uptime", uptime.Round(time.Millisecond).String(),
				"retry_in", sleepWait.String())

			m.setState(ConnBackingOff)
			if !m.sleep(ctx, sleepWait) {
				m.setState(ConnStopped)
				return ctx.Err()
			}
			wait = nextWait

		case <-ctx.Done():
			closeCtx, cancel := context.WithTimeout(context.Background(), closeQuiesceTimeout)
			if err := m.transport.Close(closeCtx); err != nil {
				m.logger.Warn("transport close failed", "error", err)
			}
			cancel()
			m.setState(ConnStopped)
			return ctx.Err()
		}
	}
}

// afterClose decides the waits around a lost connection: the wait to
// sleep before the reconnect attempt, and the wait primed for the
// attempt after that. A connection that held for stableUptime resets
// both to the floor; a short-lived one keeps the current wait and
// doubles it for the next loss.
//
// Parameters:
//   - wait: the current backoff wait.
//   - uptime: how long the lost connection was up.
//
// Returns:
//   - time.Duration: the wait to sleep now.
//   - time.Duration: the wait for the next loss.
func (m *connManager) afterClose(wait, uptime time.Duration) (time.Duration, time.Duration) {
	if uptime >= m.stableUptime {
		return backoffFloor, backoffFloor
	}
	return wait, nextBackoff(wait)
}

// sleep waits for d or until ctx is cancelled. Returns false on
// cancellation.
func (m *connManager) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *connManager) drainCloses() {
	for {
		select {
		case <-m.closeCh:
		default:
			return
		}
	}
}

// nextBackoff doubles the wait up to the ceiling.
func nextBackoff(wait time.Duration) time.Duration {
	wait *= 2
	if wait > backoffCeiling {
		wait = backoffCeiling
	}
	return wait
}
