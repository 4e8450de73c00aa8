package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nfarrow/appliancelink/internal/airtreat"
	"github.com/nfarrow/appliancelink/internal/cache"
	"github.com/nfarrow/appliancelink/internal/message"
	"github.com/nfarrow/appliancelink/internal/transport"
	"github.com/nfarrow/appliancelink/internal/vacuum"
)

// requestCurrentState is the wire command asking the appliance to
// publish a full CURRENT-STATE.
const requestCurrentState = "REQUEST-CURRENT-STATE"

// Logger is the logging interface used by sessions.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Session.
type Options struct {
	// Serial is the appliance serial number.
	Serial string

	// RootTopic is the per-model topic namespace segment.
	RootTopic string

	// Family selects the message vocabulary and state updater.
	Family message.Family

	// Transport is the broker connection. The session owns it from
	// construction onwards.
	Transport transport.Transport

	// Snapshots persists the status snapshot across restarts. Optional.
	Snapshots *cache.SnapshotStore

	// Components are optional capability providers, checked by
	// interface assertion (e.g. vacuum.ZoneCapability).
	Components []any

	// Logger for session diagnostics. Optional.
	Logger Logger
}

// Session is one logical device connection: transport, reconnect loop,
// subscriptions, message pipeline, reachability tracking, the status
// snapshot, and (for vacuums) the command state machine.
//
// A Session is built with New, driven by Run, and ended with Stop.
// All exported methods are safe for concurrent use.
type Session struct {
	serial string
	family message.Family

	transport transport.Transport
	pipeline  *message.Pipeline
	subs      *subscriptions
	reach     *reachability
	conn      *connManager
	commander *vacuum.Commander
	snapshots *cache.SnapshotStore
	bus       *eventBus
	logger    Logger

	mu            sync.Mutex
	status        map[string]any
	state         MQTTState
	cacheRestored bool
	initialised   chan struct{}

	stopOnce sync.Once
}

// New builds a session for one device. The transport is not connected
// yet; Run does that. If a snapshot store is configured, a previously
// persisted snapshot is restored here so consumers can read cached
// status before the appliance is reached.
//
// Parameters:
//   - ctx: bounds the snapshot restore.
//   - opts: session configuration; Serial, RootTopic, Family and
//     Transport are required.
//
// Returns:
//   - *Session: ready for Run.
//   - error: on invalid options or schema registry failure.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Serial == "" {
		return nil, errors.New("session: serial is required")
	}
	if opts.RootTopic == "" {
		return nil, errors.New("session: root topic is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("session: transport is required")
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	registry, err := message.NewRegistry(opts.Family)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	subs := newSubscriptions(opts.RootTopic, opts.Serial)

	s := &Session{
		serial:      opts.Serial,
		family:      opts.Family,
		transport:   opts.Transport,
		pipeline:    message.NewPipeline(registry, subs.CommandTopic(), opts.Logger),
		subs:        subs,
		snapshots:   opts.Snapshots,
		bus:         newEventBus(opts.Serial),
		logger:      opts.Logger,
		status:      make(map[string]any),
		state:       MQTTStarting,
		initialised: make(chan struct{}),
	}

	s.conn = newConnManager(opts.Transport, opts.Logger)
	s.reach = newReachability(func(reachable bool) {
		s.logger.Info("reachability changed", "serial", s.serial, "reachable", reachable)
		s.publishStatusEvent()
	})

	if opts.Family == message.FamilyVacuum {
		s.commander = vacuum.NewCommander(s)
		for _, c := range opts.Components {
			if zc, ok := c.(vacuum.ZoneCapability); ok {
				s.commander.SetZoneCapable(zc.ZoneCleaningSupported())
			}
		}
	}

	s.restoreSnapshot(ctx)

	opts.Transport.SetHandlers(transport.Handlers{
		OnConnect: s.handleConnect,
		OnClose:   s.handleClose,
		OnMessage: s.handleMessage,
	})

	return s, nil
}

// restoreSnapshot loads a cached snapshot, if any. A restore failure is
// a log line, not a construction failure.
func (s *Session) restoreSnapshot(ctx context.Context) {
	if s.snapshots == nil {
		return
	}

	snapshot, err := s.snapshots.Restore(ctx, s.serial)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("snapshot restore failed", "serial", s.serial, "error", err)
		}
		return
	}

	s.mu.Lock()
	s.status = snapshot
	s.state = MQTTStartingWithCache
	s.cacheRestored = true
	s.mu.Unlock()

	s.logger.Info("snapshot restored from cache", "serial", s.serial, "fields", len(snapshot))

	if s.commander != nil {
		if st, ok := vacuum.StateOf(snapshot); ok {
			s.commander.Observe(st)
		}
	}
}

// Run drives the connection until ctx is cancelled. It blocks; the
// daemon runs one Run goroutine per session. Connection failures are
// retried with backoff indefinitely.
//
// Returns:
//   - error: ctx.Err() once the loop stops.
func (s *Session) Run(ctx context.Context) error {
	return s.conn.Run(ctx)
}

// Serial returns the device serial number.
func (s *Session) Serial() string {
	return s.serial
}

// ConnState returns the connection manager's state.
func (s *Session) ConnState() ConnState {
	return s.conn.State()
}

// Reachable reports whether the appliance is currently reachable.
func (s *Session) Reachable() bool {
	return s.reach.Reachable()
}

// Events returns a channel of session Events for the given kinds
// (EventStatus, EventMessage, EventSubscribed, EventError). Release it
// with Unsubscribe. Slow consumers miss events rather than stalling
// the session.
func (s *Session) Events(kinds ...string) chan any {
	return s.bus.subscribe(kinds...)
}

// Unsubscribe releases an Events channel.
func (s *Session) Unsubscribe(ch chan any, kinds ...string) {
	s.bus.unsubscribe(ch, kinds...)
}

// Publish sends a command to the appliance's command topic.
//
// The wire envelope is the command's type tag plus parameters plus an
// ISO-8601 timestamp. Satisfies vacuum.Publisher.
//
// Parameters:
//   - msgType: wire type tag, e.g. "START".
//   - params: command parameters; may be nil.
//
// Returns:
//   - error: ErrStopped after Stop, or the transport publish error.
func (s *Session) Publish(msgType string, params map[string]any) error {
	s.mu.Lock()
	if s.state == MQTTStopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.mu.Unlock()

	envelope := make(map[string]any, len(params)+2)
	for k, v := range params {
		envelope[k] = v
	}
	envelope["type"] = msgType
	envelope["time"] = time.Now().UTC().Format(time.RFC3339)

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal command %s: %w", msgType, err)
	}

	return s.transport.Publish(context.Background(), s.subs.CommandTopic(), payload)
}

// SetTarget requests a vacuum target (start, pause, go home, ...).
// Fails with ErrCommandsUnsupported for families without a command
// state machine.
func (s *Session) SetTarget(ctx context.Context, target vacuum.Target) error {
	if s.commander == nil {
		return fmt.Errorf("%w: %s", ErrCommandsUnsupported, s.family)
	}
	return s.commander.SetTarget(ctx, target)
}

// Stop ends the session: persists the snapshot (only when the session
// reached initialised, so a cache of stale or empty status is never
// written), stops the reachability timers and shuts the event bus down.
// Idempotent. The connection itself stops when Run's ctx is cancelled.
func (s *Session) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		persist := s.state == MQTTInitialised && s.snapshots != nil
		snapshot := deepCopyMap(s.status)
		s.state = MQTTStopped
		s.mu.Unlock()

		if persist {
			if err := s.snapshots.Store(ctx, s.serial, snapshot); err != nil {
				s.logger.Warn("snapshot store failed", "serial", s.serial, "error", err)
			} else {
				s.logger.Info("snapshot persisted", "serial", s.serial, "fields", len(snapshot))
			}
		}

		s.reach.Stop()
		s.bus.shutdown()
	})
}

// ============================================================
// Transport callbacks
// ============================================================

func (s *Session) handleConnect() {
	// Subscribes run off the callback goroutine; paho delivers no
	// messages until its connect callback returns.
	go func() {
		ctx := context.Background()

		if err := s.subs.SubscribeAll(ctx, s.transport); err != nil {
			s.logger.Error("subscription setup failed", "serial", s.serial, "error", err)
			s.bus.publish(EventError, Event{Err: err})
			// The connection is up but useless; force a reconnect cycle.
			s.conn.notifyClose(fmt.Errorf("subscription setup: %w", err))
			return
		}

		s.logger.Info("session subscribed", "serial", s.serial)
		s.reach.SignalUp(signalTransport)
		s.bus.publish(EventSubscribed, Event{})

		if err := s.Publish(requestCurrentState, nil); err != nil {
			s.logger.Warn("current-state request failed", "serial", s.serial, "error", err)
		}
	}()
}

func (s *Session) handleClose(err error) {
	s.reach.SignalDown(signalTransport)
	s.conn.notifyClose(err)
	s.bus.publish(EventError, Event{Err: err})
}

func (s *Session) handleMessage(topic string, payload []byte) {
	class := s.subs.CheckTopic(topic)

	switch class {
	case TopicUnknown:
		s.logger.Warn("message on unknown topic", "serial", s.serial, "topic", topic)
		return
	case TopicOther:
		s.logger.Debug("message on non-subscribed topic", "serial", s.serial, "topic", topic)
		return
	}

	msg, err := s.pipeline.Process(topic, payload)
	if err != nil {
		if errors.Is(err, message.ErrDuplicate) {
			return
		}
		s.logger.Warn("message rejected", "serial", s.serial, "error", err)
		s.bus.publish(EventError, Event{Err: err})
		return
	}

	s.bus.publish(EventMessage, Event{Message: msg})

	// Command echoes are broadcast for observers but never merged into
	// the status snapshot.
	if class == TopicCommand {
		return
	}

	s.handleProtocol(msg)
}

// handleProtocol routes a validated status-topic message.
func (s *Session) handleProtocol(msg *message.Message) {
	switch {
	case strings.HasSuffix(msg.Name, "GoneAway"), strings.HasSuffix(msg.Name, "Goodbye"):
		// Deliberate farewells still ride the debounce: firmware
		// updates announce departure and are back within seconds.
		s.logger.Info("appliance announced departure", "serial", s.serial, "type", msg.WireType)
		s.reach.SignalDown(signalProtocol)

	case strings.HasSuffix(msg.Name, "Hello"):
		s.reach.SignalUp(signalProtocol)
		if err := s.Publish(requestCurrentState, nil); err != nil {
			s.logger.Warn("current-state request failed", "serial", s.serial, "error", err)
		}

	default:
		s.reach.SignalUp(signalProtocol)
		s.applyStatus(msg)
	}
}

// applyStatus folds a status message into the snapshot and handles the
// starting → initialised transition.
func (s *Session) applyStatus(msg *message.Message) {
	s.mu.Lock()

	var changed bool
	switch s.family {
	case message.FamilyVacuum:
		changed = vacuum.ApplyStatus(s.status, msg)
	case message.FamilyAirTreatment:
		changed = airtreat.ApplyStatus(s.status, msg)
	}

	becameInitialised := false
	if strings.HasSuffix(msg.Name, "CurrentState") &&
		(s.state == MQTTStarting || s.state == MQTTStartingWithCache) {
		s.state = MQTTInitialised
		becameInitialised = true
		close(s.initialised)
	}

	var observed vacuum.State
	var observe bool
	if s.commander != nil {
		observed, observe = vacuum.StateOf(s.status)
	}
	s.mu.Unlock()

	if observe {
		s.commander.Observe(observed)
	}
	if becameInitialised {
		s.logger.Info("session initialised", "serial", s.serial)
	}
	if changed || becameInitialised {
		s.publishStatusEvent()
	}
}

func (s *Session) publishStatusEvent() {
	s.bus.publish(EventStatus, Event{Status: s.Status()})
}
