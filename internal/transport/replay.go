package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// defaultReplayDelay is the inter-message delay when an entry does not
// specify one.
const defaultReplayDelay = 50 * time.Millisecond

// ReplayEntry is one recorded message in a replay log.
type ReplayEntry struct {
	// Topic the message was originally received on.
	Topic string `json:"topic"`

	// Payload is the raw message body.
	Payload json.RawMessage `json:"payload"`

	// DelayMs is how long to wait before delivering this entry.
	DelayMs int `json:"delay_ms,omitempty"`
}

// Replay is a Transport that replays a captured message log. It is used
// for tests and offline development; publishes are recorded and
// discarded.
type Replay struct {
	entries []ReplayEntry
	logger  Logger

	handlers   Handlers
	handlersMu sync.RWMutex

	subscribed map[string]bool
	published  []publishedMessage
	mu         sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// publishedMessage records a discarded publish for inspection in tests.
type publishedMessage struct {
	Topic   string
	Payload []byte
}

// NewReplay creates a replay transport from a JSON-lines log file.
//
// Each line holds one ReplayEntry. Blank lines and lines starting with
// '#' are skipped.
//
// Parameters:
//   - logPath: Path to the recorded message log
//   - logger: Logger for replay events (nil for no logging)
//
// Returns:
//   - *Replay: Transport ready for SetHandlers and Connect
//   - error: If the log cannot be read or parsed
func NewReplay(logPath string, logger Logger) (*Replay, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return nil, fmt.Errorf("opening replay log: %w", err)
	}
	defer f.Close()

	var entries []ReplayEntry
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var entry ReplayEntry
		if err := json.Unmarshal([]byte(text), &entry); err != nil {
			return nil, fmt.Errorf("parsing replay log line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading replay log: %w", err)
	}

	return NewReplayFromEntries(entries, logger), nil
}

// NewReplayFromEntries creates a replay transport from in-memory entries.
func NewReplayFromEntries(entries []ReplayEntry, logger Logger) *Replay {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Replay{
		entries:    entries,
		logger:     logger,
		subscribed: make(map[string]bool),
	}
}

// SetHandlers registers event callbacks. Must be called before Connect.
func (r *Replay) SetHandlers(h Handlers) {
	r.handlersMu.Lock()
	r.handlers = h
	r.handlersMu.Unlock()
}

func (r *Replay) getHandlers() Handlers {
	r.handlersMu.RLock()
	defer r.handlersMu.RUnlock()
	return r.handlers
}

// Connect starts the replay. The OnConnect handler fires synchronously,
// then entries are delivered on their recorded schedule to subscribed
// topics. When the log is exhausted the connection stays open silently.
func (r *Replay) Connect(ctx context.Context) error {
	replayCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		cancel()
		return fmt.Errorf("%w: already connected", ErrConnectionFailed)
	}
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	if h := r.getHandlers().OnConnect; h != nil {
		h()
	}

	go r.run(replayCtx)

	return nil
}

// run delivers log entries until the context is cancelled.
func (r *Replay) run(ctx context.Context) {
	defer close(r.done)

	for _, entry := range r.entries {
		delay := defaultReplayDelay
		if entry.DelayMs > 0 {
			delay = time.Duration(entry.DelayMs) * time.Millisecond
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if !r.isSubscribed(entry.Topic) {
			r.logger.Debug("replay entry skipped, topic not subscribed", "topic", entry.Topic)
			continue
		}

		if h := r.getHandlers().OnMessage; h != nil {
			h(entry.Topic, entry.Payload)
		}
	}
}

// isSubscribed reports whether a topic matches any active subscription.
func (r *Replay) isSubscribed(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for pattern := range r.subscribed {
		if topicMatches(pattern, topic) {
			return true
		}
	}
	return false
}

// Publish records and discards the payload.
func (r *Replay) Publish(_ context.Context, topic string, payload []byte) error {
	r.mu.Lock()
	r.published = append(r.published, publishedMessage{Topic: topic, Payload: payload})
	r.mu.Unlock()

	r.logger.Debug("replay publish discarded", "topic", topic, "bytes", len(payload))
	return nil
}

// Subscribe registers a topic pattern for delivery.
func (r *Replay) Subscribe(_ context.Context, topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic cannot be empty", ErrSubscribeFailed)
	}

	r.mu.Lock()
	r.subscribed[topic] = true
	r.mu.Unlock()
	return nil
}

// Close stops the replay. Safe to call multiple times.
func (r *Replay) Close(context.Context) error {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// Published returns the publishes recorded so far.
func (r *Replay) Published() []publishedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]publishedMessage, len(r.published))
	copy(out, r.published)
	return out
}

// topicMatches reports whether an MQTT topic matches a subscription
// pattern, honouring the + and # wildcards.
func topicMatches(pattern, topic string) bool {
	if pattern == topic {
		return true
	}

	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")

	for i, part := range patternParts {
		if part == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "+" && part != topicParts[i] {
			return false
		}
	}

	return len(patternParts) == len(topicParts)
}
