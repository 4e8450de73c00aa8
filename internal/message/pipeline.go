package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Logger is the logging interface used by the pipeline.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Pipeline turns raw transport payloads into validated Messages.
//
// Processing steps, in order:
//  1. Parse the payload as UTF-8 JSON (hard failure)
//  2. Normalize key names to camelCase, unless the message arrived on
//     the command-echo topic, which is passed through verbatim
//  3. Resolve the type tag against the family's schema registry
//  4. Validate required/typed fields (hard), then check for unexpected
//     extra fields (soft: warn and continue)
//  5. Suppress structural duplicates of the immediately preceding message
//
// All failures are scoped to the single offending message; the pipeline
// itself carries no error state.
type Pipeline struct {
	registry     *Registry
	dedup        *Dedup
	commandTopic string
	logger       Logger
}

// NewPipeline creates a pipeline for one session.
//
// Parameters:
//   - registry: Compiled schema registry for the device family
//   - commandTopic: The session's command topic (echoes skip normalization)
//   - logger: Logger for per-message diagnostics (nil for no logging)
func NewPipeline(registry *Registry, commandTopic string, logger Logger) *Pipeline {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Pipeline{
		registry:     registry,
		dedup:        NewDedup(),
		commandTopic: commandTopic,
		logger:       logger,
	}
}

// Process validates one raw payload.
//
// Parameters:
//   - topic: Topic the payload arrived on
//   - payload: Raw message bytes
//
// Returns:
//   - *Message: The validated message, nil on any error
//   - error: ErrMalformedPayload, ErrUnknownType, ErrSchemaViolation or
//     ErrDuplicate; all fatal for this message only
func (p *Pipeline) Process(topic string, payload []byte) (*Message, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w (payload %q)", ErrMalformedPayload, err, truncate(payload))
	}

	// The command-echo topic carries our own publishes back verbatim;
	// rewriting its keys would mask what was actually sent.
	fields := raw
	if topic != p.commandTopic {
		fields = NormalizeKeys(raw).(map[string]any)
	}

	wireType, ok := fields["type"].(string)
	if !ok || wireType == "" {
		return nil, fmt.Errorf("%w: missing type tag (payload %q)", ErrMalformedPayload, truncate(payload))
	}

	schema, err := p.registry.Lookup(wireType)
	if err != nil {
		return nil, err
	}

	if err := schema.lenient.Validate(fields); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaViolation, wireType, err)
	}
	if err := schema.strict.Validate(fields); err != nil {
		p.logger.Warn("message carries unexpected extra fields",
			"type", wireType,
			"topic", topic,
			"detail", err,
		)
	}

	msg := &Message{
		Name:     schema.name,
		WireType: wireType,
		Topic:    topic,
		Fields:   make(map[string]any, len(fields)),
	}
	for k, v := range fields {
		switch k {
		case "type":
		case "time":
			if ts, ok := v.(string); ok {
				if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
					msg.Time = t
				} else {
					p.logger.Warn("unparseable message timestamp", "type", wireType, "time", ts)
				}
			}
		default:
			msg.Fields[k] = v
		}
	}

	if p.dedup.Check(msg) {
		p.logger.Debug("duplicate message suppressed", "type", wireType, "topic", topic)
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, wireType)
	}

	return msg, nil
}

// maxLoggedPayload bounds payload excerpts in error messages.
const maxLoggedPayload = 256

// truncate returns a bounded string form of a payload for logging.
func truncate(payload []byte) string {
	if len(payload) > maxLoggedPayload {
		return string(payload[:maxLoggedPayload]) + "..."
	}
	return string(payload)
}
