package transport

import (
	"context"
	"time"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for a connection attempt.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgement.
	defaultPublishTimeout = 5 * time.Second

	// defaultSubscribeTimeout is the maximum time to wait for a subscription acknowledgement.
	defaultSubscribeTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for broker connections.
	defaultKeepAlive = 60 * time.Second
)

// Handlers holds the event callbacks a Transport invokes.
//
// OnClose fires on any unexpected connection loss; it does not fire for
// an explicit Close(). Reconnection is owned by the session's connection
// manager, never by the transport itself.
type Handlers struct {
	// OnConnect is invoked when a connection is established.
	OnConnect func()

	// OnClose is invoked when the connection is lost unexpectedly.
	OnClose func(err error)

	// OnMessage is invoked for every message received on a subscribed topic.
	// It is called from the transport's delivery goroutine; handlers must
	// not block for extended periods.
	OnMessage func(topic string, payload []byte)
}

// Transport is a point-to-point publish/subscribe connection to one
// broker endpoint.
//
// Implementations perform a single connection attempt per Connect call
// and never reconnect on their own. All implementations are safe for
// concurrent use after Connect returns.
type Transport interface {
	// SetHandlers registers event callbacks. Must be called before Connect.
	SetHandlers(h Handlers)

	// Connect establishes the connection. It returns once the connection
	// is up or the attempt fails; it never retries internally.
	Connect(ctx context.Context) error

	// Publish sends a payload to a topic (at-most-once delivery).
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers interest in a topic. Messages arrive via
	// Handlers.OnMessage. Subscriptions do not survive reconnection;
	// the subscription manager re-issues them on every connect.
	Subscribe(ctx context.Context, topic string) error

	// Close disconnects gracefully. Idempotent; does not trigger OnClose.
	Close(ctx context.Context) error
}

// CredentialSource supplies broker credentials at connect time.
//
// Cloud sessions use short-lived rotatable credentials; querying the
// source on every connection attempt means a rotated credential takes
// effect on the next reconnect without rebuilding the transport.
type CredentialSource interface {
	// BrokerCredentials returns the username and password for the next
	// connection attempt.
	BrokerCredentials(ctx context.Context) (username, password string, err error)
}

// StaticCredentials is a CredentialSource with fixed values, used for
// local broker sessions where the credential never rotates.
type StaticCredentials struct {
	Username string
	Password string
}

// BrokerCredentials returns the fixed credentials.
func (s StaticCredentials) BrokerCredentials(context.Context) (string, string, error) {
	return s.Username, s.Password, nil
}

// Logger is the logging interface used by transports.
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
