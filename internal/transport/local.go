package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// LocalOptions configures a connection to the broker embedded in the
// appliance itself.
type LocalOptions struct {
	// Host is the appliance's IP address or hostname.
	Host string

	// Port is the broker port (usually 1883).
	Port int

	// TLS enables an encrypted connection (newer firmware only).
	TLS bool

	// Serial is the appliance serial number, used as the MQTT username
	// and client ID.
	Serial string

	// Credential is the local broker password derived from the
	// appliance's credential sticker.
	Credential string
}

// Local is a Transport backed by the appliance's on-device MQTT broker.
type Local struct {
	pahoConn
}

// NewLocal creates a local-network transport.
//
// Parameters:
//   - opts: Connection details for the appliance broker
//   - logger: Logger for connection events (nil for no logging)
//
// Returns:
//   - *Local: Transport ready for SetHandlers and Connect
func NewLocal(opts LocalOptions, logger Logger) *Local {
	scheme := "tcp"
	if opts.TLS {
		scheme = "ssl"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d", scheme, opts.Host, opts.Port)

	t := &Local{}
	t.init(brokerURL, opts.Serial, StaticCredentials{
		Username: opts.Serial,
		Password: opts.Credential,
	}, logger)

	if opts.TLS {
		t.options.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	return t
}

// pahoConn holds the paho plumbing shared by the local and cloud
// transports. Reconnection is deliberately not delegated to paho: the
// session's connection manager owns backoff policy, so auto-reconnect
// and connect-retry are disabled.
type pahoConn struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	creds   CredentialSource
	logger  Logger

	handlers   Handlers
	handlersMu sync.RWMutex

	// Resolved by Connect, handed to paho by the credentials provider.
	username string
	password string
	credsMu  sync.Mutex

	closed   bool
	closedMu sync.Mutex
}

// init prepares the paho client options. Called once at construction.
func (t *pahoConn) init(brokerURL, clientID string, creds CredentialSource, logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	// Connect resolves credentials before each attempt; the provider
	// just hands paho whatever the current attempt resolved.
	opts.SetCredentialsProvider(func() (string, string) {
		t.credsMu.Lock()
		defer t.credsMu.Unlock()
		return t.username, t.password
	})

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		if h := t.getHandlers().OnConnect; h != nil {
			h()
		}
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		if h := t.getHandlers().OnClose; h != nil {
			h(err)
		}
	})

	t.options = opts
	t.creds = creds
	t.logger = logger
	t.client = pahomqtt.NewClient(opts)
}

// SetHandlers registers event callbacks. Must be called before Connect.
func (t *pahoConn) SetHandlers(h Handlers) {
	t.handlersMu.Lock()
	t.handlers = h
	t.handlersMu.Unlock()
}

func (t *pahoConn) getHandlers() Handlers {
	t.handlersMu.RLock()
	defer t.handlersMu.RUnlock()
	return t.handlers
}

// Connect performs a single connection attempt. Credentials are
// resolved fresh each time so rotated cloud tokens take effect on the
// next reconnect; a source that cannot supply them fails the attempt
// rather than offering the broker an empty login.
func (t *pahoConn) Connect(ctx context.Context) error {
	t.closedMu.Lock()
	closed := t.closed
	t.closedMu.Unlock()
	if closed {
		return ErrClosed
	}

	connectCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	username, password, err := t.creds.BrokerCredentials(connectCtx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoCredentials, err)
	}
	t.credsMu.Lock()
	t.username = username
	t.password = password
	t.credsMu.Unlock()

	token := t.client.Connect()
	if !waitToken(connectCtx, token) {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, connectCtx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return nil
}

// Publish sends a payload with at-most-once delivery.
func (t *pahoConn) Publish(ctx context.Context, topic string, payload []byte) error {
	if topic == "" {
		return fmt.Errorf("%w: topic cannot be empty", ErrPublishFailed)
	}
	if !t.client.IsConnected() {
		return ErrNotConnected
	}

	pubCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	token := t.client.Publish(topic, 0, false, payload)
	if !waitToken(pubCtx, token) {
		return fmt.Errorf("%w: %w", ErrPublishFailed, pubCtx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// Subscribe registers interest in a topic for this connection.
func (t *pahoConn) Subscribe(ctx context.Context, topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic cannot be empty", ErrSubscribeFailed)
	}
	if !t.client.IsConnected() {
		return ErrNotConnected
	}

	token := t.client.Subscribe(topic, 0, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("message handler panic recovered",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}()

		if h := t.getHandlers().OnMessage; h != nil {
			h(msg.Topic(), msg.Payload())
		}
	})
	subCtx, cancel := context.WithTimeout(ctx, defaultSubscribeTimeout)
	defer cancel()

	if !waitToken(subCtx, token) {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, subCtx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}

// Close disconnects gracefully. Safe to call multiple times.
func (t *pahoConn) Close(context.Context) error {
	t.closedMu.Lock()
	if t.closed {
		t.closedMu.Unlock()
		return nil
	}
	t.closed = true
	t.closedMu.Unlock()

	if t.client.IsConnected() {
		t.client.Disconnect(defaultDisconnectQuiesce)
	}

	return nil
}

// waitToken waits for a paho token observing context cancellation.
// Returns false on timeout or cancellation.
func waitToken(ctx context.Context, token pahomqtt.Token) bool {
	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return false
	case <-done:
		return true
	}
}
