package transport

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// CloudOptions configures a connection to the vendor's cloud-hosted broker.
type CloudOptions struct {
	// Host is the cloud broker hostname.
	Host string

	// Serial is the appliance serial number.
	Serial string

	// Credentials supplies the short-lived broker credentials. Queried on
	// every connection attempt so rotated tokens are picked up.
	Credentials CredentialSource
}

// Cloud is a Transport backed by the vendor's cloud broker, reached over
// a TLS WebSocket. The WebSocket is dialed explicitly so custom headers
// can be attached; the resulting connection is handed to paho.
type Cloud struct {
	pahoConn
}

// NewCloud creates a cloud transport.
//
// The MQTT client ID is the serial plus a random suffix: the cloud broker
// disconnects the older of two clients with the same ID, and a stale
// half-open session from a previous run must not kick the new one.
//
// Parameters:
//   - opts: Cloud broker connection details
//   - logger: Logger for connection events (nil for no logging)
//
// Returns:
//   - *Cloud: Transport ready for SetHandlers and Connect
func NewCloud(opts CloudOptions, logger Logger) *Cloud {
	brokerURL := fmt.Sprintf("wss://%s:443/mqtt", opts.Host)
	clientID := fmt.Sprintf("%s-%s", opts.Serial, shortID())

	t := &Cloud{}
	t.init(brokerURL, clientID, opts.Credentials, logger)

	t.options.SetCustomOpenConnectionFn(func(uri *url.URL, _ pahomqtt.ClientOptions) (net.Conn, error) {
		return dialWebSocket(uri)
	})

	return t
}

// dialWebSocket opens the WebSocket carrying the MQTT session.
func dialWebSocket(uri *url.URL) (net.Conn, error) {
	dialer := &websocket.Dialer{
		Subprotocols:     []string{"mqtt"},
		TLSClientConfig:  &tls.Config{MinVersion: tls.VersionTLS12},
		HandshakeTimeout: defaultConnectTimeout,
	}

	header := http.Header{}
	header.Set("User-Agent", "appliancelink")

	conn, resp, err := dialer.Dial(uri.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: websocket dial: %w (status %d)", ErrConnectionFailed, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: websocket dial: %w", ErrConnectionFailed, err)
	}

	return newWSNetConn(conn), nil
}

// shortID returns a short random suffix for client IDs.
func shortID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
