// Package transport provides point-to-point broker connections for
// appliance sessions.
//
// Three implementations share the Transport interface:
//
//   - Local: MQTT over TCP to the broker embedded in the appliance
//   - Cloud: MQTT over a TLS WebSocket to the vendor's cloud broker,
//     dialed with gorilla/websocket so rotatable credentials and custom
//     headers can be attached
//   - Replay: replays a captured message log for tests and offline
//     development
//
// Transports perform exactly one connection attempt per Connect call and
// never reconnect on their own. Reconnection policy (backoff, reset,
// cancellation) belongs to the session's connection manager; putting it
// here would double-schedule retries when both layers reacted to the
// same close event.
//
// # Usage
//
//	t := transport.NewLocal(transport.LocalOptions{
//	    Host:       "192.168.1.50",
//	    Port:       1883,
//	    Serial:     serial,
//	    Credential: credential,
//	}, logger)
//	t.SetHandlers(transport.Handlers{
//	    OnConnect: func() { ... },
//	    OnClose:   func(err error) { ... },
//	    OnMessage: func(topic string, payload []byte) { ... },
//	})
//	err := t.Connect(ctx)
package transport
