package transport

import (
	"context"
	"errors"
	"testing"
)

// unavailableSource always fails to produce broker credentials.
type unavailableSource struct {
	err error
}

func (s unavailableSource) BrokerCredentials(context.Context) (string, string, error) {
	return "", "", s.err
}

func TestConnectFailsWithoutCredentials(t *testing.T) {
	cause := errors.New("token endpoint unreachable")

	tr := &pahoConn{}
	tr.init("tcp://127.0.0.1:1", "XW1-EU-TEST0001", unavailableSource{err: cause}, nil)

	// The attempt must fail before a broker login is ever offered.
	err := tr.Connect(context.Background())
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Connect() error = %v, want ErrNoCredentials", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Connect() error = %v, want the source failure wrapped", err)
	}
}

func TestConnectResolvesCredentialsForProvider(t *testing.T) {
	tr := &pahoConn{}
	tr.init("tcp://127.0.0.1:1", "XW1-EU-TEST0001", StaticCredentials{
		Username: "XW1-EU-TEST0001",
		Password: "sticker-secret",
	}, nil)

	// No broker is listening; the attempt fails after credential
	// resolution, which is the part under test.
	_ = tr.Connect(context.Background())

	tr.credsMu.Lock()
	user, pass := tr.username, tr.password
	tr.credsMu.Unlock()
	if user != "XW1-EU-TEST0001" || pass != "sticker-secret" {
		t.Errorf("resolved credentials = (%q, %q), want the static pair", user, pass)
	}
}
