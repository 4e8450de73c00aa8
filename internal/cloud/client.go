package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nfarrow/appliancelink/internal/cache"
	"github.com/nfarrow/appliancelink/internal/transport"
)

// defaultHTTPTimeout bounds one account API round trip.
const defaultHTTPTimeout = 30 * time.Second

// Logger is the logging interface used by the cloud client.
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

// Config configures the account API client.
type Config struct {
	// BaseURL of the account API, without a trailing slash.
	BaseURL string

	// Email and Password are the account credentials.
	Email    string
	Password string

	// Country code sent with authentication requests.
	Country string

	// Store caches issued tokens and challenges, keyed by account
	// email. Optional; without it rate-limit fallback is unavailable.
	Store *cache.Store

	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client

	// Logger for API diagnostics. Optional.
	Logger Logger
}

// Client authenticates against the appliance vendor's account API and
// supplies broker credentials for cloud sessions.
//
// Issued tokens are cached; when the API rate-limits a login the cached
// token is used instead, on the grounds that a stale token the broker
// might still accept beats no connection at all.
type Client struct {
	baseURL  string
	email    string
	password string
	country  string
	http     *http.Client
	store    *cache.Store
	logger   Logger
}

// NewClient builds an account API client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		email:    cfg.Email,
		password: cfg.Password,
		country:  cfg.Country,
		http:     httpClient,
		store:    cfg.Store,
		logger:   logger,
	}
}

// Cache key suffixes, namespaced by account email.
func (c *Client) tokenKey() string     { return c.email + ":token" }
func (c *Client) challengeKey() string { return c.email + ":challenge" }

// Token returns a bearer token for the account, logging in if
// necessary. Transient API failures are retried indefinitely with
// backoff; a rate-limited login falls back to the cached token.
//
// Returns:
//   - string: the token.
//   - error: ErrUnauthorized on refused credentials, ctx.Err() on
//     cancellation, or ErrNoCachedCredential when rate limited with an
//     empty cache.
func (c *Client) Token(ctx context.Context) (string, error) {
	var token string
	err := Request(ctx, "account login", c.logger, func(ctx context.Context) error {
		t, err := c.login(ctx)
		if err == nil {
			token = t
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			return c.cachedToken(ctx, err)
		}
		return "", err
	}

	c.cacheToken(ctx, token)
	return token, nil
}

// BrokerCredentialSource returns a transport credential source for one
// device's cloud broker connection. Credentials are fetched on every
// connection attempt so a rotated token takes effect on reconnect.
func (c *Client) BrokerCredentialSource(serial string) transport.CredentialSource {
	return brokerCredentials{client: c, serial: serial}
}

type brokerCredentials struct {
	client *Client
	serial string
}

func (b brokerCredentials) BrokerCredentials(ctx context.Context) (string, string, error) {
	token, err := b.client.Token(ctx)
	if err != nil {
		return "", "", err
	}
	return b.serial, token, nil
}

// login performs the two-step challenge/verify flow.
func (c *Client) login(ctx context.Context) (string, error) {
	challengeID, err := c.challenge(ctx)
	if err != nil {
		return "", err
	}

	var verified struct {
		Token string `json:"token"`
	}
	err = c.postJSON(ctx, "verify account password", "/v3/userregistration/email/verify", map[string]any{
		"email":       c.email,
		"password":    c.password,
		"challengeId": challengeID,
	}, &verified)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			// A stale cached challenge also verifies as unauthorized;
			// discard it so the next attempt starts fresh.
			c.dropChallenge(ctx)
		}
		return "", err
	}
	if verified.Token == "" {
		return "", fmt.Errorf("verify account password: empty token in response")
	}
	return verified.Token, nil
}

// challenge obtains a login challenge ID, reusing a cached one when
// present.
func (c *Client) challenge(ctx context.Context) (string, error) {
	if c.store != nil {
		if entry, err := c.store.Get(ctx, c.challengeKey()); err == nil {
			return entry.Value, nil
		}
	}

	var issued struct {
		ChallengeID string `json:"challengeId"`
	}
	err := c.postJSON(ctx, "request login challenge", "/v3/userregistration/email/auth", map[string]any{
		"email":   c.email,
		"country": c.country,
	}, &issued)
	if err != nil {
		return "", err
	}
	if issued.ChallengeID == "" {
		return "", fmt.Errorf("request login challenge: empty challenge in response")
	}

	if c.store != nil {
		if err := c.store.Put(ctx, c.challengeKey(), issued.ChallengeID); err != nil {
			c.logger.Warn("challenge cache write failed", "error", err)
		}
	}
	return issued.ChallengeID, nil
}

func (c *Client) dropChallenge(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, c.challengeKey()); err != nil {
		c.logger.Warn("challenge cache delete failed", "error", err)
	}
}

func (c *Client) cacheToken(ctx context.Context, token string) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, c.tokenKey(), token); err != nil {
		c.logger.Warn("token cache write failed", "error", err)
	}
}

// cachedToken serves the rate-limit fallback. cause is the rate-limit
// error, wrapped into the failure when the cache is empty.
func (c *Client) cachedToken(ctx context.Context, cause error) (string, error) {
	if c.store == nil {
		return "", fmt.Errorf("%w: %w", ErrNoCachedCredential, cause)
	}

	entry, err := c.store.Get(ctx, c.tokenKey())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoCachedCredential, cause)
	}

	c.logger.Warn("rate limited, using cached account token",
		"issued_ago", time.Since(entry.UpdatedAt).Round(time.Second).String())
	return entry.Value, nil
}

// postJSON sends one API request and decodes the response body.
func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{status: resp.StatusCode, op: op}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
