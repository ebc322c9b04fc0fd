package backofficesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kantorkita/backoffice/pkg/clockx"
	"github.com/kantorkita/backoffice/pkg/querycache"
	"github.com/kantorkita/backoffice/pkg/slogx"
	"github.com/kantorkita/backoffice/pkg/statestore"
)

// Client talks to the back-office API. It performs unauthenticated
// operations and creates authenticated Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	apiKey       string
	logger       *slog.Logger
	clock        clockx.Clock
	store        statestore.Store
	sealer       *statestore.Sealer
	limiter      *rate.Limiter
	metrics      *Metrics
	cacheMetrics *querycache.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithAPIKey attaches a static API key header to every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithClock injects the clock used for expiry checks and timers.
func WithClock(clock clockx.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithStore persists session state (tokens, user, activity) to the given
// store. When a sealer is provided the refresh token is sealed at rest.
func WithStore(store statestore.Store, sealer *statestore.Sealer) Option {
	return func(c *Client) {
		c.store = store
		c.sealer = sealer
	}
}

// WithRateLimit throttles outbound requests, for polling-heavy deployments.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithMetrics attaches gateway metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCacheMetrics attaches query-cache metrics to sessions created by this
// client.
func WithCacheMetrics(m *querycache.Metrics) Option {
	return func(c *Client) { c.cacheMetrics = m }
}

// NewClient creates a back-office API client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: slogx.Nop(),
		clock:  clockx.System(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ============================================================================
// Authentication
// ============================================================================

// Login submits credentials and returns an authenticated Session. The
// session is persisted to the state store when one is configured.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, "")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		apiErr := errorFromResponse(resp)
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Message)
	}

	var data tokenData
	if _, err := decodeEnvelope(resp, &data); err != nil {
		return nil, err
	}

	session := c.newSession()
	session.adoptTokens(&data)
	c.logger.Info("logged in", "username", username)
	return session, nil
}

// Restore rebuilds a Session from the persisted state store without
// re-entering credentials. Returns ErrNotAuthenticated when no usable tokens
// are persisted. The access token may already be near expiry; the first
// authenticated call refreshes it as needed.
func (c *Client) Restore(ctx context.Context) (*Session, error) {
	if c.store == nil {
		return nil, ErrNotAuthenticated
	}

	refreshToken, err := c.store.Get(ctx, statestore.KeyRefreshToken)
	if err != nil {
		if errors.Is(err, statestore.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	if c.sealer != nil {
		refreshToken, err = c.sealer.Open(refreshToken)
		if err != nil {
			// Sealing key changed; the persisted token is unusable.
			c.logger.Warn("persisted refresh token unreadable, discarding", "error", err)
			return nil, ErrNotAuthenticated
		}
	}

	session := c.newSession()
	session.refreshToken = refreshToken

	if access, err := c.store.Get(ctx, statestore.KeyAccessToken); err == nil {
		session.accessToken = access
		session.expiresAt = tokenExpiry(access, time.Time{})
	}
	if expiry, err := c.store.Get(ctx, statestore.KeyTokenExpiry); err == nil {
		if t, perr := time.Parse(time.RFC3339, expiry); perr == nil {
			session.expiresAt = t
		}
	}
	if raw, err := c.store.Get(ctx, statestore.KeyUser); err == nil {
		_ = json.Unmarshal([]byte(raw), &session.user)
	}
	if raw, err := c.store.Get(ctx, statestore.KeyLastActivity); err == nil {
		if t, perr := time.Parse(time.RFC3339, raw); perr == nil {
			session.lastActivity = t
		}
	}

	c.logger.Info("session restored", "username", session.user.Username)
	return session, nil
}

func (c *Client) newSession() *Session {
	return &Session{
		client: c,
		cache: querycache.New(
			querycache.WithClock(c.clock),
			querycache.WithLogger(c.logger),
			querycache.WithMetrics(c.cacheMetrics),
		),
	}
}

// refreshGrant exchanges a refresh token for a new token pair.
func (c *Client) refreshGrant(ctx context.Context, refreshToken string) (*tokenData, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, body, "")
	if err != nil {
		return nil, err
	}

	var data tokenData
	if _, err := decodeEnvelope(resp, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// logoutRequest tells the server to revoke the refresh token. Best-effort:
// local state is cleared regardless of the outcome.
func (c *Client) logoutRequest(ctx context.Context, accessToken, refreshToken string) error {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, body, accessToken)
	if err != nil {
		return err
	}
	if _, err := decodeEnvelope(resp, nil); err != nil {
		return err
	}
	return nil
}

func jsonBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
