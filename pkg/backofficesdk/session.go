package backofficesdk

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kantorkita/backoffice/pkg/querycache"
	"github.com/kantorkita/backoffice/pkg/statestore"
)

// TokenSafetyMargin is how much remaining lifetime an access token must have
// to be used without refreshing first.
const TokenSafetyMargin = 2 * time.Minute

// EndReason says why a session ended.
type EndReason string

const (
	EndReasonLogout        EndReason = "logout"
	EndReasonRefreshFailed EndReason = "refresh_failed"
	EndReasonIdleTimeout   EndReason = "idle_timeout"
)

// Session is an authenticated session. All methods are safe for concurrent
// use; authenticated operations refresh the token pair automatically.
type Session struct {
	client *Client
	cache  *querycache.Cache

	group singleflight.Group

	mu           sync.RWMutex
	user         User
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	lastActivity time.Time
	endReason    EndReason

	idle  *IdleMonitor
	onEnd func(reason EndReason)
}

// User returns the authenticated user.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// LastActivity returns the most recent recorded user-activity instant.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// Cache exposes the session's query cache, e.g. for subscribing views.
func (s *Session) Cache() *querycache.Cache { return s.cache }

// OnEnd registers a callback invoked exactly once when the session ends for
// any reason (explicit logout, failed refresh, idle timeout). The UI layer
// uses it to redirect to the login entry point.
func (s *Session) OnEnd(fn func(reason EndReason)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnd = fn
}

// ============================================================================
// Token lifecycle
// ============================================================================

// AccessToken returns a valid bearer token, refreshing the pair first when
// the remaining lifetime is inside the safety margin. Concurrent callers
// during an in-flight refresh all await the same refresh operation.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	token, ok := s.freshTokenLocked()
	stale := s.accessToken
	s.mu.RUnlock()
	if ok {
		return token, nil
	}
	return s.refresh(ctx, stale)
}

// freshTokenLocked reports whether the current access token is still outside
// the safety margin. Callers hold s.mu.
func (s *Session) freshTokenLocked() (string, bool) {
	if s.accessToken == "" {
		return "", false
	}
	if !s.client.clock.Now().Add(TokenSafetyMargin).Before(s.expiresAt) {
		return "", false
	}
	return s.accessToken, true
}

// refresh exchanges the refresh token for a new pair, single-flight.
// rejectedToken is the access token the caller could not use, either stale by
// the local expiry check or just rejected by the server; the exchange is
// skipped only when another caller already rotated past it. The server's
// verdict outranks the local expiry clock, so a token the server bounced is
// never handed back. Any failure clears the session and ends it with
// EndReasonRefreshFailed; there is no retry beyond the shared attempt.
func (s *Session) refresh(ctx context.Context, rejectedToken string) (string, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		s.mu.RLock()
		current := s.accessToken
		refreshToken := s.refreshToken
		endReason := s.endReason
		s.mu.RUnlock()

		// Another caller may have refreshed while we queued. Tokens only
		// change through adoptTokens, so a different current token is a newer
		// one.
		if current != "" && current != rejectedToken {
			return current, nil
		}
		if refreshToken == "" {
			switch endReason {
			case EndReasonRefreshFailed, EndReasonIdleTimeout:
				return nil, fmt.Errorf("%w: %s", ErrSessionExpired, endReason)
			default:
				return nil, ErrNotAuthenticated
			}
		}

		data, err := s.client.refreshGrant(ctx, refreshToken)
		if err != nil {
			s.client.logger.Warn("token refresh failed, ending session", "error", err)
			if s.client.metrics != nil {
				s.client.metrics.Refreshes.WithLabelValues("failure").Inc()
			}
			s.end(EndReasonRefreshFailed)
			return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
		}

		if s.client.metrics != nil {
			s.client.metrics.Refreshes.WithLabelValues("success").Inc()
		}
		s.adoptTokens(data)
		return data.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// adoptTokens installs a fresh token pair, resets activity tracking, and
// mirrors the session to the state store.
func (s *Session) adoptTokens(data *tokenData) {
	now := s.client.clock.Now()
	fallback := now.Add(time.Duration(data.ExpiresIn) * time.Second)

	s.mu.Lock()
	s.accessToken = data.AccessToken
	if data.RefreshToken != "" {
		// Server rotated the refresh token.
		s.refreshToken = data.RefreshToken
	}
	s.expiresAt = tokenExpiry(data.AccessToken, fallback)
	s.lastActivity = now
	if data.User != nil {
		s.user = *data.User
	}
	idle := s.idle
	s.mu.Unlock()

	if idle != nil {
		idle.Activity()
	}
	s.persist()
}

// persist mirrors the session to the state store. Failures are logged, never
// fatal: the in-memory session stays authoritative.
func (s *Session) persist() {
	store := s.client.store
	if store == nil {
		return
	}
	ctx := context.Background()

	s.mu.RLock()
	accessToken := s.accessToken
	refreshToken := s.refreshToken
	expiresAt := s.expiresAt
	lastActivity := s.lastActivity
	user := s.user
	s.mu.RUnlock()

	if s.client.sealer != nil {
		sealed, err := s.client.sealer.Seal(refreshToken)
		if err != nil {
			s.client.logger.Warn("sealing refresh token failed", "error", err)
			return
		}
		refreshToken = sealed
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		s.client.logger.Warn("persisting session failed", "error", err)
		return
	}

	for key, value := range map[string]string{
		statestore.KeyAccessToken:  accessToken,
		statestore.KeyRefreshToken: refreshToken,
		statestore.KeyTokenExpiry:  expiresAt.Format(time.RFC3339),
		statestore.KeyLastActivity: lastActivity.Format(time.RFC3339),
		statestore.KeyUser:         string(userJSON),
	} {
		if err := store.Set(ctx, key, value); err != nil {
			s.client.logger.Warn("persisting session failed", "key", key, "error", err)
		}
	}
}

// ============================================================================
// Activity & teardown
// ============================================================================

// Activity records a user-activity signal. The UI layer calls this for
// pointer, key, scroll, and touch events; it re-arms idle detection and
// updates the persisted last-activity instant.
func (s *Session) Activity() {
	now := s.client.clock.Now()

	s.mu.Lock()
	s.lastActivity = now
	idle := s.idle
	s.mu.Unlock()

	if idle != nil {
		idle.Activity()
	}

	if store := s.client.store; store != nil {
		if err := store.Set(context.Background(), statestore.KeyLastActivity, now.Format(time.RFC3339)); err != nil {
			s.client.logger.Warn("persisting activity failed", "error", err)
		}
	}
}

// Logout revokes the session server-side (best-effort) and clears all local
// state. Idempotent.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.RLock()
	accessToken := s.accessToken
	refreshToken := s.refreshToken
	s.mu.RUnlock()

	if accessToken == "" && refreshToken == "" {
		return nil
	}

	if refreshToken != "" {
		if err := s.client.logoutRequest(ctx, accessToken, refreshToken); err != nil {
			s.client.logger.Warn("server-side logout failed", "error", err)
		}
	}

	s.end(EndReasonLogout)
	return nil
}

// end clears all session state exactly once and notifies the OnEnd handler.
func (s *Session) end(reason EndReason) {
	s.mu.Lock()
	ended := s.accessToken == "" && s.refreshToken == ""
	if !ended {
		s.endReason = reason
	}
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	s.user = User{}
	onEnd := s.onEnd
	idle := s.idle
	s.idle = nil
	s.mu.Unlock()

	if ended {
		return
	}

	if idle != nil {
		idle.Stop()
	}
	s.cache.Clear()
	s.clearPersisted()

	s.client.logger.Info("session ended", "reason", string(reason))
	if onEnd != nil {
		onEnd(reason)
	}
}

func (s *Session) clearPersisted() {
	store := s.client.store
	if store == nil {
		return
	}
	ctx := context.Background()

	for _, key := range []string{
		statestore.KeyAccessToken,
		statestore.KeyRefreshToken,
		statestore.KeyTokenExpiry,
		statestore.KeyLastActivity,
		statestore.KeyUser,
	} {
		if err := store.Delete(ctx, key); err != nil {
			s.client.logger.Warn("clearing persisted session failed", "key", key, "error", err)
		}
	}
}

// StartIdleMonitor arms idle detection on the session. After cfg.IdleTimeout
// without activity cfg.OnWarning fires; after cfg.WarningGrace more without
// activity the session is logged out with EndReasonIdleTimeout.
func (s *Session) StartIdleMonitor(cfg IdleConfig) {
	onTimeout := cfg.OnTimeout
	cfg.OnTimeout = func() {
		s.end(EndReasonIdleTimeout)
		if onTimeout != nil {
			onTimeout()
		}
	}

	monitor := NewIdleMonitor(s.client.clock, cfg)

	s.mu.Lock()
	if s.idle != nil {
		s.idle.Stop()
	}
	s.idle = monitor
	s.mu.Unlock()
}
