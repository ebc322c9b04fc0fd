// Package statestore persists client-side session state (tokens, the cached
// user object, activity timestamps) between runs. Keys are namespaced under a
// fixed application prefix. Two drivers are provided: an SQLite-backed store
// for real use and an in-memory store for tests.
package statestore

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Namespace prefixes every persisted key.
const Namespace = "backoffice."

// Well-known keys for the persisted session state.
const (
	KeyAccessToken    = Namespace + "access_token"
	KeyRefreshToken   = Namespace + "refresh_token"
	KeyUser           = Namespace + "user"
	KeyTokenExpiry    = Namespace + "token_expiry"
	KeyLastActivity   = Namespace + "last_activity"
	KeyInstallationID = Namespace + "installation_id"
	KeyAPIBaseURL     = Namespace + "api_base_url"
)

// ErrNotFound reports a missing key.
var ErrNotFound = errors.New("statestore: key not found")

// Store is a namespaced key/value store for persisted client state.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// InstallationID returns the stable identifier of this client installation,
// generating and persisting one on first use.
func InstallationID(ctx context.Context, s Store) (string, error) {
	id, err := s.Get(ctx, KeyInstallationID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	id = uuid.NewString()
	if err := s.Set(ctx, KeyInstallationID, id); err != nil {
		return "", err
	}
	return id, nil
}
