package backofficesdk

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kantorkita/backoffice/pkg/statestore"
)

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t, 3600)
		client := NewClient(b.srv.URL)

		session, err := client.Login(context.Background(), "alice", "secret")
		require.NoError(t, err)
		require.Equal(t, "alice", session.User().Username)
		require.Equal(t, "admin", session.User().Role)

		token, err := session.AccessToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "access-1", token)
		require.Zero(t, b.refreshCount(), "fresh token must not trigger a refresh")
	})

	t.Run("invalid credentials", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t, 3600)
		client := NewClient(b.srv.URL)

		_, err := client.Login(context.Background(), "alice", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.ErrorContains(t, err, "invalid username or password")
	})
}

func TestRestore(t *testing.T) {
	t.Parallel()

	t.Run("round trip through the store", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t, 3600)
		store := statestore.NewMemory()
		sealer, err := statestore.NewSealer("")
		require.NoError(t, err)

		first := NewClient(b.srv.URL, WithStore(store, sealer))
		_, err = first.Login(context.Background(), "alice", "secret")
		require.NoError(t, err)

		second := NewClient(b.srv.URL, WithStore(store, sealer))
		session, err := second.Restore(context.Background())
		require.NoError(t, err)
		require.Equal(t, "alice", session.User().Username)

		token, err := session.AccessToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "access-1", token)
	})

	t.Run("nothing persisted", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t, 3600)
		client := NewClient(b.srv.URL, WithStore(statestore.NewMemory(), nil))

		_, err := client.Restore(context.Background())
		require.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("no store configured", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t, 3600)
		client := NewClient(b.srv.URL)

		_, err := client.Restore(context.Background())
		require.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("sealing key changed", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t, 3600)
		store := statestore.NewMemory()

		oldSealer := statestore.NewSealerFromKey([]byte("old key material"))
		first := NewClient(b.srv.URL, WithStore(store, oldSealer))
		_, err := first.Login(context.Background(), "alice", "secret")
		require.NoError(t, err)

		newSealer := statestore.NewSealerFromKey([]byte("new key material"))
		second := NewClient(b.srv.URL, WithStore(store, newSealer))
		_, err = second.Restore(context.Background())
		require.ErrorIs(t, err, ErrNotAuthenticated)
	})
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	b := newBackend(t, 3600)
	b.mux.HandleFunc("GET /api/vendor/404", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "vendor not found", nil)
	})
	b.mux.HandleFunc("GET /api/vendor/422", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusUnprocessableEntity, "validation failed", map[string]string{
			"name": "required",
		})
	})
	b.mux.HandleFunc("GET /api/vendor/500", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json at all"))
	})

	client := NewClient(b.srv.URL)
	session, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	t.Run("not found", func(t *testing.T) {
		var out Vendor
		_, err := session.getJSON(context.Background(), "/api/vendor/404", nil, &out)
		require.True(t, IsNotFound(err))
		require.ErrorContains(t, err, "vendor not found")
	})

	t.Run("validation with field errors", func(t *testing.T) {
		var out Vendor
		_, err := session.getJSON(context.Background(), "/api/vendor/422", nil, &out)
		require.True(t, IsValidation(err))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "required", apiErr.Fields["name"])
	})

	t.Run("server error without envelope", func(t *testing.T) {
		var out Vendor
		_, err := session.getJSON(context.Background(), "/api/vendor/500", nil, &out)
		require.True(t, IsServerError(err))
		require.ErrorContains(t, err, "HTTP 500")
	})
}
