package backofficesdk

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpiredBearerIsRefreshedAndReplayed(t *testing.T) {
	t.Parallel()

	b := newBackend(t, 3600)
	var fetches atomic.Int32
	b.mux.HandleFunc("GET /api/vendor", func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		if !b.authorized(r) {
			writeFailure(w, http.StatusUnauthorized, "token expired", nil)
			return
		}
		writeSuccessPage(w, []Vendor{{ID: 42, Name: "Acme", Status: "active"}}, &Pagination{Page: 1, TotalItems: 1})
	})

	client := NewClient(b.srv.URL)
	session, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	// Revoke server-side while the client still believes its token is fresh.
	b.revokeAccessToken()

	vendors, page, err := session.ListVendors(context.Background(), VendorListParams{})
	require.NoError(t, err, "the caller must never see the intermediate 401")
	require.Len(t, vendors, 1)
	require.Equal(t, "Acme", vendors[0].Name)
	require.Equal(t, 1, page.TotalItems)

	require.Equal(t, 1, b.refreshCount())
	require.Equal(t, int32(2), fetches.Load(), "exactly one replay")
}

func TestReplayRejectedAgainPropagatesOriginalError(t *testing.T) {
	t.Parallel()

	b := newBackend(t, 3600)
	b.mux.HandleFunc("GET /api/vendor", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusUnauthorized, "account disabled", nil)
	})

	client := NewClient(b.srv.URL)
	session, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	_, _, err = session.ListVendors(context.Background(), VendorListParams{})
	require.True(t, IsUnauthorized(err))
	require.ErrorContains(t, err, "account disabled")
	require.Equal(t, 1, b.refreshCount(), "only one recovery attempt")
}

func TestServerSideRevocationIsRecovered(t *testing.T) {
	t.Parallel()

	b := newBackend(t, 3600)
	b.mux.HandleFunc("GET /api/agent", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			writeFailure(w, http.StatusUnauthorized, "token expired", nil)
			return
		}
		writeSuccess(w, []Agent{{ID: "agent-1", Name: "worker", Status: "online"}})
	})

	client := NewClient(b.srv.URL)
	session, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	// Revoked out from under a client whose local expiry check still passes;
	// the server's 401 verdict has to win over the local clock.
	b.revokeAccessToken()

	agents, _, err := session.ListAgents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 1)
	require.Equal(t, "agent-1", agents[0].ID)
	require.Equal(t, 1, b.refreshCount())
}

func TestReplayServerErrorPropagatesOriginalError(t *testing.T) {
	t.Parallel()

	b := newBackend(t, 3600)
	b.mux.HandleFunc("GET /api/vendor", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			writeFailure(w, http.StatusUnauthorized, "token expired", nil)
			return
		}
		// The replay reaches the server with a good token but the request
		// still fails for an unrelated reason.
		writeFailure(w, http.StatusInternalServerError, "database unavailable", nil)
	})

	client := NewClient(b.srv.URL)
	session, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	b.revokeAccessToken()

	_, _, err = session.ListVendors(context.Background(), VendorListParams{})
	require.True(t, IsUnauthorized(err), "caller sees the original 401, not the replay's failure")
	require.ErrorContains(t, err, "token expired")
	require.False(t, IsServerError(err))
	require.Equal(t, 1, b.refreshCount())
}

func TestMutationInvalidatesCollection(t *testing.T) {
	t.Parallel()

	b := newBackend(t, 3600)
	var vendorFetches, profileFetches atomic.Int32
	b.mux.HandleFunc("GET /api/vendor", func(w http.ResponseWriter, r *http.Request) {
		vendorFetches.Add(1)
		writeSuccess(w, []Vendor{{ID: 42, Name: "Acme"}})
	})
	b.mux.HandleFunc("POST /api/vendor", func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, Vendor{ID: 43, Name: "Globex"})
	})
	b.mux.HandleFunc("GET /api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		profileFetches.Add(1)
		writeSuccess(w, Profile{User: User{ID: "u-1", Username: "alice"}})
	})

	client := NewClient(b.srv.URL)
	session, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	// Prime both caches.
	_, _, err = session.ListVendors(context.Background(), VendorListParams{})
	require.NoError(t, err)
	_, err = session.GetProfile(context.Background())
	require.NoError(t, err)

	// Cached: no extra requests.
	_, _, err = session.ListVendors(context.Background(), VendorListParams{})
	require.NoError(t, err)
	require.Equal(t, int32(1), vendorFetches.Load())

	// A create touches the vendor collection, not the profile.
	_, err = session.CreateVendor(context.Background(), VendorInput{Name: "Globex"})
	require.NoError(t, err)

	_, _, err = session.ListVendors(context.Background(), VendorListParams{})
	require.NoError(t, err)
	require.Equal(t, int32(2), vendorFetches.Load(), "vendor list refetched after mutation")

	_, err = session.GetProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), profileFetches.Load(), "profile cache untouched by vendor mutation")
}

func TestDistinctParamsAreDistinctEntries(t *testing.T) {
	t.Parallel()

	b := newBackend(t, 3600)
	var fetches atomic.Int32
	b.mux.HandleFunc("GET /api/vendor", func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		writeSuccess(w, []Vendor{{ID: 1, Name: "V", Status: r.URL.Query().Get("status")}})
	})

	client := NewClient(b.srv.URL)
	session, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	active, _, err := session.ListVendors(context.Background(), VendorListParams{Status: "active"})
	require.NoError(t, err)
	require.Equal(t, "active", active[0].Status)

	blocked, _, err := session.ListVendors(context.Background(), VendorListParams{Status: "blocked"})
	require.NoError(t, err)
	require.Equal(t, "blocked", blocked[0].Status)

	// Same params again hits the cache.
	_, _, err = session.ListVendors(context.Background(), VendorListParams{Status: "active"})
	require.NoError(t, err)
	require.Equal(t, int32(2), fetches.Load())
}
