package backofficesdk

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestStreamAgentEvents(t *testing.T) {
	t.Parallel()

	b := newBackend(t, 3600)

	var agentFetches atomic.Int32
	b.mux.HandleFunc("GET /api/agent", func(w http.ResponseWriter, r *http.Request) {
		agentFetches.Add(1)
		writeSuccess(w, []Agent{{ID: "worker-1", Name: "Worker 1", Status: "online"}})
	})

	upgrader := websocket.Upgrader{}
	b.mux.HandleFunc("GET /api/agent/stream", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			writeFailure(w, http.StatusUnauthorized, "token expired", nil)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		err = conn.WriteJSON(AgentEvent{Type: "status_changed", AgentID: "worker-1", Status: "offline"})
		require.NoError(t, err)

		// Keep the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	client := NewClient(b.srv.URL)
	session, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	// Prime the agent list cache.
	agents, _, err := session.ListAgents(context.Background())
	require.NoError(t, err)
	require.Equal(t, "online", agents[0].Status)
	require.Equal(t, int32(1), agentFetches.Load())

	stream, err := session.StreamAgentEvents(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	select {
	case ev := <-stream.Events():
		require.Equal(t, "status_changed", ev.Type)
		require.Equal(t, "worker-1", ev.AgentID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for agent event")
	}

	// The pushed event invalidated the agent entries; the next read refetches.
	require.Eventually(t, func() bool {
		_, _, err := session.ListAgents(context.Background())
		return err == nil && agentFetches.Load() >= 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Err())
}

func TestStreamRejectedWithoutValidToken(t *testing.T) {
	t.Parallel()

	b := newBackend(t, 3600)
	b.mux.HandleFunc("GET /api/agent/stream", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusUnauthorized, "token expired", nil)
	})

	client := NewClient(b.srv.URL)
	session, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	_, err = session.StreamAgentEvents(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}
