package backofficesdk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kantorkita/backoffice/pkg/querycache"
)

// AgentStream is a live subscription to agent status events. Events arrive on
// Events until the stream is closed or the connection drops; Err reports why
// the stream ended.
type AgentStream struct {
	conn   *websocket.Conn
	events chan AgentEvent

	mu     sync.Mutex
	err    error
	closed bool
}

// StreamAgentEvents opens a websocket to the agent status feed. Pushed events
// invalidate the matching cache entries, so subsequent ListAgents and GetAgent
// calls refetch. The stream closes when ctx is cancelled or Close is called.
func (s *Session) StreamAgentEvents(ctx context.Context) (*AgentStream, error) {
	token, err := s.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	if s.client.apiKey != "" {
		header.Set("X-Api-Key", s.client.apiKey)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, s.client.streamURL("/api/agent/stream"), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: agent stream handshake rejected", ErrNotAuthenticated)
		}
		return nil, fmt.Errorf("dial agent stream: %w", err)
	}

	st := &AgentStream{
		conn:   conn,
		events: make(chan AgentEvent, 16),
	}

	stop := context.AfterFunc(ctx, func() { _ = st.Close() })
	go func() {
		defer stop()
		st.readLoop(s)
	}()

	return st, nil
}

// Events returns the event channel. It is closed when the stream ends.
func (st *AgentStream) Events() <-chan AgentEvent {
	return st.events
}

// Err returns the error that ended the stream, or nil after a clean Close.
func (st *AgentStream) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}

// Close tears down the connection. Safe to call more than once.
func (st *AgentStream) Close() error {
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return nil
	}
	st.closed = true
	st.mu.Unlock()
	return st.conn.Close()
}

func (st *AgentStream) readLoop(s *Session) {
	defer close(st.events)

	for {
		_, msg, err := st.conn.ReadMessage()
		if err != nil {
			st.mu.Lock()
			if !st.closed && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				st.err = err
			}
			st.closed = true
			st.mu.Unlock()
			_ = st.conn.Close()
			return
		}

		var ev AgentEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			s.client.logger.Warn("agent stream: dropping malformed event", slog.String("error", err.Error()))
			continue
		}

		tags := []querycache.Tag{querycache.NewTag(tagAgent)}
		if ev.AgentID != "" {
			tags = append(tags, querycache.NewIDTag(tagAgent, ev.AgentID))
		}
		s.cache.Invalidate(tags...)

		// Cache invalidation above already happened, so a slow consumer only
		// loses the notification, never the freshness.
		select {
		case st.events <- ev:
		default:
			s.client.logger.Warn("agent stream: consumer lagging, dropping event",
				slog.String("agent_id", ev.AgentID))
		}
	}
}

// streamURL converts the configured API base into a websocket URL for path.
func (c *Client) streamURL(path string) string {
	base := c.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + path
}
