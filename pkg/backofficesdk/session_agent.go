package backofficesdk

import (
	"context"
	"time"

	"github.com/kantorkita/backoffice/pkg/querycache"
)

const tagAgent = "Agent"

// agentStatusGrace keeps agent entries resident between dashboard polls.
const agentStatusGrace = 30 * time.Second

// ListAgents returns the monitored agents and their status.
func (s *Session) ListAgents(ctx context.Context) ([]Agent, *Pagination, error) {
	opts := querycache.Options{
		Tags:       []querycache.Tag{querycache.NewTag(tagAgent)},
		KeepUnused: agentStatusGrace,
		ServeStale: true,
	}
	return cachedList[Agent](ctx, s, "/api/agent", nil, opts)
}

// GetAgent returns one agent by ID.
func (s *Session) GetAgent(ctx context.Context, id string) (Agent, error) {
	opts := querycache.Options{
		Tags:       []querycache.Tag{querycache.NewIDTag(tagAgent, id)},
		KeepUnused: agentStatusGrace,
	}
	return cachedOne[Agent](ctx, s, "/api/agent/"+id, nil, opts)
}
