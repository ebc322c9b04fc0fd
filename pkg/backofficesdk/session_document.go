package backofficesdk

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kantorkita/backoffice/pkg/querycache"
)

const tagDocument = "Document"

// ListExpiringDocuments returns documents expiring within the given number
// of days.
func (s *Session) ListExpiringDocuments(ctx context.Context, withinDays int) ([]ExpiringDocument, *Pagination, error) {
	params := querycache.Params{}
	if withinDays > 0 {
		params["within_days"] = withinDays
	}

	opts := querycache.Options{
		Tags: []querycache.Tag{querycache.NewTag(tagDocument)},
	}
	return cachedList[ExpiringDocument](ctx, s, "/api/remind-exp-docs", params, opts)
}

// AcknowledgeDocumentReminder marks one expiry reminder as handled.
func (s *Session) AcknowledgeDocumentReminder(ctx context.Context, id int) error {
	return s.mutate(ctx, http.MethodPost, "/api/remind-exp-docs/"+strconv.Itoa(id)+"/ack", nil, nil,
		querycache.NewIDTag(tagDocument, strconv.Itoa(id)))
}
