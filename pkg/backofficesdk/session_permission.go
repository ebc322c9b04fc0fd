package backofficesdk

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kantorkita/backoffice/pkg/querycache"
)

const tagPermission = "Permission"

// ListPermissionRequests returns permission/leave requests.
func (s *Session) ListPermissionRequests(ctx context.Context, p PermissionListParams) ([]PermissionRequest, *Pagination, error) {
	params := querycache.Params{}
	if p.Status != "" {
		params["status"] = p.Status
	}
	if p.Page > 0 {
		params["page"] = p.Page
	}

	opts := querycache.Options{
		Tags: []querycache.Tag{querycache.NewTag(tagPermission)},
	}
	return cachedList[PermissionRequest](ctx, s, "/api/permissions", params, opts)
}

// ApprovePermissionRequest approves one request.
func (s *Session) ApprovePermissionRequest(ctx context.Context, id int) error {
	return s.mutate(ctx, http.MethodPost, "/api/permissions/"+strconv.Itoa(id)+"/approve", nil, nil,
		querycache.NewIDTag(tagPermission, strconv.Itoa(id)))
}

// RejectPermissionRequest rejects one request with a reason.
func (s *Session) RejectPermissionRequest(ctx context.Context, id int, reason string) error {
	body := map[string]string{"reason": reason}
	return s.mutate(ctx, http.MethodPost, "/api/permissions/"+strconv.Itoa(id)+"/reject", body, nil,
		querycache.NewIDTag(tagPermission, strconv.Itoa(id)))
}
