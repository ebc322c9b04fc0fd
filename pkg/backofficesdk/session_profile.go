package backofficesdk

import (
	"context"
	"net/http"

	"github.com/kantorkita/backoffice/pkg/querycache"
)

const tagUser = "User"

// GetProfile returns the authenticated user's profile.
func (s *Session) GetProfile(ctx context.Context) (Profile, error) {
	opts := querycache.Options{
		Tags: []querycache.Tag{querycache.NewTag(tagUser)},
	}
	return cachedOne[Profile](ctx, s, "/api/auth/profile", nil, opts)
}

// ChangePassword updates the caller's password. The refresh token stays
// valid; only profile-derived entries are invalidated.
func (s *Session) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return s.mutate(ctx, http.MethodPost, "/api/auth/change-password", req, nil,
		querycache.NewTag(tagUser))
}
