package backofficesdk

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kantorkita/backoffice/pkg/querycache"
)

const tagVendor = "Vendor"

// ListVendors returns vendors matching the filter. The result is cached
// under the Vendor collection tag plus one ID tag per returned vendor.
func (s *Session) ListVendors(ctx context.Context, p VendorListParams) ([]Vendor, *Pagination, error) {
	params := querycache.Params{}
	if p.Status != "" {
		params["status"] = p.Status
	}
	if p.Search != "" {
		params["search"] = p.Search
	}
	if p.Page > 0 {
		params["page"] = p.Page
	}
	if p.PerPage > 0 {
		params["per_page"] = p.PerPage
	}

	opts := querycache.Options{
		Tags: []querycache.Tag{querycache.NewTag(tagVendor)},
		ResultTags: func(v any) []querycache.Tag {
			payload := v.(listPayload[Vendor])
			tags := make([]querycache.Tag, 0, len(payload.Items))
			for _, vendor := range payload.Items {
				tags = append(tags, querycache.NewIDTag(tagVendor, strconv.Itoa(vendor.ID)))
			}
			return tags
		},
	}
	return cachedList[Vendor](ctx, s, "/api/vendor", params, opts)
}

// GetVendor returns one vendor by ID.
func (s *Session) GetVendor(ctx context.Context, id int) (Vendor, error) {
	opts := querycache.Options{
		Tags: []querycache.Tag{querycache.NewIDTag(tagVendor, strconv.Itoa(id))},
	}
	return cachedOne[Vendor](ctx, s, "/api/vendor/"+strconv.Itoa(id), nil, opts)
}

// CreateVendor registers a new vendor and invalidates the vendor collection.
func (s *Session) CreateVendor(ctx context.Context, input VendorInput) (Vendor, error) {
	var created Vendor
	err := s.mutate(ctx, http.MethodPost, "/api/vendor", input, &created,
		querycache.NewTag(tagVendor))
	return created, err
}

// UpdateVendor updates one vendor and invalidates its cache entries.
func (s *Session) UpdateVendor(ctx context.Context, id int, input VendorInput) (Vendor, error) {
	var updated Vendor
	err := s.mutate(ctx, http.MethodPut, "/api/vendor/"+strconv.Itoa(id), input, &updated,
		querycache.NewIDTag(tagVendor, strconv.Itoa(id)))
	return updated, err
}

// DeleteVendor removes a vendor.
func (s *Session) DeleteVendor(ctx context.Context, id int) error {
	return s.mutate(ctx, http.MethodDelete, "/api/vendor/"+strconv.Itoa(id), nil, nil,
		querycache.NewIDTag(tagVendor, strconv.Itoa(id)))
}
