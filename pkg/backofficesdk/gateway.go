package backofficesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kantorkita/backoffice/pkg/idx"
	"github.com/kantorkita/backoffice/pkg/querycache"
	"github.com/kantorkita/backoffice/pkg/slogx"
)

// ============================================================================
// Request pipeline
// ============================================================================

// do dispatches one request. It attaches the API key header, a request ID,
// and the bearer token when one is given. Transport failures come back
// wrapped; HTTP error statuses are left to the caller.
func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body []byte,
	token string,
) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	// The request-scoped logger carries the outbound request ID, so anything
	// logged downstream of this context correlates with the X-Request-Id the
	// server saw.
	reqID := idx.New().String()
	ctx = slogx.WithRequestID(slogx.WithContext(ctx, c.logger), reqID)

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Request-Id", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.Requests.WithLabelValues(method, "network_error").Inc()
		}
		return nil, fmt.Errorf("send request: %w", err)
	}

	if c.metrics != nil {
		c.metrics.Requests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
		c.metrics.RequestDuration.Observe(time.Since(start).Seconds())
	}
	slogx.FromContext(ctx).Debug("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
	)
	return resp, nil
}

// doAuth dispatches an authenticated request. On a 401 the session refresh
// runs once and, if it succeeds, the request is replayed with the new token.
// When refresh fails or the replay comes back with any error status, the
// original 401 error propagates unmodified. Bodies are passed as bytes so the replay is
// byte-identical.
func (s *Session) doAuth(
	ctx context.Context,
	method, path string,
	query url.Values,
	body []byte,
) (*http.Response, error) {
	token, err := s.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.do(ctx, method, path, query, body, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	origErr := errorFromResponse(resp)

	newToken, refreshErr := s.refresh(ctx, token)
	if refreshErr != nil {
		return nil, origErr
	}
	if s.client.metrics != nil {
		s.client.metrics.Replays.Inc()
	}

	retry, err := s.client.do(ctx, method, path, query, body, newToken)
	if err != nil {
		return nil, origErr
	}
	// A replay that still fails, with any error status, propagates the
	// original error unmodified.
	if retry.StatusCode < 200 || retry.StatusCode >= 300 {
		retry.Body.Close()
		return nil, origErr
	}
	return retry, nil
}

// ============================================================================
// Response decoding
// ============================================================================

// decodeEnvelope reads and closes the response, unmarshalling the envelope's
// data field into out (when non-nil) and returning any pagination block.
// Failed responses become *APIError values.
func decodeEnvelope(resp *http.Response, out any) (*Pagination, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    env.Message,
			Fields:     env.Errors,
		}
	}

	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode response data: %w", err)
		}
	}
	return env.Pagination, nil
}

// getJSON performs an authenticated GET and decodes the envelope.
func (s *Session) getJSON(
	ctx context.Context,
	path string,
	params querycache.Params,
	out any,
) (*Pagination, error) {
	resp, err := s.doAuth(ctx, http.MethodGet, path, params.Values(), nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(resp, out)
}

// mutate performs an authenticated mutation and, on success, invalidates the
// declared cache tags.
func (s *Session) mutate(
	ctx context.Context,
	method, path string,
	body any,
	out any,
	invalidates ...querycache.Tag,
) error {
	raw, err := jsonBody(body)
	if err != nil {
		return err
	}

	resp, err := s.doAuth(ctx, method, path, nil, raw)
	if err != nil {
		return err
	}
	if _, err := decodeEnvelope(resp, out); err != nil {
		return err
	}

	s.cache.Invalidate(invalidates...)
	return nil
}

// ============================================================================
// Cached reads
// ============================================================================

// listPayload is what list reads store in the cache: the items plus the
// pagination block they arrived with.
type listPayload[T any] struct {
	Items []T
	Page  *Pagination
}

// cachedList fetches a list endpoint through the query cache.
func cachedList[T any](
	ctx context.Context,
	s *Session,
	path string,
	params querycache.Params,
	opts querycache.Options,
) ([]T, *Pagination, error) {
	key := querycache.Key(path, params)
	v, err := s.cache.Fetch(ctx, key, opts, func(ctx context.Context) (any, error) {
		var items []T
		page, err := s.getJSON(ctx, path, params, &items)
		if err != nil {
			return nil, err
		}
		return listPayload[T]{Items: items, Page: page}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	payload := v.(listPayload[T])
	return payload.Items, payload.Page, nil
}

// cachedOne fetches a single-resource endpoint through the query cache.
func cachedOne[T any](
	ctx context.Context,
	s *Session,
	path string,
	params querycache.Params,
	opts querycache.Options,
) (T, error) {
	key := querycache.Key(path, params)
	v, err := s.cache.Fetch(ctx, key, opts, func(ctx context.Context) (any, error) {
		var item T
		if _, err := s.getJSON(ctx, path, params, &item); err != nil {
			return nil, err
		}
		return item, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
