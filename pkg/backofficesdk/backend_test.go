package backofficesdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// backend is a fake API server with the auth endpoints pre-wired. Tests hang
// extra handlers off its mux.
type backend struct {
	t   *testing.T
	mux *http.ServeMux
	srv *httptest.Server

	mu           sync.Mutex
	token        string // access token the backend currently accepts
	refreshToken string
	refreshCalls int
	refreshFails bool
	expiresIn    int
}

func newBackend(t *testing.T, expiresIn int) *backend {
	t.Helper()

	b := &backend{
		t:         t,
		mux:       http.NewServeMux(),
		expiresIn: expiresIn,
	}
	b.srv = httptest.NewServer(b.mux)
	t.Cleanup(b.srv.Close)

	b.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		err := json.NewDecoder(r.Body).Decode(&creds)
		if err != nil || creds.Password != "secret" {
			writeFailure(w, http.StatusUnauthorized, "invalid username or password", nil)
			return
		}

		b.mu.Lock()
		b.token = "access-1"
		b.refreshToken = "refresh-1"
		expires := b.expiresIn
		b.mu.Unlock()

		writeSuccess(w, map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"expires_in":    expires,
			"user":          map[string]string{"id": "u-1", "username": creds.Username, "role": "admin"},
		})
	})

	b.mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		b.mu.Lock()
		defer b.mu.Unlock()
		b.refreshCalls++

		if b.refreshFails || body.RefreshToken != b.refreshToken {
			writeFailure(w, http.StatusUnauthorized, "refresh token revoked", nil)
			return
		}

		b.token = fmt.Sprintf("access-%d", b.refreshCalls+1)
		b.refreshToken = fmt.Sprintf("refresh-%d", b.refreshCalls+1)
		writeSuccess(w, map[string]any{
			"access_token":  b.token,
			"refresh_token": b.refreshToken,
			"expires_in":    3600,
		})
	})

	b.mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.token = ""
		b.refreshToken = ""
		b.mu.Unlock()
		writeSuccess(w, nil)
	})

	return b
}

// authorized reports whether the request carries the currently valid bearer.
func (b *backend) authorized(r *http.Request) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token != "" && r.Header.Get("Authorization") == "Bearer "+b.token
}

// revokeAccessToken makes the current access token invalid server-side, so
// the next authenticated request gets a 401 and must refresh.
func (b *backend) revokeAccessToken() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = "revoked-" + b.token
}

func (b *backend) failRefresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshFails = true
}

func (b *backend) refreshCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeSuccessPage(w, data, nil)
}

func writeSuccessPage(w http.ResponseWriter, data any, page *Pagination) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"data":       data,
		"pagination": page,
	})
}

func writeFailure(w http.ResponseWriter, status int, message string, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
		"errors":  fields,
	})
}
