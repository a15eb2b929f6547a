package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kinance/kinance-go/internal/client/credstore"
	"github.com/kinance/kinance-go/internal/client/credstore/storefake"
	"github.com/kinance/kinance-go/internal/telemetry/logger"
	"github.com/kinance/kinance-go/internal/telemetry/metric"
)

// authServer is a fake API whose protected endpoint accepts one bearer token
// and whose refresh endpoint behavior is configurable.
type authServer struct {
	validToken string
	refresh    func(w http.ResponseWriter, r *http.Request)

	mu          sync.Mutex
	authHeaders []string

	protectedCalls atomic.Int32
	refreshCalls   atomic.Int32
}

func (s *authServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/v1"+PathRefresh {
		s.refreshCalls.Add(1)
		s.refresh(w, r)
		return
	}

	s.protectedCalls.Add(1)
	auth := r.Header.Get("Authorization")
	s.mu.Lock()
	s.authHeaders = append(s.authHeaders, auth)
	s.mu.Unlock()

	if auth != "Bearer "+s.validToken {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Unauthorized"}`)
		return
	}
	writeJSON(w, http.StatusOK, `{"success":true,"data":{"ok":true}}`)
}

func (s *authServer) headers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

func refreshReturning(access, refresh string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		body := `{"success":true,"data":{"access_token":"` + access + `","expires_in":3600`
		if refresh != "" {
			body += `,"refresh_token":"` + refresh + `"`
		}
		writeJSON(w, http.StatusOK, body+`}}`)
	}
}

func seededStore() *storefake.Store {
	return storefake.New(map[credstore.Key]string{
		credstore.KeyAccessToken:  "T0",
		credstore.KeyRefreshToken: "R1",
		credstore.KeyUserProfile:  `{"id":"u1"}`,
	})
}

func TestChain_Order(t *testing.T) {
	var trace []string
	stage := func(name string) Stage {
		return func(next Handler) Handler {
			return func(ctx context.Context, req *Request) (*Envelope, error) {
				trace = append(trace, name)
				return next(ctx, req)
			}
		}
	}
	final := func(ctx context.Context, req *Request) (*Envelope, error) {
		trace = append(trace, "final")
		return &Envelope{Success: true}, nil
	}

	h := Chain(final, stage("a"), stage("b"), stage("c"))
	if _, err := h(context.Background(), &Request{}); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(trace, ","); got != "a,b,c,final" {
		t.Errorf("trace = %s, want a,b,c,final", got)
	}
}

func TestPipeline_NoTokenNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("Authorization header present: %q", r.Header.Get("Authorization"))
		}
		writeJSON(w, http.StatusOK, `{"success":true}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, credstore.NewMemory())
	if _, err := c.Get(context.Background(), PathBudgets, nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}

func TestPipeline_AttachesStoredToken(t *testing.T) {
	srv := &authServer{validToken: "T0"}
	server := httptest.NewServer(srv)
	defer server.Close()

	c := newTestClient(t, server.URL, seededStore())
	if _, err := c.Get(context.Background(), PathProfile, nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := srv.headers(); len(got) != 1 || got[0] != "Bearer T0" {
		t.Errorf("Authorization headers = %v", got)
	}
}

func TestPipeline_RefreshAndRetry(t *testing.T) {
	var (
		bodyMu      sync.Mutex
		refreshBody map[string]string
	)
	srv := &authServer{validToken: "T2"}
	srv.refresh = func(w http.ResponseWriter, r *http.Request) {
		bodyMu.Lock()
		err := json.NewDecoder(r.Body).Decode(&refreshBody)
		bodyMu.Unlock()
		if err != nil {
			t.Errorf("decode refresh body: %v", err)
		}
		refreshReturning("T2", "")(w, r)
	}
	server := httptest.NewServer(srv)
	defer server.Close()

	store := seededStore()
	reg := metric.NewRegistry()
	c := New(Config{BaseURL: server.URL}, store, WithLogger(logger.Discard()), WithMetrics(reg))

	env, err := c.Get(context.Background(), PathProfile, nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !env.Success {
		t.Error("resent request should succeed")
	}

	if n := srv.refreshCalls.Load(); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
	if got := srv.headers(); len(got) != 2 || got[0] != "Bearer T0" || got[1] != "Bearer T2" {
		t.Errorf("Authorization headers = %v, want [Bearer T0 Bearer T2]", got)
	}
	bodyMu.Lock()
	if refreshBody["refresh_token"] != "R1" {
		t.Errorf("refresh body = %v", refreshBody)
	}
	bodyMu.Unlock()
	if v, _ := store.Value(credstore.KeyAccessToken); v != "T2" {
		t.Errorf("stored access token = %q, want T2", v)
	}
	if v, _ := store.Value(credstore.KeyRefreshToken); v != "R1" {
		t.Errorf("stored refresh token = %q, want R1 (unchanged)", v)
	}
	if got := testutil.ToFloat64(reg.RefreshTotal.WithLabelValues(metric.RefreshSuccess)); got != 1 {
		t.Errorf("refresh success metric = %v, want 1", got)
	}
}

func TestPipeline_RotatedRefreshTokenPersisted(t *testing.T) {
	srv := &authServer{validToken: "T2", refresh: refreshReturning("T2", "R2")}
	server := httptest.NewServer(srv)
	defer server.Close()

	store := seededStore()
	c := newTestClient(t, server.URL, store)
	if _, err := c.Get(context.Background(), PathProfile, nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v, _ := store.Value(credstore.KeyRefreshToken); v != "R2" {
		t.Errorf("stored refresh token = %q, want R2", v)
	}
}

func TestPipeline_SecondUnauthorizedNotRetried(t *testing.T) {
	// Refresh succeeds but the server still rejects the new token.
	srv := &authServer{validToken: "never", refresh: refreshReturning("T2", "")}
	server := httptest.NewServer(srv)
	defer server.Close()

	c := newTestClient(t, server.URL, seededStore())
	_, err := c.Get(context.Background(), PathProfile, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}

	if n := srv.refreshCalls.Load(); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
	if n := srv.protectedCalls.Load(); n != 2 {
		t.Errorf("protected calls = %d, want 2", n)
	}
}

func TestPipeline_RefreshFailureClearsCredentials(t *testing.T) {
	tests := []struct {
		name    string
		refresh func(w http.ResponseWriter, r *http.Request)
	}{
		{
			name: "refresh rejected",
			refresh: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid refresh token"}`)
			},
		},
		{
			name: "refresh business failure",
			refresh: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, `{"success":false,"message":"expired"}`)
			},
		},
		{
			name: "refresh without data",
			refresh: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, `{"success":true}`)
			},
		},
		{
			name: "connection dropped",
			refresh: func(w http.ResponseWriter, r *http.Request) {
				hj, ok := w.(http.Hijacker)
				if !ok {
					t.Error("response writer is not a hijacker")
					return
				}
				conn, _, err := hj.Hijack()
				if err != nil {
					t.Errorf("hijack: %v", err)
					return
				}
				conn.Close()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &authServer{validToken: "T2", refresh: tt.refresh}
			server := httptest.NewServer(srv)
			defer server.Close()

			store := seededStore()
			c := newTestClient(t, server.URL, store)

			_, err := c.Get(context.Background(), PathProfile, nil)
			if !errors.Is(err, ErrUnauthorized) {
				t.Errorf("error = %v, want original 401", err)
			}
			if store.Len() != 0 {
				t.Errorf("store has %d entries, want 0", store.Len())
			}
			if store.RemoveAllCalls != 1 {
				t.Errorf("RemoveAll calls = %d, want 1", store.RemoveAllCalls)
			}
			if n := srv.protectedCalls.Load(); n != 1 {
				t.Errorf("protected calls = %d, want 1 (no resend)", n)
			}
		})
	}
}

func TestPipeline_RefreshPersistFailureClearsCredentials(t *testing.T) {
	srv := &authServer{validToken: "T2", refresh: refreshReturning("T2", "")}
	server := httptest.NewServer(srv)
	defer server.Close()

	store := seededStore()
	store.FailSetAll = true
	c := newTestClient(t, server.URL, store)

	_, err := c.Get(context.Background(), PathProfile, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d entries, want 0", store.Len())
	}
}

func TestPipeline_NoRefreshToken(t *testing.T) {
	srv := &authServer{validToken: "T2", refresh: refreshReturning("T2", "")}
	server := httptest.NewServer(srv)
	defer server.Close()

	store := storefake.New(map[credstore.Key]string{credstore.KeyAccessToken: "T0"})
	c := newTestClient(t, server.URL, store)

	_, err := c.Get(context.Background(), PathProfile, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
	if n := srv.refreshCalls.Load(); n != 0 {
		t.Errorf("refresh calls = %d, want 0", n)
	}
	if store.RemoveAllCalls != 0 {
		t.Errorf("RemoveAll calls = %d, want 0", store.RemoveAllCalls)
	}
}

func TestPipeline_SkipRefresh(t *testing.T) {
	srv := &authServer{validToken: "T2", refresh: refreshReturning("T2", "")}
	server := httptest.NewServer(srv)
	defer server.Close()

	store := seededStore()
	c := newTestClient(t, server.URL, store)

	_, err := c.Do(context.Background(), &Request{
		Method:      http.MethodPost,
		Path:        PathLogin,
		Body:        map[string]string{"email": "a@b.com"},
		SkipRefresh: true,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
	if n := srv.refreshCalls.Load(); n != 0 {
		t.Errorf("refresh calls = %d, want 0", n)
	}
	if store.Len() != 3 {
		t.Errorf("store has %d entries, want 3", store.Len())
	}
}

func TestPipeline_UploadResentAfterRefresh(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1"+PathRefresh {
			refreshReturning("T2", "")(w, r)
			return
		}
		attempts.Add(1)

		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("attempt %d: FormFile: %v", attempts.Load(), err)
			writeJSON(w, http.StatusBadRequest, `{"message":"no file"}`)
			return
		}
		data, _ := io.ReadAll(f)
		f.Close()
		if string(data) != "image-data" {
			t.Errorf("attempt %d: file content = %q", attempts.Load(), data)
		}

		if r.Header.Get("Authorization") != "Bearer T2" {
			writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthorized"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"merchant":"Cafe"}}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, seededStore())
	form := &Form{Files: []File{{Field: "file", Name: "r.jpg", ContentType: "image/jpeg", Content: strings.NewReader("image-data")}}}

	if _, err := c.Upload(context.Background(), PathReceiptOCR, form); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("attempts = %d, want 2", n)
	}
}

func TestPipeline_RequestMarker(t *testing.T) {
	srv := &authServer{validToken: "T2", refresh: refreshReturning("T2", "")}
	server := httptest.NewServer(srv)
	defer server.Close()

	c := newTestClient(t, server.URL, seededStore())
	req := &Request{Method: http.MethodGet, Path: PathProfile}
	if _, err := c.Do(context.Background(), req); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if !req.Retried() {
		t.Error("Retried() = false after refresh")
	}
	if req.StatusCode() != http.StatusOK {
		t.Errorf("StatusCode() = %d, want 200", req.StatusCode())
	}
}

func TestPipeline_Metrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1"+PathBudgets {
			writeJSON(w, http.StatusOK, `{"success":true}`)
			return
		}
		writeJSON(w, http.StatusNotFound, `{"message":"not found"}`)
	}))
	defer server.Close()

	reg := metric.NewRegistry()
	c := New(Config{BaseURL: server.URL}, credstore.NewMemory(), WithLogger(logger.Discard()), WithMetrics(reg))

	c.Get(context.Background(), PathBudgets, nil)
	c.Get(context.Background(), BudgetPath("missing"), nil)

	if got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("GET", "200")); got != 1 {
		t.Errorf("GET 200 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("GET", "404")); got != 1 {
		t.Errorf("GET 404 = %v, want 1", got)
	}
}
