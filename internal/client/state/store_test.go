package state

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kinance/kinance-go/internal/client/apiclient"
	"github.com/kinance/kinance-go/internal/client/credstore"
	"github.com/kinance/kinance-go/internal/client/credstore/storefake"
	"github.com/kinance/kinance-go/internal/client/session"
	"github.com/kinance/kinance-go/internal/telemetry/logger"
)

const testUserJSON = `{"id":"6f1c2a9e-3b7d-4c1e-9a55-0d8e2f4b7c10","email":"a@b.com","first_name":"Ada",` +
	`"last_name":"Lovelace","is_active":true,"role":"member"}`

// recorder collects published snapshots.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) listen(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

func newTestStore(t *testing.T, handler http.Handler, creds *storefake.Store) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := apiclient.New(apiclient.Config{BaseURL: server.URL}, creds, apiclient.WithLogger(logger.Discard()))
	manager := session.NewManager(client, creds, session.WithLogger(logger.Discard()))
	return New(manager, logger.Discard())
}

func respond(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	})
}

func TestStore_InitialState(t *testing.T) {
	s := New(nil, nil)
	snap := s.Snapshot()
	if snap.IsAuthenticated || snap.IsLoading || snap.User != nil {
		t.Errorf("initial snapshot = %+v, want zero", snap)
	}
}

func TestStore_Login(t *testing.T) {
	creds := storefake.New(nil)
	s := newTestStore(t, respond(http.StatusOK, `{"success":true,"data":{"user":`+testUserJSON+
		`,"access_token":"T1","refresh_token":"R1","expires_in":3600}}`), creds)

	rec := &recorder{}
	s.Subscribe(rec.listen)

	if err := s.Login(context.Background(), "a@b.com", "Aa1bcdef"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	snap := s.Snapshot()
	if !snap.IsAuthenticated || snap.IsLoading {
		t.Errorf("snapshot = %+v, want authenticated and not loading", snap)
	}
	if snap.User == nil || snap.User.Email != "a@b.com" {
		t.Errorf("User = %+v", snap.User)
	}
	if v, _ := creds.Value(credstore.KeyAccessToken); v != "T1" {
		t.Errorf("access token = %q, want T1", v)
	}
	if v, _ := creds.Value(credstore.KeyRefreshToken); v != "R1" {
		t.Errorf("refresh token = %q, want R1", v)
	}

	snaps := rec.all()
	if len(snaps) != 2 {
		t.Fatalf("published %d snapshots, want 2", len(snaps))
	}
	if !snaps[0].IsLoading || snaps[0].IsAuthenticated {
		t.Errorf("first snapshot = %+v, want loading", snaps[0])
	}
}

func TestStore_LoginFailure(t *testing.T) {
	creds := storefake.New(nil)
	s := newTestStore(t, respond(http.StatusOK, `{"success":false,"message":"Invalid credentials"}`), creds)

	err := s.Login(context.Background(), "a@b.com", "wrong")
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Invalid credentials" {
		t.Fatalf("error = %v, want Invalid credentials", err)
	}

	snap := s.Snapshot()
	if snap.IsAuthenticated || snap.IsLoading || snap.User != nil {
		t.Errorf("snapshot = %+v, want logged out and not loading", snap)
	}
	if creds.SetAllCalls != 0 || creds.RemoveAllCalls != 0 {
		t.Errorf("store mutated: SetAll=%d RemoveAll=%d", creds.SetAllCalls, creds.RemoveAllCalls)
	}
}

func TestStore_Register(t *testing.T) {
	creds := storefake.New(nil)
	s := newTestStore(t, respond(http.StatusCreated, `{"success":true,"data":{"user":`+testUserJSON+
		`,"access_token":"T1","refresh_token":"R1","expires_in":3600}}`), creds)

	req := session.RegisterRequest{Email: "a@b.com", Password: "Aa1bcdef", FirstName: "Ada", LastName: "Lovelace"}
	if err := s.Register(context.Background(), req); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !s.Snapshot().IsAuthenticated {
		t.Error("IsAuthenticated = false after register")
	}
}

func TestStore_CheckAuthStatus(t *testing.T) {
	tests := []struct {
		name      string
		seed      map[credstore.Key]string
		failGet   bool
		wantAuth  bool
		wantUser  bool
		wantError bool
	}{
		{
			name:     "logged in",
			seed:     map[credstore.Key]string{credstore.KeyAccessToken: "T1", credstore.KeyUserProfile: testUserJSON},
			wantAuth: true,
			wantUser: true,
		},
		{
			name: "empty store",
		},
		{
			name: "token without profile",
			seed: map[credstore.Key]string{credstore.KeyAccessToken: "T1"},
		},
		{
			name:     "profile without token",
			seed:     map[credstore.Key]string{credstore.KeyUserProfile: testUserJSON},
			wantUser: true,
		},
		{
			name: "corrupt profile",
			seed: map[credstore.Key]string{credstore.KeyAccessToken: "T1", credstore.KeyUserProfile: `{not json`},
		},
		{
			name:      "storage failure",
			seed:      map[credstore.Key]string{credstore.KeyAccessToken: "T1", credstore.KeyUserProfile: testUserJSON},
			failGet:   true,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := storefake.New(tt.seed)
			creds.FailGet = tt.failGet
			s := newTestStore(t, http.NotFoundHandler(), creds)

			err := s.CheckAuthStatus(context.Background())
			if (err != nil) != tt.wantError {
				t.Errorf("CheckAuthStatus error = %v, wantError %v", err, tt.wantError)
			}

			snap := s.Snapshot()
			if snap.IsLoading {
				t.Error("IsLoading = true after check")
			}
			if snap.IsAuthenticated != tt.wantAuth {
				t.Errorf("IsAuthenticated = %v, want %v", snap.IsAuthenticated, tt.wantAuth)
			}
			if (snap.User != nil) != tt.wantUser {
				t.Errorf("User = %+v, wantUser %v", snap.User, tt.wantUser)
			}
		})
	}
}

func TestStore_Logout(t *testing.T) {
	tests := []struct {
		name      string
		failRm    bool
		wantError bool
	}{
		{"removal succeeds", false, false},
		{"removal fails", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := storefake.New(map[credstore.Key]string{
				credstore.KeyAccessToken:  "T1",
				credstore.KeyRefreshToken: "R1",
				credstore.KeyUserProfile:  testUserJSON,
			})
			creds.FailRemoveAll = tt.failRm
			s := newTestStore(t, http.NotFoundHandler(), creds)

			if err := s.CheckAuthStatus(context.Background()); err != nil {
				t.Fatalf("CheckAuthStatus failed: %v", err)
			}
			if !s.Snapshot().IsAuthenticated {
				t.Fatal("precondition: should be authenticated")
			}

			err := s.Logout(context.Background())
			if (err != nil) != tt.wantError {
				t.Errorf("Logout error = %v, wantError %v", err, tt.wantError)
			}

			snap := s.Snapshot()
			if snap.IsAuthenticated || snap.IsLoading || snap.User != nil {
				t.Errorf("snapshot = %+v, want logged out", snap)
			}
		})
	}
}

func TestStore_SetUser(t *testing.T) {
	s := New(nil, logger.Discard())
	user := &session.UserProfile{Email: "a@b.com"}
	s.SetUser(user)

	snap := s.Snapshot()
	if snap.User != user {
		t.Errorf("User = %+v, want %+v", snap.User, user)
	}
	if snap.IsAuthenticated {
		t.Error("SetUser must not change IsAuthenticated")
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	s := New(nil, logger.Discard())
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.listen)

	s.SetUser(&session.UserProfile{Email: "a@b.com"})
	unsubscribe()
	unsubscribe()
	s.SetUser(nil)

	if n := len(rec.all()); n != 1 {
		t.Errorf("received %d snapshots, want 1", n)
	}
}
