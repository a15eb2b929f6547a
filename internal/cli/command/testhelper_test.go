package command

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"
)

const testUserJSON = `{"id":"6f1c2a9e-3b7d-4c1e-9a55-0d8e2f4b7c10","email":"a@b.com","first_name":"Ada",` +
	`"last_name":"Lovelace","is_active":true,"role":"member"}`

const loginJSON = `{"user":` + testUserJSON + `,"access_token":"T1","refresh_token":"R1","expires_in":3600}`

// mockAPI is a Kinance API stand-in answering with response envelopes.
type mockAPI struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    []string
	bodies   map[string][]byte
}

func newMockAPI(t *testing.T) *mockAPI {
	t.Helper()
	m := &mockAPI{
		handlers: make(map[string]http.HandlerFunc),
		bodies:   make(map[string][]byte),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api/v1")
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		m.mu.Lock()
		m.calls = append(m.calls, key)
		m.bodies[key] = body
		handler, ok := m.handlers[key]
		m.mu.Unlock()

		if !ok {
			respondError(w, http.StatusNotFound, "Not found", nil)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers fn for "METHOD /path", the path without the version prefix.
func (m *mockAPI) handle(route string, fn http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[route] = fn
}

// member registers fn behind a bearer token check.
func (m *mockAPI) member(route string, fn http.HandlerFunc) {
	m.handle(route, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T1" {
			respondError(w, http.StatusUnauthorized, "Token expired", nil)
			return
		}
		fn(w, r)
	})
}

func (m *mockAPI) withLogin() *mockAPI {
	m.handle("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		respondOK(w, http.StatusOK, loginJSON)
	})
	return m
}

func (m *mockAPI) body(route string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bodies[route]
}

func (m *mockAPI) count(route string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == route {
			n++
		}
	}
	return n
}

// respondOK writes a success envelope around raw JSON data.
func respondOK(w http.ResponseWriter, status int, data string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, `{"success":true,"data":`+data+`}`)
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
		"errors":  fields,
	})
}

// cliEnv runs the App against a mock API with credentials and
// configuration under a temporary directory.
type cliEnv struct {
	t          *testing.T
	api        *mockAPI
	configPath string
	dir        string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KINANCE_STORE__DIR", filepath.Join(dir, "store"))
	t.Setenv("KINANCE_SHELL__HISTORY_FILE", filepath.Join(dir, "history"))
	return &cliEnv{
		t:          t,
		api:        newMockAPI(t),
		configPath: filepath.Join(dir, "cli.yaml"),
		dir:        dir,
	}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the CLI with args after the connection flags, feeding input
// to prompts.
func (e *cliEnv) run(input string, args ...string) result {
	e.t.Helper()
	var stdout, stderr bytes.Buffer

	app := App()
	app.Reader = strings.NewReader(input)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{app.Name, "--server", e.api.URL, "--config", e.configPath}, args...)
	err := app.Run(full)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// mustRun is run that fails the test on error.
func (e *cliEnv) mustRun(input string, args ...string) result {
	e.t.Helper()
	res := e.run(input, args...)
	if res.err != nil {
		e.t.Fatalf("%v: %v\nstderr: %s", args, res.err, res.stderr)
	}
	return res
}

func (e *cliEnv) login() {
	e.t.Helper()
	e.api.withLogin()
	e.mustRun("", "login", "--email", "a@b.com", "--password", "Aa1bcdef")
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
