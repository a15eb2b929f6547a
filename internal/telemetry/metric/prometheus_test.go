package metric

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.RequestsTotal == nil || r.RequestDuration == nil || r.RefreshTotal == nil || r.StoreOpsTotal == nil {
		t.Error("all metric vectors should be initialized")
	}
}

func TestObserveRequest(t *testing.T) {
	r := NewRegistry()

	r.ObserveRequest("GET", 200, 30*time.Millisecond)
	r.ObserveRequest("GET", 200, 40*time.Millisecond)
	r.ObserveRequest("POST", 401, 10*time.Millisecond)

	if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("GET", "200")); got != 2 {
		t.Errorf("GET 200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("POST", "401")); got != 1 {
		t.Errorf("POST 401 = %v, want 1", got)
	}
}

func TestObserveRefresh(t *testing.T) {
	r := NewRegistry()

	r.ObserveRefresh(RefreshSuccess)
	r.ObserveRefresh(RefreshFailure)
	r.ObserveRefresh(RefreshFailure)

	if got := testutil.ToFloat64(r.RefreshTotal.WithLabelValues(RefreshFailure)); got != 2 {
		t.Errorf("failure = %v, want 2", got)
	}
}

func TestObserveStoreOp(t *testing.T) {
	r := NewRegistry()

	r.ObserveStoreOp("set_all", nil)
	r.ObserveStoreOp("remove_all", errors.New("disk full"))

	if got := testutil.ToFloat64(r.StoreOpsTotal.WithLabelValues("set_all", "ok")); got != 1 {
		t.Errorf("set_all ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.StoreOpsTotal.WithLabelValues("remove_all", "error")); got != 1 {
		t.Errorf("remove_all error = %v, want 1", got)
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	// Should not panic
	r.ObserveRequest("GET", 200, time.Millisecond)
	r.ObserveRefresh(RefreshSuccess)
	r.ObserveStoreOp("get", nil)
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.ObserveRefresh(RefreshSuccess)

	path := filepath.Join(t.TempDir(), "kinance.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "kinance_session_token_refresh_total") {
		t.Error("textfile should contain refresh counter")
	}
}
