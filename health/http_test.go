package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func newRouter(checkers ...Checker) *mux.Router {
	agg := NewAggregator()
	for _, c := range checkers {
		agg.Register(c)
	}
	r := mux.NewRouter()
	RegisterHandlers(r, agg)
	return r
}

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	r := newRouter(static("down", Unhealthy("down", nil)))
	rec := serve(t, r, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantCode int
		wantBody string
	}{
		{"healthy", Healthy("ok"), http.StatusOK, "OK"},
		{"degraded", Degraded("slow"), http.StatusOK, "DEGRADED"},
		{"unhealthy", Unhealthy("down", nil), http.StatusServiceUnavailable, "UNHEALTHY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, newRouter(static("x", tt.result)), http.MethodGet, "/readyz")
			if rec.Code != tt.wantCode || rec.Body.String() != tt.wantBody {
				t.Errorf("GET /readyz = %d %q, want %d %q", rec.Code, rec.Body.String(), tt.wantCode, tt.wantBody)
			}
		})
	}
}

func TestDetailed(t *testing.T) {
	r := newRouter(
		static("provider", Healthy("2 chains reachable")),
		static("cache", Unhealthy("broken", errors.New("boom"))),
	)
	rec := serve(t, r, http.MethodGet, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "unhealthy" || len(resp.Checks) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Checks["cache"].Error != "boom" || resp.Checks["provider"].Status != "healthy" {
		t.Errorf("checks = %+v", resp.Checks)
	}
}

func TestSingleCheck(t *testing.T) {
	r := newRouter(NewCheckerFunc("cache", func(context.Context) Result { return Degraded("busy") }))

	rec := serve(t, r, http.MethodGet, "/health/cache")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var resp CheckResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "degraded" || resp.Message != "busy" {
		t.Errorf("resp = %+v", resp)
	}

	if rec := serve(t, r, http.MethodGet, "/health/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown checker code = %d", rec.Code)
	}
}

func TestRoutes_RejectWrongMethod(t *testing.T) {
	rec := serve(t, newRouter(), http.MethodPost, "/readyz")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /readyz = %d, want 405", rec.Code)
	}
}
