package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
)

type testEndpoint struct {
	path string
	init bool
}

func (e *testEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", e.path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (e *testEndpoint) RequiresInit() bool { return e.init }

func (e *testEndpoint) Command(func() string) *cobra.Command {
	return &cobra.Command{Use: e.path}
}

func TestRegistryRoutes(t *testing.T) {
	r := NewRegistry()
	for _, ep := range []*testEndpoint{{path: "/open"}, {path: "/guarded", init: true}} {
		if err := r.Register(ep); err != nil {
			t.Fatalf("Register(%s): %v", ep.path, err)
		}
	}

	if len(r.Endpoints()) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(r.Endpoints()))
	}
	routes := r.Routes()
	if routes[0].String() != "GET /open" || routes[0].RequiresInit {
		t.Errorf("unexpected first route %+v", routes[0])
	}
	if !routes[1].RequiresInit {
		t.Errorf("expected /guarded to require init")
	}

	mux := http.NewServeMux()
	r.RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	tests := []struct {
		path string
		want int
	}{
		{"/open", http.StatusNoContent},
		{"/guarded", http.StatusServiceUnavailable},
		{"/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestRegistryRejectsDuplicateRoute(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&testEndpoint{path: "/answer"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&testEndpoint{path: "/answer", init: true}); err == nil {
		t.Fatal("expected duplicate route error")
	}
	if len(r.Routes()) != 1 {
		t.Fatalf("duplicate must not be kept, got %d routes", len(r.Routes()))
	}
}
