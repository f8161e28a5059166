package routes_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/smart-ocr/pkg/routes"
)

func write(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body + r.PathValue("id")))
	}
}

func TestBuild(t *testing.T) {
	sys := routes.New(slog.New(slog.DiscardHandler))
	sys.RegisterRoute(routes.Route{Method: "GET", Pattern: "/healthz", Handler: write("ok")})
	sys.RegisterGroup(routes.Group{
		Prefix: "/api",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/status/{id}", Handler: write("status:")},
		},
		Children: []routes.Group{
			{Prefix: "/jobs", Routes: []routes.Route{{Method: "GET", Pattern: "", Handler: write("jobs")}}},
		},
	})

	handler := sys.Build()

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"GET", "/healthz", http.StatusOK, "ok"},
		{"GET", "/api/status/abc", http.StatusOK, "status:abc"},
		{"GET", "/api/jobs", http.StatusOK, "jobs"},
		{"POST", "/api/jobs", http.StatusMethodNotAllowed, ""},
		{"GET", "/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestGroup_Patterns(t *testing.T) {
	g := routes.Group{
		Prefix: "/api",
		Routes: []routes.Route{{Method: "POST", Pattern: "/upload"}},
		Children: []routes.Group{
			{Prefix: "/jobs", Routes: []routes.Route{{Method: "GET", Pattern: ""}}},
		},
	}

	got := g.Patterns()
	want := []string{"POST /api/upload", "GET /api/jobs"}
	if !slices.Equal(got, want) {
		t.Errorf("Patterns() = %v, want %v", got, want)
	}
}
