package adminhttp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"javelin/internal/fanout"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleHealthz(t *testing.T) {
	s := New(fanout.NewRegistry(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want 200", rec.Code)
	}
}

func TestHandleStreamsReflectsRegistry(t *testing.T) {
	registry := fanout.NewRegistry()
	ch := registry.GetOrCreate("live")
	ch.SetPublisher(1, "secret", fanout.PolicyReplace, fanout.NewPeerTable())
	ch.AddWatcher(2, fanout.NewMailbox())

	s := New(registry, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/streams", nil)
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/streams status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"app":"live"`) || !strings.Contains(body, `"publishing":true`) {
		t.Fatalf("response body missing expected stream fields: %s", body)
	}
}
