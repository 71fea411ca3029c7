package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chatdomain "github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/handler"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bepit-bfa-go/internal/port"
	"github.com/boddenberg/bepit-bfa-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

// stubStore implements port.Store; methods not overridden panic.
type stubStore struct {
	port.Store
	regions []domain.Region
	pingErr error
}

func (s *stubStore) ListRegions(context.Context) ([]domain.Region, error) { return s.regions, nil }

func (s *stubStore) Count(context.Context, string, domain.EventType) (int64, error) { return 3, nil }

func (s *stubStore) TopItems(context.Context, int) ([]domain.Item, error) { return nil, nil }

func (s *stubStore) Ping(context.Context) error { return s.pingErr }

type stubChat struct{}

func (stubChat) ProcessMessage(_ context.Context, _ string, _ *chatdomain.ChatRequest) (*chatdomain.ChatResponse, error) {
	return &chatdomain.ChatResponse{Reply: "oi", PhotoLinks: []string{}, ConversationID: "c1"}, nil
}

func (stubChat) SubmitFeedback(context.Context, *domain.FeedbackRequest) error { return nil }

func newTestRouter(store *stubStore, rateLimit int) http.Handler {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	return handler.NewRouter(handler.RouterDeps{
		Chat:          stubChat{},
		Catalog:       service.NewCatalogService(store, logger),
		Stats:         service.NewMetricsService(store, metrics, logger),
		Auth:          service.NewAdminAuth("s3cret", "", "jwt-secret", time.Hour, logger),
		Metrics:       metrics,
		Health:        []handler.HealthCheck{{Name: "store", Pinger: store, Critical: true}},
		Logger:        logger,
		DefaultRegion: "regiao-dos-lagos",
		ChatRateLimit: rateLimit,
	})
}

func do(h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	var body *strings.Reader
	if method == http.MethodPost {
		body = strings.NewReader(`{"message":"oi"}`)
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHealth(t *testing.T) {
	rec := do(newTestRouter(&stubStore{}, 0), http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	rec := do(newTestRouter(&stubStore{}, 0), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = do(newTestRouter(&stubStore{pingErr: context.DeadlineExceeded}, 0), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with store down, got %d", rec.Code)
	}
	var status domain.HealthStatus
	json.NewDecoder(rec.Body).Decode(&status)
	if status.Status != "unhealthy" {
		t.Errorf("expected unhealthy, got %q", status.Status)
	}
}

func TestReadyz(t *testing.T) {
	rec := do(newTestRouter(&stubStore{}, 0), http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	rec := do(newTestRouter(&stubStore{}, 0), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestPing(t *testing.T) {
	rec := do(newTestRouter(&stubStore{}, 0), http.MethodGet, "/ping", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestChatRoute(t *testing.T) {
	rec := do(newTestRouter(&stubStore{}, 0), http.MethodPost, "/api/chat/regiao-dos-lagos", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestChatRateLimit(t *testing.T) {
	router := newTestRouter(&stubStore{}, 2)
	for i := 0; i < 2; i++ {
		if rec := do(router, http.MethodPost, "/api/chat", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	if rec := do(router, http.MethodPost, "/api/chat", nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}

func TestAdmin_RequiresKey(t *testing.T) {
	router := newTestRouter(&stubStore{}, 0)

	if rec := do(router, http.MethodGet, "/api/admin/regions", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/api/admin/regions", map[string]string{"X-Admin-Key": "nope"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong key, got %d", rec.Code)
	}
}

func TestAdmin_ListRegionsWithKey(t *testing.T) {
	store := &stubStore{regions: []domain.Region{{ID: "r1", Name: "Região dos Lagos", Slug: "regiao-dos-lagos"}}}
	rec := do(newTestRouter(store, 0), http.MethodGet, "/api/admin/regions", map[string]string{"X-Admin-Key": "s3cret"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var regions []domain.Region
	json.NewDecoder(rec.Body).Decode(&regions)
	if len(regions) != 1 || regions[0].Slug != "regiao-dos-lagos" {
		t.Errorf("unexpected regions %+v", regions)
	}
}

func TestAdmin_SessionToken(t *testing.T) {
	router := newTestRouter(&stubStore{}, 0)

	rec := do(router, http.MethodPost, "/api/admin/session", map[string]string{"X-Admin-Key": "s3cret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sess domain.AdminSession
	json.NewDecoder(rec.Body).Decode(&sess)
	if sess.Token == "" {
		t.Fatal("expected token")
	}

	rec = do(router, http.MethodGet, "/api/admin/metrics/summary", map[string]string{"Authorization": "Bearer " + sess.Token})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with session, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(router, http.MethodGet, "/api/admin/metrics/runtime", map[string]string{"Authorization": "Bearer garbage"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestAdmin_SessionBadKey(t *testing.T) {
	rec := do(newTestRouter(&stubStore{}, 0), http.MethodPost, "/api/admin/session", map[string]string{"X-Admin-Key": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAdmin_LogsBadQuery(t *testing.T) {
	rec := do(newTestRouter(&stubStore{}, 0), http.MethodGet, "/api/admin/logs?from=yesterday", map[string]string{"X-Admin-Key": "s3cret"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
