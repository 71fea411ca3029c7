package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/supabase"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return supabase.NewClient(
		&http.Client{Timeout: 2 * time.Second},
		srv.URL,
		"anon-key",
		"service-key",
		resilience.NewCircuitBreaker("test"),
		resilience.Config{},
		zap.NewNop(),
	)
}

func TestGetRegionBySlug_SendsAuthHeadersAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("missing apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer service-key" {
			t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/rest/v1/regions" || r.URL.Query().Get("slug") != "eq.regiao-dos-lagos" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Write([]byte(`[{"id":"r1","name":"Região dos Lagos","slug":"regiao-dos-lagos"}]`))
	})

	region, err := c.GetRegionBySlug(context.Background(), "regiao-dos-lagos")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if region.ID != "r1" || region.Name != "Região dos Lagos" {
		t.Errorf("unexpected region %+v", region)
	}
}

func TestGetRegionBySlug_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := c.GetRegionBySlug(context.Background(), "nowhere")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRegionBySlug_UpstreamFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetRegionBySlug(context.Background(), "x")
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestSearchItems_BuildsScopedWildcardQuery(t *testing.T) {
	var query string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`[{"id":"i1","name":"Pizzaria Bella","category":"Pizzaria","active":true}]`))
	})

	items, err := c.SearchItems(context.Background(), domain.ItemQuery{
		CityIDs:    []string{"c1"},
		Kind:       domain.ItemKindPartner,
		Terms:      []string{"pizza"},
		ActiveOnly: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "i1" {
		t.Fatalf("unexpected items %+v", items)
	}
	for _, want := range []string{"city_id=in.", "kind=eq.PARTNER", "active=is.true", "name.ilike.", "category.ilike."} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
}

func TestSearchItems_ReservedOnlyTermMatchesNothing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.String())
		w.Write([]byte(`[{"id":"i1","name":"Pizzaria Bella"}]`))
	})

	items, err := c.SearchItems(context.Background(), domain.ItemQuery{
		CityIDs: []string{"c1"},
		Terms:   []string{"...", "(*)"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %+v", items)
	}
}

func TestSearchItems_SkipsReservedOnlyTerm(t *testing.T) {
	var query string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`[]`))
	})

	if _, err := c.SearchItems(context.Background(), domain.ItemQuery{
		CityIDs: []string{"c1"},
		Terms:   []string{"...", "pizza"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(query, "pizza") {
		t.Errorf("query %q missing pizza", query)
	}
	if strings.Contains(query, "%2A%2A") || strings.Contains(query, "**") {
		t.Errorf("query %q carries a match-all wildcard", query)
	}
}

func TestItemsByTag_UsesArrayContains(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tags"); got != `cs.{"pizza"}` {
			t.Errorf("unexpected tags filter %q", got)
		}
		w.Write([]byte(`[]`))
	})

	items, err := c.ItemsByTag(context.Background(), domain.ItemQuery{CityIDs: []string{"c1"}}, "pizza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestGetConversation_UnknownReturnsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	state, err := c.GetConversation(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil state, got %+v", state)
	}
}

func TestSaveFocus_UpsertsSnapshot(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Query().Get("on_conflict") != "id" {
			t.Errorf("expected upsert, got %s %s", r.Method, r.URL.String())
		}
		if !strings.Contains(r.Header.Get("Prefer"), "merge-duplicates") {
			t.Errorf("missing merge-duplicates preference")
		}
		var body map[string]json.RawMessage
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if _, ok := body["focused_item"]; !ok {
			t.Errorf("body missing focused_item: %s", raw)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"conv-1"}]`))
	})

	err := c.SaveFocus(context.Background(), "conv-1", "r1", &domain.Item{ID: "i1", Name: "Sushi Mar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInsertInteraction_ReturnsID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"int-9","region_id":"r1","conversation_id":"c1"}]`))
	})

	id, err := c.InsertInteraction(context.Background(), &domain.Interaction{RegionID: "r1", ConversationID: "c1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "int-9" {
		t.Errorf("expected int-9, got %q", id)
	}
}

func TestUpdateInteractionFeedback_UnknownID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	err := c.UpdateInteractionFeedback(context.Background(), "nope", "bom")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateInteractionFeedback_MalformedIDIsValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"22P02","details":null,"hint":null,"message":"invalid input syntax for type uuid: \"not-a-uuid\""}`))
	})

	err := c.UpdateInteractionFeedback(context.Background(), "not-a-uuid", "bom")
	var val *domain.ErrValidation
	if !errors.As(err, &val) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var ext *domain.ErrExternalService
	if errors.As(err, &ext) {
		t.Errorf("malformed id must not be reported as an upstream failure: %v", err)
	}
}

func TestGetRegionBySlug_UnmappedBadRequestIsExternal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"PGRST100","message":"failed to parse filter"}`))
	})

	_, err := c.GetRegionBySlug(context.Background(), "x")
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestCount_ReadsContentRange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Prefer") != "count=exact" {
			t.Errorf("expected count=exact, got %q", r.Header.Get("Prefer"))
		}
		if r.URL.Query().Get("type") != "eq.search" {
			t.Errorf("expected type filter, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Range", "0-0/42")
	})

	n, err := c.Count(context.Background(), "analytics_events", domain.EventSearch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
}

func TestCount_RejectsUnknownTable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.Count(context.Background(), "users", "")
	var v *domain.ErrValidation
	if !errors.As(err, &v) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestIncrementItemViews_CallsRPC(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/rpc/increment_item_view" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.IncrementItemViews(context.Background(), "i1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
