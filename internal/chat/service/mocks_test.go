package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// --- Mocks ---

// mockCatalog é um catálogo em memória. SearchItems casa termos por
// substring em nome/categoria; ItemsByTag casa a tag exata.
type mockCatalog struct {
	mu      sync.Mutex
	regions []maindomain.Region
	cities  []maindomain.City
	items   []maindomain.Item

	regionErr error
	searchErr error

	searchQueries []maindomain.ItemQuery
	tagQueries    []string
	viewed        []string
	viewErr       error
}

func (m *mockCatalog) GetRegionBySlug(_ context.Context, slug string) (*maindomain.Region, error) {
	if m.regionErr != nil {
		return nil, m.regionErr
	}
	for i := range m.regions {
		if m.regions[i].Slug == slug {
			r := m.regions[i]
			return &r, nil
		}
	}
	return nil, &maindomain.ErrNotFound{Resource: "region", ID: slug}
}

func (m *mockCatalog) GetRegion(_ context.Context, id string) (*maindomain.Region, error) {
	for i := range m.regions {
		if m.regions[i].ID == id {
			r := m.regions[i]
			return &r, nil
		}
	}
	return nil, &maindomain.ErrNotFound{Resource: "region", ID: id}
}

func (m *mockCatalog) ListRegions(context.Context) ([]maindomain.Region, error) {
	return m.regions, nil
}

func (m *mockCatalog) CreateRegion(_ context.Context, r *maindomain.Region) (*maindomain.Region, error) {
	return r, nil
}

func (m *mockCatalog) UpdateRegion(_ context.Context, r *maindomain.Region) (*maindomain.Region, error) {
	return r, nil
}

func (m *mockCatalog) DeleteRegion(context.Context, string) error { return nil }

func (m *mockCatalog) ListCities(_ context.Context, regionID string) ([]maindomain.City, error) {
	out := []maindomain.City{}
	for _, c := range m.cities {
		if c.RegionID == regionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCatalog) GetCity(context.Context, string) (*maindomain.City, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCatalog) CreateCity(_ context.Context, c *maindomain.City) (*maindomain.City, error) {
	return c, nil
}

func (m *mockCatalog) UpdateCity(_ context.Context, c *maindomain.City) (*maindomain.City, error) {
	return c, nil
}

func (m *mockCatalog) DeleteCity(context.Context, string) error { return nil }

func (m *mockCatalog) SearchItems(_ context.Context, q maindomain.ItemQuery) ([]maindomain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchQueries = append(m.searchQueries, q)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	out := []maindomain.Item{}
	for _, it := range m.scoped(q) {
		if len(q.Terms) == 0 || matchesAny(it, q.Terms) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockCatalog) ItemsByTag(_ context.Context, q maindomain.ItemQuery, tag string) ([]maindomain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tagQueries = append(m.tagQueries, tag)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	out := []maindomain.Item{}
	for _, it := range m.scoped(q) {
		for _, t := range it.Tags {
			if t == tag {
				out = append(out, it)
				break
			}
		}
	}
	return out, nil
}

func (m *mockCatalog) scoped(q maindomain.ItemQuery) []maindomain.Item {
	inScope := make(map[string]bool, len(q.CityIDs))
	for _, id := range q.CityIDs {
		inScope[id] = true
	}
	out := []maindomain.Item{}
	for _, it := range m.items {
		if !inScope[it.CityID] || (q.ActiveOnly && !it.Active) {
			continue
		}
		if q.Kind != "" && it.Kind != q.Kind {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matchesAny(it maindomain.Item, terms []string) bool {
	name, cat := strings.ToLower(it.Name), strings.ToLower(it.Category)
	for _, t := range terms {
		if strings.Contains(name, t) || strings.Contains(cat, t) {
			return true
		}
	}
	return false
}

func (m *mockCatalog) ListItems(context.Context, maindomain.ItemFilter) ([]maindomain.Item, error) {
	return m.items, nil
}

func (m *mockCatalog) GetItem(context.Context, string) (*maindomain.Item, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCatalog) CreateItem(_ context.Context, it *maindomain.Item) (*maindomain.Item, error) {
	return it, nil
}

func (m *mockCatalog) UpdateItem(_ context.Context, it *maindomain.Item) (*maindomain.Item, error) {
	return it, nil
}

func (m *mockCatalog) DeleteItem(context.Context, string) error { return nil }

func (m *mockCatalog) IncrementItemViews(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewed = append(m.viewed, id)
	return m.viewErr
}

func (m *mockCatalog) TopItems(context.Context, int) ([]maindomain.Item, error) {
	return nil, nil
}

func (m *mockCatalog) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.searchQueries)
}

// mockConversations guarda estados num map. err != nil simula banco fora.
type mockConversations struct {
	states map[string]*domain.ConversationState
	err    error
	writes int
}

func newMockConversations() *mockConversations {
	return &mockConversations{states: map[string]*domain.ConversationState{}}
}

func (m *mockConversations) CreateConversation(_ context.Context, id, regionID string) error {
	m.writes++
	if m.err != nil {
		return m.err
	}
	if _, ok := m.states[id]; !ok {
		m.states[id] = &domain.ConversationState{ConversationID: id, RegionID: regionID}
	}
	return nil
}

func (m *mockConversations) GetConversation(_ context.Context, id string) (*domain.ConversationState, error) {
	if m.err != nil {
		return nil, m.err
	}
	cs, ok := m.states[id]
	if !ok {
		return nil, nil
	}
	out := *cs
	return &out, nil
}

func (m *mockConversations) SaveFocus(_ context.Context, id, regionID string, item *maindomain.Item) error {
	m.writes++
	if m.err != nil {
		return m.err
	}
	cs := m.getOrNew(id, regionID)
	cs.FocusedItem = item
	return nil
}

func (m *mockConversations) SaveSuggestions(_ context.Context, id, regionID string, items []maindomain.Item) error {
	m.writes++
	if m.err != nil {
		return m.err
	}
	cs := m.getOrNew(id, regionID)
	cs.SuggestedItems = items
	return nil
}

func (m *mockConversations) getOrNew(id, regionID string) *domain.ConversationState {
	cs, ok := m.states[id]
	if !ok {
		cs = &domain.ConversationState{ConversationID: id, RegionID: regionID}
		m.states[id] = cs
	}
	return cs
}

type mockInteractions struct {
	inserted  []*maindomain.Interaction
	insertErr error

	feedbackCalls int
	feedbackErr   error
}

func (m *mockInteractions) InsertInteraction(_ context.Context, in *maindomain.Interaction) (string, error) {
	if m.insertErr != nil {
		return "", m.insertErr
	}
	m.inserted = append(m.inserted, in)
	return "int-1", nil
}

func (m *mockInteractions) UpdateInteractionFeedback(context.Context, string, string) error {
	m.feedbackCalls++
	return m.feedbackErr
}

type mockAnalytics struct {
	events []*maindomain.AnalyticsEvent
	err    error
}

func (m *mockAnalytics) InsertEvent(_ context.Context, ev *maindomain.AnalyticsEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *mockAnalytics) ListEvents(context.Context, maindomain.EventFilter) ([]maindomain.AnalyticsEvent, error) {
	return nil, nil
}

func (m *mockAnalytics) types() []maindomain.EventType {
	out := make([]maindomain.EventType, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Type)
	}
	return out
}

type mockPublisher struct {
	published []maindomain.EventType
}

func (m *mockPublisher) Publish(_ context.Context, ev *maindomain.AnalyticsEvent) error {
	m.published = append(m.published, ev.Type)
	return nil
}

// mockLLM devolve respostas em sequência; depois da última, repete a última.
type mockLLM struct {
	replies []string
	err     error
	prompts []string
}

func (m *mockLLM) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	r := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return r, nil
}

// --- Fixtures ---

const (
	regionID = "reg-lagos"
	buziosID = "city-buzios"
	caboID   = "city-cabo"
)

func fixtureCatalog() *mockCatalog {
	return &mockCatalog{
		regions: []maindomain.Region{{ID: regionID, Name: "Região dos Lagos", Slug: "regiao-dos-lagos"}},
		cities: []maindomain.City{
			{ID: buziosID, RegionID: regionID, Name: "Búzios", Slug: "buzios"},
			{ID: caboID, RegionID: regionID, Name: "Cabo Frio", Slug: "cabo-frio"},
		},
		items: []maindomain.Item{
			{ID: "p1", CityID: buziosID, Kind: maindomain.ItemKindPartner, Name: "Pizzaria Bella", Category: "Pizzaria",
				Address: "Rua das Pedras, 10", Hours: "18h-23h", Tags: []string{"pizza"}, Photos: []string{"https://img/p1.jpg"}, Active: true},
			{ID: "p2", CityID: caboID, Kind: maindomain.ItemKindPartner, Name: "Forno Cabo", Category: "Pizzaria",
				Address: "Av. Central, 5", Tags: []string{"pizza"}, Active: true},
			{ID: "p3", CityID: buziosID, Kind: maindomain.ItemKindPartner, Name: "Sushi Mar", Category: "Comida Japonesa",
				Address: "Orla Bardot, 2", Tags: []string{"sushi", "japones"}, Active: true},
			{ID: "p4", CityID: buziosID, Kind: maindomain.ItemKindPartner, Name: "Pizza Velha", Category: "Pizzaria",
				Tags: []string{"pizza"}, Active: false},
			{ID: "t1", CityID: buziosID, Kind: maindomain.ItemKindTip, Name: "Estacione cedo", Category: "Dica",
				Description: "Depois das 10h a Rua das Pedras lota", Tags: []string{"estacionar"}, Active: true},
		},
	}
}
