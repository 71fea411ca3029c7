package service_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/service"
	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"
)

func dupCatalog() *mockCatalog {
	return &mockCatalog{items: []maindomain.Item{
		{ID: "a1", CityID: buziosID, Kind: maindomain.ItemKindPartner, Name: "Bar do Zé", Category: "Bar",
			Address: "Rua A, 1", Tags: []string{"chopp"}, Active: true},
		{ID: "a2", CityID: buziosID, Kind: maindomain.ItemKindPartner, Name: "BAR DO ZÉ", Category: "bar",
			Address: "rua a, 1", Tags: []string{"chopp"}, Active: true},
		{ID: "b1", CityID: buziosID, Kind: maindomain.ItemKindPartner, Name: "Quiosque Azul", Category: "Quiosque",
			Address: "Praia", Tags: []string{"chopp"}, Active: true},
		{ID: "c1", CityID: caboID, Kind: maindomain.ItemKindPartner, Name: "Bar do Porto", Category: "Bar",
			Tags: []string{"chopp"}, Active: true},
	}}
}

func TestSearch_DedupesByNameCategoryAddress(t *testing.T) {
	s := service.NewSearcher(dupCatalog(), zap.NewNop())

	items, err := s.Search(context.Background(), service.SearchParams{
		CityIDs: []string{buziosID},
		Kind:    maindomain.ItemKindPartner,
		Terms:   []string{"bar", "chopp"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// wildcard "bar" → a1, a2(dup); tag "chopp" → a1, a2, b1
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].ID != "a1" || items[1].ID != "b1" {
		t.Errorf("expected wildcard results first then tag results, got %s, %s", items[0].ID, items[1].ID)
	}
}

func TestSearch_Idempotent(t *testing.T) {
	s := service.NewSearcher(dupCatalog(), zap.NewNop())
	p := service.SearchParams{CityIDs: []string{buziosID, caboID}, Terms: []string{"chopp", "bar"}}

	first, err := s.Search(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Search(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected same result size, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("position %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestSearch_OneTagQueryPerDistinctTerm(t *testing.T) {
	cat := dupCatalog()
	s := service.NewSearcher(cat, zap.NewNop())

	_, err := s.Search(context.Background(), service.SearchParams{
		CityIDs: []string{buziosID},
		Terms:   []string{"Açaí", "acai", "chopp"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.tagQueries) != 2 {
		t.Errorf("expected 2 tag queries, got %v", cat.tagQueries)
	}
	terms := cat.searchQueries[0].Terms
	want := []string{"açaí", "acai", "chopp"}
	if len(terms) != len(want) {
		t.Fatalf("expected wildcard terms %v, got %v", want, terms)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("term %d: expected %q, got %q", i, want[i], terms[i])
		}
	}
}

func TestSearch_NoCitiesNoQuery(t *testing.T) {
	cat := dupCatalog()
	items, err := service.NewSearcher(cat, zap.NewNop()).Search(context.Background(), service.SearchParams{Terms: []string{"bar"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 || cat.searchCount() != 0 {
		t.Error("expected no query without cities")
	}
}

func TestSearch_CapsResults(t *testing.T) {
	cat := &mockCatalog{}
	for i := 0; i < 30; i++ {
		cat.items = append(cat.items, maindomain.Item{
			ID: string(rune('a' + i)), CityID: buziosID, Name: "Loja " + string(rune('A'+i)), Active: true,
		})
	}
	items, err := service.NewSearcher(cat, zap.NewNop()).Search(context.Background(), service.SearchParams{
		CityIDs: []string{buziosID},
		Limit:   5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 5 {
		t.Errorf("expected 5 items, got %d", len(items))
	}
}
