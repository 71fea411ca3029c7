package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/service"
	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"
)

func testCities() []maindomain.City {
	return []maindomain.City{
		{ID: buziosID, Name: "Búzios", Slug: "buzios"},
		{ID: caboID, Name: "Cabo Frio", Slug: "cabo-frio"},
		{ID: "city-sp", Name: "São Pedro da Aldeia", Slug: "sao-pedro-da-aldeia"},
	}
}

func TestExtract_DeterministicNoCity(t *testing.T) {
	ext := service.NewExtractor(nil, zap.NewNop()).Extract(context.Background(), "quero uma pizza", testCities())

	if ext.SuggestedCitySlug != nil {
		t.Errorf("expected nil city, got %q", *ext.SuggestedCitySlug)
	}
	if ext.Keywords == nil || len(ext.Keywords) != 0 {
		t.Errorf("expected empty keywords, got %#v", ext.Keywords)
	}
	if ext.CorrectedText != "quero uma pizza" {
		t.Errorf("expected original text, got %q", ext.CorrectedText)
	}
	if ext.CompanionType != nil || ext.Mood != nil || ext.Budget != nil {
		t.Error("expected empty profile")
	}
}

func TestExtract_DeterministicCity(t *testing.T) {
	x := service.NewExtractor(nil, zap.NewNop())
	cases := []struct{ text, want string }{
		{"pizza em Búzios", "buzios"},
		{"vou pra CABO FRIO amanhã", "cabo-frio"},
		{"algo em sao pedro da aldeia?", "sao-pedro-da-aldeia"},
		{"restaurante em cabo-frio, por favor", "cabo-frio"},
	}
	for _, c := range cases {
		ext := x.Extract(context.Background(), c.text, testCities())
		if ext.SuggestedCitySlug == nil || *ext.SuggestedCitySlug != c.want {
			t.Errorf("Extract(%q) city = %v, want %s", c.text, ext.SuggestedCitySlug, c.want)
		}
	}
}

func TestExtract_DeterministicRequiresWordBoundary(t *testing.T) {
	ext := service.NewExtractor(nil, zap.NewNop()).Extract(context.Background(), "um cabo de vassoura", testCities())
	if ext.SuggestedCitySlug != nil {
		t.Errorf("expected no city, got %q", *ext.SuggestedCitySlug)
	}
}

func TestExtract_LLMParsesFencedJSON(t *testing.T) {
	llm := &mockLLM{replies: []string{"```json\n" +
		`{"corrected_text":"pizza barata","companion_type":"casal","mood":null,"budget":"baixo","suggested_city_slug":"cabo-frio","keywords":["Pizza","pizza","  ","Açaí"]}` +
		"\n```"}}
	ext := service.NewExtractor(llm, zap.NewNop()).Extract(context.Background(), "piza barata", testCities())

	if ext.CorrectedText != "pizza barata" {
		t.Errorf("unexpected corrected text %q", ext.CorrectedText)
	}
	if ext.CompanionType == nil || *ext.CompanionType != "casal" || ext.Mood != nil {
		t.Errorf("unexpected profile %+v", ext)
	}
	if ext.SuggestedCitySlug == nil || *ext.SuggestedCitySlug != "cabo-frio" {
		t.Errorf("unexpected city %v", ext.SuggestedCitySlug)
	}
	if len(ext.Keywords) != 2 || ext.Keywords[0] != "pizza" || ext.Keywords[1] != "acai" {
		t.Errorf("expected normalized distinct keywords, got %v", ext.Keywords)
	}
}

func TestExtract_LLMUnknownCityDiscarded(t *testing.T) {
	llm := &mockLLM{replies: []string{`Claro! {"corrected_text":"praia","suggested_city_slug":"rio-de-janeiro","keywords":["praia"]}`}}
	ext := service.NewExtractor(llm, zap.NewNop()).Extract(context.Background(), "praia", testCities())

	if ext.SuggestedCitySlug != nil {
		t.Errorf("expected unknown slug discarded, got %q", *ext.SuggestedCitySlug)
	}
}

func TestExtract_LLMMissingCityFallsBackToScan(t *testing.T) {
	llm := &mockLLM{replies: []string{`{"corrected_text":"praia em buzios","suggested_city_slug":null,"keywords":["praia"]}`}}
	ext := service.NewExtractor(llm, zap.NewNop()).Extract(context.Background(), "praia em búzios", testCities())

	if ext.SuggestedCitySlug == nil || *ext.SuggestedCitySlug != "buzios" {
		t.Errorf("expected scan to find buzios, got %v", ext.SuggestedCitySlug)
	}
}

func TestExtract_LLMMalformedJSON(t *testing.T) {
	llm := &mockLLM{replies: []string{"```json\n{\"corrected_text\": \"oops\",\n```"}}
	ext := service.NewExtractor(llm, zap.NewNop()).Extract(context.Background(), "pizza em Búzios", testCities())

	if ext.CorrectedText != "pizza em Búzios" {
		t.Errorf("expected original text, got %q", ext.CorrectedText)
	}
	if ext.SuggestedCitySlug != nil || len(ext.Keywords) != 0 {
		t.Errorf("expected no enrichment, got %+v", ext)
	}
}

func TestExtract_LLMError(t *testing.T) {
	llm := &mockLLM{err: errors.New("timeout")}
	ext := service.NewExtractor(llm, zap.NewNop()).Extract(context.Background(), "oi", testCities())

	if ext.CorrectedText != "oi" || ext.Keywords == nil {
		t.Errorf("unexpected extraction %+v", ext)
	}
}
