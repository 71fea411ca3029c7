// Package service — extractor.go extrai perfil e palavras-chave da mensagem.
//
// Dois modos:
//   - com LLM: pede um JSON com texto corrigido, perfil, cidade e keywords
//   - sem LLM (determinístico): só procura o nome de uma cidade da região
//
// O extrator nunca devolve erro. Qualquer falha (LLM fora, JSON quebrado)
// vira {CorrectedText: texto original, Keywords: []} e o turno segue.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/chat/nlp"
	"github.com/boddenberg/bepit-bfa-go/internal/chat/port"
	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// maxKeywords limita quantos termos do LLM viram busca por tag.
const maxKeywords = 8

// Extractor transforma a mensagem crua numa Extraction.
type Extractor struct {
	llm    port.TextGenerator
	logger *zap.Logger
}

// NewExtractor cria o extrator. llm nil = modo determinístico.
func NewExtractor(llm port.TextGenerator, logger *zap.Logger) *Extractor {
	return &Extractor{llm: llm, logger: logger}
}

// Extract nunca falha. cities são as cidades da região do turno; slugs
// fora dessa lista são descartados.
func (e *Extractor) Extract(ctx context.Context, text string, cities []maindomain.City) domain.Extraction {
	ctx, span := chatTracer.Start(ctx, "Extractor.Extract")
	defer span.End()

	if e.llm == nil {
		return deterministicExtraction(text, cities)
	}

	raw, err := e.llm.Generate(ctx, extractionPrompt(text, cities))
	if err != nil {
		e.logger.Warn("extraction via LLM failed, using original text", zap.Error(err))
		return domain.Extraction{CorrectedText: text, Keywords: []string{}}
	}

	ext, err := parseExtraction(raw)
	if err != nil {
		e.logger.Warn("extraction returned malformed JSON", zap.Error(err))
		return domain.Extraction{CorrectedText: text, Keywords: []string{}}
	}

	if strings.TrimSpace(ext.CorrectedText) == "" {
		ext.CorrectedText = text
	}
	ext.Keywords = cleanKeywords(ext.Keywords)

	if ext.SuggestedCitySlug != nil && findCityBySlug(cities, *ext.SuggestedCitySlug) == nil {
		ext.SuggestedCitySlug = nil
	}
	// LLM não achou cidade: a varredura por nome ainda pode achar.
	if ext.SuggestedCitySlug == nil {
		if c := cityMentioned(text, cities); c != nil {
			slug := c.Slug
			ext.SuggestedCitySlug = &slug
		}
	}
	return ext
}

// deterministicExtraction só infere cidade. Keywords fica vazio e o chamador
// cai nos tokens da própria mensagem.
func deterministicExtraction(text string, cities []maindomain.City) domain.Extraction {
	ext := domain.Extraction{CorrectedText: text, Keywords: []string{}}
	if c := cityMentioned(text, cities); c != nil {
		slug := c.Slug
		ext.SuggestedCitySlug = &slug
	}
	return ext
}

// cityMentioned procura o nome (ou o slug com espaços) de cada cidade no
// texto, respeitando fronteira de palavra. O match mais longo ganha.
func cityMentioned(text string, cities []maindomain.City) *maindomain.City {
	padded := " " + strings.Join(nlp.Tokens(text), " ") + " "
	var best *maindomain.City
	bestLen := 0
	for i := range cities {
		for _, form := range []string{
			strings.Join(nlp.Tokens(cities[i].Name), " "),
			strings.Join(nlp.Tokens(strings.ReplaceAll(cities[i].Slug, "-", " ")), " "),
		} {
			if form == "" {
				continue
			}
			if strings.Contains(padded, " "+form+" ") && len(form) > bestLen {
				best, bestLen = &cities[i], len(form)
			}
		}
	}
	return best
}

func findCityBySlug(cities []maindomain.City, slug string) *maindomain.City {
	slug = strings.TrimSpace(strings.ToLower(slug))
	for i := range cities {
		if cities[i].Slug == slug {
			return &cities[i]
		}
	}
	return nil
}

// parseExtraction aceita JSON puro, JSON dentro de ```json ... ``` ou texto
// com um objeto no meio.
func parseExtraction(raw string) (domain.Extraction, error) {
	var ext domain.Extraction
	body := strings.TrimSpace(raw)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return ext, fmt.Errorf("no JSON object in LLM output")
	}
	if err := json.Unmarshal([]byte(body[start:end+1]), &ext); err != nil {
		return ext, fmt.Errorf("decoding extraction: %w", err)
	}
	return ext, nil
}

func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, kw := range in {
		n := nlp.Normalize(kw)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

func extractionPrompt(text string, cities []maindomain.City) string {
	slugs := make([]string, 0, len(cities))
	for _, c := range cities {
		slugs = append(slugs, c.Slug)
	}
	var b strings.Builder
	b.WriteString("Você é o extrator do concierge BEPIT. Analise a mensagem do turista e responda SOMENTE com um JSON:\n")
	b.WriteString(`{"corrected_text": string, "companion_type": string|null, "mood": string|null, "budget": string|null, "suggested_city_slug": string|null, "keywords": [string]}`)
	b.WriteString("\n\nRegras:\n")
	b.WriteString("- corrected_text: a mensagem com erros de digitação corrigidos\n")
	b.WriteString("- keywords: categorias e tipos de lugar que o turista procura (ex: pizza, praia, frutos do mar)\n")
	b.WriteString("- suggested_city_slug: um destes ou null: ")
	b.WriteString(strings.Join(slugs, ", "))
	b.WriteString("\n\nMensagem: ")
	b.WriteString(text)
	return b.String()
}
