// Package service — search.go busca candidatos no catálogo.
//
// Cada busca dispara em paralelo (errgroup):
//   - uma consulta curinga em nome/categoria com todos os termos
//   - uma consulta por tag para cada termo distinto
//
// O merge preserva a ordem: curinga primeiro, depois cada tag na ordem dos
// termos. Duplicados (mesmo nome+categoria+endereço) ficam só na primeira
// posição. O resultado é cortado em maxCandidates.
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/nlp"
	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/port"
)

const maxCandidates = 20

// SearchParams descreve uma busca de candidatos.
type SearchParams struct {
	CityIDs []string
	Kind    maindomain.ItemKind
	Terms   []string
	Limit   int
}

// Searcher executa a busca no CatalogStore.
type Searcher struct {
	catalog port.CatalogStore
	logger  *zap.Logger
}

// NewSearcher cria o Searcher.
func NewSearcher(catalog port.CatalogStore, logger *zap.Logger) *Searcher {
	return &Searcher{catalog: catalog, logger: logger}
}

// Search devolve candidatos ativos, sem duplicados, na ordem do merge.
// Sem cidades no escopo não consulta nada.
func (s *Searcher) Search(ctx context.Context, p SearchParams) ([]maindomain.Item, error) {
	ctx, span := chatTracer.Start(ctx, "Searcher.Search")
	defer span.End()

	if len(p.CityIDs) == 0 {
		return []maindomain.Item{}, nil
	}
	limit := p.Limit
	if limit <= 0 || limit > maxCandidates {
		limit = maxCandidates
	}

	tags := distinctNormalized(p.Terms)
	base := maindomain.ItemQuery{
		CityIDs:    p.CityIDs,
		Kind:       p.Kind,
		Terms:      wildcardTerms(p.Terms),
		ActiveOnly: true,
		Limit:      limit,
	}

	// Passo 1: consultas em paralelo, cada uma escreve no seu slot.
	results := make([][]maindomain.Item, 1+len(tags))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.catalog.SearchItems(gctx, base)
		results[0] = items
		return err
	})
	for i, tag := range tags {
		i, tag := i, tag
		g.Go(func() error {
			items, err := s.catalog.ItemsByTag(gctx, base, tag)
			results[i+1] = items
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Passo 2: merge na ordem fixa.
	merged := dedupeItems(results...)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	s.logger.Debug("search finished",
		zap.Int("cities", len(p.CityIDs)),
		zap.Int("terms", len(p.Terms)),
		zap.Int("candidates", len(merged)),
	)
	return merged, nil
}

// dedupeItems concatena as listas removendo repetidos. A chave é
// nome+categoria+endereço em minúsculas, não o id: o mesmo parceiro pode
// estar cadastrado duas vezes.
func dedupeItems(lists ...[]maindomain.Item) []maindomain.Item {
	out := make([]maindomain.Item, 0)
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, it := range list {
			key := itemKey(it)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}

func itemKey(it maindomain.Item) string {
	return strings.ToLower(strings.TrimSpace(it.Name)) + "|" +
		strings.ToLower(strings.TrimSpace(it.Category)) + "|" +
		strings.ToLower(strings.TrimSpace(it.Address))
}

// wildcardTerms manda a forma crua em minúsculas e a forma sem acento,
// pra casar tanto "Açaí" quanto "acai" no banco.
func wildcardTerms(terms []string) []string {
	out := make([]string, 0, len(terms)*2)
	seen := make(map[string]struct{})
	for _, t := range terms {
		for _, form := range []string{strings.ToLower(strings.TrimSpace(t)), nlp.Normalize(t)} {
			if form == "" {
				continue
			}
			if _, dup := seen[form]; dup {
				continue
			}
			seen[form] = struct{}{}
			out = append(out, form)
		}
	}
	return out
}

func distinctNormalized(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{})
	for _, t := range terms {
		n := nlp.Normalize(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
