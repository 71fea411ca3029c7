// Package service — state_store.go guarda o estado de cada conversa
// (item em foco + lista de candidatos sugeridos).
//
// Regras:
//   - toda escrita tenta o banco primeiro e espelha no cache de fallback
//   - leitura prefere o banco; se o banco falhar (ou não conhecer a
//     conversa), usa o cache
//   - nenhuma falha de persistência sobe pro chamador: o turno segue
//
// Não existe lock entre ler e escrever o estado no mesmo turno. Dois
// requests simultâneos com o mesmo conversationId podem se sobrescrever.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bepit-bfa-go/internal/port"
)

const fallbackCacheName = "conversation"

// StateStore combina o ConversationStore (banco) com o cache de fallback.
type StateStore struct {
	db      port.ConversationStore
	cache   port.ConversationCache
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewStateStore cria o StateStore.
func NewStateStore(db port.ConversationStore, cache port.ConversationCache, metrics *observability.Metrics, logger *zap.Logger) *StateStore {
	return &StateStore{db: db, cache: cache, metrics: metrics, logger: logger}
}

// Create registra uma conversa nova.
func (s *StateStore) Create(ctx context.Context, id, regionID string) {
	if err := s.db.CreateConversation(ctx, id, regionID); err != nil {
		s.dbFailed("create", id, err)
	}
	s.cache.Set(ctx, id, &domain.ConversationState{ConversationID: id, RegionID: regionID})
}

// Get devolve o estado salvo, ou nil se a conversa não existe em lugar nenhum.
func (s *StateStore) Get(ctx context.Context, id string) *domain.ConversationState {
	cs, err := s.db.GetConversation(ctx, id)
	if err != nil {
		s.dbFailed("get", id, err)
	} else if cs != nil {
		return cs
	}

	cached, ok := s.cache.Get(ctx, id)
	if !ok {
		s.metrics.IncrCacheMiss(fallbackCacheName)
		return nil
	}
	s.metrics.IncrCacheHit(fallbackCacheName)
	return cached
}

// SetFocus troca o item em foco. item nil limpa o foco.
func (s *StateStore) SetFocus(ctx context.Context, id, regionID string, item *maindomain.Item) {
	if err := s.db.SaveFocus(ctx, id, regionID, item); err != nil {
		s.dbFailed("set_focus", id, err)
	}
	cs := s.cachedOrNew(ctx, id, regionID)
	cs.FocusedItem = item
	s.cache.Set(ctx, id, cs)
}

// SetSuggestions troca a lista de candidatos.
func (s *StateStore) SetSuggestions(ctx context.Context, id, regionID string, items []maindomain.Item) {
	if err := s.db.SaveSuggestions(ctx, id, regionID, items); err != nil {
		s.dbFailed("set_suggestions", id, err)
	}
	cs := s.cachedOrNew(ctx, id, regionID)
	cs.SuggestedItems = items
	s.cache.Set(ctx, id, cs)
}

func (s *StateStore) cachedOrNew(ctx context.Context, id, regionID string) *domain.ConversationState {
	if cs, ok := s.cache.Get(ctx, id); ok {
		return cs
	}
	return &domain.ConversationState{ConversationID: id, RegionID: regionID}
}

func (s *StateStore) dbFailed(op, id string, err error) {
	s.metrics.IncrExternalError("conversation_store")
	s.logger.Warn("conversation store unavailable, using fallback cache",
		zap.String("op", op),
		zap.String("conversation_id", id),
		zap.Error(err),
	)
}
