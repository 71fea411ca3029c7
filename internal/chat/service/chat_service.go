// Package service — chat_service.go implementa o ChatService.
//
// ============================================================
// ARQUITETURA — tabela de transições por turno
// ============================================================
//
// O ChatService é o orquestrador da rota POST /api/chat/{regionSlug}.
//
// Fluxo completo:
//  1. Handler recebe {"message": "...", "conversationId": "..."}
//  2. ChatService.ProcessMessage() resolve a região e o estado salvo
//  3. Classifica a intenção (nlp.ClassifyIntent)
//  4. Route() devolve os ramos possíveis em ordem de prioridade
//  5. Cada ramo é tentado até um resolver o turno
//  6. Estado novo é salvo (banco + cache de fallback)
//  7. Efeitos colaterais best-effort: interaction, view counter, analytics
//  8. Devolve {reply, interactionId, photoLinks, conversationId}
//
// Ramos:
//   - direct_answer: foco + pergunta de detalhe → campo do item
//   - select:        candidatos + "2" / "segundo" / nome → novo foco
//   - itinerary:     "roteiro de 3 dias" → roteiro + dicas
//   - search:        qualquer outra coisa → extrai, busca, compõe
package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/chat/nlp"
	chatport "github.com/boddenberg/bepit-bfa-go/internal/chat/port"
	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bepit-bfa-go/internal/port"
)

// chatTracer é o tracer OpenTelemetry para o módulo de chat.
var chatTracer = otel.Tracer("chat/service")

// ============================================================
// Dependências
// ============================================================

// Dependencies agrupa tudo que o ChatService precisa.
// Publisher e LLM são opcionais (nil desliga).
type Dependencies struct {
	Catalog       port.CatalogStore
	Conversations port.ConversationStore
	Cache         port.ConversationCache
	Interactions  port.InteractionStore
	Analytics     port.AnalyticsStore
	Publisher     port.EventPublisher
	LLM           chatport.TextGenerator
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// ChatService é o serviço principal da rota de chat.
type ChatService struct {
	catalog      port.CatalogStore
	interactions port.InteractionStore
	analytics    port.AnalyticsStore
	publisher    port.EventPublisher

	states    *StateStore
	extractor *Extractor
	searcher  *Searcher
	composer  *Composer

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewChatService cria o ChatService com as dependências injetadas.
func NewChatService(d Dependencies) *ChatService {
	return &ChatService{
		catalog:      d.Catalog,
		interactions: d.Interactions,
		analytics:    d.Analytics,
		publisher:    d.Publisher,
		states:       NewStateStore(d.Conversations, d.Cache, d.Metrics, d.Logger),
		extractor:    NewExtractor(d.LLM, d.Logger),
		searcher:     NewSearcher(d.Catalog, d.Logger),
		composer:     NewComposer(d.LLM, d.Logger),
		metrics:      d.Metrics,
		logger:       d.Logger,
	}
}

// ============================================================
// Turno
// ============================================================

// turn carrega o contexto de um turno entre os ramos.
type turn struct {
	region     *maindomain.Region
	cities     []maindomain.City
	convID     string
	message    string
	intent     domain.Intent
	state      *domain.ConversationState
	candidates []maindomain.Item
}

// outcome é o que um ramo produziu.
type outcome struct {
	branch     domain.Branch
	reply      string
	photoLinks []string
	itinerary  *domain.Itinerary

	focus        *maindomain.Item
	focusChanged bool

	suggestions        []maindomain.Item
	suggestionsChanged bool

	search *searchInfo
}

// searchInfo vai pro evento de analytics "search".
type searchInfo struct {
	cityID  string
	kind    maindomain.ItemKind
	terms   []string
	results int
}

// ProcessMessage processa um turno da conversa.
func (s *ChatService) ProcessMessage(ctx context.Context, regionSlug string, req *domain.ChatRequest) (resp *domain.ChatResponse, err error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.ProcessMessage")
	defer span.End()
	span.SetAttributes(attribute.String("region.slug", regionSlug))

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
		}
		s.metrics.IncrRequest(status)
		s.metrics.RecordRequestDuration("chat.process_message", time.Since(start))
	}()

	// Passo 1: validação de entrada, sem efeito colateral.
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, &maindomain.ErrValidation{Field: "message", Message: "message is required"}
	}
	regionSlug = strings.TrimSpace(regionSlug)
	if regionSlug == "" {
		return nil, &maindomain.ErrValidation{Field: "regionSlug", Message: "region slug is required"}
	}

	// Passo 2: região e cidades (leitura primária, erro sobe).
	region, err := s.catalog.GetRegionBySlug(ctx, regionSlug)
	if err != nil {
		return nil, err
	}
	cities, err := s.catalog.ListCities(ctx, region.ID)
	if err != nil {
		return nil, err
	}

	// Passo 3: conversa.
	t := &turn{region: region, cities: cities, message: message}
	t.convID, t.state = s.resolveConversation(ctx, req.ConversationID, region.ID)
	if t.state != nil {
		t.candidates = t.state.SuggestedItems
	}
	span.SetAttributes(attribute.String("conversation.id", t.convID))

	// Passo 4: intenção + tabela de transições.
	t.intent = nlp.ClassifyIntent(message)
	var out *outcome
	for _, branch := range Route(domain.StateOf(t.state), t.intent, len(t.candidates) > 0) {
		out, err = s.execute(ctx, branch, t)
		if err != nil {
			return nil, err
		}
		if out != nil {
			break
		}
	}
	s.metrics.IncrBranch(string(out.branch))
	span.SetAttributes(
		attribute.String("chat.intent", string(t.intent)),
		attribute.String("chat.branch", string(out.branch)),
	)

	// Passo 5: estado novo.
	if out.suggestionsChanged {
		s.states.SetSuggestions(ctx, t.convID, region.ID, out.suggestions)
	}
	if out.focusChanged {
		s.states.SetFocus(ctx, t.convID, region.ID, out.focus)
	}

	// Passo 6: efeitos colaterais best-effort.
	interactionID := s.recordTurn(ctx, t, out)

	s.logger.Info("chat turn processed",
		zap.String("conversation_id", t.convID),
		zap.String("region", region.Slug),
		zap.String("intent", string(t.intent)),
		zap.String("branch", string(out.branch)),
		zap.Duration("duration", time.Since(start)),
	)

	photoLinks := out.photoLinks
	if photoLinks == nil {
		photoLinks = []string{}
	}
	return &domain.ChatResponse{
		Reply:          out.reply,
		InteractionID:  interactionID,
		PhotoLinks:     photoLinks,
		ConversationID: t.convID,
		Itinerary:      out.itinerary,
	}, nil
}

// resolveConversation devolve o id a usar e o estado salvo (nil se novo).
// Id vazio ou que não é UUID gera uma conversa nova. Estado de outra
// região é ignorado.
func (s *ChatService) resolveConversation(ctx context.Context, supplied, regionID string) (string, *domain.ConversationState) {
	id := strings.TrimSpace(supplied)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		s.states.Create(ctx, id, regionID)
		return id, nil
	}

	state := s.states.Get(ctx, id)
	switch {
	case state == nil:
		s.states.Create(ctx, id, regionID)
		return id, nil
	case state.RegionID != "" && state.RegionID != regionID:
		s.logger.Debug("conversation belongs to another region, starting fresh",
			zap.String("conversation_id", id))
		return id, nil
	}
	return id, state
}

// execute roda um ramo. (nil, nil) = ramo não resolveu, tenta o próximo.
func (s *ChatService) execute(ctx context.Context, branch domain.Branch, t *turn) (*outcome, error) {
	switch branch {
	case domain.BranchDirectAnswer:
		return s.directAnswer(t), nil
	case domain.BranchSelect:
		return s.selectCandidate(t), nil
	case domain.BranchItinerary:
		return s.itinerary(ctx, t)
	default:
		return s.freshSearch(ctx, t)
	}
}

func (s *ChatService) directAnswer(t *turn) *outcome {
	reply, photos := DirectAnswer(t.intent, t.state.FocusedItem)
	return &outcome{
		branch:     domain.BranchDirectAnswer,
		reply:      reply,
		photoLinks: photos,
		focus:      t.state.FocusedItem,
	}
}

// selectCandidate tenta ordinal primeiro, depois nome/categoria.
func (s *ChatService) selectCandidate(t *turn) *outcome {
	var picked *maindomain.Item
	if idx, ok := nlp.ExtractOrdinal(t.message); ok && idx < len(t.candidates) {
		picked = &t.candidates[idx]
	} else {
		picked = nlp.MatchItem(t.message, t.candidates)
	}
	if picked == nil {
		return nil
	}
	item := *picked
	return &outcome{
		branch:       domain.BranchSelect,
		reply:        Summary(&item),
		photoLinks:   append([]string{}, item.Photos...),
		focus:        &item,
		focusChanged: true,
	}
}

func (s *ChatService) itinerary(ctx context.Context, t *turn) (*outcome, error) {
	ext := s.extractor.Extract(ctx, t.message, t.cities)
	cityIDs, cityID := scopeCities(ext, t.cities)

	days := nlp.ParseDayCount(t.message)
	items, err := s.searcher.Search(ctx, SearchParams{
		CityIDs: cityIDs,
		Kind:    maindomain.ItemKindPartner,
		Terms:   ext.Keywords,
		Limit:   days * len(daySlots),
	})
	if err != nil {
		return nil, err
	}
	tips, err := s.searcher.Search(ctx, SearchParams{
		CityIDs: cityIDs,
		Kind:    maindomain.ItemKindTip,
		Limit:   maxTips,
	})
	if err != nil {
		return nil, err
	}

	it := BuildItinerary(days, items, tips)
	return &outcome{
		branch:             domain.BranchItinerary,
		reply:              RenderItinerary(it),
		photoLinks:         PhotoLinks(items),
		itinerary:          it,
		focusChanged:       true,
		suggestions:        items,
		suggestionsChanged: true,
		search: &searchInfo{
			cityID:  cityID,
			kind:    maindomain.ItemKindPartner,
			terms:   ext.Keywords,
			results: len(items),
		},
	}, nil
}

func (s *ChatService) freshSearch(ctx context.Context, t *turn) (*outcome, error) {
	ext := s.extractor.Extract(ctx, t.message, t.cities)
	cityIDs, cityID := scopeCities(ext, t.cities)

	kind := maindomain.ItemKindPartner
	if t.intent == domain.IntentDica {
		kind = maindomain.ItemKindTip
	}
	terms := ext.Keywords
	if len(terms) == 0 {
		terms = messageTerms(ext.CorrectedText, t.cities)
	}

	items, err := s.searcher.Search(ctx, SearchParams{CityIDs: cityIDs, Kind: kind, Terms: terms})
	if err != nil {
		return nil, err
	}

	out := &outcome{
		branch:             domain.BranchSearch,
		reply:              s.composer.SearchReply(ctx, t.message, ext, items),
		photoLinks:         PhotoLinks(items),
		focusChanged:       true,
		suggestions:        items,
		suggestionsChanged: true,
		search:             &searchInfo{cityID: cityID, kind: kind, terms: terms, results: len(items)},
	}
	if len(items) > 0 {
		first := items[0]
		out.focus = &first
	}
	return out, nil
}

// scopeCities devolve os ids de cidade da busca e, se uma cidade foi
// detectada, o id dela.
func scopeCities(ext domain.Extraction, cities []maindomain.City) ([]string, string) {
	if ext.SuggestedCitySlug != nil {
		if c := findCityBySlug(cities, *ext.SuggestedCitySlug); c != nil {
			return []string{c.ID}, c.ID
		}
	}
	ids := make([]string, 0, len(cities))
	for _, c := range cities {
		ids = append(ids, c.ID)
	}
	return ids, ""
}

// messageTerms usa os tokens da própria mensagem quando o extrator não deu
// keywords. Tokens que fazem parte do nome de uma cidade saem.
func messageTerms(text string, cities []maindomain.City) []string {
	cityTokens := make(map[string]struct{})
	for _, c := range cities {
		for _, tok := range nlp.Tokens(c.Name) {
			cityTokens[tok] = struct{}{}
		}
	}
	out := make([]string, 0, 4)
	for _, tok := range nlp.ContentTokens(text) {
		if _, isCity := cityTokens[tok]; isCity {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// ============================================================
// Efeitos colaterais best-effort
// ============================================================

// recordTurn grava interaction, view counter e eventos. Devolve o id da
// interaction ou nil se a gravação falhou.
func (s *ChatService) recordTurn(ctx context.Context, t *turn, out *outcome) *string {
	ctx = context.WithoutCancel(ctx)

	shown := out.suggestions
	if !out.suggestionsChanged && out.focus != nil {
		shown = []maindomain.Item{*out.focus}
	}
	ids := make([]string, 0, len(shown))
	for _, it := range shown {
		ids = append(ids, it.ID)
	}

	var interactionID *string
	s.sideEffect(ctx, "interaction", func(ctx context.Context) error {
		id, err := s.interactions.InsertInteraction(ctx, &maindomain.Interaction{
			RegionID:       t.region.ID,
			ConversationID: t.convID,
			UserQuestion:   t.message,
			AIAnswer:       out.reply,
			SuggestedItems: ids,
		})
		if err != nil {
			return err
		}
		interactionID = &id
		return nil
	})

	if out.focus != nil {
		itemID := out.focus.ID
		s.sideEffect(ctx, "view_counter", func(ctx context.Context) error {
			return s.catalog.IncrementItemViews(ctx, itemID)
		})
		s.recordEvent(ctx, &maindomain.AnalyticsEvent{
			Type:           maindomain.EventPartnerView,
			RegionID:       t.region.ID,
			CityID:         out.focus.CityID,
			ItemID:         itemID,
			ConversationID: t.convID,
			Payload:        payload(map[string]any{"branch": out.branch, "intent": t.intent}),
		})
	}

	if out.search != nil {
		s.recordEvent(ctx, &maindomain.AnalyticsEvent{
			Type:           maindomain.EventSearch,
			RegionID:       t.region.ID,
			CityID:         out.search.cityID,
			ConversationID: t.convID,
			Payload: payload(map[string]any{
				"query":   t.message,
				"terms":   out.search.terms,
				"kind":    out.search.kind,
				"results": out.search.results,
			}),
		})
	}
	return interactionID
}

// recordEvent grava o evento e, se houver publisher, publica no bus.
func (s *ChatService) recordEvent(ctx context.Context, ev *maindomain.AnalyticsEvent) {
	s.sideEffect(ctx, "analytics_event", func(ctx context.Context) error {
		return s.analytics.InsertEvent(ctx, ev)
	})
	if s.publisher != nil {
		s.sideEffect(ctx, "event_publish", func(ctx context.Context) error {
			return s.publisher.Publish(ctx, ev)
		})
	}
}

// sideEffect roda uma escrita best-effort. Falha é logada e contada,
// nunca devolvida: o chamador sempre segue.
func (s *ChatService) sideEffect(ctx context.Context, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		s.metrics.IncrSideEffectFailure(name)
		s.logger.Warn("best-effort write failed",
			zap.String("effect", name),
			zap.Error(err),
		)
	}
}

func payload(v map[string]any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// ============================================================
// Feedback
// ============================================================

// SubmitFeedback grava o feedback de uma interaction. Campos vazios
// falham antes de qualquer escrita.
func (s *ChatService) SubmitFeedback(ctx context.Context, req *maindomain.FeedbackRequest) error {
	ctx, span := chatTracer.Start(ctx, "ChatService.SubmitFeedback")
	defer span.End()

	id := strings.TrimSpace(req.InteractionID)
	feedback := strings.TrimSpace(req.Feedback)
	if id == "" {
		return &maindomain.ErrValidation{Field: "interactionId", Message: "interactionId is required"}
	}
	if feedback == "" {
		return &maindomain.ErrValidation{Field: "feedback", Message: "feedback is required"}
	}

	if err := s.interactions.UpdateInteractionFeedback(ctx, id, feedback); err != nil {
		return err
	}

	s.recordEvent(context.WithoutCancel(ctx), &maindomain.AnalyticsEvent{
		Type:    maindomain.EventFeedback,
		Payload: payload(map[string]any{"interactionId": id, "feedback": feedback}),
	})
	s.logger.Info("feedback recorded", zap.String("interaction_id", id))
	return nil
}
