// Package domain — chat.go define os tipos usados pela rota POST /api/chat/{regionSlug}.
//
// O fluxo de um turno de conversa:
//  1. Usuário manda {"message": "...", "conversationId": "..."} → BFA recebe
//  2. BFA classifica a intenção (horario, endereco, roteiro, ...)
//  3. A máquina de estados escolhe o ramo: resposta direta, seleção de
//     parceiro, roteiro ou busca nova
//  4. BFA responde {"reply", "interactionId", "photoLinks", "conversationId"}
package domain

import (
	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// ============================================================
// Chat — Request/Response entre o chamador e o BFA
// ============================================================

// ChatRequest é o body de POST /api/chat/{regionSlug}.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`

	// RegionSlug só é lido na rota POST /api/chat (sem slug na URL).
	RegionSlug string `json:"regionSlug,omitempty"`
}

// ChatResponse é o que o BFA devolve pro chamador.
// InteractionID é nil quando o log da interação falhou.
type ChatResponse struct {
	Reply          string     `json:"reply"`
	InteractionID  *string    `json:"interactionId"`
	PhotoLinks     []string   `json:"photoLinks"`
	ConversationID string     `json:"conversationId"`
	Itinerary      *Itinerary `json:"itinerary,omitempty"`
}

// ============================================================
// Intenção (Intent)
// ============================================================

// Intent é o propósito classificado da última mensagem do usuário.
type Intent string

const (
	IntentRoteiro  Intent = "roteiro"
	IntentHorario  Intent = "horario"
	IntentEndereco Intent = "endereco"
	IntentContato  Intent = "contato"
	IntentFotos    Intent = "fotos"
	IntentPreco    Intent = "preco"
	IntentDica     Intent = "dica"
	IntentNenhuma  Intent = "nenhuma"
)

// IsDetail diz se a intenção pede um campo do item em foco.
func (i Intent) IsDetail() bool {
	switch i {
	case IntentHorario, IntentEndereco, IntentContato, IntentFotos, IntentPreco:
		return true
	}
	return false
}

// ============================================================
// Estado da conversa
// ============================================================

// ConversationState é o que fica salvo por conversationId.
type ConversationState struct {
	ConversationID string            `json:"id"`
	RegionID       string            `json:"region_id"`
	FocusedItem    *maindomain.Item  `json:"focused_item"`
	SuggestedItems []maindomain.Item `json:"suggested_items"`
}

// State é o estado da máquina de um turno.
type State string

const (
	StateIdle              State = "idle"
	StateAwaitingSelection State = "awaiting_selection"
	StateFocused           State = "focused"
	StateSearching         State = "searching"
	StateResponding        State = "responding"
)

// StateOf deriva o estado inicial de um turno a partir do que está salvo.
func StateOf(cs *ConversationState) State {
	switch {
	case cs == nil:
		return StateIdle
	case cs.FocusedItem != nil:
		return StateFocused
	case len(cs.SuggestedItems) > 0:
		return StateAwaitingSelection
	default:
		return StateIdle
	}
}

// Branch identifica qual linha da tabela de transições tratou o turno.
type Branch string

const (
	BranchDirectAnswer Branch = "direct_answer"
	BranchSelect       Branch = "select"
	BranchItinerary    Branch = "itinerary"
	BranchSearch       Branch = "search"
)

// ============================================================
// Extração de palavras-chave / perfil
// ============================================================

// Extraction é o resultado do extrator (LLM ou determinístico).
// Campos nil significam "não inferido".
type Extraction struct {
	CorrectedText     string   `json:"corrected_text"`
	CompanionType     *string  `json:"companion_type"`
	Mood              *string  `json:"mood"`
	Budget            *string  `json:"budget"`
	SuggestedCitySlug *string  `json:"suggested_city_slug"`
	Keywords          []string `json:"keywords"`
}

// ============================================================
// Roteiro
// ============================================================

// Slot é um período do dia no roteiro.
type Slot string

const (
	SlotMorning   Slot = "manha"
	SlotAfternoon Slot = "tarde"
	SlotEvening   Slot = "noite"
)

// ItineraryStop é um item alocado num período.
type ItineraryStop struct {
	Slot   Slot   `json:"slot"`
	ItemID string `json:"itemId"`
	Name   string `json:"name"`
}

// ItineraryDay agrupa as paradas de um dia.
type ItineraryDay struct {
	Day   int             `json:"day"`
	Stops []ItineraryStop `json:"stops"`
}

// Itinerary é o roteiro dia a dia devolvido junto da resposta.
type Itinerary struct {
	Days []ItineraryDay `json:"days"`
	Tips []string       `json:"tips,omitempty"`
}
