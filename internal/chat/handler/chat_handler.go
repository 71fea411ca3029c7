// Package handler — chat_handler.go implementa o handler das rotas
// POST /api/chat/{regionSlug}, POST /api/chat e POST /api/feedback.
//
// ============================================================
// ROTAS DE CHAT
// ============================================================
//
// POST /api/chat/{regionSlug}  →  rota principal (slug na URL)
// POST /api/chat               →  slug no body ({"regionSlug": "..."}),
//                                  ou a região padrão da config
//
// Request:  {"message": "pizza em Búzios", "conversationId": "..."}
// Response: {"reply", "interactionId", "photoLinks", "conversationId"}
//
// O handler é fino: só decodifica o body e delega pro ChatService.
// Toda a lógica (intenção, seleção, busca, roteiro) fica no service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// tracer é o tracer OpenTelemetry para o módulo chat/handler.
var tracer = otel.Tracer("chat/handler")

// ChatProcessor é o que os handlers precisam do ChatService.
type ChatProcessor interface {
	ProcessMessage(ctx context.Context, regionSlug string, req *domain.ChatRequest) (*domain.ChatResponse, error)
	SubmitFeedback(ctx context.Context, req *maindomain.FeedbackRequest) error
}

// ============================================================
// ChatHandler — POST /api/chat/{regionSlug}
// ============================================================

// ChatHandler retorna o http.HandlerFunc das rotas de chat.
// defaultRegion é usado quando nem a URL nem o body trazem o slug.
func ChatHandler(chatSvc ChatProcessor, defaultRegion string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/chat")
		defer span.End()

		var req domain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"message\": \"...\"}")
			return
		}
		if req.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		regionSlug := chi.URLParam(r, "regionSlug")
		if regionSlug == "" {
			regionSlug = req.RegionSlug
		}
		if regionSlug == "" {
			regionSlug = defaultRegion
		}
		span.SetAttributes(attribute.String("region.slug", regionSlug))

		resp, err := chatSvc.ProcessMessage(ctx, regionSlug, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// FeedbackHandler — POST /api/feedback
// ============================================================

// FeedbackHandler grava o feedback do usuário sobre uma resposta.
//
//	Body: {"interactionId": "...", "feedback": "positivo"}
//	200:  {"success": true}
func FeedbackHandler(chatSvc ChatProcessor, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/feedback")
		defer span.End()

		var req maindomain.FeedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := chatSvc.SubmitFeedback(ctx, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, maindomain.SuccessResponse{Success: true})
	}
}

// ============================================================
// Helpers — funções utilitárias do chat handler
// ============================================================

// writeJSON serializa data como JSON e escreve na response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError escreve uma resposta de erro padronizada.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleServiceError mapeia erros de domínio para HTTP status codes.
// Falha de dependência na leitura primária vira 500 genérico.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *maindomain.ErrValidation
	var notFound *maindomain.ErrNotFound
	var external *maindomain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(external.Err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		logger.Error("unexpected error in chat handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
