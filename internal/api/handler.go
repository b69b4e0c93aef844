// Package api provides the HTTP surface over the session workflow engine.
// Each route maps 1:1 onto one engine operation.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/brainstorm-platform/idea-engine/internal/engine"
	"github.com/brainstorm-platform/idea-engine/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler serves the workflow API.
type Handler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewHandler creates a handler over the engine.
func NewHandler(eng *engine.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: eng, logger: logger}
}

// Router builds the chi router for the workflow API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", h.createSession)
		r.Post("/purpose", h.submitPurpose)
		r.Get("/warmup/{sessionID}", h.generateWarmup)
		r.Post("/confirm/{sessionID}", h.confirmWarmup)
		r.Post("/associations/{sessionID}", h.submitAssociations)
		r.Get("/ideas/{sessionID}", h.generateIdeas)
		r.Delete("/session/{sessionID}", h.deleteSession)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeEngineError maps the engine error taxonomy onto HTTP statuses.
// Precondition and validation failures ask the caller to fix the request;
// generation failures ask the caller to retry.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsNotFound(err):
		Error(w, http.StatusNotFound, err.Error())
	case engine.IsPrecondition(err), engine.IsValidation(err):
		Error(w, http.StatusBadRequest, err.Error())
	case engine.IsGeneration(err):
		h.logger.Error("generation failed", "error", err)
		Error(w, http.StatusBadGateway, "generation failed, please retry")
	default:
		h.logger.Error("request failed", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.engine.Create(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	JSON(w, http.StatusCreated, sessionResponse{SessionID: session.ID, Stage: session.Stage.String()})
}

type purposeRequest struct {
	SessionID string `json:"session_id"`
	Purpose   string `json:"purpose"`
}

func (h *Handler) submitPurpose(w http.ResponseWriter, r *http.Request) {
	var req purposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.engine.SetPurpose(r.Context(), req.SessionID, req.Purpose)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{
		"session_id": session.ID,
		"stage":      session.Stage.String(),
		"purpose":    session.Purpose,
	})
}

func (h *Handler) generateWarmup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	questions, err := h.engine.GenerateWarmup(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (h *Handler) confirmWarmup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	if err := h.engine.ConfirmWarmup(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "warmup confirmed"})
}

type associationsRequest struct {
	Associations []string `json:"associations"`
}

func (h *Handler) submitAssociations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var req associationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.engine.SetAssociations(r.Context(), id, req.Associations)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"session_id": session.ID,
		"stage":      session.Stage.String(),
		"count":      len(session.Associations),
	})
}

func (h *Handler) generateIdeas(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	ideas, err := h.engine.GenerateIdeas(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string][]models.Idea{"ideas": ideas})
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	if err := h.engine.Delete(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "session deleted"})
}
