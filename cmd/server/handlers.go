package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/surgeryos/dailydose/internal/pathway"
	"github.com/surgeryos/dailydose/internal/platform/cache"
	"github.com/surgeryos/dailydose/internal/platform/database"
	"github.com/surgeryos/dailydose/internal/session"
)

// handlers is the thin HTTP surface over the session service. Auth and
// tenancy are handled upstream; requests carry the already-resolved user.
type handlers struct {
	svc   *session.Service
	db    *database.DB
	cache *cache.Cache
}

func newHandlers(svc *session.Service, db *database.DB, c *cache.Cache) *handlers {
	return &handlers{svc: svc, db: db, cache: c}
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.HealthCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
			return
		}
	}
	if err := h.cache.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "cache unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type startSessionRequest struct {
	UserID     string   `json:"user_id"`
	Scope      string   `json:"scope"`
	Role       string   `json:"role"`
	TopicIDs   []string `json:"topic_ids,omitempty"`
	UnitID     string   `json:"unit_id,omitempty"`
	CardCount  int      `json:"card_count,omitempty"`
	QuizLength int      `json:"quiz_length,omitempty"`
}

func (h *handlers) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	plan, err := h.svc.StartSession(r.Context(), session.StartRequest{
		UserID:     req.UserID,
		Scope:      req.Scope,
		Role:       req.Role,
		TopicIDs:   req.TopicIDs,
		UnitID:     req.UnitID,
		CardCount:  req.CardCount,
		QuizLength: req.QuizLength,
	})
	if errors.Is(err, session.ErrNoEligibleContent) {
		writeError(w, http.StatusNotFound, "no eligible content for this learner")
		return
	}
	if err != nil {
		slog.Error("start session failed", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

type completeSessionRequest struct {
	Results []session.CardResult `json:"results"`
}

func (h *handlers) completeSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req completeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.svc.CompleteSession(r.Context(), session.CompleteRequest{
		SessionID: id,
		Results:   req.Results,
	})
	if errors.Is(err, session.ErrSessionNotOpen) {
		writeError(w, http.StatusConflict, "session already completed or abandoned")
		return
	}
	if err != nil {
		slog.Error("complete session failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

type unitProgressResponse struct {
	UnitID            string             `json:"unit_id"`
	Level             string             `json:"level"`
	Order             int                `json:"order"`
	SessionsCompleted int                `json:"sessions_completed"`
	CorrectCount      int                `json:"correct_count"`
	TotalQuestions    int                `json:"total_questions"`
	Status            pathway.UnitStatus `json:"status"`
}

type pathwayResponse struct {
	Units            []unitProgressResponse `json:"units"`
	SecurePercentage int                    `json:"secure_percentage"`
	RAG              pathway.RAG            `json:"rag"`
}

func (h *handlers) pathwayProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	units, err := h.svc.UnitProgress(userID)
	if err != nil {
		slog.Error("pathway progress failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read pathway progress")
		return
	}

	resp := pathwayResponse{
		Units:            make([]unitProgressResponse, 0, len(units)),
		SecurePercentage: pathway.ComputeSecurePercentage(units),
		RAG:              pathway.ComputeThemeRAG(units),
	}
	for _, u := range units {
		resp.Units = append(resp.Units, unitProgressResponse{
			UnitID:            u.UnitID,
			Level:             string(u.Level),
			Order:             u.Order,
			SessionsCompleted: u.SessionsCompleted,
			CorrectCount:      u.CorrectCount,
			TotalQuestions:    u.TotalQuestions,
			Status:            u.Status(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) nextUnit(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	unit, err := h.svc.NextUnit(userID)
	if err != nil {
		slog.Error("next unit failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to recommend next unit")
		return
	}
	if unit == nil {
		writeJSON(w, http.StatusOK, map[string]any{"unit": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unit": unitProgressResponse{
			UnitID:            unit.UnitID,
			Level:             string(unit.Level),
			Order:             unit.Order,
			SessionsCompleted: unit.SessionsCompleted,
			CorrectCount:      unit.CorrectCount,
			TotalQuestions:    unit.TotalQuestions,
			Status:            unit.Status(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
