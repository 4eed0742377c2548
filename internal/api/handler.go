//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/founderport/angel/internal/domain"
	"github.com/founderport/angel/internal/identity"
	"github.com/founderport/angel/internal/interview"
	"github.com/founderport/angel/internal/progress"
	"github.com/founderport/angel/internal/questions"
	"github.com/founderport/angel/internal/store"
)

// maxRequestBodySize caps submission bodies (1MB).
const maxRequestBodySize = 1 << 20

// Handler provides HTTP handlers for the interview API.
type Handler struct {
	repo  store.Repository
	svc   *interview.Service
	isDev bool
}

// NewHandler creates a new Handler.
func NewHandler(repo store.Repository, svc *interview.Service, isDev bool) *Handler {
	return &Handler{repo: repo, svc: svc, isDev: isDev}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
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

// RegisterRoutes registers the interview API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/", h.ListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Get("/history", h.History)
			r.Get("/business-context", h.BusinessContext)
			r.Post("/answers", h.SubmitAnswer)
			r.Post("/jump", h.ForceJump)
		})
	})
}

// ownedSession loads the session and enforces ownership by the anonymous
// device identity.
func (h *Handler) ownedSession(ctx context.Context, w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "session not found")
		} else {
			slog.Error("Failed to load session", "session_id", sessionID, "error", err)
			Error(w, http.StatusInternalServerError, "failed to load session")
		}
		return nil, false
	}
	if session.UserID != identity.UserIDFromContext(ctx) {
		Error(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return session, true
}

type createSessionRequest struct {
	Title string `json:"title"`
}

// CreateSession starts a new interview session at the first identity
// question.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New venture"
	}

	session := domain.NewSession(uuid.NewString(), identity.UserIDFromContext(r.Context()), title, time.Now())
	if err := h.repo.CreateSession(r.Context(), session); err != nil {
		slog.Error("Failed to create session", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	slog.Info("Session created", "session_id", session.ID)
	JSON(w, http.StatusCreated, map[string]interface{}{
		"session":        session,
		"first_question": session.Question.Tag(),
		"prompt":         questions.Prompt(session.Question),
		"progress":       progress.ForSession(session),
	})
}

// ListSessions returns the caller's sessions, newest first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.repo.ListSessions(r.Context(), identity.UserIDFromContext(r.Context()))
	if err != nil {
		slog.Error("Failed to list sessions", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// GetSession returns one session with its progress snapshot.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(r.Context(), w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"session":  session,
		"progress": progress.ForSession(session),
	})
}

// History returns the ordered conversation for a session.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(r.Context(), w, r)
	if !ok {
		return
	}
	entries, err := h.repo.History(r.Context(), session.ID)
	if err != nil {
		slog.Error("Failed to load history", "session_id", session.ID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

// BusinessContext returns the resolved business context, refreshing stored
// slots from conversation history first.
func (h *Handler) BusinessContext(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(r.Context(), w, r)
	if !ok {
		return
	}
	resolved, sources, updated, err := h.svc.ResolveContext(r.Context(), session.ID)
	if err != nil {
		slog.Error("Failed to resolve business context", "session_id", session.ID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to resolve business context")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"business_context": resolved,
		"sources":          sources,
		"updated":          updated,
	})
}

type submitRequest struct {
	Question string `json:"question"`
	Text     string `json:"text"`
}

// SubmitAnswer is the submission entrypoint: it validates ordering, gates
// the answer through the critique, and advances the interview.
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(r.Context(), w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		Error(w, http.StatusBadRequest, "question tag is required")
		return
	}

	result, err := h.svc.Submit(r.Context(), session.ID, req.Question, req.Text)
	if err != nil {
		h.writeSubmitError(w, session.ID, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

type jumpRequest struct {
	Phase string `json:"phase"`
	Index int    `json:"index"`
}

// ForceJump force-sets the session pointer and arms a one-shot ordering
// bypass. Development mode only.
func (h *Handler) ForceJump(w http.ResponseWriter, r *http.Request) {
	if !h.isDev {
		Error(w, http.StatusForbidden, "jump is not available")
		return
	}
	session, ok := h.ownedSession(r.Context(), w, r)
	if !ok {
		return
	}

	var req jumpRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target := domain.QuestionRef{Phase: domain.Phase(req.Phase), Index: req.Index}
	if !target.InRange() {
		Error(w, http.StatusBadRequest, "jump target out of range")
		return
	}

	updated, err := h.svc.ForceJump(r.Context(), session.ID, target)
	if err != nil {
		h.writeSubmitError(w, session.ID, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"session":  updated,
		"progress": progress.ForSession(updated),
	})
}

// writeSubmitError maps engine errors to HTTP statuses per the taxonomy.
func (h *Handler) writeSubmitError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case errors.Is(err, interview.ErrOutOfSequence):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, interview.ErrInterviewComplete):
		Error(w, http.StatusConflict, "interview already complete")
	case errors.Is(err, store.ErrConflict):
		// Retryable by the caller: re-fetch and resubmit.
		Error(w, http.StatusConflict, "session was modified concurrently, retry the submission")
	case errors.Is(err, store.ErrNotFound):
		Error(w, http.StatusNotFound, "session not found")
	case errors.Is(err, interview.ErrCorruptSession):
		slog.Error("Corrupt session state", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "session state is corrupt")
	default:
		slog.Error("Submission failed", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "submission failed")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBodySize)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()
	return json.NewDecoder(body).Decode(v)
}
