package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/founderport/angel/internal/identity"
	"github.com/founderport/angel/internal/interview"
	"github.com/founderport/angel/internal/progress"
	"github.com/founderport/angel/internal/questions"
	"github.com/founderport/angel/internal/store"
)

// StreamHandler handles WebSocket-based live interview sessions.
type StreamHandler struct {
	repo          store.Repository
	svc           *interview.Service
	allowedOrigin string
	isDev         bool
}

// NewStreamHandler creates a new WebSocket interview handler.
func NewStreamHandler(repo store.Repository, svc *interview.Service, allowedOrigin string, isDev bool) *StreamHandler {
	return &StreamHandler{
		repo:          repo,
		svc:           svc,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// streamMessage represents an inbound WebSocket message.
type streamMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Question  string `json:"question,omitempty"`
	Text      string `json:"text,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	slog.Info("WebSocket connection request", "user_id", userID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "interview ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// A session id in the query string gets the current question replayed
	// immediately, so a reconnecting client resumes without a round trip.
	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
		h.sendQuestion(ctx, ws, userID, sessionID)
	}

	h.messageLoop(ctx, ws, userID)
	slog.Info("Interview stream ended", "user_id", userID)
}

func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *StreamHandler) messageLoop(ctx context.Context, ws *websocket.Conn, userID string) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.writeJSON(ctx, ws, map[string]string{"type": "error", "error": "invalid_message"})
			continue
		}

		switch msg.Type {
		case "answer":
			h.handleAnswer(ctx, ws, userID, msg)
		case "resume":
			h.sendQuestion(ctx, ws, userID, msg.SessionID)
		case "ping":
			h.writeJSON(ctx, ws, map[string]string{"type": "pong"})
		default:
			h.writeJSON(ctx, ws, map[string]string{"type": "error", "error": "unknown_message_type"})
		}
	}
}

// handleAnswer runs a submission through the interview engine and streams
// back the result envelope.
func (h *StreamHandler) handleAnswer(ctx context.Context, ws *websocket.Conn, userID string, msg streamMessage) {
	session, err := h.repo.GetSession(ctx, msg.SessionID)
	if err != nil || session.UserID != userID {
		h.writeJSON(ctx, ws, map[string]string{"type": "error", "error": "session_not_found"})
		return
	}

	result, err := h.svc.Submit(ctx, session.ID, msg.Question, msg.Text)
	if err != nil {
		h.writeJSON(ctx, ws, map[string]string{"type": "error", "error": streamErrorCode(err)})
		return
	}
	h.writeJSON(ctx, ws, map[string]interface{}{
		"type":   "result",
		"result": result,
	})
}

// sendQuestion replays the session's current question so a connecting or
// reconnecting client can pick up where it left off.
func (h *StreamHandler) sendQuestion(ctx context.Context, ws *websocket.Conn, userID, sessionID string) {
	session, err := h.repo.GetSession(ctx, sessionID)
	if err != nil || session.UserID != userID {
		h.writeJSON(ctx, ws, map[string]string{"type": "error", "error": "session_not_found"})
		return
	}
	h.writeJSON(ctx, ws, map[string]interface{}{
		"type":     "question",
		"question": session.Question.Tag(),
		"prompt":   questions.Prompt(session.Question),
		"progress": progress.ForSession(session),
		"complete": session.Completed,
	})
}

func streamErrorCode(err error) string {
	switch {
	case errors.Is(err, interview.ErrOutOfSequence):
		return "out_of_sequence"
	case errors.Is(err, interview.ErrInterviewComplete):
		return "interview_complete"
	case errors.Is(err, interview.ErrCorruptSession):
		return "corrupt_session"
	case errors.Is(err, store.ErrConflict):
		return "conflict_retry"
	case errors.Is(err, store.ErrNotFound):
		return "session_not_found"
	default:
		return "submission_failed"
	}
}

func (h *StreamHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal websocket message", "error", err)
		return
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("WebSocket write error", "error", err)
	}
}
