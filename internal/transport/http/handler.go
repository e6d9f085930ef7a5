package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type SessionSvc interface {
	Find(ctx context.Context, sessionID string) (*domain.ChatSession, error)
	ListForIdentity(ctx context.Context, id domain.Identity) ([]domain.ChatSession, error)
}

type ChatSvc interface {
	History(ctx context.Context, sessionID string) ([]domain.Message, error)
}

type Handler struct {
	sessionSvc SessionSvc
	chatSvc    ChatSvc
}

func NewHandler(sessions SessionSvc, chat ChatSvc) *Handler {
	return &Handler{sessionSvc: sessions, chatSvc: chat}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageItem struct {
	ID        string `json:"id"`
	SenderID  int64  `json:"sender_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type SessionItem struct {
	SessionID    string `json:"session_id"`
	UserID       int64  `json:"user_id"`
	RestaurantID int64  `json:"restaurant_id"`
	CreatedAt    string `json:"created_at"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpmw.IdentityFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	list, err := h.sessionSvc.ListForIdentity(r.Context(), identity)
	if err != nil {
		slog.Error("handler.ListSessions:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	items := make([]SessionItem, 0, len(list))
	for _, s := range list {
		items = append(items, SessionItem{
			SessionID:    s.ID,
			UserID:       s.UserID,
			RestaurantID: s.RestaurantID,
			CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	writeJSON(w, http.StatusOK, items)
}

// GET /sessions/{id}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpmw.IdentityFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	sessionID := chi.URLParam(r, "id")
	sess, err := h.sessionSvc.Find(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "chat session not found"})
			return
		}
		slog.Error("handler.GetHistory:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if !sess.Participant(identity) {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "not a participant"})
		return
	}

	msgs, err := h.chatSvc.History(r.Context(), sessionID)
	if err != nil {
		slog.Error("handler.GetHistory:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	items := make([]MessageItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, MessageItem{
			ID:        m.ID,
			SenderID:  m.SenderID,
			Body:      m.Body,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	writeJSON(w, http.StatusOK, items)
}
