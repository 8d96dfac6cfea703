package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/leadpilot/leadpilot/internal/convo"
	"github.com/leadpilot/leadpilot/internal/session"
	"github.com/leadpilot/leadpilot/pkg/logging"
)

// Engine processes one conversation turn end to end.
type Engine interface {
	ProcessMessage(ctx context.Context, sessionID, message string, voice *convo.VoiceInput) (*convo.TurnResult, error)
}

// Handler manages web chat connections and messages.
type Handler struct {
	engine   Engine
	store    session.Store
	logger   *logging.Logger
	widgetJS []byte

	mu       sync.RWMutex
	sessions map[string]*wsConn // sessionID -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type               string           `json:"type"` // "message", "typing", "history", "session", "pong", "error"
	Text               string           `json:"text,omitempty"`
	Role               string           `json:"role,omitempty"` // "assistant" or "user"
	SessionID          string           `json:"session_id,omitempty"`
	Timestamp          string           `json:"timestamp,omitempty"`
	Intent             string           `json:"intent,omitempty"`
	LeadScore          int              `json:"lead_score,omitempty"`
	SuggestedQuestions []string         `json:"suggested_questions,omitempty"`
	Messages           []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a web chat handler.
func NewHandler(engine Engine, store session.Store, widgetJS []byte, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:   engine,
		store:    store,
		logger:   logger,
		widgetJS: widgetJS,
		sessions: make(map[string]*wsConn),
	}
}

// generateSessionID creates a random session identifier used until the
// store allocates the canonical one.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		c, err := h.store.Create(ctx)
		if err != nil {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "could not start a session"})
			return
		}
		sessionID = c.SessionID
	}

	// Send session info
	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:      "session",
		SessionID: sessionID,
	})

	// Replay history for returning sessions
	if c, err := h.store.Get(ctx, sessionID); err == nil && len(c.History) > 0 {
		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type:     "history",
			Messages: historyMessages(c),
		})
	}

	// Register connection
	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.sessions[sessionID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[sessionID] == wsc {
			delete(h.sessions, sessionID)
		}
		h.mu.Unlock()
		close(wsc.done)
	}()

	h.logger.Info("chat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("chat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}

		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		h.SendToSession(sessionID, OutboundMessage{Type: "typing"})

		res, err := h.engine.ProcessMessage(ctx, sessionID, msg.Text, nil)
		if err != nil {
			h.logger.Error("chat: turn failed", "session_id", sessionID, "error", err)
			h.SendToSession(sessionID, OutboundMessage{
				Type: "error",
				Text: "Sorry, something went wrong. Please try again.",
			})
			continue
		}

		h.SendToSession(sessionID, OutboundMessage{
			Type:               "message",
			Role:               session.RoleAssistant,
			Text:               res.Message,
			SessionID:          res.SessionID,
			Timestamp:          time.Now().UTC().Format(time.RFC3339),
			Intent:             string(res.Intent),
			LeadScore:          res.LeadScore,
			SuggestedQuestions: res.SuggestedQuestions,
		})
	}
}

// SendToSession sends a message to an active WebSocket session.
func (h *Handler) SendToSession(sessionID string, msg OutboundMessage) {
	h.mu.RLock()
	wsc, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = websocket.JSON.Send(wsc.conn, msg)
}

// HandleMessage is the HTTP fallback for sending messages. Unlike the
// socket path it returns the full turn result in the response body.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	res, err := h.engine.ProcessMessage(r.Context(), req.SessionID, req.Text, nil)
	if err != nil {
		h.logger.Error("chat: turn failed", "session_id", req.SessionID, "error", err)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

// HandleHistory returns chat history for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	c, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		if err == session.ErrSessionNotFound {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("chat: failed to load history", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"session_id": c.SessionID,
		"lead_score": c.LeadScore,
		"messages":   historyMessages(c),
	})
}

// HandleWidgetJS serves the embeddable widget JavaScript.
func (h *Handler) HandleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.widgetJS)
}

func historyMessages(c *session.ConversationContext) []HistoryMessage {
	out := make([]HistoryMessage, 0, len(c.History))
	for _, t := range c.History {
		out = append(out, HistoryMessage{
			Role:      t.Role,
			Text:      t.Content,
			Timestamp: t.Timestamp.Format(time.RFC3339),
		})
	}
	return out
}
