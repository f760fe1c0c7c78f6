package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/folioapp/folio/internal/model"
	"github.com/folioapp/folio/internal/service"
)

const (
	wsReadLimit   = 4096
	wsIdleTimeout = 5 * time.Minute
)

// ChatbotHandler answers visitor questions over HTTP and websocket.
type ChatbotHandler struct {
	bot            *service.Chatbot
	originPatterns []string
	logger         *slog.Logger
}

// NewChatbotHandler creates a new ChatbotHandler. originPatterns lists the
// hosts allowed to open a websocket from a browser; the server's own host
// is always allowed.
func NewChatbotHandler(bot *service.Chatbot, originPatterns []string, logger *slog.Logger) *ChatbotHandler {
	return &ChatbotHandler{bot: bot, originPatterns: originPatterns, logger: logger}
}

// Chat returns a canned reply to the visitor's message.
// POST /api/chatbot
func (h *ChatbotHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Message required")
		return
	}

	reply, err := h.bot.Reply(req.Message)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "Message required")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// Live upgrades to a websocket and answers each {message} frame with a
// reply frame. Empty messages get an error frame and the connection stays
// open.
// GET /api/chatbot/ws
func (h *ChatbotHandler) Live(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("chatbot websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(wsReadLimit)

	ctx := r.Context()
	for {
		var req model.ChatRequest
		readCtx, cancel := context.WithTimeout(ctx, wsIdleTimeout)
		err := wsjson.Read(readCtx, conn, &req)
		cancel()
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			h.logger.Debug("chatbot websocket closed", "error", err)
			conn.Close(websocket.StatusPolicyViolation, "invalid message")
			return
		}

		var out interface{}
		reply, err := h.bot.Reply(req.Message)
		if err != nil {
			out = model.ErrorResponse{Success: false, Message: "Message required"}
		} else {
			out = reply
		}
		if err := wsjson.Write(ctx, conn, out); err != nil {
			return
		}
	}
}
