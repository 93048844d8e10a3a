package handlers

import (
	"context"
	"net/http"
	"strings"

	"medicine_chatbot/internal/services"

	"github.com/gin-gonic/gin"
)

// ChatResponder advances a chat conversation. *services.ChatService
// implements it.
type ChatResponder interface {
	Handle(ctx context.Context, sessionID, message string) (*services.ChatReply, error)
	End(ctx context.Context, sessionID string) error
}

type ChatHandler struct {
	chat ChatResponder
}

func NewChatHandler(chat ChatResponder) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Message(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if strings.HasPrefix(req.SessionID, whatsappSessionPrefix) {
		invalidSession(c)
		return
	}
	reply, err := h.chat.Handle(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *ChatHandler) End(c *gin.Context) {
	sessionID := c.Param("session_id")
	if strings.HasPrefix(sessionID, whatsappSessionPrefix) {
		invalidSession(c)
		return
	}
	if err := h.chat.End(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"status":     "deleted",
	})
}

// invalidSession rejects ids from the WhatsApp namespace on the web endpoint.
func invalidSession(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
}
