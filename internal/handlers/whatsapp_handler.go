package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TextSender delivers a plain text message to a phone number.
type TextSender interface {
	SendTextMessage(ctx context.Context, phone, message string) error
}

// whatsappSessionPrefix namespaces chat sessions owned by the webhook.
const whatsappSessionPrefix = "wa:"

// WhatsAppHandler bridges the WhatsApp gateway webhook to the chat dialogue.
// Each sender phone gets its own chat session.
type WhatsAppHandler struct {
	chat   ChatResponder
	sender TextSender
}

func NewWhatsAppHandler(chat ChatResponder, sender TextSender) *WhatsAppHandler {
	return &WhatsAppHandler{chat: chat, sender: sender}
}

type WebhookRequest struct {
	SenderID  string `json:"sender_id"`
	ChatID    string `json:"chat_id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Pushname  string `json:"pushname"`
	Message   struct {
		Text          string `json:"text"`
		ID            string `json:"id"`
		RepliedID     string `json:"replied_id"`
		QuotedMessage string `json:"quoted_message"`
	} `json:"message"`
}

type SendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// senderPhone turns "919876543210@s.whatsapp.net" into "9876543210".
func senderPhone(req WebhookRequest) string {
	phone := req.From
	if phone == "" {
		phone = req.SenderID
	}
	if i := strings.Index(phone, "@"); i >= 0 {
		phone = phone[:i]
	}
	phone = strings.TrimPrefix(phone, "+")
	if len(phone) == 12 && strings.HasPrefix(phone, "91") {
		phone = phone[2:]
	}
	return phone
}

func (h *WhatsAppHandler) HandleWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	phone := senderPhone(req)
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sender is required"})
		return
	}

	ctx := c.Request.Context()
	reply, err := h.chat.Handle(ctx, whatsappSessionPrefix+phone, req.Message.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.sender.SendTextMessage(ctx, phone, reply.Reply); err != nil {
		log.Printf("Failed to send WhatsApp reply to %s: %v", phone, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// SendMessage lets operators push a free-form message to a customer.
func (h *WhatsAppHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" || strings.TrimSpace(req.Message) == "" {
		badRequest(c)
		return
	}
	if err := h.sender.SendTextMessage(c.Request.Context(), req.Phone, req.Message); err != nil {
		log.Printf("Failed to send WhatsApp message to %s: %v", req.Phone, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
