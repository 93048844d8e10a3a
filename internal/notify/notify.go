package notify

import (
	"context"
	"medicine_chatbot/pkg/mailer"
	"medicine_chatbot/pkg/whatsapp"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// Message is one outbound notification. To is an email address for the
// email channel and a phone number for whatsapp.
type Message struct {
	Channel Channel
	To      string
	Subject string
	Text    string
	HTML    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

type EmailNotifier struct {
	sender mailer.Sender
}

func NewEmailNotifier(sender mailer.Sender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

func (n *EmailNotifier) Send(ctx context.Context, msg Message) error {
	return n.sender.Send(ctx, mailer.Message{
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
}

type WhatsAppNotifier struct {
	client *whatsapp.Client
}

func NewWhatsAppNotifier(client *whatsapp.Client) *WhatsAppNotifier {
	return &WhatsAppNotifier{client: client}
}

func (n *WhatsAppNotifier) Send(ctx context.Context, msg Message) error {
	text := msg.Text
	if msg.Subject != "" {
		text = "*" + msg.Subject + "*\n" + text
	}
	return n.client.SendTextMessage(ctx, msg.To, text)
}
