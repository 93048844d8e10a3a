package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

var ErrNoProvider = errors.New("no mail provider configured")

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message through one provider.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Chain tries each sender in order and stops at the first success.
type Chain struct {
	senders []Sender
}

func NewChain(senders ...Sender) *Chain {
	var s []Sender
	for _, sender := range senders {
		if sender != nil {
			s = append(s, sender)
		}
	}
	return &Chain{senders: s}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.senders))
	for i, s := range c.senders {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}

func (c *Chain) Len() int {
	return len(c.senders)
}

func (c *Chain) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("mailer: recipient is required")
	}
	if len(c.senders) == 0 {
		return ErrNoProvider
	}
	var errs []error
	for _, s := range c.senders {
		err := s.Send(ctx, msg)
		if err == nil {
			return nil
		}
		log.Printf("mailer: %s failed for %s: %v", s.Name(), msg.To, err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return errors.Join(errs...)
}

// LogSender only writes the message to the log. Useful in development.
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(_ context.Context, msg Message) error {
	log.Printf("mailer: to=%s subject=%q\n%s", msg.To, msg.Subject, msg.Text)
	return nil
}
