package mailer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
)

type stubSender struct {
	name  string
	err   error
	calls int
}

func (s *stubSender) Name() string { return s.name }

func (s *stubSender) Send(ctx context.Context, msg Message) error {
	s.calls++
	return s.err
}

func TestChainFallsBack(t *testing.T) {
	primary := &stubSender{name: "primary", err: errors.New("down")}
	fallback := &stubSender{name: "fallback"}
	c := NewChain(primary, nil, fallback)

	if err := c.Send(context.Background(), Message{To: "a@b.co", Subject: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d, %d", primary.calls, fallback.calls)
	}
	if c.Name() != "primary,fallback" {
		t.Errorf("Name = %q", c.Name())
	}
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	primary := &stubSender{name: "primary"}
	fallback := &stubSender{name: "fallback"}
	if err := NewChain(primary, fallback).Send(context.Background(), Message{To: "a@b.co"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times", fallback.calls)
	}
}

func TestChainAllFail(t *testing.T) {
	c := NewChain(&stubSender{name: "a", err: errors.New("x")}, &stubSender{name: "b", err: errors.New("y")})
	err := c.Send(context.Background(), Message{To: "a@b.co"})
	if err == nil || !strings.Contains(err.Error(), "a: x") || !strings.Contains(err.Error(), "b: y") {
		t.Errorf("err = %v", err)
	}
}

func TestChainNoProvider(t *testing.T) {
	if err := NewChain().Send(context.Background(), Message{To: "a@b.co"}); !errors.Is(err, ErrNoProvider) {
		t.Errorf("err = %v, want ErrNoProvider", err)
	}
	if err := NewChain(LogSender{}).Send(context.Background(), Message{}); err == nil {
		t.Error("expected error for missing recipient")
	}
}

func TestMailgunSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mg.example.com/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, _ := r.BasicAuth()
		if user != "api" || pass != "key-1" {
			t.Errorf("auth = %s:%s", user, pass)
		}
		r.ParseForm()
		if r.PostForm.Get("to") != "a@b.co" || r.PostForm.Get("subject") != "Order" {
			t.Errorf("form = %v", r.PostForm)
		}
		if r.PostForm.Get("from") != "Ranjan Medicine <no-reply@mg.example.com>" {
			t.Errorf("from = %q", r.PostForm.Get("from"))
		}
		if _, ok := r.PostForm["html"]; ok {
			t.Error("empty html should not be sent")
		}
		w.Write([]byte(`{"id":"1","message":"Queued"}`))
	}))
	defer srv.Close()

	c := NewMailgunClient("key-1", "mg.example.com", "")
	c.BaseURL = srv.URL
	if err := c.Send(context.Background(), Message{To: "a@b.co", Subject: "Order", Text: "body"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestMailgunError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewMailgunClient("bad", "mg.example.com", "ops@example.com")
	c.BaseURL = srv.URL
	err := c.Send(context.Background(), Message{To: "a@b.co"})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("err = %v", err)
	}
}

func TestSMTPSendBuildsMultipart(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotBody string
	c := NewSMTPClient("smtp.example.com", 0, "ops@example.com", "secret", "")
	c.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotBody = addr, to, string(msg)
		return nil
	}

	err := c.Send(context.Background(), Message{To: "a@b.co", Subject: "Hi", Text: "plain", HTML: "<b>rich</b>"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %s", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "a@b.co" {
		t.Errorf("to = %v", gotTo)
	}
	for _, want := range []string{"Subject: Hi", "multipart/alternative", "plain", "<b>rich</b>", "From: Ranjan Medicine <ops@example.com>"} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("body missing %q", want)
		}
	}
}
