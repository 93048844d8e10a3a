package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (r *recorder) Send(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestDispatcherDeliversAndDrains(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(2, 10)
	d.Register(ChannelEmail, rec)
	d.Start()

	for i := 0; i < 5; i++ {
		if !d.Enqueue(Message{Channel: ChannelEmail, To: "ops@example.com", Subject: "x"}) {
			t.Fatalf("enqueue %d dropped", i)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rec.count() != 5 {
		t.Errorf("delivered %d, want 5", rec.count())
	}
	if d.Enqueue(Message{Channel: ChannelEmail, To: "late@example.com"}) {
		t.Error("enqueue after close should be dropped")
	}
}

func TestDispatcherSwallowsErrors(t *testing.T) {
	rec := &recorder{err: errors.New("smtp down")}
	d := NewDispatcher(1, 1)
	d.Register(ChannelEmail, rec)
	d.Start()
	d.Enqueue(Message{Channel: ChannelEmail, To: "a@b.co"})
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rec.count() != 1 {
		t.Errorf("delivered %d, want 1", rec.count())
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	d := NewDispatcher(1, 1)
	d.Register(ChannelEmail, NotifierFunc(func(ctx context.Context, msg Message) error {
		<-block
		return nil
	}))

	// Not started, so the single slot fills immediately.
	if !d.Enqueue(Message{Channel: ChannelEmail, To: "a@b.co"}) {
		t.Fatal("first enqueue dropped")
	}
	if d.Enqueue(Message{Channel: ChannelEmail, To: "b@b.co"}) {
		t.Error("second enqueue should be dropped")
	}
	d.Start()
	close(block)
	d.Close(context.Background())
}

func TestDispatcherUnknownChannel(t *testing.T) {
	d := NewDispatcher(1, 1)
	if d.Enqueue(Message{Channel: ChannelWhatsApp, To: "9876543210"}) {
		t.Error("unregistered channel should be dropped")
	}
}

func TestDispatcherCloseTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	d := NewDispatcher(1, 1)
	d.Register(ChannelEmail, NotifierFunc(func(ctx context.Context, msg Message) error {
		<-block
		return nil
	}))
	d.Start()
	d.Enqueue(Message{Channel: ChannelEmail, To: "a@b.co"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Close err = %v, want deadline exceeded", err)
	}
}
