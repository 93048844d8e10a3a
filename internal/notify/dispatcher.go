package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

const sendTimeout = 30 * time.Second

// Dispatcher delivers messages on background workers. Callers enqueue after
// their write has committed; delivery failures are logged and dropped.
type Dispatcher struct {
	queue     chan Message
	workers   int
	notifiers map[Channel]Notifier

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewDispatcher(workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}
	return &Dispatcher{
		queue:     make(chan Message, queueSize),
		workers:   workers,
		notifiers: make(map[Channel]Notifier),
	}
}

// Register must be called before Start.
func (d *Dispatcher) Register(ch Channel, n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[ch] = n
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

// Enqueue never blocks. It returns false when the message was dropped.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Printf("notify: dispatcher closed, dropping %s to %s", msg.Channel, msg.To)
		return false
	}
	if _, ok := d.notifiers[msg.Channel]; !ok {
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		log.Printf("notify: queue full, dropping %s to %s (%q)", msg.Channel, msg.To, msg.Subject)
		return false
	}
}

// Close stops accepting messages and waits for queued ones to be delivered
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notify: panic delivering %s to %s: %v", msg.Channel, msg.To, r)
		}
	}()
	d.mu.RLock()
	n := d.notifiers[msg.Channel]
	d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := n.Send(ctx, msg); err != nil {
		log.Printf("notify: failed to send %s to %s (%q): %v", msg.Channel, msg.To, msg.Subject, err)
	}
}
