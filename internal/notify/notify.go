package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/kissandost/internal/webhook"
)

const webhookForwardTimeout = 10 * time.Second

type Kind string

const (
	KindError Kind = "error"
	KindInfo  Kind = "info"
)

// Notification is a transient, user-visible message. It is never persisted.
type Notification struct {
	ID      uint64
	Kind    Kind
	Source  string
	Message string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Board holds active notifications and dismisses each one after ttl.
type Board struct {
	ttl    time.Duration
	sender webhook.Sender
	now    func() time.Time

	mu        sync.Mutex
	seq       uint64
	active    []Notification
	timers    map[uint64]*time.Timer
	listeners []func(Notification)
	closed    bool
}

// NewBoard returns a board; sender may be nil to skip forwarding.
func NewBoard(ttl time.Duration, sender webhook.Sender) *Board {
	return &Board{
		ttl:    ttl,
		sender: sender,
		now:    time.Now,
		timers: make(map[uint64]*time.Timer),
	}
}

// Subscribe registers fn to be called for every new notification.
func (b *Board) Subscribe(fn func(Notification)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

func (b *Board) Notify(ctx context.Context, n Notification) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.seq++
	n.ID = b.seq
	if n.Kind == "" {
		n.Kind = KindError
	}
	b.active = append(b.active, n)
	id := n.ID
	b.timers[id] = time.AfterFunc(b.ttl, func() { b.Dismiss(id) })
	listeners := append([]func(Notification){}, b.listeners...)
	b.mu.Unlock()

	slog.Info("notification raised", "notification_id", n.ID, "kind", string(n.Kind), "source", n.Source, "message", n.Message)
	for _, fn := range listeners {
		fn(n)
	}
	if b.sender != nil {
		go b.forward(context.WithoutCancel(ctx), n)
	}
}

func (b *Board) forward(ctx context.Context, n Notification) {
	ctx, cancel := context.WithTimeout(ctx, webhookForwardTimeout)
	defer cancel()
	err := b.sender.SendNotification(ctx, webhook.NotificationPayload{
		Kind:       string(n.Kind),
		Message:    n.Message,
		Source:     n.Source,
		OccurredAt: b.now(),
	})
	if err != nil {
		slog.Error("failed to forward notification", "notification_id", n.ID, "error", err)
	}
}

func (b *Board) Dismiss(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.timers[id]; ok {
		t.Stop()
		delete(b.timers, id)
	}
	for i, n := range b.active {
		if n.ID == id {
			b.active = append(b.active[:i:i], b.active[i+1:]...)
			return
		}
	}
}

// Active returns the notifications that have not been dismissed, oldest first.
func (b *Board) Active() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notification, len(b.active))
	copy(out, b.active)
	return out
}

// Close stops pending dismiss timers and ignores later notifications.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
}
