// Package events implements the in-process event bus that fans market
// data and order notifications out to registered listeners.
//
// Dispatch is synchronous on the publisher's goroutine and follows
// registration order. A listener that fails or panics is logged and
// skipped; it never affects other listeners or the publisher.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/types"
)

// Kind identifies the event stream a listener is registered for.
type Kind uint8

const (
	KindQuote Kind = iota + 1
	KindOrderStatus
	KindFill
)

func (k Kind) String() string {
	switch k {
	case KindQuote:
		return "quote"
	case KindOrderStatus:
		return "order_status"
	case KindFill:
		return "fill"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ErrUnknownHandle is returned by Unsubscribe for a handle that was never
// issued or was already removed. That is a programmer error, not a
// runtime condition to swallow.
var ErrUnknownHandle = errors.New("events: unknown registration handle")

// Listener receives every published event of the kind it subscribed to.
// A returned error is logged; it does not stop dispatch.
type Listener func(ctx context.Context, ev any) error

// Handle identifies one registration for later removal.
type Handle struct {
	kind Kind
	id   uint64
}

type registration struct {
	id   uint64
	name string
	fn   Listener
}

// Bus routes events to listeners by kind. The zero value is not usable;
// call NewBus.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[Kind][]registration
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[Kind][]registration)}
}

// Subscribe registers fn for events of the given kind. The name is used
// only for log identity; duplicate registrations of the same function are
// permitted and each gets its own handle.
func (b *Bus) Subscribe(kind Kind, name string, fn Listener) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.listeners[kind] = append(b.listeners[kind], registration{id: b.nextID, name: name, fn: fn})
	return Handle{kind: kind, id: b.nextID}
}

// Unsubscribe removes the registration identified by h.
func (b *Bus) Unsubscribe(h Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.listeners[h.kind]
	for i, reg := range regs {
		if reg.id == h.id {
			b.listeners[h.kind] = append(regs[:i:i], regs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: kind=%s id=%d", ErrUnknownHandle, h.kind, h.id)
}

// ListenerCount returns the number of registrations for a kind.
func (b *Bus) ListenerCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[kind])
}

// Publish delivers ev to every listener currently registered for kind, in
// registration order, on the calling goroutine. It never panics or
// returns an error on behalf of a listener.
func (b *Bus) Publish(ctx context.Context, kind Kind, ev any) {
	b.mu.RLock()
	regs := make([]registration, len(b.listeners[kind]))
	copy(regs, b.listeners[kind])
	b.mu.RUnlock()

	for _, reg := range regs {
		b.deliver(ctx, kind, reg, ev)
	}
}

func (b *Bus) deliver(ctx context.Context, kind Kind, reg registration, ev any) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Listener panicked during dispatch",
				"listener", reg.name,
				"kind", kind.String(),
				"event", Summary(ev),
				"panic", fmt.Sprint(r),
			)
		}
	}()
	if err := reg.fn(ctx, ev); err != nil {
		logger.ErrorWithErr(ctx, "Listener failed to handle event", err,
			"listener", reg.name,
			"kind", kind.String(),
			"event", Summary(ev),
		)
	}
}

// Summary renders a short, loggable description of a published event.
func Summary(ev any) string {
	switch e := ev.(type) {
	case types.QuoteEvent:
		return fmt.Sprintf("quote %s last=%.2f ref=%.2f vol=%d", e.Symbol, e.Last, e.Reference, e.Volume)
	case types.OrderRecord:
		return fmt.Sprintf("order %s %s %s filled=%d/%d", e.OrderID, e.Symbol, e.Status, e.FilledQuantity, e.Quantity)
	case types.FillRecord:
		return fmt.Sprintf("fill %s price=%.2f qty=%d", e.OrderID, e.Price, e.Quantity)
	}
	return fmt.Sprintf("%T", ev)
}
