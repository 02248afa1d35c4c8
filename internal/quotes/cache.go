// Package quotes holds the latest market snapshot per symbol.
package quotes

import (
	"context"
	"fmt"
	"sync"

	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/types"
)

// Cache stores the most recent QuoteEvent per symbol. Safe for concurrent
// update from the feed-delivery goroutine and reads from any goroutine.
type Cache struct {
	mu     sync.RWMutex
	latest map[string]types.QuoteEvent
}

func NewCache() *Cache {
	return &Cache{latest: make(map[string]types.QuoteEvent)}
}

// Update overwrites the stored snapshot for the event's symbol.
func (c *Cache) Update(ctx context.Context, ev types.QuoteEvent) {
	if ev.Symbol == "" {
		logger.Warn(ctx, "Dropping quote without symbol", "last", ev.Last)
		return
	}
	c.mu.Lock()
	c.latest[ev.Symbol] = ev
	c.mu.Unlock()
}

// Latest returns the current snapshot for a symbol.
func (c *Cache) Latest(symbol string) (types.QuoteEvent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ev, ok := c.latest[symbol]
	return ev, ok
}

// Symbols returns every symbol with a stored snapshot.
func (c *Cache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.latest))
	for sym := range c.latest {
		out = append(out, sym)
	}
	return out
}

// Len returns the number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.latest)
}

// HandleQuote adapts the cache to an event-bus listener.
func (c *Cache) HandleQuote(ctx context.Context, ev any) error {
	q, ok := ev.(types.QuoteEvent)
	if !ok {
		return fmt.Errorf("quotes: unexpected event payload %T", ev)
	}
	c.Update(ctx, q)
	return nil
}
