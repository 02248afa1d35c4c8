package interfaces

import "context"

// QuoteFeed streams market data. Quotes for subscribed symbols arrive on
// the event bus as QuoteEvent payloads.
type QuoteFeed interface {
	// Subscribe starts quote delivery for the symbols. Subscribing an
	// already-subscribed symbol is a no-op.
	Subscribe(ctx context.Context, symbols []string) error
}
