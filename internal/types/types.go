package types

import "time"

// LotSize is the number of base shares in one trading lot.
const LotSize = 1000

type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

type OrderStatus string

const (
	StatusSubmitted       OrderStatus = "Submitted"
	StatusPartiallyFilled OrderStatus = "PartiallyFilled"
	StatusFilled          OrderStatus = "Filled"
	StatusCancelled       OrderStatus = "Cancelled"
	StatusRejected        OrderStatus = "Rejected"
)

// Terminal reports whether no further status transition can occur.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// QuoteEvent is one tick from the market-data feed. Volume is in shares.
type QuoteEvent struct {
	Symbol    string    `json:"symbol"`
	Last      float64   `json:"last"`
	Reference float64   `json:"reference"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// VolumeLots converts traded shares into whole lots.
func (q QuoteEvent) VolumeLots() int64 { return q.Volume / LotSize }

// Signal is a trade suggestion produced by the strategy. Quantity is in lots.
type Signal struct {
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Reason      string    `json:"reason"`
	GeneratedAt time.Time `json:"generated_at"`
}

// OrderRecord is one snapshot of an order's lifecycle as reported by the
// gateway. The ledger appends a new record per status change; it never
// mutates earlier snapshots.
type OrderRecord struct {
	OrderID        string      `json:"order_id"`
	Symbol         string      `json:"symbol"`
	Side           Side        `json:"side"`
	Price          float64     `json:"price"`
	Quantity       int         `json:"quantity"`
	Status         OrderStatus `json:"status"`
	FilledQuantity int         `json:"filled_quantity"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// FillRecord is one execution against an order. Quantity is in lots.
type FillRecord struct {
	OrderID  string    `json:"order_id"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
	FilledAt time.Time `json:"filled_at"`
}

// Outcome is the result of monitoring an order until completion.
type Outcome string

const (
	OutcomeFilled    Outcome = "Filled"
	OutcomeCancelled Outcome = "Cancelled"
	OutcomeRejected  Outcome = "Rejected"
	OutcomeTimedOut  Outcome = "TimedOut"
)

// RankEntry is one row of a market change-percent ranking.
type RankEntry struct {
	Code          string  `json:"code"`
	Name          string  `json:"name,omitempty"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
}

// Position is a session holding derived from fills. Quantity is in lots.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      int     `json:"quantity"`
	AveragePrice  float64 `json:"average_price"`
	LastPrice     float64 `json:"last_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// SessionReport summarizes one trading session for operators.
type SessionReport struct {
	Date               string        `json:"date"`
	TotalSignals       int           `json:"total_signals"`
	TotalOrders        int           `json:"total_orders"`
	SubscribedStocks   int           `json:"subscribed_stocks"`
	FilledOrders       int           `json:"filled_orders"`
	CancelledOrders    int           `json:"cancelled_orders"`
	RejectedOrders     int           `json:"rejected_orders"`
	TimedOutOrders     int           `json:"timed_out_orders"`
	TotalUnrealizedPnL float64       `json:"total_unrealized_pnl"`
	Signals            []Signal      `json:"signals"`
	Orders             []OrderRecord `json:"orders"`
	Positions          []Position    `json:"positions"`
}
