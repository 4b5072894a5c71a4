package strategy

import (
	"time"

	"macross/internal/signal"
)

type Action string

const (
	Hold Action = "HOLD"
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// MarketSnapshot is everything a strategy may consult for one decision: the
// crossover event for this cycle plus the verified position quantity.
type MarketSnapshot struct {
	Timestamp   time.Time
	Close       float64
	Event       signal.Event
	PositionQty int
}

type TradeIntent struct {
	Action Action
	Qty    int
	Reason string
}

type Strategy interface {
	Decide(snapshot MarketSnapshot) TradeIntent
}
