package strategy

import "macross/internal/signal"

// Crossover trades the two-average crossover: buy a fixed quantity on a
// bullish cross when flat, sell the entire position on a bearish cross when
// holding. Everything else holds, so each snapshot yields at most one order
// and replaying the same snapshot yields the same intent.
type Crossover struct {
	TradeQty int
}

func (c Crossover) Decide(snapshot MarketSnapshot) TradeIntent {
	state := PositionStateOf(snapshot.PositionQty)
	switch snapshot.Event {
	case signal.BullishCross:
		if state == Holding {
			return TradeIntent{Action: Hold, Reason: "already_holding"}
		}
		return TradeIntent{Action: Buy, Qty: c.TradeQty, Reason: "bullish_crossover"}
	case signal.BearishCross:
		if state == Flat {
			return TradeIntent{Action: Hold, Reason: "nothing_to_sell"}
		}
		return TradeIntent{Action: Sell, Qty: snapshot.PositionQty, Reason: "bearish_crossover"}
	default:
		return TradeIntent{Action: Hold, Reason: "no_event"}
	}
}
