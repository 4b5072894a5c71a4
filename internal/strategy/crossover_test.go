package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"macross/internal/signal"
)

func snapshotWith(event signal.Event, positionQty int) MarketSnapshot {
	return MarketSnapshot{
		Timestamp:   time.Date(2025, 6, 2, 14, 35, 0, 0, time.UTC),
		Close:       101.0,
		Event:       event,
		PositionQty: positionQty,
	}
}

func TestCrossoverDecide(t *testing.T) {
	strat := Crossover{TradeQty: 10}

	cases := []struct {
		name        string
		event       signal.Event
		positionQty int
		want        TradeIntent
	}{
		{
			name:  "bullish cross while flat buys fixed qty",
			event: signal.BullishCross,
			want:  TradeIntent{Action: Buy, Qty: 10, Reason: "bullish_crossover"},
		},
		{
			name:        "bullish cross while holding does not add",
			event:       signal.BullishCross,
			positionQty: 10,
			want:        TradeIntent{Action: Hold, Reason: "already_holding"},
		},
		{
			name:        "bearish cross while holding sells entire position",
			event:       signal.BearishCross,
			positionQty: 7,
			want:        TradeIntent{Action: Sell, Qty: 7, Reason: "bearish_crossover"},
		},
		{
			name:  "bearish cross while flat does nothing",
			event: signal.BearishCross,
			want:  TradeIntent{Action: Hold, Reason: "nothing_to_sell"},
		},
		{
			name:        "no event holds while flat",
			event:       signal.NoEvent,
			positionQty: 0,
			want:        TradeIntent{Action: Hold, Reason: "no_event"},
		},
		{
			name:        "no event holds while holding",
			event:       signal.NoEvent,
			positionQty: 10,
			want:        TradeIntent{Action: Hold, Reason: "no_event"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := strat.Decide(snapshotWith(tc.event, tc.positionQty))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCrossoverDecideIsRepeatable(t *testing.T) {
	strat := Crossover{TradeQty: 10}
	snapshot := snapshotWith(signal.BullishCross, 0)

	first := strat.Decide(snapshot)
	second := strat.Decide(snapshot)
	assert.Equal(t, first, second)
}

func TestPositionStateOf(t *testing.T) {
	assert.Equal(t, Flat, PositionStateOf(0))
	assert.Equal(t, Holding, PositionStateOf(1))
	assert.Equal(t, Holding, PositionStateOf(250))
}
