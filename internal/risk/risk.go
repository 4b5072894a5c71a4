package risk

import (
	"fmt"

	"go.uber.org/zap"

	"macross/internal/strategy"
)

// RiskContext is the account-side state an intent is checked against.
type RiskContext struct {
	PositionQty    int
	OpenOrderCount int
	MaxQty         int
	KillSwitch     bool
}

type ApprovedIntent struct {
	Intent strategy.TradeIntent
	Reason string
}

// Gate vets actionable intents before they reach the brokerage. Holds pass
// through untouched. Rejections return a reason-code error and no order is
// placed for that cycle.
type Gate struct {
	log *zap.Logger
}

func NewGate(log *zap.Logger) Gate {
	return Gate{log: log}
}

func (g Gate) Evaluate(intent strategy.TradeIntent, ctx RiskContext) (ApprovedIntent, error) {
	if intent.Action == strategy.Hold {
		return ApprovedIntent{Intent: intent, Reason: "hold"}, nil
	}

	g.log.Info("risk evaluation",
		zap.String("intent", string(intent.Action)),
		zap.Int("qty", intent.Qty),
		zap.Int("position", ctx.PositionQty))

	if ctx.KillSwitch {
		g.log.Info("risk rejected", zap.String("reason", "kill_switch_enabled"))
		return ApprovedIntent{}, fmt.Errorf("kill_switch_enabled")
	}
	if ctx.OpenOrderCount > 0 {
		g.log.Info("risk rejected", zap.String("reason", "open_order_exists"), zap.Int("count", ctx.OpenOrderCount))
		return ApprovedIntent{}, fmt.Errorf("open_order_exists")
	}
	if intent.Qty <= 0 {
		g.log.Info("risk rejected", zap.String("reason", "invalid_quantity"), zap.Int("qty", intent.Qty))
		return ApprovedIntent{}, fmt.Errorf("invalid_quantity")
	}
	if intent.Action == strategy.Buy && intent.Qty+ctx.PositionQty > ctx.MaxQty {
		g.log.Info("risk rejected", zap.String("reason", "max_position_exceeded"),
			zap.Int("new_qty", intent.Qty+ctx.PositionQty), zap.Int("max", ctx.MaxQty))
		return ApprovedIntent{}, fmt.Errorf("max_position_exceeded")
	}
	if intent.Action == strategy.Sell {
		if ctx.PositionQty <= 0 {
			g.log.Info("risk rejected", zap.String("reason", "no_position_to_sell"))
			return ApprovedIntent{}, fmt.Errorf("no_position_to_sell")
		}
		if intent.Qty > ctx.PositionQty {
			g.log.Info("risk rejected", zap.String("reason", "sell_exceeds_position"),
				zap.Int("qty", intent.Qty), zap.Int("position", ctx.PositionQty))
			return ApprovedIntent{}, fmt.Errorf("sell_exceeds_position")
		}
	}

	g.log.Info("risk approved",
		zap.String("intent", string(intent.Action)),
		zap.Int("qty", intent.Qty),
		zap.String("reason", intent.Reason))
	return ApprovedIntent{Intent: intent, Reason: "approved"}, nil
}
