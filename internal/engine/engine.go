package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"go.uber.org/zap"

	"macross/internal/broker"
	"macross/internal/config"
	"macross/internal/market"
	"macross/internal/risk"
	"macross/internal/signal"
	"macross/internal/state"
	"macross/internal/strategy"
)

// BarSource supplies trailing prices for the configured symbol.
type BarSource interface {
	Trailing(ctx context.Context, symbol string, n int) (market.Series, error)
}

// Calendar answers whether the market is open right now.
type Calendar interface {
	Clock(ctx context.Context) (broker.Clock, error)
}

// Gateway is the brokerage surface one cycle needs: verified position,
// conflicting open orders, order submission and the account snapshot.
type Gateway interface {
	PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderRef, error)
	OpenOrders(ctx context.Context, symbol string) ([]broker.OrderRef, error)
	Position(ctx context.Context, symbol string) (broker.Position, error)
	Account(ctx context.Context) (broker.Account, error)
}

// Outcome labels how an evaluation cycle ended.
type Outcome string

const (
	OutcomeMarketClosed     Outcome = "market_closed"
	OutcomeInsufficientData Outcome = "insufficient_data"
	OutcomePositionUnknown  Outcome = "position_unknown"
	OutcomeHold             Outcome = "hold"
	OutcomeRejected         Outcome = "rejected"
	OutcomeDryRun           Outcome = "dry_run"
	OutcomeSubmitted        Outcome = "order_submitted"
	OutcomeOrderFailed      Outcome = "order_failed"
)

type Engine struct {
	cfg         config.Config
	strategy    strategy.Strategy
	gate        risk.Gate
	source      BarSource
	gateway     Gateway
	calendar    Calendar
	store       *state.Store
	decisions   *DecisionLogger
	log         *zap.Logger
	runID       string
	orderSeqNum uint64
}

func New(cfg config.Config, strat strategy.Strategy, gate risk.Gate, source BarSource, gateway Gateway, calendar Calendar, store *state.Store, decisions *DecisionLogger, log *zap.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		strategy:  strat,
		gate:      gate,
		source:    source,
		gateway:   gateway,
		calendar:  calendar,
		store:     store,
		decisions: decisions,
		log:       log,
		runID:     decisions.RunID(),
	}
}

// RunCycle performs one full evaluation: fetch prices, compute the average
// pair, detect a crossover against the prior pair, decide, vet and execute.
// It produces at most one order and appends exactly one decision record per
// evaluation that reached the data stage. Cycles never overlap; callers
// invoke RunCycle sequentially.
func (e *Engine) RunCycle(ctx context.Context) (Outcome, error) {
	if e.cfg.RequireMarketOpen {
		clock, err := e.calendar.Clock(ctx)
		if err != nil {
			return "", fmt.Errorf("market clock: %w", err)
		}
		if !clock.IsOpen {
			e.log.Info("market closed, skipping evaluation",
				zap.Time("next_open", clock.NextOpen))
			return OutcomeMarketClosed, nil
		}
	}

	series, err := e.source.Trailing(ctx, e.cfg.Symbol, e.cfg.Lookback)
	if err != nil {
		return "", fmt.Errorf("trailing prices: %w", err)
	}

	decision := Decision{
		RunID:     e.runID,
		Timestamp: time.Now().UTC(),
		Symbol:    e.cfg.Symbol,
	}
	if last, ok := series.Last(); ok {
		decision.BarTime = last.Time
		decision.Close = last.Price
	}

	pair, err := signal.ComputePair(series, e.cfg.ShortWindow, e.cfg.LongWindow)
	if errors.Is(err, market.ErrInsufficientData) {
		decision.Intent = strategy.Hold
		decision.Result = string(OutcomeInsufficientData)
		decision.RejectReason = err.Error()
		e.decisions.Append(decision)
		e.log.Info("not enough price history yet",
			zap.Int("bars", series.Len()),
			zap.Int("long_window", e.cfg.LongWindow))
		return OutcomeInsufficientData, nil
	}
	if err != nil {
		return "", fmt.Errorf("compute averages: %w", err)
	}
	// The stored pair always advances once computed, whatever happens to
	// the order side of the cycle.
	defer e.persistPair(pair)

	decision.ShortMA = pair.Short
	decision.LongMA = pair.Long

	prev, hasPrev := e.loadPrior()
	var prevPtr *signal.Pair
	if hasPrev {
		prevPtr = &prev
		decision.PrevShortMA = prev.Short
		decision.PrevLongMA = prev.Long
	}

	event := signal.Detect(prevPtr, pair)
	decision.Event = event

	position, err := e.gateway.Position(ctx, e.cfg.Symbol)
	if err != nil {
		decision.Intent = strategy.Hold
		decision.Result = string(OutcomePositionUnknown)
		decision.RejectReason = err.Error()
		e.decisions.Append(decision)
		e.log.Warn("position state unknown, holding", zap.Error(err))
		return OutcomePositionUnknown, nil
	}
	decision.PositionQty = position.Qty

	intent := e.strategy.Decide(strategy.MarketSnapshot{
		Timestamp:   decision.BarTime,
		Close:       decision.Close,
		Event:       event,
		PositionQty: position.Qty,
	})
	decision.Intent = intent.Action
	decision.IntentQty = intent.Qty
	decision.Reason = intent.Reason

	if intent.Action == strategy.Hold {
		decision.Result = string(OutcomeHold)
		e.decisions.Append(decision)
		e.log.Info("hold",
			zap.String("event", string(event)),
			zap.String("reason", intent.Reason),
			zap.Float64("short_ma", pair.Short),
			zap.Float64("long_ma", pair.Long))
		return OutcomeHold, nil
	}

	openOrders, err := e.gateway.OpenOrders(ctx, e.cfg.Symbol)
	if err != nil {
		decision.Result = string(OutcomeRejected)
		decision.RejectReason = "open_orders_unavailable"
		e.decisions.Append(decision)
		e.log.Warn("cannot verify open orders, holding", zap.Error(err))
		return OutcomeRejected, nil
	}

	approved, err := e.gate.Evaluate(intent, risk.RiskContext{
		PositionQty:    position.Qty,
		OpenOrderCount: len(openOrders),
		MaxQty:         e.cfg.MaxPositionQty,
		KillSwitch:     e.cfg.KillSwitch,
	})
	if err != nil {
		decision.Result = string(OutcomeRejected)
		decision.RejectReason = err.Error()
		e.decisions.Append(decision)
		e.log.Info("intent rejected",
			zap.String("intent", string(intent.Action)),
			zap.String("reason", err.Error()))
		return OutcomeRejected, nil
	}

	if e.cfg.Mode == config.ModeDryRun {
		decision.Result = string(OutcomeDryRun)
		e.decisions.Append(decision)
		e.log.Info("dry run, order not submitted",
			zap.String("intent", string(intent.Action)),
			zap.Int("qty", approved.Intent.Qty),
			zap.String("reason", intent.Reason))
		return OutcomeDryRun, nil
	}

	side := alpaca.Buy
	if approved.Intent.Action == strategy.Sell {
		side = alpaca.Sell
	}
	orderRef, err := e.gateway.PlaceOrder(ctx, broker.OrderRequest{
		Symbol:        e.cfg.Symbol,
		Qty:           approved.Intent.Qty,
		Side:          side,
		ClientOrderID: e.nextClientOrderID(),
	})
	if err != nil {
		decision.Result = string(OutcomeOrderFailed)
		decision.RejectReason = err.Error()
		e.decisions.Append(decision)
		e.log.Error("order submission failed", zap.Error(err))
		return OutcomeOrderFailed, nil
	}

	decision.Result = string(OutcomeSubmitted)
	decision.OrderID = orderRef.ID
	decision.ClientOrderID = orderRef.ClientOrderID
	e.decisions.Append(decision)
	e.log.Info("order submitted",
		zap.String("symbol", e.cfg.Symbol),
		zap.String("side", string(side)),
		zap.Int("qty", approved.Intent.Qty),
		zap.String("order_id", orderRef.ID),
		zap.String("client_order_id", orderRef.ClientOrderID))

	if acct, err := e.gateway.Account(ctx); err == nil {
		e.log.Info("account snapshot",
			zap.Float64("equity", acct.Equity),
			zap.Float64("buying_power", acct.BuyingPower))
	} else {
		e.log.Warn("account snapshot unavailable", zap.Error(err))
	}

	return OutcomeSubmitted, nil
}

// loadPrior returns the prior cycle's pair if a checkpoint exists and was
// written under the current symbol and windows. Anything else degrades to
// first-cycle behavior.
func (e *Engine) loadPrior() (signal.Pair, bool) {
	cp, ok, err := e.store.Load()
	if err != nil {
		e.log.Warn("checkpoint unreadable, treating as first cycle", zap.Error(err))
		return signal.Pair{}, false
	}
	if !ok {
		return signal.Pair{}, false
	}
	if !cp.Matches(e.cfg.Symbol, e.cfg.ShortWindow, e.cfg.LongWindow) {
		e.log.Warn("checkpoint from different configuration, discarding",
			zap.String("symbol", cp.Symbol),
			zap.Int("short_window", cp.ShortWindow),
			zap.Int("long_window", cp.LongWindow))
		return signal.Pair{}, false
	}
	return cp.Pair, true
}

func (e *Engine) persistPair(pair signal.Pair) {
	cp := state.Checkpoint{
		Symbol:      e.cfg.Symbol,
		ShortWindow: e.cfg.ShortWindow,
		LongWindow:  e.cfg.LongWindow,
		Pair:        pair,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := e.store.Save(cp); err != nil {
		e.log.Warn("failed to save checkpoint", zap.Error(err))
	}
}

func (e *Engine) nextClientOrderID() string {
	seq := atomic.AddUint64(&e.orderSeqNum, 1)
	return fmt.Sprintf("%s-%d", e.runID, seq)
}
