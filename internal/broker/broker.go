package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrPositionUnknown means the brokerage could not tell us what we hold.
// Callers must fail closed on it; unknown is never the same as flat.
var ErrPositionUnknown = errors.New("position state unknown")

// OrderRequest describes a market day order. Order type and time in force
// are fixed; only side, quantity and the idempotency key vary.
type OrderRequest struct {
	Symbol        string
	Qty           int
	Side          alpaca.Side
	ClientOrderID string
}

type OrderRef struct {
	ID            string
	ClientOrderID string
	Symbol        string
	Status        string
}

type Position struct {
	Symbol   string
	Qty      int
	AvgEntry float64
}

type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

type Account struct {
	Number      string
	Equity      float64
	BuyingPower float64
}

type Client struct {
	client *alpaca.Client
	log    *zap.Logger
}

func New(apiKey, apiSecret, baseURL string, log *zap.Logger) *Client {
	opts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	}
	return &Client{client: alpaca.NewClient(opts), log: log}
}

func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (OrderRef, error) {
	qty := decimal.NewFromInt(int64(req.Qty))
	orderReq := alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Qty:           &qty,
		Side:          req.Side,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: req.ClientOrderID,
	}

	order, err := c.client.PlaceOrder(orderReq)
	if err != nil {
		c.log.Error("place order failed",
			zap.String("side", string(req.Side)),
			zap.String("symbol", req.Symbol),
			zap.Int("qty", req.Qty),
			zap.Error(err))
		return OrderRef{}, fmt.Errorf("place %s order for %s: %w", req.Side, req.Symbol, err)
	}

	c.log.Info("place order success",
		zap.String("order_id", order.ID),
		zap.String("client_order_id", order.ClientOrderID),
		zap.String("side", string(req.Side)),
		zap.String("symbol", req.Symbol),
		zap.Int("qty", req.Qty),
		zap.String("status", string(order.Status)))
	return OrderRef{
		ID:            order.ID,
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Status:        string(order.Status),
	}, nil
}

// OpenOrders returns open orders for symbol only. The orders endpoint is not
// filtered server side, so this filters the response.
func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]OrderRef, error) {
	req := alpaca.GetOrdersRequest{
		Status: "open",
	}
	orders, err := c.client.GetOrders(req)
	if err != nil {
		c.log.Error("fetch open orders failed", zap.Error(err))
		return nil, fmt.Errorf("fetch open orders: %w", err)
	}
	refs := make([]OrderRef, 0, len(orders))
	for _, order := range orders {
		if order.Symbol != symbol {
			continue
		}
		refs = append(refs, OrderRef{
			ID:            order.ID,
			ClientOrderID: order.ClientOrderID,
			Symbol:        order.Symbol,
			Status:        string(order.Status),
		})
	}
	c.log.Info("open orders fetched", zap.String("symbol", symbol), zap.Int("count", len(refs)))
	return refs, nil
}

// Position returns the current holding for symbol. A 404 from the brokerage
// means no position, which is reported as a zero quantity. Any other failure
// wraps ErrPositionUnknown.
func (c *Client) Position(ctx context.Context, symbol string) (Position, error) {
	pos, err := c.client.GetPosition(symbol)
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			c.log.Info("no position", zap.String("symbol", symbol))
			return Position{Symbol: symbol}, nil
		}
		c.log.Error("fetch position failed", zap.String("symbol", symbol), zap.Error(err))
		return Position{}, fmt.Errorf("%w: %w", ErrPositionUnknown, err)
	}
	qty := int(pos.Qty.IntPart())
	avgEntry, _ := pos.AvgEntryPrice.Float64()

	c.log.Info("position fetched",
		zap.String("symbol", symbol),
		zap.Int("qty", qty),
		zap.Float64("avg_entry", avgEntry))
	return Position{
		Symbol:   pos.Symbol,
		Qty:      qty,
		AvgEntry: avgEntry,
	}, nil
}

func (c *Client) Clock(ctx context.Context) (Clock, error) {
	clock, err := c.client.GetClock()
	if err != nil {
		c.log.Error("fetch market clock failed", zap.Error(err))
		return Clock{}, fmt.Errorf("fetch market clock: %w", err)
	}
	return Clock{
		Timestamp: clock.Timestamp,
		IsOpen:    clock.IsOpen,
		NextOpen:  clock.NextOpen,
		NextClose: clock.NextClose,
	}, nil
}

func (c *Client) Account(ctx context.Context) (Account, error) {
	acct, err := c.client.GetAccount()
	if err != nil {
		c.log.Error("fetch account failed", zap.Error(err))
		return Account{}, fmt.Errorf("fetch account: %w", err)
	}
	equity, _ := acct.Equity.Float64()
	buyingPower, _ := acct.BuyingPower.Float64()

	return Account{
		Number:      acct.AccountNumber,
		Equity:      equity,
		BuyingPower: buyingPower,
	}, nil
}

// WaitForContext sleeps for delay or until ctx is done, whichever comes
// first.
func WaitForContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
