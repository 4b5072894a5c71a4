package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"go.uber.org/zap"
)

// BarSourceConfig configures the Alpaca market data client.
type BarSourceConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Feed      string
	Timeframe string
	// Span is how far back each fetch reaches. It must cover weekends and
	// holidays so enough bars come back for the longest window.
	Span time.Duration
}

// BarSource fetches trailing close prices from the Alpaca data API.
type BarSource struct {
	client    *marketdata.Client
	feed      marketdata.Feed
	timeframe marketdata.TimeFrame
	span      time.Duration
	log       *zap.Logger
}

func NewBarSource(cfg BarSourceConfig, log *zap.Logger) (*BarSource, error) {
	timeframe, err := parseTimeframe(cfg.Timeframe)
	if err != nil {
		return nil, err
	}
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.BaseURL,
	})
	return &BarSource{
		client:    client,
		feed:      parseFeed(cfg.Feed),
		timeframe: timeframe,
		span:      cfg.Span,
		log:       log,
	}, nil
}

// Trailing returns the most recent n closes for symbol as an ordered series.
// Fewer than n bars is not an error here; short histories surface later as
// ErrInsufficientData from the window math.
func (b *BarSource) Trailing(ctx context.Context, symbol string, n int) (Series, error) {
	start := time.Now().UTC().Add(-b.span)
	bars, err := b.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: b.timeframe,
		Start:     start,
		Feed:      b.feed,
	})
	if err != nil {
		return Series{}, fmt.Errorf("fetch bars for %s: %w", symbol, err)
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	points := make([]PricePoint, 0, len(bars))
	for _, bar := range bars {
		points = append(points, PricePoint{Time: bar.Timestamp, Price: bar.Close})
	}
	series, err := NewSeries(symbol, points)
	if err != nil {
		return Series{}, fmt.Errorf("bars for %s: %w", symbol, err)
	}
	b.log.Debug("trailing bars fetched",
		zap.String("symbol", symbol),
		zap.Int("bars", series.Len()),
		zap.Int("requested", n))
	return series, nil
}

func parseTimeframe(s string) (marketdata.TimeFrame, error) {
	switch strings.ToLower(s) {
	case "1min":
		return marketdata.OneMin, nil
	case "5min":
		return marketdata.NewTimeFrame(5, marketdata.Min), nil
	case "15min":
		return marketdata.NewTimeFrame(15, marketdata.Min), nil
	case "1hour":
		return marketdata.OneHour, nil
	case "1day":
		return marketdata.OneDay, nil
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("unsupported timeframe %q", s)
	}
}

func parseFeed(s string) marketdata.Feed {
	if strings.ToLower(s) == "sip" {
		return marketdata.SIP
	}
	return marketdata.IEX
}
