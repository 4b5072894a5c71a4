package market

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientData means the series does not yet cover the requested
// window. Expected during warm-up; callers degrade to no action.
var ErrInsufficientData = errors.New("insufficient price data")

// PricePoint is one observed price for the instrument.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// Series is an ordered price history for a single symbol. Timestamps are
// strictly increasing and prices strictly positive.
type Series struct {
	symbol string
	points []PricePoint
}

func NewSeries(symbol string, points []PricePoint) (Series, error) {
	s := Series{symbol: symbol, points: make([]PricePoint, 0, len(points))}
	for _, p := range points {
		if err := s.Append(p); err != nil {
			return Series{}, err
		}
	}
	return s, nil
}

func (s *Series) Append(p PricePoint) error {
	if p.Price <= 0 {
		return fmt.Errorf("non-positive price %v at %s", p.Price, p.Time.Format(time.RFC3339))
	}
	if n := len(s.points); n > 0 && !p.Time.After(s.points[n-1].Time) {
		return fmt.Errorf("out-of-order price point at %s", p.Time.Format(time.RFC3339))
	}
	s.points = append(s.points, p)
	return nil
}

func (s Series) Symbol() string {
	return s.symbol
}

func (s Series) Len() int {
	return len(s.points)
}

// Last returns the most recent point, if any.
func (s Series) Last() (PricePoint, bool) {
	if len(s.points) == 0 {
		return PricePoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// Mean returns the arithmetic mean of the last window prices. It is a pure
// function of the series contents.
func (s Series) Mean(window int) (float64, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}
	if len(s.points) < window {
		return 0, fmt.Errorf("%w: window %d, have %d points", ErrInsufficientData, window, len(s.points))
	}
	sum := 0.0
	for _, p := range s.points[len(s.points)-window:] {
		sum += p.Price
	}
	return sum / float64(window), nil
}
