package signal

import (
	"time"

	"macross/internal/market"
)

// Pair holds the short- and long-window moving averages computed from the
// same series snapshot, so the two values are always mutually consistent.
type Pair struct {
	Short float64   `json:"short"`
	Long  float64   `json:"long"`
	At    time.Time `json:"at"`
}

// ComputePair calculates both averages from one snapshot of the series.
// During warm-up it returns market.ErrInsufficientData.
func ComputePair(series market.Series, shortWindow, longWindow int) (Pair, error) {
	short, err := series.Mean(shortWindow)
	if err != nil {
		return Pair{}, err
	}
	long, err := series.Mean(longWindow)
	if err != nil {
		return Pair{}, err
	}
	pair := Pair{Short: short, Long: long}
	if last, ok := series.Last(); ok {
		pair.At = last.Time
	}
	return pair, nil
}
