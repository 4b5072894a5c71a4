package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"macross/internal/signal"
	"macross/internal/strategy"
)

// Decision is one evaluation cycle's audit record: the averages that were
// compared, the event they produced, the intent and how it ended. Exactly
// one record is appended per completed evaluation.
type Decision struct {
	RunID         string          `json:"run_id"`
	Timestamp     time.Time       `json:"timestamp"`
	BarTime       time.Time       `json:"bar_time,omitempty"`
	Symbol        string          `json:"symbol"`
	Close         float64         `json:"close,omitempty"`
	ShortMA       float64         `json:"short_ma,omitempty"`
	LongMA        float64         `json:"long_ma,omitempty"`
	PrevShortMA   float64         `json:"prev_short_ma,omitempty"`
	PrevLongMA    float64         `json:"prev_long_ma,omitempty"`
	Event         signal.Event    `json:"event,omitempty"`
	PositionQty   int             `json:"position_qty"`
	Intent        strategy.Action `json:"intent"`
	IntentQty     int             `json:"intent_qty,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Result        string          `json:"result"`
	RejectReason  string          `json:"reject_reason,omitempty"`
	OrderID       string          `json:"order_id,omitempty"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
}

// DecisionLogger appends decisions to an NDJSON file. Every append is
// flushed so records survive an abrupt exit.
type DecisionLogger struct {
	runID  string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

func NewDecisionLogger(path string, runID string) (*DecisionLogger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &DecisionLogger{
		runID:  runID,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (d *DecisionLogger) RunID() string {
	return d.runID
}

func (d *DecisionLogger) Append(decision Decision) {
	d.mu.Lock()
	defer d.mu.Unlock()
	payload, err := json.Marshal(decision)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal decision: %v\n", err)
		return
	}
	if _, err := d.writer.Write(append(payload, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write decision: %v\n", err)
		return
	}
	if err := d.writer.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush decision log: %v\n", err)
	}
}

func (d *DecisionLogger) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writer.Flush(); err != nil {
		_ = d.file.Close()
		return err
	}
	return d.file.Close()
}
