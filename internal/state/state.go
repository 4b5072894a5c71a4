package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"macross/internal/signal"
)

// Checkpoint carries the prior cycle's average pair between invocations.
// The symbol and window sizes are recorded alongside so a checkpoint written
// under a different configuration is never replayed.
type Checkpoint struct {
	Symbol      string      `json:"symbol"`
	ShortWindow int         `json:"short_window"`
	LongWindow  int         `json:"long_window"`
	Pair        signal.Pair `json:"pair"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Matches reports whether the checkpoint was recorded for the given
// instrument and window configuration.
func (c Checkpoint) Matches(symbol string, shortWindow, longWindow int) bool {
	return c.Symbol == symbol && c.ShortWindow == shortWindow && c.LongWindow == longWindow
}

// Store persists the checkpoint as a JSON file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the checkpoint and whether one exists. A missing file is not
// an error; an unreadable or corrupt one is, and callers treat that as no
// prior pair.
func (s *Store) Load() (Checkpoint, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("decode checkpoint %s: %w", s.path, err)
	}
	return cp, true, nil
}

func (s *Store) Save(cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
