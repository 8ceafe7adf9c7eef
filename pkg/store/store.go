// Package store persists the ledger. Every backend reads and writes the whole
// transaction and asset lists together; there are no partial writers.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yurifrl/vizbuck/pkg/models"
)

// Store loads and saves the full ledger. A backend with nothing stored yet
// returns an empty ledger, not an error.
type Store interface {
	Load(ctx context.Context) (models.Ledger, error)
	Save(ctx context.Context, ledger models.Ledger) error
}

// Memory keeps the ledger in process. Values are copied in and out so callers
// never share slices with the store.
type Memory struct {
	mu     sync.RWMutex
	ledger models.Ledger
	saves  int
}

var _ Store = (*Memory)(nil)

func NewMemory(seed models.Ledger) *Memory {
	return &Memory{ledger: seed.Clone()}
}

func (m *Memory) Load(_ context.Context) (models.Ledger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.Clone(), nil
}

func (m *Memory) Save(_ context.Context, ledger models.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = ledger.Clone()
	m.saves++
	return nil
}

// Saves reports how many writes the store has accepted.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Encode renders a ledger as the JSON document shared by the file and
// bucket backends.
func Encode(ledger models.Ledger) ([]byte, error) {
	if ledger.Transactions == nil {
		ledger.Transactions = []models.Transaction{}
	}
	if ledger.Assets == nil {
		ledger.Assets = []models.Asset{}
	}
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger: %w", err)
	}
	return data, nil
}

// Decode parses a JSON ledger document; empty input is an empty ledger.
func Decode(data []byte) (models.Ledger, error) {
	var ledger models.Ledger
	if len(data) == 0 {
		return ledger, nil
	}
	if err := json.Unmarshal(data, &ledger); err != nil {
		return models.Ledger{}, fmt.Errorf("failed to decode ledger: %w", err)
	}
	return ledger, nil
}
