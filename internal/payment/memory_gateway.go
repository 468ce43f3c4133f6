package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryGateway is an in-memory Gateway used in development and tests.
// Created intents start as succeeded unless WithStatus says otherwise.
type MemoryGateway struct {
	mu      sync.Mutex
	intents map[string]Intent
	status  string
	err     error
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{intents: make(map[string]Intent), status: StatusSucceeded}
}

// WithStatus sets the status given to intents created from now on.
func (m *MemoryGateway) WithStatus(status string) *MemoryGateway {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	return m
}

// WithError makes every subsequent call fail with err.
func (m *MemoryGateway) WithError(err error) *MemoryGateway {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Put stores a canned intent.
func (m *MemoryGateway) Put(intent Intent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[intent.ID] = intent
}

func (m *MemoryGateway) CreateIntent(_ context.Context, amountMinor int64, currency string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Intent{}, m.err
	}

	id := "pi_" + uuid.NewString()
	intent := Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       m.status,
		Amount:       amountMinor,
		Currency:     currency,
	}
	m.intents[id] = intent
	return intent, nil
}

func (m *MemoryGateway) GetIntent(_ context.Context, id string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Intent{}, m.err
	}
	intent, ok := m.intents[id]
	if !ok {
		return Intent{}, fmt.Errorf("payment intent %s: %w", id, ErrIntentNotFound)
	}
	return intent, nil
}
