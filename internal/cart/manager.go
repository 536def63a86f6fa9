package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager hands out one Ledger per session, loading persisted state the first
// time a session is seen. Idle ledgers are evicted to bound memory; their
// state lives in the store and reloads on the next access.
type Manager struct {
	mu      sync.Mutex
	store   Store
	log     *zap.Logger
	ledgers map[string]*managedLedger
}

type managedLedger struct {
	ledger   *Ledger
	lastSeen time.Time
}

func NewManager(store Store, log *zap.Logger) *Manager {
	return &Manager{
		store:   store,
		log:     log,
		ledgers: make(map[string]*managedLedger),
	}
}

func (m *Manager) Ledger(ctx context.Context, sessionID string) *Ledger {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, exists := m.ledgers[sessionID]; exists {
		entry.lastSeen = time.Now()
		return entry.ledger
	}

	ledger := NewLedger(m.store, sessionID, m.log)
	ledger.Load(ctx)
	m.ledgers[sessionID] = &managedLedger{ledger: ledger, lastSeen: time.Now()}
	return ledger
}

// EvictIdle drops every ledger not touched for at least maxIdle and reports
// how many were dropped.
func (m *Manager) EvictIdle(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	evicted := 0
	for sessionID, entry := range m.ledgers {
		if entry.lastSeen.After(cutoff) {
			continue
		}
		delete(m.ledgers, sessionID)
		evicted++
	}
	return evicted
}

// Run evicts idle ledgers on every tick until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := m.EvictIdle(maxIdle); evicted > 0 {
				m.log.Info("evicted idle carts", zap.Int("count", evicted))
			}
		}
	}
}
