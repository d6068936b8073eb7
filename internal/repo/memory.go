package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourname/owe-bot/internal/domain"
)

// Memory keeps debtors and transactions in process memory with the same
// ordering, cascade and constraint rules as the PostgreSQL schema.
type Memory struct {
	mu      sync.RWMutex
	now     func() time.Time
	nextDeb int64
	nextTx  int64
	debtors map[int64]domain.Debtor
	txs     map[int64][]domain.Transaction // by debtor, creation order
}

func NewMemory() *Memory {
	return &Memory{
		now:     time.Now,
		debtors: make(map[int64]domain.Debtor),
		txs:     make(map[int64][]domain.Transaction),
	}
}

func (m *Memory) CreateDebtor(_ context.Context, ownerID int64, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextDeb++
	m.debtors[m.nextDeb] = domain.Debtor{ID: m.nextDeb, OwnerID: ownerID, DisplayName: name, CreatedAt: m.now()}
	return m.nextDeb, nil
}

func (m *Memory) GetDebtor(_ context.Context, debtorID int64) (domain.Debtor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.debtors[debtorID]
	if !ok {
		return domain.Debtor{}, fmt.Errorf("debtor %d: %w", debtorID, domain.ErrNotFound)
	}
	return d, nil
}

func (m *Memory) ListDebtors(_ context.Context, ownerID int64) ([]domain.Debtor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Debtor, 0, 16)
	for id := int64(1); id <= m.nextDeb; id++ {
		if d, ok := m.debtors[id]; ok && d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) RenameDebtor(_ context.Context, debtorID int64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.debtors[debtorID]; ok {
		d.DisplayName = name
		m.debtors[debtorID] = d
	}
	return nil
}

func (m *Memory) DeleteDebtor(_ context.Context, debtorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.debtors, debtorID)
	delete(m.txs, debtorID)
	return nil
}

func (m *Memory) CreateTransaction(_ context.Context, debtorID, amount int64, note string, occurredAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.debtors[debtorID]; !ok {
		return 0, fmt.Errorf("debtor %d: %w", debtorID, domain.ErrConstraint)
	}
	m.nextTx++
	m.txs[debtorID] = append(m.txs[debtorID], domain.Transaction{
		ID:         m.nextTx,
		DebtorID:   debtorID,
		Amount:     amount,
		Note:       note,
		OccurredAt: occurredAt,
	})
	return m.nextTx, nil
}

func (m *Memory) ListTransactions(_ context.Context, debtorID int64) ([]domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.txs[debtorID]
	out := make([]domain.Transaction, len(src))
	copy(out, src)
	return out, nil
}
