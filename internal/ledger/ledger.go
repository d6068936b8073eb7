// Package ledger is the typed view over storage: debtors scoped by owner,
// their transactions and derived balances. Nothing is cached; every call
// re-reads storage.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourname/owe-bot/internal/domain"
)

// Store is the durable backend. Both repo.Store and repo.Memory satisfy it.
type Store interface {
	CreateDebtor(ctx context.Context, ownerID int64, name string) (int64, error)
	GetDebtor(ctx context.Context, debtorID int64) (domain.Debtor, error)
	ListDebtors(ctx context.Context, ownerID int64) ([]domain.Debtor, error)
	RenameDebtor(ctx context.Context, debtorID int64, name string) error
	DeleteDebtor(ctx context.Context, debtorID int64) error
	CreateTransaction(ctx context.Context, debtorID, amount int64, note string, occurredAt time.Time) (int64, error)
	ListTransactions(ctx context.Context, debtorID int64) ([]domain.Transaction, error)
}

// Detail is a debtor with its history and balance.
type Detail struct {
	Debtor       domain.Debtor
	Transactions []domain.Transaction
	Balance      int64
}

type Ledger struct {
	store Store
}

func New(s Store) *Ledger { return &Ledger{store: s} }

func (l *Ledger) Debtors(ctx context.Context, ownerID int64) ([]domain.Debtor, error) {
	return l.store.ListDebtors(ctx, ownerID)
}

// Debtor returns the debtor only when it belongs to ownerID.
func (l *Ledger) Debtor(ctx context.Context, ownerID, debtorID int64) (domain.Debtor, error) {
	d, err := l.store.GetDebtor(ctx, debtorID)
	if err != nil {
		return domain.Debtor{}, err
	}
	if d.OwnerID != ownerID {
		return domain.Debtor{}, fmt.Errorf("debtor %d: %w", debtorID, domain.ErrNotFound)
	}
	return d, nil
}

func (l *Ledger) Detail(ctx context.Context, ownerID, debtorID int64) (Detail, error) {
	d, err := l.Debtor(ctx, ownerID, debtorID)
	if err != nil {
		return Detail{}, err
	}
	txs, err := l.store.ListTransactions(ctx, debtorID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Debtor: d, Transactions: txs, Balance: domain.Balance(txs)}, nil
}

func (l *Ledger) Register(ctx context.Context, ownerID int64, name string) (domain.Debtor, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return domain.Debtor{}, err
	}
	id, err := l.store.CreateDebtor(ctx, ownerID, name)
	if err != nil {
		return domain.Debtor{}, err
	}
	return domain.Debtor{ID: id, OwnerID: ownerID, DisplayName: name}, nil
}

func (l *Ledger) Rename(ctx context.Context, ownerID, debtorID int64, name string) error {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return err
	}
	if _, err := l.Debtor(ctx, ownerID, debtorID); err != nil {
		return err
	}
	return l.store.RenameDebtor(ctx, debtorID, name)
}

// Remove deletes the debtor and its transactions. Unknown ids are a no-op;
// another owner's debtor is reported as not found.
func (l *Ledger) Remove(ctx context.Context, ownerID, debtorID int64) error {
	d, err := l.store.GetDebtor(ctx, debtorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if d.OwnerID != ownerID {
		return fmt.Errorf("debtor %d: %w", debtorID, domain.ErrNotFound)
	}
	return l.store.DeleteDebtor(ctx, debtorID)
}

func (l *Ledger) Record(ctx context.Context, debtorID, amount int64, note string, at time.Time) (domain.Transaction, error) {
	note, err := domain.NormalizeNote(note)
	if err != nil {
		return domain.Transaction{}, err
	}
	id, err := l.store.CreateTransaction(ctx, debtorID, amount, note, at)
	if err != nil {
		return domain.Transaction{}, err
	}
	return domain.Transaction{ID: id, DebtorID: debtorID, Amount: amount, Note: note, OccurredAt: at}, nil
}
