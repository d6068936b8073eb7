package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/yourname/owe-bot/internal/domain"
)

type Transactions struct{ db DBTX }

func NewTransactions(db DBTX) *Transactions { return &Transactions{db: db} }

func (r *Transactions) CreateTransaction(ctx context.Context, debtorID, amount int64, note string, occurredAt time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO transactions(debtor_id, amount, note, occurred_at)
		VALUES($1,$2,$3,$4)
		RETURNING id
	`, debtorID, amount, note, occurredAt).Scan(&id)
	if isForeignKeyViolation(err) {
		return 0, fmt.Errorf("debtor %d: %w", debtorID, domain.ErrConstraint)
	}
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	return id, nil
}

// ListTransactions returns the debtor's transactions in creation order.
func (r *Transactions) ListTransactions(ctx context.Context, debtorID int64) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, debtor_id, amount, note, occurred_at
		FROM transactions
		WHERE debtor_id=$1
		ORDER BY id
	`, debtorID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0, 32)
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.DebtorID, &t.Amount, &t.Note, &t.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
