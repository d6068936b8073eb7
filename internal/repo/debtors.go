package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourname/owe-bot/internal/domain"
)

type Debtors struct{ db DBTX }

func NewDebtors(db DBTX) *Debtors { return &Debtors{db: db} }

func (r *Debtors) CreateDebtor(ctx context.Context, ownerID int64, name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO debtors(owner_id, display_name)
		VALUES($1,$2)
		RETURNING id
	`, ownerID, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create debtor: %w", err)
	}
	return id, nil
}

func (r *Debtors) GetDebtor(ctx context.Context, debtorID int64) (domain.Debtor, error) {
	var d domain.Debtor
	err := r.db.QueryRow(ctx, `
		SELECT id, owner_id, display_name, created_at
		FROM debtors
		WHERE id=$1
	`, debtorID).Scan(&d.ID, &d.OwnerID, &d.DisplayName, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Debtor{}, fmt.Errorf("debtor %d: %w", debtorID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Debtor{}, fmt.Errorf("get debtor: %w", err)
	}
	return d, nil
}

// ListDebtors returns the owner's debtors in creation order.
func (r *Debtors) ListDebtors(ctx context.Context, ownerID int64) ([]domain.Debtor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, display_name, created_at
		FROM debtors
		WHERE owner_id=$1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list debtors: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Debtor, 0, 16)
	for rows.Next() {
		var d domain.Debtor
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.DisplayName, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RenameDebtor is a no-op for unknown ids.
func (r *Debtors) RenameDebtor(ctx context.Context, debtorID int64, name string) error {
	_, err := r.db.Exec(ctx, `UPDATE debtors SET display_name=$2 WHERE id=$1`, debtorID, name)
	if err != nil {
		return fmt.Errorf("rename debtor: %w", err)
	}
	return nil
}

// DeleteDebtor removes the debtor; transactions go with it through ON DELETE CASCADE.
// Deleting an unknown id is not an error.
func (r *Debtors) DeleteDebtor(ctx context.Context, debtorID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM debtors WHERE id=$1`, debtorID)
	if err != nil {
		return fmt.Errorf("delete debtor: %w", err)
	}
	return nil
}
