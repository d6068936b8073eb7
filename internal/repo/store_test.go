package repo

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/owe-bot/internal/domain"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestStore_CreateDebtor(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("INSERT INTO debtors").
		WithArgs(int64(1), "Alex").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := s.CreateDebtor(context.Background(), 1, "Alex")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListDebtors(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM debtors").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "display_name", "created_at"}).
			AddRow(int64(1), int64(1), "Alex", created).
			AddRow(int64(2), int64(1), "Bob", created))

	list, err := s.ListDebtors(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alex", list[0].DisplayName)
	assert.Equal(t, int64(2), list[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetDebtorNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM debtors").
		WithArgs(int64(5)).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetDebtor(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteDebtorIdempotent(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM debtors").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM debtors").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteDebtor(context.Background(), 3))
	require.NoError(t, s.DeleteDebtor(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RenameDebtor(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("UPDATE debtors").
		WithArgs(int64(3), "Sasha").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, s.RenameDebtor(context.Background(), 3, "Sasha"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateTransactionForeignKey(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("INSERT INTO transactions").
		WithArgs(int64(9), int64(500), "lunch", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

	_, err := s.CreateTransaction(context.Background(), 9, 500, "lunch", time.Now())
	assert.ErrorIs(t, err, domain.ErrConstraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListTransactions(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM transactions").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "debtor_id", "amount", "note", "occurred_at"}).
			AddRow(int64(1), int64(1), int64(500), "lunch", at).
			AddRow(int64(2), int64(1), int64(-200), "paid back", at))

	txs, err := s.ListTransactions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(300), domain.Balance(txs))
	assert.NoError(t, mock.ExpectationsWereMet())
}
