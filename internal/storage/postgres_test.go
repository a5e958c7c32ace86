package storage

import (
	"context"
	"errors"
	"testing"

	"financeiro/internal/core"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := "UPDATE movements SET date = ?, kind = ? WHERE id = ?"
	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t, "UPDATE movements SET date = $1, kind = $2 WHERE id = $3", Postgres.rebind(q))
}

func TestPostgresInsertMovement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := New(db, Postgres)

	mock.ExpectQuery(`INSERT INTO movements \(date, kind, account, amount, note\) VALUES \(\$1, \$2, \$3, \$4, \$5\) RETURNING id`).
		WithArgs("10/03/2024", "Entrada", "Checking", 500.0, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := s.InsertMovement(context.Background(), movement("10/03/2024", core.Inflow, "Checking", "500.00", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListMovementsWithFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := New(db, Postgres)

	mock.ExpectQuery(`SELECT id, date, kind, account, amount, note FROM movements WHERE .+ BETWEEN \$1 AND \$2 AND kind = \$3 AND account = \$4 ORDER BY id`).
		WithArgs("20240101", "20240131", "Saída", "Checking").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "kind", "account", "amount", "note"}).
			AddRow(3, "12/01/2024", "Saída", "Checking", 120.0, nil))

	got, err := s.ListMovements(context.Background(), core.Filter{
		Account: "Checking",
		Kind:    core.Outflow,
		Range:   &core.DateRange{Start: "01/01/2024", End: "31/01/2024"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, "", got[0].Note)
	assert.Equal(t, "120.00", core.FormatAmount(got[0].Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorageFailuresAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := New(db, Postgres)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COALESCE").WillReturnError(errors.New("connection reset"))
	_, err = s.SumByKind(ctx, core.Inflow)
	assert.ErrorIs(t, err, core.ErrStorage)
	assert.Contains(t, err.Error(), "connection reset")

	mock.ExpectExec("DELETE FROM movements").WithArgs(int64(1)).WillReturnError(errors.New("read only"))
	err = s.DeleteMovement(ctx, 1)
	assert.ErrorIs(t, err, core.ErrStorage)

	mock.ExpectExec(`UPDATE movements .+ WHERE id = \$6`).WillReturnResult(sqlmock.NewResult(0, 0))
	upd := movement("10/03/2024", core.Inflow, "Checking", "1", "")
	upd.ID = 99
	assert.ErrorIs(t, s.UpdateMovement(ctx, upd), core.ErrNotFound)

	mock.ExpectQuery("SELECT name FROM accounts").WillReturnError(errors.New("boom"))
	_, err = s.ListAccountNames(ctx)
	assert.ErrorIs(t, err, core.ErrStorage)

	assert.NoError(t, mock.ExpectationsWereMet())
}
