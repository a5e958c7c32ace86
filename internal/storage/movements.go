package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"financeiro/internal/core"

	"github.com/shopspring/decimal"
)

const movementColumns = "id, date, kind, account, amount, note"

// Stored dates are DD/MM/YYYY; this expression yields YYYYMMDD.
const chronologicalDate = "(substr(date, 7, 4) || substr(date, 4, 2) || substr(date, 1, 2))"

// InsertMovement stores m and returns the id assigned by the database.
func (s *Store) InsertMovement(ctx context.Context, m core.Movement) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.driver.rebind(
		"INSERT INTO movements (date, kind, account, amount, note) VALUES (?, ?, ?, ?, ?) RETURNING id"),
		m.Date, string(m.Kind), m.Account, m.Amount.InexactFloat64(), m.Note,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("insert movement", err)
	}
	return id, nil
}

// InsertMovements stores every movement in one transaction.
func (s *Store) InsertMovements(ctx context.Context, ms []core.Movement) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin import", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.driver.rebind(
		"INSERT INTO movements (date, kind, account, amount, note) VALUES (?, ?, ?, ?, ?)"))
	if err != nil {
		return storageErr("prepare import", err)
	}
	defer stmt.Close()

	for _, m := range ms {
		if _, err = stmt.ExecContext(ctx, m.Date, string(m.Kind), m.Account, m.Amount.InexactFloat64(), m.Note); err != nil {
			return storageErr("import movement", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return storageErr("commit import", err)
	}
	return nil
}

// UpdateMovement rewrites every field of the movement with m.ID.
func (s *Store) UpdateMovement(ctx context.Context, m core.Movement) error {
	res, err := s.db.ExecContext(ctx, s.driver.rebind(
		"UPDATE movements SET date = ?, kind = ?, account = ?, amount = ?, note = ? WHERE id = ?"),
		m.Date, string(m.Kind), m.Account, m.Amount.InexactFloat64(), m.Note, m.ID,
	)
	if err != nil {
		return storageErr("update movement", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update movement", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteMovement removes the movement with id. A missing id is not an error.
func (s *Store) DeleteMovement(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.driver.rebind("DELETE FROM movements WHERE id = ?"), id); err != nil {
		return storageErr("delete movement", err)
	}
	return nil
}

// GetMovement retrieves a single movement by ID
func (s *Store) GetMovement(ctx context.Context, id int64) (core.Movement, error) {
	row := s.db.QueryRowContext(ctx, s.driver.rebind(
		"SELECT "+movementColumns+" FROM movements WHERE id = ?"), id)
	m, err := scanMovement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Movement{}, core.ErrNotFound
	}
	if err != nil {
		return core.Movement{}, storageErr("get movement", err)
	}
	return m, nil
}

// ListMovements returns the movements matching f in insertion order.
func (s *Store) ListMovements(ctx context.Context, f core.Filter) ([]core.Movement, error) {
	query, args := buildListQuery(f)
	rows, err := s.db.QueryContext(ctx, s.driver.rebind(query), args...)
	if err != nil {
		return nil, storageErr("list movements", err)
	}
	defer rows.Close()

	out := []core.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, storageErr("scan movement", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list movements", err)
	}
	return out, nil
}

func buildListQuery(f core.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Range != nil {
		if f.CompareMode() == core.CompareLexical {
			conds = append(conds, "date BETWEEN ? AND ?")
			args = append(args, f.Range.Start, f.Range.End)
		} else {
			// Filter.Validate has already checked both dates.
			start, _ := core.DateKey(f.Range.Start)
			end, _ := core.DateKey(f.Range.End)
			conds = append(conds, chronologicalDate+" BETWEEN ? AND ?")
			args = append(args, start, end)
		}
	}
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Account != "" {
		conds = append(conds, "account = ?")
		args = append(args, f.Account)
	}

	query := "SELECT " + movementColumns + " FROM movements"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return query + " ORDER BY id", args
}

// SumByKind returns the total amount of movements of kind, zero when none.
func (s *Store) SumByKind(ctx context.Context, kind core.Kind) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx, s.driver.rebind(
		"SELECT COALESCE(SUM(amount), 0) FROM movements WHERE kind = ?"), string(kind),
	).Scan(&total)
	if err != nil {
		return decimal.Zero, storageErr("sum movements", err)
	}
	return total.Round(core.AmountScale), nil
}

// SumByAccount returns inflow minus outflow for each account that has at
// least one movement.
func (s *Store) SumByAccount(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, s.driver.rebind(
		"SELECT account, COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE -amount END), 0) "+
			"FROM movements GROUP BY account"), string(core.Inflow))
	if err != nil {
		return nil, storageErr("sum by account", err)
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			account string
			net     decimal.Decimal
		)
		if err := rows.Scan(&account, &net); err != nil {
			return nil, storageErr("scan account sum", err)
		}
		out[account] = net.Round(core.AmountScale)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("sum by account", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovement(r rowScanner) (core.Movement, error) {
	var (
		m    core.Movement
		kind string
		note sql.NullString
	)
	if err := r.Scan(&m.ID, &m.Date, &kind, &m.Account, &m.Amount, &note); err != nil {
		return core.Movement{}, err
	}
	m.Kind = core.Kind(kind)
	m.Amount = m.Amount.Round(core.AmountScale)
	m.Note = note.String
	return m, nil
}
