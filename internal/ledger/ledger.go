// Package ledger implements the movement ledger and the account registry
// on top of an explicitly owned store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"

	"financeiro/internal/core"
	"financeiro/internal/export"
	applog "financeiro/internal/log"

	"github.com/shopspring/decimal"
)

// MovementStore is the persistence the ledger needs.
type MovementStore interface {
	InsertMovement(ctx context.Context, m core.Movement) (int64, error)
	InsertMovements(ctx context.Context, ms []core.Movement) error
	UpdateMovement(ctx context.Context, m core.Movement) error
	DeleteMovement(ctx context.Context, id int64) error
	GetMovement(ctx context.Context, id int64) (core.Movement, error)
	ListMovements(ctx context.Context, f core.Filter) ([]core.Movement, error)
	SumByKind(ctx context.Context, kind core.Kind) (decimal.Decimal, error)
	SumByAccount(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Ledger records movements and aggregates them. Every read goes to the store.
type Ledger struct {
	store   MovementStore
	logger  *applog.Logger
	compare core.DateCompare
}

func New(store MovementStore, logger *applog.Logger) *Ledger {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Ledger{
		store:   store,
		logger:  logger.WithComponent(applog.ComponentLedger),
		compare: core.CompareChronological,
	}
}

// WithDateCompare sets the comparison used by date range filters that do not
// choose one themselves.
func (l *Ledger) WithDateCompare(c core.DateCompare) *Ledger {
	if c.Valid() {
		l.compare = c
	}
	return l
}

// Add validates and stores a new movement, returning its id.
func (l *Ledger) Add(ctx context.Context, date string, kind core.Kind, account string, amount decimal.Decimal, note string) (int64, error) {
	m, err := core.NewMovement(date, kind, account, amount, note)
	if err != nil {
		return 0, err
	}

	id, err := l.store.InsertMovement(ctx, m)
	if err != nil {
		l.logFailure(ctx, "Failed to add movement", err, applog.OpCreate, m)
		return 0, err
	}

	m.ID = id
	l.logger.InfoContext(ctx, "Movement added", l.fields(applog.OpCreate, m)...)
	return id, nil
}

// Update replaces every field of the movement with id.
func (l *Ledger) Update(ctx context.Context, id int64, date string, kind core.Kind, account string, amount decimal.Decimal, note string) error {
	m, err := core.NewMovement(date, kind, account, amount, note)
	if err != nil {
		return err
	}
	m.ID = id

	if err := l.store.UpdateMovement(ctx, m); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			l.logFailure(ctx, "Failed to update movement", err, applog.OpUpdate, m)
		}
		return err
	}

	l.logger.InfoContext(ctx, "Movement updated", l.fields(applog.OpUpdate, m)...)
	return nil
}

// Delete removes the movement with id. Deleting a missing id succeeds.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	if err := l.store.DeleteMovement(ctx, id); err != nil {
		l.logger.ErrorContext(ctx, "Failed to delete movement",
			applog.FieldMovementID, id, applog.FieldError, err)
		return err
	}
	l.logger.InfoContext(ctx, "Movement deleted",
		applog.FieldOperation, applog.OpDelete, applog.FieldMovementID, id)
	return nil
}

// Get returns the movement with id or core.ErrNotFound.
func (l *Ledger) Get(ctx context.Context, id int64) (core.Movement, error) {
	return l.store.GetMovement(ctx, id)
}

// Query returns the movements matching f in insertion order. A zero filter
// returns everything.
func (l *Ledger) Query(ctx context.Context, f core.Filter) ([]core.Movement, error) {
	if f.Compare == "" {
		f.Compare = l.compare
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return l.store.ListMovements(ctx, f)
}

// Total sums the amounts of every movement of kind.
func (l *Ledger) Total(ctx context.Context, kind core.Kind) (decimal.Decimal, error) {
	if !kind.Valid() {
		return decimal.Zero, core.ErrInvalidKind
	}
	return l.store.SumByKind(ctx, kind)
}

// Balance is total inflow minus total outflow.
func (l *Ledger) Balance(ctx context.Context) (decimal.Decimal, error) {
	in, out, err := l.totals(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return in.Sub(out), nil
}

// BalancesByAccount returns the net per account. Accounts without
// movements are absent.
func (l *Ledger) BalancesByAccount(ctx context.Context) (map[string]decimal.Decimal, error) {
	return l.store.SumByAccount(ctx)
}

// Summary collects totals, balance and per-account balances.
func (l *Ledger) Summary(ctx context.Context) (core.Summary, error) {
	in, out, err := l.totals(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	byAccount, err := l.store.SumByAccount(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summary{
		Inflow:    in,
		Outflow:   out,
		Balance:   in.Sub(out),
		ByAccount: core.SortedBalances(byAccount),
	}, nil
}

func (l *Ledger) totals(ctx context.Context) (in, out decimal.Decimal, err error) {
	if in, err = l.store.SumByKind(ctx, core.Inflow); err != nil {
		return
	}
	out, err = l.store.SumByKind(ctx, core.Outflow)
	return
}

// Export writes every movement as CSV to path, replacing any existing file.
func (l *Ledger) Export(ctx context.Context, path string) error {
	return l.ExportFile(ctx, path, export.CSV, core.Filter{})
}

// ExportXLSX writes every movement as an XLSX workbook to path.
func (l *Ledger) ExportXLSX(ctx context.Context, path string) error {
	return l.ExportFile(ctx, path, export.XLSX, core.Filter{})
}

// ExportFile writes the movements matching f to path in format.
func (l *Ledger) ExportFile(ctx context.Context, path string, format export.Format, f core.Filter) error {
	ms, err := l.Query(ctx, f)
	if err != nil {
		return err
	}
	if err := export.WriteFile(path, format, ms); err != nil {
		l.logger.ErrorContext(ctx, "Export failed",
			applog.FieldFile, path, applog.FieldFormat, format, applog.FieldError, err)
		return err
	}
	l.logger.InfoContext(ctx, "Movements exported",
		applog.FieldOperation, applog.OpExport, applog.FieldFile, path,
		applog.FieldFormat, format, applog.FieldCount, len(ms))
	return nil
}

// ExportTo streams the movements matching f to w in format.
func (l *Ledger) ExportTo(ctx context.Context, w io.Writer, format export.Format, f core.Filter) error {
	ms, err := l.Query(ctx, f)
	if err != nil {
		return err
	}
	return export.Write(w, format, ms)
}

// Import reads a CSV in the export format and stores all of its rows in a
// single transaction. Nothing is stored when any row is invalid.
func (l *Ledger) Import(ctx context.Context, r io.Reader) (int, error) {
	ms, err := export.ReadCSV(r)
	if err != nil {
		return 0, err
	}
	if len(ms) == 0 {
		return 0, nil
	}
	if err := l.store.InsertMovements(ctx, ms); err != nil {
		l.logger.ErrorContext(ctx, "Import failed", applog.FieldCount, len(ms), applog.FieldError, err)
		return 0, fmt.Errorf("import %d movements: %w", len(ms), err)
	}
	net := decimal.Zero
	for _, m := range ms {
		net = net.Add(m.Signed())
	}
	l.logger.InfoContext(ctx, "Movements imported",
		applog.FieldOperation, applog.OpImport, applog.FieldCount, len(ms),
		applog.FieldAmount, core.FormatAmount(net))
	return len(ms), nil
}

func (l *Ledger) fields(op string, m core.Movement) []any {
	return applog.NewFields().
		WithOperation(op).
		WithMovement(m.ID, m.Date, m.Kind.String(), m.Account, core.FormatAmount(m.Amount)).
		ToSlice()
}

func (l *Ledger) logFailure(ctx context.Context, msg string, err error, op string, m core.Movement) {
	fields := applog.NewFields().
		WithOperation(op).
		WithMovement(m.ID, m.Date, m.Kind.String(), m.Account, core.FormatAmount(m.Amount)).
		WithError(err)
	l.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
