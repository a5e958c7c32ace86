package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Inflow  Kind = "Entrada"
	Outflow Kind = "Saída"
)

type (
	// Kind is the direction of a movement. The values are the labels
	// stored in the movements table and written to exports.
	Kind string

	Movement struct {
		ID      int64 // Assigned by the store
		Date    string
		Kind    Kind
		Account string
		Amount  decimal.Decimal
		Note    string
	}

	Account struct {
		ID   int64
		Name string
	}
)

var (
	ErrInvalidDateFormat = errors.New("invalid date format, use DD/MM/YYYY")
	ErrInvalidKind       = errors.New("kind must be 'Entrada' or 'Saída'")
	ErrInvalidAccount    = errors.New("account cannot be empty")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrNotFound          = errors.New("movement not found")
	ErrStorage           = errors.New("storage failure")
	ErrExport            = errors.New("export failure")
	ErrImport            = errors.New("import failure")
)

// Kinds returns every valid kind in display order.
func Kinds() []Kind {
	return []Kind{Inflow, Outflow}
}

func (k Kind) Valid() bool {
	return k == Inflow || k == Outflow
}

func (k Kind) String() string {
	return string(k)
}

// NormalizeKind maps the accepted aliases (case-insensitive) onto Inflow or
// Outflow. Unknown input is returned unchanged so that validation reports it.
func NormalizeKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entrada", "inflow", "in":
		return Inflow
	case "saída", "saida", "outflow", "out":
		return Outflow
	}
	return Kind(s)
}

// NewMovement builds a validated movement. The amount is rounded to cents.
func NewMovement(date string, kind Kind, account string, amount decimal.Decimal, note string) (Movement, error) {
	m := Movement{
		Date:    date,
		Kind:    kind,
		Account: account,
		Amount:  amount.Round(AmountScale),
		Note:    note,
	}
	if err := m.Validate(); err != nil {
		return Movement{}, err
	}
	return m, nil
}

// Validate checks the fields in a fixed order: date, kind, account, amount.
func (m Movement) Validate() error {
	if _, err := ParseDate(m.Date); err != nil {
		return err
	}
	if !m.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(m.Account) == "" {
		return ErrInvalidAccount
	}
	if !m.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Signed returns the amount as it contributes to a balance.
func (m Movement) Signed() decimal.Decimal {
	if m.Kind == Outflow {
		return m.Amount.Neg()
	}
	return m.Amount
}
