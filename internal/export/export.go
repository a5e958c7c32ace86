// Package export writes ledger movements to CSV and XLSX and reads the CSV
// format back for imports.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"financeiro/internal/core"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// Header is the fixed first row of every export.
var Header = []string{"Data", "Tipo", "Conta", "Valor", "Observações"}

// ParseFormat accepts "csv" or "xlsx", case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, XLSX:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write encodes ms in format f.
func Write(w io.Writer, f Format, ms []core.Movement) error {
	switch f {
	case CSV:
		return WriteCSV(w, ms)
	case XLSX:
		return WriteXLSX(w, ms)
	}
	return fmt.Errorf("%w: unsupported format %q", core.ErrExport, f)
}

// WriteFile creates or truncates path and writes ms in format f.
func WriteFile(path string, f Format, ms []core.Movement) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", core.ErrExport, path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", core.ErrExport, path, cerr)
		}
	}()
	return Write(file, f, ms)
}

func row(m core.Movement) []string {
	return []string{m.Date, m.Kind.String(), m.Account, core.FormatAmount(m.Amount), m.Note}
}
