package export

import (
	"fmt"
	"io"

	"financeiro/internal/core"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding exported movements.
const SheetName = "Movimentações"

// WriteXLSX writes ms as a single-sheet workbook with the CSV columns.
// Amounts are written as numbers so spreadsheet formulas work on them.
func WriteXLSX(w io.Writer, ms []core.Movement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("%w: rename sheet: %w", core.ErrExport, err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return fmt.Errorf("%w: write header: %w", core.ErrExport, err)
	}
	for i, m := range ms {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrExport, err)
		}
		values := []any{m.Date, m.Kind.String(), m.Account, m.Amount.InexactFloat64(), m.Note}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("%w: write row %d: %w", core.ErrExport, i+2, err)
		}
	}

	f.SetColWidth(SheetName, "A", "B", 12)
	f.SetColWidth(SheetName, "C", "C", 20)
	f.SetColWidth(SheetName, "D", "D", 12)
	f.SetColWidth(SheetName, "E", "E", 30)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%w: write workbook: %w", core.ErrExport, err)
	}
	return nil
}
