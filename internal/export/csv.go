package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"financeiro/internal/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the header and one row per movement.
func WriteCSV(w io.Writer, ms []core.Movement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("%w: write header: %w", core.ErrExport, err)
	}
	for _, m := range ms {
		if err := cw.Write(row(m)); err != nil {
			return fmt.Errorf("%w: write row: %w", core.ErrExport, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: flush: %w", core.ErrExport, err)
	}
	return nil
}

// ReadCSV parses a file in the export format. Every row is validated; the
// first invalid row aborts the read with an error naming its line.
func ReadCSV(r io.Reader) ([]core.Movement, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", core.ErrImport, err)
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", core.ErrImport)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", core.ErrImport, err)
	}
	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("%w: unexpected header %v", core.ErrImport, header)
	}

	var out []core.Movement
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrImport, err)
		}
		line, _ := cr.FieldPos(0)

		amount, err := core.ParseAmount(rec[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		m, err := core.NewMovement(rec[0], core.NormalizeKind(rec[1]), rec[2], amount, rec[4])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, m)
	}
	return out, nil
}
