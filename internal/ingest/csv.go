package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var ErrMalformedCSV = errors.New("malformed CSV")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeCSV reads UTF-8 CSV with a header row into a Table. At most maxRows
// data rows are read; maxRows <= 0 reads everything. Short rows yield empty
// values for the missing fields and surplus values are ignored. Input with no
// header produces a Table without fields.
func DecodeCSV(r io.Reader, maxRows int) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8", ErrMalformedCSV)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
	}

	table := &Table{Fields: header}
	for maxRows <= 0 || len(table.Rows) < maxRows {
		values, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
		}

		row := make(map[string]string, len(header))
		for i, field := range header {
			if i < len(values) {
				row[field] = values[i]
			} else if _, ok := row[field]; !ok {
				row[field] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
