// Package export renders ordered row sets as RFC 4180 delimited text.
package export

import (
	"encoding/csv"
	"io"
)

// Write emits an optional header row followed by one line per record. A nil
// header with no rows produces zero bytes of output, which is the contract
// for data-driven exports over an empty table.
func Write(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)

	if len(header) > 0 {
		if err := writer.Write(header); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
