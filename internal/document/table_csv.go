package document

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/matsunana829/waka-kana-conv/core/errors"
	"github.com/matsunana829/waka-kana-conv/internal/fileutil"
)

// csvWalker walks one named column of a CSV table with a header row.
// Every other column and the row order round-trip unchanged.
type csvWalker struct {
	records [][]string
	col     int
	colName string
}

func newCSVWalker(data []byte) (*csvWalker, error) {
	r := csv.NewReader(strings.NewReader(fileutil.DecodeText(data)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, &errors.FormatError{Format: "csv", Message: "malformed table", Err: err}
	}
	return &csvWalker{records: records, col: -1}, nil
}

func (w *csvWalker) Extract(target string) ([]TextUnit, error) {
	if target == "" {
		return nil, errors.NewValidation("bodyColumnName", "must not be empty")
	}
	if len(w.records) == 0 {
		return nil, errors.NewFormat("csv", "", "table has no header row")
	}

	header := w.records[0]
	w.col = -1
	for i, name := range header {
		if name == target {
			w.col = i
			break
		}
	}
	if w.col < 0 {
		return nil, errors.NewFormat("csv", fmt.Sprintf("column %q", target), "column not found")
	}
	w.colName = target

	units := make([]TextUnit, 0, len(w.records)-1)
	for i, row := range w.records[1:] {
		text := ""
		if w.col < len(row) {
			text = row[w.col]
		}
		units = append(units, TextUnit{
			Location: fmt.Sprintf("row %d, column %q", i+2, target),
			Text:     text,
		})
	}
	return units, nil
}

func (w *csvWalker) Reinject(units []TextUnit) error {
	if w.col < 0 {
		return errors.NewValidation("units", "Reinject called before Extract")
	}
	if len(units) != len(w.records)-1 {
		return errors.NewValidation("units",
			fmt.Sprintf("got %d units for %d rows", len(units), len(w.records)-1))
	}
	for i, u := range units {
		row := w.records[i+1]
		if w.col < len(row) {
			row[w.col] = u.Text
		}
	}
	return nil
}

func (w *csvWalker) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(w.records); err != nil {
		return nil, errors.Wrap(err, "serializing csv")
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, errors.Wrap(err, "serializing csv")
	}
	return fileutil.EncodeTextBOM(buf.String()), nil
}

// ColumnTexts returns the current texts of the extracted column, for
// cross-format emission.
func (w *csvWalker) ColumnTexts() []string {
	if w.col < 0 {
		return nil
	}
	texts := make([]string, 0, len(w.records)-1)
	for _, row := range w.records[1:] {
		if w.col < len(row) {
			texts = append(texts, row[w.col])
		} else {
			texts = append(texts, "")
		}
	}
	return texts
}
