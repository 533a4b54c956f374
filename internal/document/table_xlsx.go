package document

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/matsunana829/waka-kana-conv/core/errors"
)

// xlsxWalker walks one named column of the first sheet of a workbook,
// addressed by the header in row 1. Cells outside the column, other
// sheets, and styling are untouched.
type xlsxWalker struct {
	file  *excelize.File
	sheet string
	col   int // 1-based column index, 0 before Extract
	rows  int // number of data rows seen at Extract time
}

func newXLSXWalker(data []byte) (*xlsxWalker, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.FormatError{Format: "xlsx", Message: "malformed workbook", Err: err}
	}
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.NewFormat("xlsx", "", "workbook has no sheets")
	}
	return &xlsxWalker{file: f, sheet: sheet}, nil
}

func (w *xlsxWalker) Extract(target string) ([]TextUnit, error) {
	if target == "" {
		return nil, errors.NewValidation("bodyColumnName", "must not be empty")
	}

	rows, err := w.file.GetRows(w.sheet)
	if err != nil {
		return nil, &errors.FormatError{Format: "xlsx", Message: "cannot read sheet", Err: err}
	}
	if len(rows) == 0 {
		return nil, errors.NewFormat("xlsx", "", "sheet has no header row")
	}

	w.col = 0
	for i, name := range rows[0] {
		if name == target {
			w.col = i + 1
			break
		}
	}
	if w.col == 0 {
		return nil, errors.NewFormat("xlsx", fmt.Sprintf("column %q", target), "column not found")
	}
	w.rows = len(rows) - 1

	units := make([]TextUnit, 0, w.rows)
	for i, row := range rows[1:] {
		text := ""
		if w.col-1 < len(row) {
			text = row[w.col-1]
		}
		units = append(units, TextUnit{
			Location: fmt.Sprintf("row %d, column %q", i+2, target),
			Text:     text,
		})
	}
	return units, nil
}

func (w *xlsxWalker) Reinject(units []TextUnit) error {
	if w.col == 0 {
		return errors.NewValidation("units", "Reinject called before Extract")
	}
	if len(units) != w.rows {
		return errors.NewValidation("units",
			fmt.Sprintf("got %d units for %d rows", len(units), w.rows))
	}
	for i, u := range units {
		cell, err := excelize.CoordinatesToCellName(w.col, i+2)
		if err != nil {
			return errors.Wrap(err, "addressing cell")
		}
		if err := w.file.SetCellStr(w.sheet, cell, u.Text); err != nil {
			return errors.Wrap(err, "writing cell")
		}
	}
	return nil
}

func (w *xlsxWalker) Bytes() ([]byte, error) {
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "serializing workbook")
	}
	return buf.Bytes(), nil
}

// ColumnTexts returns the current texts of the extracted column, for
// cross-format emission.
func (w *xlsxWalker) ColumnTexts() []string {
	if w.col == 0 {
		return nil
	}
	rows, err := w.file.GetRows(w.sheet)
	if err != nil || len(rows) == 0 {
		return nil
	}
	texts := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if w.col-1 < len(row) {
			texts = append(texts, row[w.col-1])
		} else {
			texts = append(texts, "")
		}
	}
	return texts
}
