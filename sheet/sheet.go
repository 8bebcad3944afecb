// Package sheet reads agent prompts from a workbook column and writes the
// replies back next to them.
package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Cell is a non-empty cell of the input column.
type Cell struct {
	Row   int
	Value string
}

// Workbook is an open .xlsx file bound to one sheet.
type Workbook struct {
	file  *excelize.File
	sheet string
}

// Open opens path and selects sheet, or the active sheet when sheet is empty.
func Open(path, sheet string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		f.Close()
		return nil, fmt.Errorf("sheet %q not found in %s", sheet, path)
	}

	return &Workbook{file: f, sheet: sheet}, nil
}

// Sheet returns the selected sheet name.
func (w *Workbook) Sheet() string {
	return w.sheet
}

// Cells lists the non-empty cells of col, top to bottom. With header set, the
// first row is skipped.
func (w *Workbook) Cells(col string, header bool) ([]Cell, error) {
	colNum, err := excelize.ColumnNameToNumber(col)
	if err != nil {
		return nil, fmt.Errorf("invalid column %q: %w", col, err)
	}

	cols, err := w.file.GetCols(w.sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", w.sheet, err)
	}
	if colNum > len(cols) {
		return nil, nil
	}

	var cells []Cell
	for i, v := range cols[colNum-1] {
		row := i + 1
		if header && row == 1 {
			continue
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		cells = append(cells, Cell{Row: row, Value: v})
	}
	return cells, nil
}

// Value returns the text of col at row, or "" when col is empty.
func (w *Workbook) Value(col string, row int) (string, error) {
	if col == "" {
		return "", nil
	}
	cell, err := excelize.JoinCellName(strings.ToUpper(col), row)
	if err != nil {
		return "", err
	}
	return w.file.GetCellValue(w.sheet, cell)
}

// SetResult writes text into col at row.
func (w *Workbook) SetResult(col string, row int, text string) error {
	cell, err := excelize.JoinCellName(strings.ToUpper(col), row)
	if err != nil {
		return err
	}
	return w.file.SetCellStr(w.sheet, cell, text)
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	return w.file.SaveAs(path)
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}
