package sheet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, cells map[string]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		idx, err := f.NewSheet(sheet)
		require.NoError(t, err)
		f.SetActiveSheet(idx)
	}
	for cell, v := range cells {
		require.NoError(t, f.SetCellStr(sheet, cell, v))
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestCellsSkipsHeaderAndBlanks(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", map[string]string{
		"A1": "prompt",
		"A2": "first",
		"A3": "  ",
		"A5": "line1\nline2",
		"B2": "model-x",
	})
	w, err := Open(path, "")
	require.NoError(t, err)
	defer w.Close()

	cells, err := w.Cells("A", true)
	require.NoError(t, err)
	assert.Equal(t, []Cell{{Row: 2, Value: "first"}, {Row: 5, Value: "line1\nline2"}}, cells)

	all, err := w.Cells("a", false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "prompt", all[0].Value)
}

func TestCellsOfEmptyColumn(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", map[string]string{"A1": "x"})
	w, err := Open(path, "Sheet1")
	require.NoError(t, err)
	defer w.Close()

	cells, err := w.Cells("D", false)
	require.NoError(t, err)
	assert.Empty(t, cells)

	_, err = w.Cells("1", false)
	require.Error(t, err)
}

func TestOpenUsesActiveSheet(t *testing.T) {
	path := writeWorkbook(t, "Prompts", map[string]string{"A1": "hello"})

	w, err := Open(path, "")
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, "Prompts", w.Sheet())
}

func TestOpenUnknownSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", map[string]string{"A1": "hello"})

	_, err := Open(path, "Nope")
	require.Error(t, err)
}

func TestSetResultAndSave(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", map[string]string{"A1": "hello", "C1": "model-y"})
	w, err := Open(path, "")
	require.NoError(t, err)

	model, err := w.Value("C", 1)
	require.NoError(t, err)
	assert.Equal(t, "model-y", model)

	none, err := w.Value("", 1)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, w.SetResult("b", 1, "Error: refused"))
	out := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, w.SaveAs(out))
	require.NoError(t, w.Close())

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetCellValue("Sheet1", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Error: refused", got)
}
