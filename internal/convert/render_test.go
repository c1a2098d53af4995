// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves a workbook with a visible "Budget" sheet and a hidden
// "Scratch" sheet.
func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Budget"))
	require.NoError(t, f.SetCellValue("Budget", "A1", "Item"))
	require.NoError(t, f.SetCellValue("Budget", "B1", "Amount"))
	require.NoError(t, f.SetCellValue("Budget", "A2", "Rent <office>"))
	require.NoError(t, f.SetCellValue("Budget", "B2", 1200))
	require.NoError(t, f.SetCellValue("Budget", "A3", "Travel"))

	_, err := f.NewSheet("Scratch")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Scratch", "A1", "secret notes"))
	require.NoError(t, f.SetSheetVisible("Scratch", false))

	path := filepath.Join(dir, "budget.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadSheets(t *testing.T) {
	path := writeWorkbook(t, t.TempDir())

	sheets, err := ReadSheets(path, false)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "Budget", sheets[0].Name)
	assert.Equal(t, [][]string{
		{"Item", "Amount"},
		{"Rent <office>", "1200"},
		{"Travel", ""},
	}, sheets[0].Rows)

	all, err := ReadSheets(path, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Scratch", all[1].Name)
}

func TestReadSheets_NotAWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.xlsx", "not a zip")

	_, err := ReadSheets(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening workbook")
}

func TestRenderWorkbook(t *testing.T) {
	path := writeWorkbook(t, t.TempDir())

	html, err := RenderWorkbook(path, false)
	require.NoError(t, err)
	out := string(html)

	assert.Contains(t, out, "<title>budget</title>")
	assert.Contains(t, out, "<h1>Budget</h1>")
	assert.Contains(t, out, "<td>Amount</td>")
	assert.Contains(t, out, "Rent &lt;office&gt;", "cell text must be escaped")
	assert.NotContains(t, out, "secret notes", "hidden sheets are not rendered")
}

func TestRenderHTML_OneSectionPerSheet(t *testing.T) {
	sheets := []Sheet{
		{Name: "One", Rows: [][]string{{"a"}}},
		{Name: "Two", Rows: [][]string{{"b"}}},
		{Name: "Empty"},
	}
	html, err := RenderHTML("book", sheets)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(html), "<section>"))
}
