// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet flattened to formatted cell text.
type Sheet struct {
	Name string
	Rows [][]string
}

// ReadSheets loads the worksheets of the workbook at path. Cell values are
// the formatted strings excelize reports; ragged rows are padded so every
// row of a sheet has the same width. Hidden sheets are dropped unless
// includeHidden is set.
func ReadSheets(path string, includeHidden bool) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		if !includeHidden {
			visible, err := f.GetSheetVisible(name)
			if err != nil {
				return nil, fmt.Errorf("reading visibility of sheet %q: %w", name, err)
			}
			if !visible {
				continue
			}
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: padRows(rows)})
	}

	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no visible sheets", filepath.Base(path))
	}
	return sheets, nil
}

func padRows(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	for i, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		}
	}
	return rows
}

var workbookTmpl = template.Must(template.New("workbook").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { margin: 12mm; }
body { font-family: Arial, Helvetica, sans-serif; font-size: 9pt; }
section + section { break-before: page; }
h1 { font-size: 11pt; margin: 0 0 4mm 0; }
table { border-collapse: collapse; }
td { border: 0.5pt solid #999; padding: 1mm 2mm; white-space: pre-wrap; vertical-align: top; }
</style>
</head>
<body>
{{- range .Sheets}}
<section>
<h1>{{.Name}}</h1>
<table>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
</section>
{{- end}}
</body>
</html>
`))

// RenderHTML lays sheets out as one printable HTML document, one sheet per page.
func RenderHTML(title string, sheets []Sheet) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		Title  string
		Sheets []Sheet
	}{Title: title, Sheets: sheets}
	if err := workbookTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", title, err)
	}
	return buf.Bytes(), nil
}

// RenderWorkbook reads the workbook at path and renders it with RenderHTML.
func RenderWorkbook(path string, includeHidden bool) ([]byte, error) {
	sheets, err := ReadSheets(path, includeHidden)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return RenderHTML(title, sheets)
}
