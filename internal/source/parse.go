package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
)

const (
	KindCSV  = "csv"
	KindXLSX = "xlsx"
	KindHTML = "html"
)

// KindForPath maps a file name to a parser kind, defaulting to csv.
func KindForPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls"):
		return KindXLSX
	case strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm"):
		return KindHTML
	default:
		return KindCSV
	}
}

// Parse reads raw formulary bytes into a RawTable. The first row holds product
// identifiers, the first column attribute names. Missing cells come back as
// empty strings so downstream code never sees a null marker.
func Parse(kind string, blob []byte) (internal.RawTable, error) {
	switch kind {
	case KindCSV:
		return parseCSV(blob)
	case KindXLSX:
		return parseXLSX(blob)
	case KindHTML:
		return parseHTML(blob)
	default:
		return internal.RawTable{}, fmt.Errorf("unsupported source kind: %s", kind)
	}
}

func parseCSV(blob []byte) (internal.RawTable, error) {
	reader := csv.NewReader(bytes.NewReader(blob))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return internal.RawTable{}, err
	}
	return tableFromRows(records)
}

func parseXLSX(blob []byte) (internal.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return internal.RawTable{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return internal.RawTable{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return internal.RawTable{}, err
	}
	return tableFromRows(rows)
}

func parseHTML(blob []byte) (internal.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(blob))
	if err != nil {
		return internal.RawTable{}, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return internal.RawTable{}, fmt.Errorf("no table element found")
	}

	rows := [][]string{}
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := []string{}
		tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return tableFromRows(rows)
}

func tableFromRows(rows [][]string) (internal.RawTable, error) {
	if len(rows) == 0 {
		return internal.RawTable{}, fmt.Errorf("source table is empty")
	}

	header := rows[0]
	if len(header) < 2 {
		return internal.RawTable{}, fmt.Errorf("source table has no product columns")
	}

	table := internal.RawTable{
		Products: make([]string, 0, len(header)-1),
		Rows:     make([]internal.RawRow, 0, len(rows)-1),
	}
	for _, product := range header[1:] {
		table.Products = append(table.Products, strings.TrimSpace(product))
	}

	for _, row := range rows[1:] {
		attr := ""
		if len(row) > 0 {
			attr = row[0]
		}
		cells := make([]string, len(table.Products))
		for i := range cells {
			if i+1 < len(row) {
				cells[i] = row[i+1]
			}
		}
		table.Rows = append(table.Rows, internal.RawRow{Attribute: attr, Cells: cells})
	}

	return table, nil
}
