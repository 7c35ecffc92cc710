package formulary

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
)

// ExportCardsCSV writes a card view back to the tabular layout it was loaded
// from: one header row of products behind the attribute-name column.
func ExportCardsCSV(view internal.CardView, w io.Writer) error {
	writer := csv.NewWriter(w)

	header := append([]string{internal.AttributeLabel}, view.Products...)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range view.Rows {
		record := append([]string{row.Attribute}, row.Cells...)
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportCardsXLSX writes a card view to a single-sheet workbook at outputPath,
// creating parent directories as needed.
func ExportCardsXLSX(view internal.CardView, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return cardsWorkbook(view).SaveAs(outputPath)
}

// WriteCardsXLSX streams the workbook form of a card view.
func WriteCardsXLSX(view internal.CardView, w io.Writer) error {
	_, err := cardsWorkbook(view).WriteTo(w)
	return err
}

func cardsWorkbook(view internal.CardView) *excelize.File {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	set := func(col, row int, value string) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, value)
	}

	set(1, 1, internal.AttributeLabel)
	for i, product := range view.Products {
		set(i+2, 1, product)
	}
	for r, row := range view.Rows {
		set(1, r+2, row.Attribute)
		for c, cell := range row.Cells {
			set(c+2, r+2, cell)
		}
	}
	return f
}
