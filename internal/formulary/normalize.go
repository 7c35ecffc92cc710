package formulary

import (
	"fmt"
	"math"
	"strings"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
)

const (
	densityColumn     = "Density"
	proteinColumnPart = "Protein (g/L)"
	pctCaloriesLabel  = "% Calories"
)

// pctCaloriesRenames relabels the repeated "% Calories" rows after transpose,
// in source order: protein, fat, carbohydrate.
var pctCaloriesRenames = []string{"% Cal (Protein)", "% Cal (Fat)", "% Cal (Carbohydrate)"}

var modularNames = map[string]struct{}{
	"Prosource TF20":    {},
	"Nutrisource Fiber": {},
	"MCT oil":           {},
}

// BuildViews derives the display view and the calculation view from one raw
// table. Both are pure functions of the input; malformed cells degrade to
// empty strings or 0.0 and never abort the build.
func BuildViews(raw internal.RawTable) (internal.CardView, internal.CalcView) {
	card := buildCardView(raw)
	calc := buildCalcView(raw)
	return card, calc
}

func buildCardView(raw internal.RawTable) internal.CardView {
	view := internal.CardView{
		Products: append([]string(nil), raw.Products...),
		Rows:     make([]internal.CardRow, 0, len(raw.Rows)),
	}
	for _, row := range raw.Rows {
		cells := make([]string, len(raw.Products))
		for i := range raw.Products {
			if i < len(row.Cells) {
				cells[i] = row.Cells[i]
			}
		}
		view.Rows = append(view.Rows, internal.CardRow{Attribute: row.Attribute, Cells: cells})
	}
	return view
}

func buildCalcView(raw internal.RawTable) internal.CalcView {
	columns := dedupeColumns(raw.Rows)

	view := internal.CalcView{
		Columns:  append([]string{internal.ProductLabel}, columns...),
		Products: make([]internal.ProductRecord, 0, len(raw.Products)),
	}

	proteinColumn := findProteinColumn(columns)

	for p, name := range raw.Products {
		attrs := make(map[string]string, len(columns))
		for r, column := range columns {
			value := ""
			if r < len(raw.Rows) && p < len(raw.Rows[r].Cells) {
				value = raw.Rows[r].Cells[p]
			}
			attrs[column] = value
		}

		record := internal.ProductRecord{
			Name:       strings.TrimSpace(name),
			Attributes: attrs,
			Density:    math.Max(0, ToNum(attrs[densityColumn])),
			Category:   categorize(strings.TrimSpace(name)),
		}
		if proteinColumn != "" {
			record.ProteinPerLiter = math.Max(0, ToNum(attrs[proteinColumn]))
		}
		view.Products = append(view.Products, record)
	}

	return view
}

// dedupeColumns turns attribute rows into unique calc-view column names. The
// three expected "% Calories" rows get their fixed macro labels; any name
// still colliding after that (a fourth "% Calories" included) is suffixed with
// its occurrence index so no data is dropped.
func dedupeColumns(rows []internal.RawRow) []string {
	columns := make([]string, len(rows))
	pct := 0
	for i, row := range rows {
		name := strings.TrimSpace(row.Attribute)
		if name == pctCaloriesLabel && pct < len(pctCaloriesRenames) {
			name = pctCaloriesRenames[pct]
			pct++
		}
		columns[i] = name
	}

	seen := map[string]int{}
	for i, name := range columns {
		seen[name]++
		n := seen[name]
		if n == 1 {
			continue
		}
		candidate := fmt.Sprintf("%s (%d)", name, n)
		for seen[candidate] > 0 {
			n++
			seen[name] = n
			candidate = fmt.Sprintf("%s (%d)", name, n)
		}
		seen[candidate]++
		columns[i] = candidate
	}
	return columns
}

func findProteinColumn(columns []string) string {
	for _, column := range columns {
		if strings.Contains(column, proteinColumnPart) {
			return column
		}
	}
	return ""
}

func categorize(product string) internal.Category {
	if _, ok := modularNames[product]; ok {
		return internal.CategoryModular
	}
	return internal.CategoryFormula
}
