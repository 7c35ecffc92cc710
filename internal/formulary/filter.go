package formulary

import (
	"strings"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
)

// FilterCards narrows a card view by attribute-name substring (case
// insensitive) and by a product subset. Product-column order always follows the
// source table, not the requested order. Empty filters pass everything through.
func FilterCards(view internal.CardView, search string, products []string) internal.CardView {
	out := view

	if len(products) > 0 {
		wanted := map[string]struct{}{}
		for _, p := range products {
			wanted[strings.TrimSpace(p)] = struct{}{}
		}

		keep := make([]int, 0, len(view.Products))
		names := make([]string, 0, len(view.Products))
		for i, name := range view.Products {
			if _, ok := wanted[name]; ok {
				keep = append(keep, i)
				names = append(names, name)
			}
		}

		rows := make([]internal.CardRow, 0, len(view.Rows))
		for _, row := range view.Rows {
			cells := make([]string, 0, len(keep))
			for _, i := range keep {
				cells = append(cells, row.Cells[i])
			}
			rows = append(rows, internal.CardRow{Attribute: row.Attribute, Cells: cells})
		}
		out = internal.CardView{Products: names, Rows: rows}
	}

	if strings.TrimSpace(search) != "" {
		needle := strings.ToLower(search)
		rows := make([]internal.CardRow, 0, len(out.Rows))
		for _, row := range out.Rows {
			if strings.Contains(strings.ToLower(row.Attribute), needle) {
				rows = append(rows, row)
			}
		}
		out.Rows = rows
	}

	return out
}

// ByCategory returns the products carrying the given tag, in view order.
func ByCategory(view internal.CalcView, category internal.Category) []internal.ProductRecord {
	out := make([]internal.ProductRecord, 0, len(view.Products))
	for _, p := range view.Products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Formulas returns the products eligible for primary infusion.
func Formulas(view internal.CalcView) []internal.ProductRecord {
	return ByCategory(view, internal.CategoryFormula)
}

// Product looks a product up by exact name.
func Product(view internal.CalcView, name string) (internal.ProductRecord, bool) {
	for _, p := range view.Products {
		if p.Name == name {
			return p, true
		}
	}
	return internal.ProductRecord{}, false
}
