package formulary

import (
	"testing"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
)

func TestFilterCardsSearch(t *testing.T) {
	card, _ := BuildViews(sampleRaw())

	out := FilterCards(card, "protein", nil)
	if len(out.Rows) != 1 || out.Rows[0].Attribute != "Protein (g/L)" {
		t.Fatalf("rows: %+v", out.Rows)
	}
	if len(out.Products) != len(card.Products) {
		t.Fatalf("products narrowed by search: %v", out.Products)
	}
}

func TestFilterCardsProductSubset(t *testing.T) {
	card, _ := BuildViews(sampleRaw())

	// Requested out of order; source order wins.
	out := FilterCards(card, "", []string{"Prosource TF20", "Jevity 1.5"})
	if len(out.Products) != 2 || out.Products[0] != "Jevity 1.5" || out.Products[1] != "Prosource TF20" {
		t.Fatalf("products: %v", out.Products)
	}
	if out.Rows[1].Cells[0] != "63.8" || out.Rows[1].Cells[1] != "100" {
		t.Fatalf("cells not reprojected: %+v", out.Rows[1])
	}
}

func TestFilterCardsEmptyFiltersPassThrough(t *testing.T) {
	card, _ := BuildViews(sampleRaw())
	out := FilterCards(card, "", nil)
	if len(out.Rows) != len(card.Rows) || len(out.Products) != len(card.Products) {
		t.Fatalf("pass-through changed shape")
	}
}

func TestByCategory(t *testing.T) {
	_, calc := BuildViews(sampleRaw())

	formulas := Formulas(calc)
	if len(formulas) != 2 {
		t.Fatalf("formulas=%d", len(formulas))
	}
	modulars := ByCategory(calc, internal.CategoryModular)
	if len(modulars) != 1 || modulars[0].Name != "Prosource TF20" {
		t.Fatalf("modulars: %+v", modulars)
	}
}

func TestProductLookup(t *testing.T) {
	_, calc := BuildViews(sampleRaw())

	if _, ok := Product(calc, "Jevity 1.5"); !ok {
		t.Fatalf("Jevity 1.5 not found")
	}
	if _, ok := Product(calc, "nope"); ok {
		t.Fatalf("unexpected product")
	}
}
