package source

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestParseCSV(t *testing.T) {
	blob := []byte("Nutrient/Attribute,Jevity 1.5,Osmolite 1.2\nDensity,1.5 kcal/mL,1.2 kcal/mL\nProtein (g/L),63.8,55.5\n")

	table, err := Parse(KindCSV, blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Products) != 2 || table.Products[0] != "Jevity 1.5" {
		t.Fatalf("products: %v", table.Products)
	}
	if len(table.Rows) != 2 || table.Rows[0].Attribute != "Density" {
		t.Fatalf("rows: %+v", table.Rows)
	}
	if table.Rows[1].Cells[1] != "55.5" {
		t.Fatalf("cell: %q", table.Rows[1].Cells[1])
	}
}

func TestParseCSVRaggedRows(t *testing.T) {
	blob := []byte("attr,A,B\nDensity,1.5\nProtein (g/L)\n")

	table, err := Parse(KindCSV, blob)
	if err != nil {
		t.Fatal(err)
	}
	if table.Rows[0].Cells[1] != "" {
		t.Fatalf("missing cell not blank: %q", table.Rows[0].Cells[1])
	}
	if len(table.Rows[1].Cells) != 2 || table.Rows[1].Cells[0] != "" {
		t.Fatalf("short row not padded: %+v", table.Rows[1])
	}
}

func TestParseXLSX(t *testing.T) {
	blob := mkXLSX([][]any{
		{"Nutrient/Attribute", "Jevity 1.5", "Prosource TF20"},
		{"Density", "1.5 kcal/mL", ""},
		{"Protein (g/L)", 63.8, 100},
	})

	table, err := Parse(KindXLSX, blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Products) != 2 {
		t.Fatalf("products: %v", table.Products)
	}
	if table.Rows[1].Cells[0] != "63.8" {
		t.Fatalf("cell: %q", table.Rows[1].Cells[0])
	}
}

func TestParseHTML(t *testing.T) {
	html := `<html><body><table>
<tr><th>Nutrient/Attribute</th><th>Jevity 1.5</th><th>Osmolite 1.2</th></tr>
<tr><td>Density</td><td>1.5 kcal/mL</td><td>1.2 kcal/mL</td></tr>
<tr><td>Protein (g/L)</td><td>63.8</td><td>55.5</td></tr>
</table></body></html>`

	table, err := Parse(KindHTML, []byte(html))
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Products) != 2 || table.Products[1] != "Osmolite 1.2" {
		t.Fatalf("products: %v", table.Products)
	}
	if table.Rows[0].Cells[0] != "1.5 kcal/mL" {
		t.Fatalf("cell: %q", table.Rows[0].Cells[0])
	}
}

func TestParseEmptyAndInvalid(t *testing.T) {
	if _, err := Parse(KindCSV, nil); err == nil {
		t.Fatalf("empty csv should fail")
	}
	if _, err := Parse(KindCSV, []byte("only-one-column\n")); err == nil {
		t.Fatalf("header without products should fail")
	}
	if _, err := Parse(KindHTML, []byte("<html><body>no table</body></html>")); err == nil {
		t.Fatalf("html without table should fail")
	}
	if _, err := Parse("pdf", []byte("x")); err == nil {
		t.Fatalf("unknown kind should fail")
	}
}

func TestKindForPath(t *testing.T) {
	cases := map[string]string{
		"formulary.csv":               KindCSV,
		"formulary.xlsx":              KindXLSX,
		"Formulary.XLSX":              KindXLSX,
		"formulary.htm":               KindHTML,
		"formulary.xlsx - Sheet1.csv": KindCSV,
	}
	for path, want := range cases {
		if got := KindForPath(path); got != want {
			t.Fatalf("%s: got %s want %s", path, got, want)
		}
	}
}
