package pipeline

import (
	"testing"

	"github.com/ledongthuc/pdf"

	"cardapio/internal/util"
)

// word lays s out as one glyph per rune, 5pt wide at 10pt size.
func word(x, y float64, s string) []pdf.Text {
	var out []pdf.Text
	for i, r := range []rune(s) {
		out = append(out, pdf.Text{FontSize: 10, X: x + float64(i)*5, Y: y, W: 5, S: string(r)})
	}
	return out
}

func glyphs(words ...[]pdf.Text) []pdf.Text {
	var out []pdf.Text
	for _, w := range words {
		out = append(out, w...)
	}
	return out
}

func TestLayoutTableColumns(t *testing.T) {
	table := layoutTable(glyphs(
		word(150, 680, "LL25.228 Arroz"),
		word(50, 700, "TURNOS"),
		word(150, 700, "01/01/2024"),
		word(250, 700, "02/01/2024"),
		word(50, 680, "Matutino"),
		word(250, 680, "LL25.229 Feijão"),
		word(150, 668, "Suco"),
		word(50, 640, "Vespertino"),
		word(252, 640, "LL25.230 Frango"),
	))

	want := [][]string{
		{"TURNOS", "01/01/2024", "02/01/2024"},
		{"Matutino", "LL25.228 Arroz\nSuco", "LL25.229 Feijão"},
		{"Vespertino", "", "LL25.230 Frango"},
	}
	if len(table) != len(want) {
		t.Fatalf("rows=%d", len(table))
	}
	for i, row := range want {
		if len(table[i]) != len(row) {
			t.Fatalf("row %d width=%d", i, len(table[i]))
		}
		for j, v := range row {
			if got := util.DerefString(table[i][j]); got != v {
				t.Fatalf("cell (%d,%d)=%q want %q", i, j, got, v)
			}
		}
	}
	if table[2][1] != nil {
		t.Fatal("empty cell should be nil")
	}
}

func TestLayoutTableSpacing(t *testing.T) {
	// Glyphs 3pt apart at 10pt size read as a word break, not a column break.
	line := []pdf.Text{
		{FontSize: 10, X: 50, Y: 500, W: 5, S: "A"},
		{FontSize: 10, X: 55, Y: 500, W: 5, S: "B"},
		{FontSize: 10, X: 63, Y: 500, W: 5, S: "C"},
		{FontSize: 10, X: 200, Y: 500.5, W: 5, S: "D"},
	}
	table := layoutTable(line)
	if len(table) != 1 || len(table[0]) != 2 {
		t.Fatalf("shape=%v", table)
	}
	if got := util.DerefString(table[0][0]); got != "AB C" {
		t.Fatalf("first=%q", got)
	}
	if got := util.DerefString(table[0][1]); got != "D" {
		t.Fatalf("second=%q", got)
	}
}

func TestLayoutTableEmpty(t *testing.T) {
	if table := layoutTable(nil); table != nil {
		t.Fatalf("table=%v", table)
	}
	if table := layoutTable([]pdf.Text{{FontSize: 10, X: 1, Y: 1, W: 2, S: " "}}); table != nil {
		t.Fatalf("blank glyphs gave %v", table)
	}
}

func TestParsePDFRejectsGarbage(t *testing.T) {
	if _, err := ParsePDF([]byte("not a pdf")); err == nil {
		t.Fatal("expected error")
	}
}
