package menu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRealignDateGaps(t *testing.T) {
	rows := Grid{
		{"TURNOS", "01/01/2024", "", "02/01/2024", "", "03/01/2024"},
		{"Matutino", "A", "", "B", "", "C"},
		{"Vespertino", "D", "solto", "", "", "F"},
	}
	got := RealignDateGaps(rows, 3)
	want := Grid{
		{"TURNOS", "01/01/2024", "02/01/2024", "03/01/2024", "", ""},
		{"Matutino", "A", "B", "C", "", ""},
		{"Vespertino", "D", "solto", "F", "", ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if rows[1][3] != "B" {
		t.Fatal("input grid was modified")
	}
}

func TestRealignDateGapsContiguous(t *testing.T) {
	rows := Grid{
		{"TURNOS", "01/01/2024", "02/01/2024"},
		{"Matutino", "A", "B"},
	}
	if diff := cmp.Diff(rows, RealignDateGaps(rows, 3)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestRealignDateGapsOutsideScanRows(t *testing.T) {
	rows := Grid{
		{"a"}, {"b"}, {"c"},
		{"TURNOS", "01/01/2024", "", "02/01/2024"},
	}
	if diff := cmp.Diff(rows, RealignDateGaps(rows, 3)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestCleanTable(t *testing.T) {
	a, blank, multi := "  Arroz \t doce ", "   ", "Matutino\r\n\r\n  Semana 1 "
	got := cleanTable(Table{
		{&a, nil},
		{nil, &blank},
		{&multi},
	})
	want := Grid{{"Arroz doce", ""}, {"Matutino\nSemana 1"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestSplitBlocks(t *testing.T) {
	grid := Grid{
		{"PAGE_MARKER_0"},
		{"a"},
		{"PAGE_MARKER_1"},
		{"b"}, {"c"},
		{"PAGE_MARKER_2"},
	}
	blocks := splitBlocks(grid, "PAGE_MARKER_")
	if len(blocks) != 2 || len(blocks[1]) != 2 {
		t.Fatalf("blocks=%v", blocks)
	}
}
