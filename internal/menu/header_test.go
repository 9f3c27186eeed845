package menu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillNearestPrefersRight(t *testing.T) {
	got := FillNearest([]string{"", "A", "", "B", ""})
	assert.Equal(t, []string{"A", "A", "B", "B", "B"}, got)
}

func TestFillNearestNoNeighbour(t *testing.T) {
	got := FillNearest([]string{"", " ", ""})
	assert.Equal(t, []string{"", " ", ""}, got)
}

func TestAlignHeadersSwapsShiftedDate(t *testing.T) {
	body := Grid{
		{"Matutino", "LL25.228 Arroz", ""},
		{"Vespertino", "LL25.229 Feijão", ""},
		{"Noturno", "LL25.230 Sopa", ""},
		{"Parcial", "Fruta", ""},
		{"EJA", "Suco", ""},
	}
	got := AlignHeaders([]string{"Turnos", "", "01/01/2024"}, body, 2, 6)
	assert.Equal(t, []string{"Turnos", "01/01/2024", ""}, got)
}

func TestAlignHeadersKeepsNeighbouringDate(t *testing.T) {
	body := Grid{{"Matutino", "LL25.228 Arroz", ""}}
	in := []string{"Turnos", "01/01/2024", "02/01/2024"}
	got := AlignHeaders(in, body, 2, 6)
	assert.Equal(t, in, got)
}

func TestAlignHeadersSampleRows(t *testing.T) {
	body := Grid{
		{"Matutino", "", "x"},
		{"Vespertino", "a", ""},
		{"Noturno", "b", ""},
	}
	got := AlignHeaders([]string{"Turnos", "", "01/01/2024"}, body, 2, 1)
	assert.Equal(t, []string{"Turnos", "", "01/01/2024"}, got)
}

func TestDropEmptyColumns(t *testing.T) {
	header, body := DropEmptyColumns(
		[]string{"Turnos", "", "01/01/2024", ""},
		Grid{{"Matutino", "", "Arroz", "solto"}},
	)
	assert.Equal(t, []string{"Turnos", "01/01/2024", ""}, header)
	assert.Equal(t, Grid{{"Matutino", "Arroz", "solto"}}, body)
}

func TestCollapseDuplicateHeaders(t *testing.T) {
	header, body := CollapseDuplicateHeaders(
		[]string{"Turnos", "D", "D", "E"},
		Grid{{"M", "a", "b", "c"}, {"N", "", "d", ""}},
	)
	assert.Equal(t, []string{"Turnos", "D", "E"}, header)
	assert.Equal(t, Grid{{"M", "a b", "c"}, {"N", "d", ""}}, body)
}

func TestRepairHeader(t *testing.T) {
	rows := Grid{
		{"Cardápio Escolar"},
		{"TURNOS", "", "01/01/2024", "", "02/01/2024"},
		{"Matutino", "LL25.228 Arroz", "", "R25.375 Frango", ""},
	}
	got := RepairHeader(rows, RepairOptions{TitleMarker: "TURNOS", MaxPasses: 2, SampleRows: 6})
	require.False(t, got.Headerless)
	assert.Equal(t, []string{"TURNOS", "2024-01-01", "2024-01-02"}, got.Header)
	if diff := cmp.Diff(Grid{{"Matutino", "LL25.228 Arroz", "R25.375 Frango"}}, got.Body); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}
}

func TestRepairHeaderWithoutTitleRow(t *testing.T) {
	rows := Grid{{"Matutino", "Arroz"}, {"Vespertino"}}
	got := RepairHeader(rows, RepairOptions{TitleMarker: "TURNOS", MaxPasses: 2, SampleRows: 6})
	require.True(t, got.Headerless)
	assert.Equal(t, []string{"col_1", "col_2"}, got.Header)
	assert.Equal(t, Grid{{"Matutino", "Arroz"}, {"Vespertino", ""}}, got.Body)
}

func TestRepairHeaderRowsMatchHeaderWidth(t *testing.T) {
	grids := []Grid{
		{{"TURNOS", "01/01/2024"}, {"Matutino", "a", "b", "c"}, {"x"}},
		{{"intro"}, {"turnos", "", "", "02/01/2024", "02/01/2024"}, {"Matutino", "", "a"}, {}},
		{{"TURNOS"}},
		{{"a", "b"}, {"c"}},
		{{"TURNOS", "", ""}, {"", "", ""}},
	}
	for i, g := range grids {
		got := RepairHeader(g, RepairOptions{TitleMarker: "TURNOS", MaxPasses: 2, SampleRows: 6})
		for r, row := range got.Body {
			if len(row) != len(got.Header) {
				t.Fatalf("grid %d row %d: len=%d header=%d", i, r, len(row), len(got.Header))
			}
		}
	}
}
