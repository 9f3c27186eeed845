package menu

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, mutate func(*Options)) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	if mutate != nil {
		mutate(&opts)
	}
	e, err := NewEngine(opts)
	require.NoError(t, err)
	return e
}

func twoPages() []Page {
	return []Page{
		{Number: 1, Tables: []Table{TableFromStrings([][]string{
			{"CARDÁPIO ESCOLAR", "", "", ""},
			{"TURNOS", "01/01/2024", "02/01/2024", "03/01/2024"},
			{"Matutino", "LL25.228 Arroz", "LL25.229 Feijão", "LL25.230 Frango"},
		})}},
		{Number: 2, Tables: []Table{TableFromStrings([][]string{
			{"TURNOS", "04/01/2024", "05/01/2024", "06/01/2024"},
			{"Matutino", "LL25.231 Peixe", "LL25.232 Sopa", "LL25.233 Massa"},
		})}},
	}
}

type flatEntry struct {
	Date  string
	Shift ShiftName
	Code  string
}

func flatten(entries []MenuEntry) []flatEntry {
	out := make([]flatEntry, 0, len(entries))
	for _, e := range entries {
		c := ""
		if e.Code != nil {
			c = *e.Code
		}
		out = append(out, flatEntry{Date: e.Date, Shift: e.Shift, Code: c})
	}
	return out
}

func TestPageMarkerResetsDatesAfterSentinel(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.PadPrimaryShifts = false })
	grid := Grid{
		{"CARDÁPIO ESCOLAR", "", "", ""},
		{"TURNOS", "01/01/2024", "02/01/2024", "03/01/2024"},
		{"Matutino", "LL25.228 Arroz", "LL25.229 Feijão", "LL25.230 Frango"},
		{"PAGE_MARKER_1", "", "", ""},
		{"TURNOS", "04/01/2024", "05/01/2024", "06/01/2024"},
		{"Matutino", "LL25.231 Peixe", "LL25.232 Sopa", "LL25.233 Massa"},
		{"PAGE_MARKER_2", "", "", ""},
	}
	res, err := e.ParseGrid(ModePageMarker, "menu.pdf", grid)
	require.NoError(t, err)
	require.True(t, res.Success)

	want := []flatEntry{
		{"2024-01-01", ShiftMorning, "LL25.228"},
		{"2024-01-02", ShiftMorning, "LL25.229"},
		{"2024-01-03", ShiftMorning, "LL25.230"},
		{"2024-01-04", ShiftMorning, "LL25.231"},
		{"2024-01-05", ShiftMorning, "LL25.232"},
		{"2024-01-06", ShiftMorning, "LL25.233"},
	}
	if diff := cmp.Diff(want, flatten(res.Entries)); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, res.TotalEntries)
	assert.Equal(t, 6, res.TotalDays)
	assert.Equal(t, "Arroz", res.Entries[0].Description)
	assert.Equal(t, "LL25.228 Arroz", res.Entries[0].RawText)
	assert.Equal(t, 7, res.Meta.RowCount)
	assert.Equal(t, 4, res.Meta.ColumnCount)
}

func TestPageMarkerFromPages(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.PadPrimaryShifts = false })
	res := e.Parse("menu.pdf", twoPages())
	require.True(t, res.Success)
	require.Len(t, res.Entries, 6)
	assert.Equal(t, "2024-01-04", res.Entries[3].Date)
	assert.Equal(t, "PAGE_MARKER_1", res.RawGrid[3][0])
	assert.Equal(t, ModePageMarker, res.Meta.Mode)
	assert.Equal(t, fixedNow, res.Meta.ProcessedAt)
}

func TestPageMarkerPadsPrimaryShifts(t *testing.T) {
	e := newTestEngine(t, nil)
	res := e.Parse("menu.pdf", twoPages())
	require.Len(t, res.Entries, 18)
	assert.Equal(t,
		[]ShiftName{ShiftMorning, ShiftAfternoon, ShiftEvening},
		[]ShiftName{res.Entries[0].Shift, res.Entries[1].Shift, res.Entries[2].Shift},
	)
	for _, s := range []ShiftName{ShiftMorning, ShiftAfternoon, ShiftEvening} {
		assert.Len(t, res.ByDate.Items("2024-01-05", s), 1)
	}
}

func TestPageMarkerKeepsThreeRecognizedShifts(t *testing.T) {
	e := newTestEngine(t, nil)
	res, err := e.ParseGrid(ModePageMarker, "menu.pdf", Grid{
		{"TURNOS", "01/01/2024"},
		{"Almoço\nLanche Manhã\nLanche Tarde", "LL25.228 Arroz"},
	})
	require.NoError(t, err)
	want := []flatEntry{
		{"2024-01-01", "Almoço", "LL25.228"},
		{"2024-01-01", "Lanche Manhã", "LL25.228"},
		{"2024-01-01", "Lanche Tarde", "LL25.228"},
	}
	if diff := cmp.Diff(want, flatten(res.Entries)); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}
}

func TestPageMarkerFindsDatesBelowTallTitle(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.PadPrimaryShifts = false })
	res, err := e.ParseGrid(ModePageMarker, "menu.pdf", Grid{
		{"PREFEITURA MUNICIPAL", "", ""},
		{"SECRETARIA DE EDUCAÇÃO", "", ""},
		{"CARDÁPIO ESCOLAR", "", ""},
		{"Observação", "", ""},
		{"TURNOS", "08/01/2024", "09/01/2024"},
		{"Matutino", "LL25.228 Arroz", "LL25.229 Feijão"},
	})
	require.NoError(t, err)
	want := []flatEntry{
		{"2024-01-08", ShiftMorning, "LL25.228"},
		{"2024-01-09", ShiftMorning, "LL25.229"},
	}
	if diff := cmp.Diff(want, flatten(res.Entries)); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}
}

func TestResultMetaJSON(t *testing.T) {
	e := newTestEngine(t, nil)
	raw, err := json.Marshal(e.Parse("menu.pdf", twoPages()))
	require.NoError(t, err)
	var doc struct {
		Meta map[string]any `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "menu.pdf", doc.Meta["sourceFileName"])
	assert.Equal(t, "2024-01-01T12:00:00Z", doc.Meta["processedAtTimestamp"])
	assert.NotContains(t, doc.Meta, "processedAt")
}

func TestPageMarkerRecoversDates(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.PadPrimaryShifts = false })
	grid := Grid{
		{"Matutino", "LL25.228 Arroz"},
		{"Observação 05/01/2024", ""},
		{"PAGE_MARKER_1", ""},
		{"Vespertino", "LL25.229 Feijão 07/01/2024"},
		{"Noturno", "Sopa"},
		{"PAGE_MARKER_2", ""},
		{"x 09/01/2024", ""},
	}
	res, err := e.ParseGrid(ModePageMarker, "menu.pdf", grid)
	require.NoError(t, err)
	want := []flatEntry{
		{"2024-01-05", ShiftMorning, "LL25.228"},
		{"2024-01-07", ShiftAfternoon, "LL25.229"},
		{"2024-01-07", ShiftEvening, ""},
	}
	if diff := cmp.Diff(want, flatten(res.Entries)); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}
}

func TestPageMarkerUnidentifiedDate(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.PadPrimaryShifts = false })
	res, err := e.ParseGrid(ModePageMarker, "menu.pdf", Grid{
		{"Matutino", "Arroz"},
		{"PAGE_MARKER_1", ""},
		{"x 09/01/2024", ""},
	})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, UnidentifiedDate, res.Entries[0].Date)
	assert.Nil(t, res.Entries[0].Code)
}

func TestPageMarkerRealignsSpreadDates(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.PadPrimaryShifts = false })
	res := e.Parse("menu.pdf", []Page{{Number: 1, Tables: []Table{TableFromStrings([][]string{
		{"TURNOS", "01/01/2024", "", "02/01/2024"},
		{"Matutino\nSemana 3", "LL25.228 Arroz", "", "LL25.229 Feijão"},
	})}}})
	want := []flatEntry{
		{"2024-01-01", ShiftMorning, "LL25.228"},
		{"2024-01-02", ShiftMorning, "LL25.229"},
	}
	if diff := cmp.Diff(want, flatten(res.Entries)); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Semana 3", res.Entries[0].Week)
}

func TestHeaderDateMode(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.Mode = ModeHeaderDate })
	res := e.Parse("menu.pdf", []Page{{Number: 1, Tables: []Table{TableFromStrings([][]string{
		{"Cardápio Escolar", "", "", "", ""},
		{"TURNOS", "", "01/01/2024", "", "02/01/2024"},
		{"Matutino\nSemana 1", "LL25.228 Arroz R25.375 Frango", "", "LL25.229 Feijão", ""},
		{"", "Fruta", "", "", ""},
		{"Integral", "", "", "Suco", ""},
	})}}})
	require.True(t, res.Success)
	want := []flatEntry{
		{"2024-01-01", "Matutino", "LL25.228"},
		{"2024-01-01", "Matutino", "R25.375"},
		{"2024-01-02", "Matutino", "LL25.229"},
		{"2024-01-01", ShiftMorning, ""},
		{"2024-01-01", ShiftAfternoon, ""},
		{"2024-01-01", ShiftEvening, ""},
		{"2024-01-02", "Integral", ""},
	}
	if diff := cmp.Diff(want, flatten(res.Entries)); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}
	assert.Equal(t, "LL25.228 Arroz", res.Entries[0].Description)
	assert.Equal(t, "Semana 1", res.Entries[0].Week)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, res.ByDate.Dates())
}

func TestHeaderDateHeaderlessBlock(t *testing.T) {
	e := newTestEngine(t, nil)
	res, err := e.ParseGrid(ModeHeaderDate, "menu.xlsx", Grid{
		{"", "01/01/2024"},
		{"Almoço", "LL25.228 Arroz"},
		{"PAGE_MARKER_1", ""},
		{"Almoço", "Sopa"},
	})
	require.NoError(t, err)
	want := []flatEntry{
		{"2024-01-01", "Almoço", "LL25.228"},
		{UnidentifiedDate, "Almoço", ""},
	}
	if diff := cmp.Diff(want, flatten(res.Entries)); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}
}

func TestParseWithoutTables(t *testing.T) {
	e := newTestEngine(t, nil)
	res := e.Parse("empty.pdf", []Page{{Number: 1}, {Number: 2, Tables: []Table{{{nil, nil}}}}})
	assert.False(t, res.Success)
	assert.Equal(t, ErrNoTables.Error(), res.Error)
	assert.Empty(t, res.Entries)
	assert.Equal(t, "empty.pdf", res.Meta.SourceFileName)
}

func TestParseIsIdempotent(t *testing.T) {
	e := newTestEngine(t, nil)
	pages := twoPages()
	first, err := json.Marshal(e.Parse("menu.pdf", pages))
	require.NoError(t, err)
	second, err := json.Marshal(e.Parse("menu.pdf", pages))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.Equal(t, "LL25.228 Arroz", *pages[0].Tables[0][2][1])
}

func TestUnknownMode(t *testing.T) {
	e := newTestEngine(t, nil)
	_, err := e.ParseWith(Mode("columns"), "x.pdf", twoPages())
	require.Error(t, err)
	_, err = e.ParseMode("columns")
	require.Error(t, err)
	m, err := e.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModePageMarker, m)

	opts := DefaultOptions()
	opts.Mode = "columns"
	_, err = NewEngine(opts)
	require.Error(t, err)
}

func TestConcurrentParses(t *testing.T) {
	e := newTestEngine(t, nil)
	want, err := json.Marshal(e.Parse("menu.pdf", twoPages()))
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		g.Go(func() error {
			got, err := json.Marshal(e.Parse("menu.pdf", twoPages()))
			if err != nil {
				return err
			}
			if string(got) != string(want) {
				return fmt.Errorf("parse %d differs", i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
