package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDropsNoise(t *testing.T) {
	c := NewShiftClassifier(DefaultVocabulary())
	got := c.Classify("Matutino\nSemana 2\nVespertino", c.Primary())
	assert.Equal(t, []ShiftName{"Matutino", "Vespertino"}, got.Shifts)
	assert.Equal(t, "Semana 2", got.Week)
}

func TestClassifyFallback(t *testing.T) {
	c := NewShiftClassifier(DefaultVocabulary())
	fallback := []ShiftName{ShiftMorning, ShiftAfternoon, ShiftEvening}

	got := c.Classify("", fallback)
	assert.Equal(t, fallback, got.Shifts)

	got = c.Classify("Turnos\n01/01/2024\nxy", fallback)
	assert.Equal(t, fallback, got.Shifts)
	assert.Empty(t, got.Week)

	got.Shifts[0] = "changed"
	assert.Equal(t, ShiftMorning, fallback[0])
}

func TestClassifyKeepsOriginalTextOnce(t *testing.T) {
	c := NewShiftClassifier(DefaultVocabulary())
	got := c.Classify("MATUTINO\n  MATUTINO \nLanche da manhã", nil)
	assert.Equal(t, []ShiftName{"MATUTINO", "Lanche da manhã"}, got.Shifts)
}

func TestCanonical(t *testing.T) {
	c := NewShiftClassifier(DefaultVocabulary())
	cases := map[ShiftName]ShiftName{
		"MATUTINO":        ShiftMorning,
		"Lanche da tarde": ShiftAfternoonSnack,
		"Lanche Manhã":    ShiftMorningSnack,
		"Almoço":          ShiftLunch,
		"noite":           ShiftEvening,
		"EJA":             ShiftSpecialProgram,
	}
	for in, want := range cases {
		got, ok := c.Canonical(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := c.Canonical("Integral")
	assert.False(t, ok)
}

func TestPadPrimary(t *testing.T) {
	c := NewShiftClassifier(DefaultVocabulary())
	cases := []struct {
		name string
		in   []ShiftName
		want []ShiftName
	}{
		{"none", nil, []ShiftName{ShiftMorning, ShiftAfternoon, ShiftEvening}},
		{"two", []ShiftName{"MATUTINO", ShiftLunch}, []ShiftName{"MATUTINO", ShiftLunch, ShiftAfternoon, ShiftEvening}},
		{"three others", []ShiftName{ShiftLunch, ShiftMorningSnack, ShiftAfternoonSnack}, []ShiftName{ShiftLunch, ShiftMorningSnack, ShiftAfternoonSnack}},
		{"four", []ShiftName{ShiftMorning, ShiftLunch, ShiftPartial, ShiftSpecialProgram}, []ShiftName{ShiftMorning, ShiftLunch, ShiftPartial, ShiftSpecialProgram}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.PadPrimary(tc.in))
		})
	}
}

func TestClassifyEJAIsWholeWord(t *testing.T) {
	c := NewShiftClassifier(DefaultVocabulary())
	for _, cell := range []string{"Bandeja", "Cereja", "Igreja"} {
		got := c.Classify(cell, nil)
		assert.Empty(t, got.Shifts, cell)
	}
	got := c.Classify("EJA\nTurma EJA-2", nil)
	assert.Equal(t, []ShiftName{"EJA", "Turma EJA-2"}, got.Shifts)
	canon, ok := c.Canonical("Turma EJA-2")
	require.True(t, ok)
	assert.Equal(t, ShiftSpecialProgram, canon)
}
