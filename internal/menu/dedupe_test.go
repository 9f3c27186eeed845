package menu

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(date string, shift ShiftName, c *string, desc string) MenuEntry {
	return MenuEntry{Date: date, Shift: shift, ItemRecord: ItemRecord{Code: c, Description: desc}, RawText: desc}
}

func TestDeduplicateTwoKeyRule(t *testing.T) {
	in := []MenuEntry{
		entry("2024-01-01", ShiftMorning, code("LL25.228"), "Arroz"),
		entry("2024-01-01", ShiftAfternoon, code("LL25.228"), "Arroz"),
		entry("2024-01-01", ShiftMorning, code("LL25.228"), "Arroz"),
		entry("2024-01-02", ShiftMorning, code("LL25.228"), "Arroz"),
		entry("2024-01-01", ShiftMorning, nil, "Arroz"),
		entry("2024-01-01", ShiftMorning, code(""), "Arroz"),
	}
	got := Deduplicate(in)
	require.Len(t, got, 5)
	assert.Equal(t, ShiftMorning, got[0].Shift)
	assert.Equal(t, ShiftAfternoon, got[1].Shift)
	assert.Equal(t, "2024-01-02", got[2].Date)
	assert.Nil(t, got[3].Code)
	assert.Equal(t, "", *got[4].Code)
}

func TestGroupByDateKeepsOrder(t *testing.T) {
	entries := []MenuEntry{
		entry("2024-01-02", ShiftAfternoon, code("LL25.228"), "LL25.228 Arroz"),
		entry("2024-01-01", ShiftMorning, nil, "Fruta"),
		entry("2024-01-02", ShiftMorning, code("R25.375"), "R25.375 Frango"),
		entry("2024-01-02", ShiftAfternoon, code("R25.375"), "R25.375 Frango"),
	}
	by := GroupByDate(entries)
	assert.Equal(t, 2, by.Len())
	assert.Equal(t, []string{"2024-01-02", "2024-01-01"}, by.Dates())
	assert.Len(t, by.Items("2024-01-02", ShiftAfternoon), 2)
	assert.Nil(t, by.Items("2024-01-03", ShiftAfternoon))

	days := by.Days()
	require.Len(t, days[0].Shifts, 2)
	assert.Equal(t, ShiftAfternoon, days[0].Shifts[0].Shift)
	days[0].Shifts[0].Items[0].Description = "changed"
	assert.Equal(t, "LL25.228 Arroz", by.Items("2024-01-02", ShiftAfternoon)[0].Description)

	blob, err := json.Marshal(by)
	require.NoError(t, err)
	want := `{"2024-01-02":{"Vespertino":[{"code":"LL25.228","description":"LL25.228 Arroz"},{"code":"R25.375","description":"R25.375 Frango"}],` +
		`"Matutino":[{"code":"R25.375","description":"R25.375 Frango"}]},` +
		`"2024-01-01":{"Matutino":[{"code":null,"description":"Fruta"}]}}`
	assert.Equal(t, want, string(blob))
}

func TestGroupByDateEmpty(t *testing.T) {
	blob, err := json.Marshal(GroupByDate(nil))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(blob))
}
