package menu

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ShiftRule maps a case-insensitive keyword to the canonical shift it denotes.
// Rules are evaluated in order, so compound names go before their parts. A
// Word rule only matches the keyword as a whole word.
type ShiftRule struct {
	Keyword string    `yaml:"keyword"`
	Shift   ShiftName `yaml:"shift"`
	Word    bool      `yaml:"word"`
}

// Vocabulary holds the word lists the engine matches against. It is passed by
// value and copied on construction of every collaborator.
type Vocabulary struct {
	TitleMarker    string      `yaml:"title_marker"`
	SentinelPrefix string      `yaml:"sentinel_prefix"`
	NoiseTokens    []string    `yaml:"noise_tokens"`
	ShiftRules     []ShiftRule `yaml:"shift_rules"`
	PrimaryShifts  []ShiftName `yaml:"primary_shifts"`
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		TitleMarker:    "TURNOS",
		SentinelPrefix: "PAGE_MARKER_",
		NoiseTokens: []string{
			"semana", "pág", "pag.", "página", "documento", "secretaria", "turnos", "cardápio",
		},
		ShiftRules: []ShiftRule{
			{Keyword: "lanche manhã", Shift: ShiftMorningSnack},
			{Keyword: "lanche da manhã", Shift: ShiftMorningSnack},
			{Keyword: "lanche tarde", Shift: ShiftAfternoonSnack},
			{Keyword: "lanche da tarde", Shift: ShiftAfternoonSnack},
			{Keyword: "almoço", Shift: ShiftLunch},
			{Keyword: "parcial", Shift: ShiftPartial},
			{Keyword: "eja", Shift: ShiftSpecialProgram, Word: true},
			{Keyword: "matutino", Shift: ShiftMorning},
			{Keyword: "manhã", Shift: ShiftMorning},
			{Keyword: "vespertino", Shift: ShiftAfternoon},
			{Keyword: "tarde", Shift: ShiftAfternoon},
			{Keyword: "noturno", Shift: ShiftEvening},
			{Keyword: "noite", Shift: ShiftEvening},
		},
		PrimaryShifts: []ShiftName{ShiftMorning, ShiftAfternoon, ShiftEvening},
	}
}

// LoadVocabulary overlays the YAML document at path on DefaultVocabulary.
// Keys absent from the file keep their defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	v := DefaultVocabulary()
	if strings.TrimSpace(path) == "" {
		return v, nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}
	if err := yaml.Unmarshal(blob, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("decode vocabulary %s: %w", path, err)
	}
	if err := v.Validate(); err != nil {
		return Vocabulary{}, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

func (v Vocabulary) Validate() error {
	if strings.TrimSpace(v.TitleMarker) == "" {
		return fmt.Errorf("title_marker is empty")
	}
	if strings.TrimSpace(v.SentinelPrefix) == "" {
		return fmt.Errorf("sentinel_prefix is empty")
	}
	if len(v.ShiftRules) == 0 {
		return fmt.Errorf("shift_rules is empty")
	}
	for i, r := range v.ShiftRules {
		if strings.TrimSpace(r.Keyword) == "" || strings.TrimSpace(string(r.Shift)) == "" {
			return fmt.Errorf("shift_rules[%d] needs keyword and shift", i)
		}
	}
	if len(v.PrimaryShifts) == 0 {
		return fmt.Errorf("primary_shifts is empty")
	}
	return nil
}

func (v Vocabulary) clone() Vocabulary {
	out := v
	out.NoiseTokens = append([]string(nil), v.NoiseTokens...)
	out.ShiftRules = append([]ShiftRule(nil), v.ShiftRules...)
	out.PrimaryShifts = append([]ShiftName(nil), v.PrimaryShifts...)
	return out
}
