package menu

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"cardapio/internal/util"
)

var weekPattern = regexp.MustCompile(`(?i)\b((?:semana|week)\s+\d+)`)

type ShiftClassification struct {
	Shifts []ShiftName
	Week   string
}

type ShiftClassifier struct {
	noise   []string
	rules   []ShiftRule
	primary []ShiftName
}

func NewShiftClassifier(v Vocabulary) *ShiftClassifier {
	v = v.clone()
	c := &ShiftClassifier{primary: v.PrimaryShifts}
	for _, n := range v.NoiseTokens {
		if n = strings.TrimSpace(n); n != "" {
			c.noise = append(c.noise, util.Fold(n))
		}
	}
	for _, r := range v.ShiftRules {
		c.rules = append(c.rules, ShiftRule{Keyword: util.Fold(strings.TrimSpace(r.Keyword)), Shift: r.Shift, Word: r.Word})
	}
	return c
}

// Classify splits a shift cell on line breaks and keeps the fragments that
// name a shift, in order and without repeats. When nothing survives the
// fallback set is returned instead.
func (c *ShiftClassifier) Classify(cell string, fallback []ShiftName) ShiftClassification {
	out := ShiftClassification{}
	if m := weekPattern.FindStringSubmatch(cell); m != nil {
		out.Week = util.NormalizeSpaces(m[1])
	}

	seen := map[ShiftName]struct{}{}
	for _, line := range strings.Split(cell, "\n") {
		fragment := strings.TrimSpace(line)
		if fragment == "" {
			continue
		}
		folded := util.Fold(fragment)
		if c.isNoise(folded) {
			continue
		}
		if utf8.RuneCountInString(fragment) <= 2 || leadingDatePattern.MatchString(fragment) {
			continue
		}
		if _, ok := c.match(folded); !ok {
			continue
		}
		name := ShiftName(fragment)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out.Shifts = append(out.Shifts, name)
	}

	if len(out.Shifts) == 0 {
		out.Shifts = append([]ShiftName(nil), fallback...)
	}
	return out
}

// Canonical reports the canonical shift a label denotes, if any.
func (c *ShiftClassifier) Canonical(name ShiftName) (ShiftName, bool) {
	return c.match(util.Fold(string(name)))
}

func (c *ShiftClassifier) Primary() []ShiftName {
	return append([]ShiftName(nil), c.primary...)
}

// PadPrimary appends the primary shifts not already denoted by one of shifts
// when fewer shifts than the primary set size were recognized. Longer lists
// are returned unchanged.
func (c *ShiftClassifier) PadPrimary(shifts []ShiftName) []ShiftName {
	out := append([]ShiftName(nil), shifts...)
	if len(shifts) >= len(c.primary) {
		return out
	}
	present := map[ShiftName]struct{}{}
	for _, s := range shifts {
		present[s] = struct{}{}
		if canon, ok := c.Canonical(s); ok {
			present[canon] = struct{}{}
		}
	}
	for _, p := range c.primary {
		if _, ok := present[p]; ok {
			continue
		}
		present[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (c *ShiftClassifier) isNoise(folded string) bool {
	for _, n := range c.noise {
		if strings.Contains(folded, n) {
			return true
		}
	}
	return false
}

func (c *ShiftClassifier) match(folded string) (ShiftName, bool) {
	for _, r := range c.rules {
		if r.Keyword == "" {
			continue
		}
		if r.Word && containsWord(folded, r.Keyword) || !r.Word && strings.Contains(folded, r.Keyword) {
			return r.Shift, true
		}
	}
	return "", false
}

// containsWord reports whether word occurs in s with no letter or digit
// directly before or after it.
func containsWord(s, word string) bool {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
