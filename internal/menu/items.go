package menu

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"cardapio/internal/util"
)

// Strictness selects how many decimal digits an item code must carry after
// the dot. Codes are 1-2 uppercase letters, 2 digits, a dot and the decimals.
type Strictness int

const (
	// StrictnessStrict requires exactly three decimals (LL25.228).
	StrictnessStrict Strictness = iota
	// StrictnessPartial accepts exactly two decimals (LL24.22); such codes
	// are reported as incomplete.
	StrictnessPartial
	// StrictnessAny accepts two or three decimals.
	StrictnessAny
)

const itemSeparators = " ,;-–—\n\t"

var weekdayDatePattern = regexp.MustCompile(`(?i)^\p{L}+\s*[–-]\s*feira\s+\d{1,2}/\d{1,2}/\d{4}$`)

func codeExpr(s Strictness) string {
	switch s {
	case StrictnessStrict:
		return `[A-Z]{1,2}\d{2}\.\d{3}`
	case StrictnessPartial:
		return `[A-Z]{1,2}\d{2}\.\d{2}`
	default:
		return `[A-Z]{1,2}\d{2}\.\d{2,3}`
	}
}

// ItemSplitter turns menu cell text into item records.
type ItemSplitter struct {
	strict  *regexp.Regexp
	partial *regexp.Regexp
	single  *regexp.Regexp
}

func NewItemSplitter() *ItemSplitter {
	return &ItemSplitter{
		strict:  regexp.MustCompile(fmt.Sprintf(`\b(%s)\b`, codeExpr(StrictnessStrict))),
		partial: regexp.MustCompile(fmt.Sprintf(`\b(%s)\b`, codeExpr(StrictnessPartial))),
		single:  regexp.MustCompile(fmt.Sprintf(`(%s)\s*(.*)`, codeExpr(StrictnessAny))),
	}
}

type codeMatch struct {
	start, end int
	code       string
}

// Split locates every item code in text and cuts the text between codes into
// descriptions. Strict codes win; two-decimal codes are only looked for when
// no strict code exists. Text without any code becomes one uncoded record.
func (s *ItemSplitter) Split(text string) []ItemRecord {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	incomplete := false
	matches := locateCodes(s.strict, text)
	if len(matches) == 0 {
		matches = locateCodes(s.partial, text)
		incomplete = true
	}
	if len(matches) == 0 {
		return []ItemRecord{{Description: util.NormalizeSpaces(text)}}
	}

	items := make([]ItemRecord, 0, len(matches))
	for i, m := range matches {
		next := len(text)
		if i+1 < len(matches) {
			next = matches[i+1].start
		}
		span := util.NormalizeSpaces(strings.Trim(text[m.end:next], itemSeparators))
		span = strings.Trim(span, itemSeparators)
		description := m.code
		if span != "" {
			description = m.code + " " + span
		}
		code := m.code
		items = append(items, ItemRecord{Code: &code, Description: description, Incomplete: incomplete})
	}
	return items
}

// ExtractSingle reads one code and the free text following it from a cell
// already joined into one line. Cells holding only a "<weekday>-feira <date>"
// label carry no item.
func (s *ItemSplitter) ExtractSingle(line string) (ItemRecord, bool) {
	text := util.NormalizeSpaces(line)
	if text == "" {
		return ItemRecord{}, false
	}
	if m := s.single.FindStringSubmatch(text); m != nil {
		code := m[1]
		return ItemRecord{
			Code:        &code,
			Description: strings.TrimSpace(m[2]),
			Incomplete:  decimals(code) < 3,
		}, true
	}
	if weekdayDatePattern.MatchString(text) {
		return ItemRecord{}, false
	}
	return ItemRecord{Description: text}, true
}

// HasCode reports whether text carries an item code of any strictness.
func (s *ItemSplitter) HasCode(text string) bool {
	return s.single.MatchString(text)
}

func locateCodes(re *regexp.Regexp, text string) []codeMatch {
	idx := re.FindAllStringSubmatchIndex(text, -1)
	out := make([]codeMatch, 0, len(idx))
	for _, loc := range idx {
		out = append(out, codeMatch{start: loc[0], end: loc[1], code: text[loc[2]:loc[3]]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

func decimals(code string) int {
	dot := strings.LastIndexByte(code, '.')
	if dot < 0 {
		return 0
	}
	return len(code) - dot - 1
}
