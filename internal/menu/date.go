package menu

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

var (
	datePattern        = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	leadingDatePattern = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}`)
	dateOnlyPattern    = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
)

// ParseDate finds the first D/M/YYYY fragment in text. Out-of-range day or
// month values yield false instead of a normalized date.
func ParseDate(text string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// ISODate is ParseDate formatted as YYYY-MM-DD.
func ISODate(text string) (string, bool) {
	t, ok := ParseDate(text)
	if !ok {
		return "", false
	}
	return t.Format(isoLayout), true
}

func parseISO(s string) (time.Time, error) {
	return time.Parse(isoLayout, s)
}

// isDateLabel reports cells that hold nothing but a date, optionally preceded
// by a weekday name.
func isDateLabel(cell string) bool {
	text := strings.Join(strings.Fields(cell), " ")
	return dateOnlyPattern.MatchString(text) || weekdayDatePattern.MatchString(text)
}
