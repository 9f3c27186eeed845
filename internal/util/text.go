package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces      = regexp.MustCompile(`\s+`)
	reInlineSpace = regexp.MustCompile(`[\t\f\v \x{00A0}\x{2007}\x{202F}]+`)
	reUnsafeName  = regexp.MustCompile(`[<>:"/\\|?*\s]+`)
)

// NormalizeSpaces collapses every whitespace run, line breaks included, into a
// single space.
func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(norm.NFC.String(input), " "))
}

// CleanMultiline normalizes a table cell while keeping its line structure:
// horizontal whitespace is collapsed per line and blank lines are dropped.
func CleanMultiline(input string) string {
	if input == "" {
		return ""
	}
	s := norm.NFC.String(input)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(reInlineSpace.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// Fold prepares text for case-insensitive comparison.
func Fold(input string) string {
	return strings.ToLower(norm.NFC.String(input))
}

func ContainsAnyFold(haystack string, needles []string) bool {
	folded := Fold(haystack)
	for _, n := range needles {
		if n != "" && strings.Contains(folded, Fold(n)) {
			return true
		}
	}
	return false
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// SafeFileName turns an arbitrary label (message ids, uploaded names) into a
// file-system friendly fragment of bounded length.
func SafeFileName(input string, max int) string {
	out := strings.Trim(reUnsafeName.ReplaceAllString(input, "_"), "_")
	if out == "" {
		out = "file"
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func StringPtr(v string) *string {
	return &v
}

func DerefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
