package pipeline

import (
	"strings"

	"cardapio/internal/menu"
	"cardapio/internal/util"
)

type DetectResult struct {
	IsMenu bool
	Score  float64
	Reason string
}

var detectKeywords = []string{"cardápio", "cardapio", "merenda", "alimentação escolar", "refeição", "refeições", "turno", "semana"}

// DetectMenuEmail scores an e-mail as a school menu delivery from its
// keywords, menu attachments, embedded tables and dated lines.
func DetectMenuEmail(subject, text, html string, attachmentNames []string) DetectResult {
	subject = util.Fold(subject)
	text = util.Fold(text)
	html = util.Fold(html)

	score := 0.0
	for _, kw := range detectKeywords {
		if strings.Contains(subject, kw) {
			score += 0.2
		}
		if strings.Contains(text, kw) || strings.Contains(html, kw) {
			score += 0.1
		}
	}

	dateHits := countDates(text)
	if dateHits >= 2 {
		score += 0.2
	} else if dateHits == 1 {
		score += 0.1
	}

	for _, name := range attachmentNames {
		if _, err := DetectKind(name); err == nil {
			score += 0.25
			if util.ContainsAnyFold(name, []string{"cardapio", "cardápio", "merenda"}) {
				score += 0.2
			}
			break
		}
	}

	if strings.Contains(html, "<table") {
		score += 0.25
	}
	if score > 1 {
		score = 1
	}

	isMenu := score >= 0.45
	reason := "rules_negative"
	if isMenu {
		reason = "rules_positive"
	}

	return DetectResult{IsMenu: isMenu, Score: score, Reason: reason}
}

func countDates(text string) int {
	count := 0
	for _, field := range strings.Fields(text) {
		if _, ok := menu.ParseDate(field); ok {
			count++
		}
	}
	return count
}
