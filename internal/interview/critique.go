// Package interview implements the interview engine: answer critique, phase
// sequencing, business-context extraction, and transition composition.
package interview

import (
	"fmt"
	"strings"

	"github.com/founderport/angel/internal/domain"
)

// Critique thresholds. An answer shorter than minAnswerLen is rejected
// outright; vagueness only applies below vagueLenCeiling and needs at least
// vagueMarkerMin distinct markers. Requiring a convergence of signals keeps
// the false-positive rate down on legitimate short answers.
const (
	minAnswerLen    = 20
	vagueLenCeiling = 100
	vagueMarkerMin  = 2
)

// vagueMarkers are hedging phrases matched case-insensitively as substrings.
// A single marker never rejects on its own.
var vagueMarkers = []string{
	"maybe",
	"probably",
	"i think",
	"not sure",
	"don't know",
	"dont know",
	"i guess",
	"possibly",
}

// unrealisticPhrases are multi-word claims matched case-insensitively as
// substrings. Single words are deliberately excluded: words like "easy" or
// "everyone" appear in perfectly reasonable answers.
var unrealisticPhrases = []string{
	"it will be easy",
	"guaranteed success",
	"guaranteed to succeed",
	"no competition",
	"everyone will buy",
	"everybody will buy",
	"can't fail",
	"cannot fail",
	"overnight success",
}

// Evaluate judges a single free-text answer. Rules apply in order: length
// short-circuit, then vagueness, then unrealism. The result is ephemeral.
func Evaluate(text string) domain.CritiqueResult {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minAnswerLen {
		return domain.CritiqueResult{
			TooShort: true,
			Reasons:  []string{"too_short: the answer needs a little more detail to work with"},
		}
	}

	var res domain.CritiqueResult
	lower := strings.ToLower(trimmed)

	if len(trimmed) < vagueLenCeiling {
		var hits []string
		for _, marker := range vagueMarkers {
			if strings.Contains(lower, marker) {
				hits = append(hits, marker)
			}
		}
		if len(hits) >= vagueMarkerMin {
			res.Vague = true
			res.Reasons = append(res.Reasons,
				fmt.Sprintf("vague: the answer leans on uncertain language (%s); try to be more concrete", strings.Join(hits, ", ")))
		}
	}

	var claims []string
	for _, phrase := range unrealisticPhrases {
		if strings.Contains(lower, phrase) {
			claims = append(claims, phrase)
		}
	}
	if len(claims) > 0 {
		res.Unrealistic = true
		res.Reasons = append(res.Reasons,
			fmt.Sprintf("unrealistic: claims like %q deserve a harder look before we build on them", strings.Join(claims, `", "`)))
	}

	res.Accepted = !res.Vague && !res.Unrealistic
	return res
}
