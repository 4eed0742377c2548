package interview

import (
	"strings"

	"github.com/founderport/angel/internal/domain"
)

// slotSources maps each context slot to the questions known to elicit it.
// Location and industry come from the identity questionnaire; the business
// name is the opening plan question.
var slotSources = map[string][]domain.QuestionRef{
	domain.SlotBusinessName: {{Phase: domain.PhasePlan, Index: 1}},
	domain.SlotIndustry:     {{Phase: domain.PhaseIdentity, Index: 12}},
	domain.SlotLocation:     {{Phase: domain.PhaseIdentity, Index: 10}},
	domain.SlotBusinessType: {{Phase: domain.PhaseIdentity, Index: 8}},
}

// Source labels for resolved context slots.
const (
	SourceHistory = "history"
	SourceStored  = "stored"
	SourceDefault = "default"
)

// ExtractContext resolves every recognized slot using the strict fallback
// chain: the user's answer to the eliciting question, then the stored
// session context, then the generic default. The returned map always has an
// entry for every slot.
func ExtractContext(history []domain.HistoryEntry, stored map[string]string) map[string]string {
	resolved, _ := ExtractContextSources(history, stored)
	return resolved
}

// ExtractContextSources is ExtractContext plus a per-slot record of which
// level of the fallback chain supplied each value.
func ExtractContextSources(history []domain.HistoryEntry, stored map[string]string) (resolved, sources map[string]string) {
	resolved = make(map[string]string, len(domain.ContextSlots))
	sources = make(map[string]string, len(domain.ContextSlots))
	for _, slot := range domain.ContextSlots {
		if v := answerFromHistory(history, slotSources[slot]); v != "" {
			resolved[slot] = v
			sources[slot] = SourceHistory
			continue
		}
		if v := strings.TrimSpace(stored[slot]); v != "" {
			resolved[slot] = v
			sources[slot] = SourceStored
			continue
		}
		resolved[slot] = domain.DefaultContext[slot]
		sources[slot] = SourceDefault
	}
	return resolved, sources
}

// answerFromHistory returns the latest non-empty user answer associated with
// any of the given questions. Re-answers supersede earlier ones.
func answerFromHistory(history []domain.HistoryEntry, sources []domain.QuestionRef) string {
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		if e.Role != domain.RoleUser {
			continue
		}
		for _, q := range sources {
			if e.QuestionTag == q.Tag() {
				if v := strings.TrimSpace(e.Content); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// MergeContext writes extracted values into the session's business context
// with first-write-wins semantics: a slot that already resolved to a
// non-default value is never downgraded back to a default by a later
// extraction. Fresh non-default values do replace stale ones, since history
// is the higher-priority source. Reports whether anything changed.
func MergeContext(s *domain.Session, extracted map[string]string) bool {
	if s.BusinessContext == nil {
		s.BusinessContext = map[string]string{}
	}
	changed := false
	for _, slot := range domain.ContextSlots {
		candidate := extracted[slot]
		// Defaults are a display-time fallback; they are never written into
		// the session, so a stored value can't be shadowed by one.
		if candidate == "" || domain.IsDefaultSlot(slot, candidate) {
			continue
		}
		if candidate == s.BusinessContext[slot] {
			continue
		}
		s.BusinessContext[slot] = candidate
		changed = true
	}
	return changed
}
