package interview

import (
	"github.com/founderport/angel/internal/domain"
	"github.com/founderport/angel/internal/providers"
	"github.com/founderport/angel/internal/quotes"
)

// TransitionPayload is composed exactly once per phase completion and handed
// to the caller for rendering. NextQuestion is empty when the final phase
// just finished.
type TransitionPayload struct {
	FromPhase       domain.Phase         `json:"from_phase"`
	NextPhase       domain.Phase         `json:"next_phase,omitempty"`
	NextQuestion    string               `json:"next_question,omitempty"`
	BusinessName    string               `json:"business_name"`
	Industry        string               `json:"industry"`
	Location        string               `json:"location"`
	BusinessType    string               `json:"business_type"`
	Quote           domain.Quote         `json:"quote"`
	ServicePreview  []providers.Provider `json:"service_providers,omitempty"`
	InterviewDone   bool                 `json:"interview_done,omitempty"`
}

// composeTransition builds the end-of-phase payload and flips the session to
// the next phase. The mutation happens on the in-memory session only; the
// caller persists it in one save, so either the whole transition lands or
// nothing does.
func composeTransition(s *domain.Session, history []domain.HistoryEntry, catalog *quotes.Catalog) *TransitionPayload {
	resolved := ExtractContext(history, s.BusinessContext)
	MergeContext(s, resolved)

	quote := catalog.Pick(s.LastQuoteID)
	s.LastQuoteID = quote.ID

	payload := &TransitionPayload{
		FromPhase:    s.Phase,
		BusinessName: resolved[domain.SlotBusinessName],
		Industry:     resolved[domain.SlotIndustry],
		Location:     resolved[domain.SlotLocation],
		BusinessType: resolved[domain.SlotBusinessType],
		Quote:        quote,
	}

	// The implementation phase opens with a provider preview so the user has
	// somewhere concrete to go next.
	if next, ok := s.Phase.Next(); ok {
		if next == domain.PhaseImplementation {
			payload.ServicePreview = providers.Preview(resolved)
		}
		payload.NextPhase = next
		payload.NextQuestion = domain.FirstQuestion(next).Tag()
		s.AnsweredCount++ // credit the terminal answer before the reset
		s.EnterPhase(next)
	} else {
		payload.InterviewDone = true
		s.AnsweredCount++
		s.Completed = true
	}
	return payload
}
