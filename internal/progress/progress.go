// Package progress computes per-phase and combined interview progress.
package progress

import (
	"github.com/founderport/angel/internal/domain"
)

// Snapshot reports how far the interview has advanced. Answered counts the
// question the user is currently on (seeing question 1 of 12 reads as 1/12,
// not 0/12).
type Snapshot struct {
	Phase    domain.Phase `json:"phase"`
	Answered int          `json:"answered"`
	Total    int          `json:"total"`
	Percent  int          `json:"percent"`
	Overall  *Overall     `json:"overall_progress,omitempty"`
}

// Overall is the combined identity-plus-plan view shown alongside the phase
// indicator during the first two phases.
type Overall struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
	Percent  int `json:"percent"`
}

// ForSession builds the progress snapshot for the session's current pointer.
func ForSession(s *domain.Session) Snapshot {
	snap := phaseSnapshot(s)
	if s.Phase == domain.PhaseIdentity || s.Phase == domain.PhasePlan {
		snap.Overall = combined(s)
	}
	return snap
}

func phaseSnapshot(s *domain.Session) Snapshot {
	total := s.Phase.QuestionCount()
	step := s.Question.Index
	if s.Completed {
		step = total
	}
	return Snapshot{
		Phase:    s.Phase,
		Answered: step,
		Total:    total,
		Percent:  percent(step, total),
	}
}

// combined folds the identity and plan phases into one bar. Identity counts
// the question being viewed; during the plan phase the identity block is
// fully credited and plan questions count once completed.
func combined(s *domain.Session) *Overall {
	identityTotal := domain.PhaseIdentity.QuestionCount()
	total := identityTotal + domain.PhasePlan.QuestionCount()

	var step int
	switch s.Phase {
	case domain.PhaseIdentity:
		step = s.Question.Index
	case domain.PhasePlan:
		step = identityTotal + (s.Question.Index - 1)
	}
	if step > total {
		step = total
	}
	return &Overall{
		Answered: step,
		Total:    total,
		Percent:  percent(step, total),
	}
}

func percent(step, total int) int {
	if total <= 0 {
		return 100
	}
	p := (step*100 + total/2) / total
	if p < 1 {
		p = 1
	}
	if p > 100 {
		p = 100
	}
	return p
}
