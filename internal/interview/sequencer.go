package interview

import (
	"errors"
	"fmt"

	"github.com/founderport/angel/internal/domain"
)

var (
	// ErrOutOfSequence means the submitted question index does not match the
	// session pointer (replayed or stale submission). The caller should
	// re-fetch the current question rather than retry blindly.
	ErrOutOfSequence = errors.New("submission out of sequence")

	// ErrCorruptSession means the answered count disagrees with the question
	// pointer outside the jump window. This indicates an upstream bug; the
	// session is never silently repaired.
	ErrCorruptSession = errors.New("corrupt session state")

	// ErrInterviewComplete means the session already finished all phases.
	ErrInterviewComplete = errors.New("interview already complete")
)

// Status classifies the outcome of a submission.
type Status string

const (
	StatusAccepted      Status = "accepted"
	StatusRejected      Status = "rejected"
	StatusPhaseComplete Status = "phase_complete"
)

// checkSequence validates that the submission targets the session's current
// question. A session with the jump flag armed bypasses the check once; the
// flag is consumed by that submission regardless of its outcome.
func checkSequence(s *domain.Session, claimed domain.QuestionRef) error {
	if s.Completed {
		return ErrInterviewComplete
	}
	if s.JumpArmed {
		s.JumpArmed = false
		return nil
	}
	if !s.Consistent() {
		return fmt.Errorf("%w: answered_count=%d question=%s", ErrCorruptSession, s.AnsweredCount, s.Question.Tag())
	}
	if claimed != s.Question {
		return fmt.Errorf("%w: got %s, expected %s", ErrOutOfSequence, claimed.Tag(), s.Question.Tag())
	}
	return nil
}

// accept credits an accepted answer and either advances the pointer within
// the phase or reports that the phase's terminal question was just answered.
// The cross-phase transition itself belongs to the transition composer.
func accept(s *domain.Session) (phaseDone bool) {
	if s.Question.Terminal() {
		return true
	}
	s.Advance()
	return false
}

// ForceJump positions the session at an arbitrary question within the given
// phase and arms the one-shot ordering bypass. The target pair is forced
// consistent (answered count is derived from the index) so the session comes
// out of the jump window in a valid state.
func ForceJump(s *domain.Session, target domain.QuestionRef) error {
	if !target.InRange() {
		return fmt.Errorf("jump target %s out of range", target.Tag())
	}
	if target.Phase.Order() < s.Phase.Order() {
		return fmt.Errorf("jump target %s would move the phase backwards", target.Tag())
	}
	s.Phase = target.Phase
	s.Question = target
	s.AnsweredCount = target.Index - 1
	s.Completed = false
	s.JumpArmed = true
	return nil
}
