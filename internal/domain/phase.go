package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Phase is one of the four ordered stages of the guided interview.
type Phase string

const (
	PhaseIdentity       Phase = "IDENTITY"
	PhasePlan           Phase = "PLAN"
	PhaseRoadmap        Phase = "ROADMAP"
	PhaseImplementation Phase = "IMPLEMENTATION"
)

// phaseOrder fixes the progression; phases never move backwards.
var phaseOrder = []Phase{PhaseIdentity, PhasePlan, PhaseRoadmap, PhaseImplementation}

// questionTotals is the fixed question count per phase.
var questionTotals = map[Phase]int{
	PhaseIdentity:       12,
	PhasePlan:           46,
	PhaseRoadmap:        1,
	PhaseImplementation: 10,
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := questionTotals[p]
	return ok
}

// Order returns the position of p in the phase sequence, or -1 if unknown.
func (p Phase) Order() int {
	for i, ph := range phaseOrder {
		if ph == p {
			return i
		}
	}
	return -1
}

// QuestionCount returns the number of questions in the phase.
func (p Phase) QuestionCount() int {
	return questionTotals[p]
}

// Next returns the phase following p. ok is false for the final phase.
func (p Phase) Next() (next Phase, ok bool) {
	idx := p.Order()
	if idx < 0 || idx+1 >= len(phaseOrder) {
		return "", false
	}
	return phaseOrder[idx+1], true
}

// DisplayName returns the user-facing name of the phase.
func (p Phase) DisplayName() string {
	switch p {
	case PhaseIdentity:
		return "Getting to Know You"
	case PhasePlan:
		return "Business Planning"
	case PhaseRoadmap:
		return "Creating Your Roadmap"
	case PhaseImplementation:
		return "Implementation & Launch"
	default:
		return string(p)
	}
}

// QuestionRef identifies a single question as a (phase, 1-based index) pair.
type QuestionRef struct {
	Phase Phase `json:"phase"`
	Index int   `json:"index"`
}

// FirstQuestion returns the first question of a phase.
func FirstQuestion(p Phase) QuestionRef {
	return QuestionRef{Phase: p, Index: 1}
}

// Tag renders the reference in its wire form, e.g. "PLAN.07".
func (q QuestionRef) Tag() string {
	return fmt.Sprintf("%s.%02d", q.Phase, q.Index)
}

// Terminal reports whether q is the last question of its phase.
func (q QuestionRef) Terminal() bool {
	return q.Index == q.Phase.QuestionCount()
}

// InRange reports whether the index is within the phase's question count.
func (q QuestionRef) InRange() bool {
	return q.Phase.Valid() && q.Index >= 1 && q.Index <= q.Phase.QuestionCount()
}

var tagPattern = regexp.MustCompile(`^([A-Z_]+)\.(\d{1,2})$`)

// ParseTag parses a "PHASE.NN" tag into a QuestionRef.
func ParseTag(tag string) (QuestionRef, error) {
	m := tagPattern.FindStringSubmatch(strings.TrimSpace(tag))
	if m == nil {
		return QuestionRef{}, fmt.Errorf("malformed question tag %q", tag)
	}
	phase := Phase(m[1])
	if !phase.Valid() {
		return QuestionRef{}, fmt.Errorf("unknown phase in question tag %q", tag)
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil || idx < 1 || idx > phase.QuestionCount() {
		return QuestionRef{}, fmt.Errorf("question index out of range in tag %q", tag)
	}
	return QuestionRef{Phase: phase, Index: idx}, nil
}
