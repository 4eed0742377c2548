// Package questions holds the canonical question text for the guided
// interview, keyed by question tag.
package questions

import (
	"fmt"

	"github.com/founderport/angel/internal/domain"
)

// identityTexts is the Getting to Know You questionnaire. The slot-bearing
// questions (8: business type, 10: location, 12: industry) feed context
// extraction.
var identityTexts = [...]string{
	1:  "What's your name, and what should I call you?",
	2:  "Where are you in your entrepreneurial journey — just exploring, or already committed to starting?",
	3:  "Have you run or helped run a business before?",
	4:  "What's your current work situation?",
	5:  "Do you already have a business idea in mind? If so, tell me about it in a sentence or two.",
	6:  "How much time per week can you realistically dedicate to this venture?",
	7:  "How comfortable are you with the core skills your idea needs — sales, operations, finance, marketing?",
	8:  "What type of business are you building — a startup, a small local business, a franchise, something else?",
	9:  "What's driving you to start this business? What does success look like for you personally?",
	10: "Where will your business be located?",
	11: "Where will you offer your products or services — locally, nationally, online?",
	12: "What industry does your business belong to?",
}

// planSections groups the 46 plan questions into the nine business-plan
// sections, by inclusive index range.
var planSections = []struct {
	from, to int
	name     string
}{
	{1, 5, "Business Identity"},
	{6, 11, "Product & Service"},
	{12, 17, "Market & Customers"},
	{18, 23, "Competition & Positioning"},
	{24, 29, "Marketing & Sales"},
	{30, 35, "Operations"},
	{36, 40, "Team & Organization"},
	{41, 44, "Financials"},
	{45, 46, "Risks & Milestones"},
}

// Text returns the canonical text for a question, when one exists. Plan,
// roadmap, and implementation questions have templated fallbacks; the
// generator boundary is expected to phrase those conversationally.
func Text(q domain.QuestionRef) (string, bool) {
	switch q.Phase {
	case domain.PhaseIdentity:
		if q.Index >= 1 && q.Index < len(identityTexts) {
			return identityTexts[q.Index], true
		}
	case domain.PhasePlan:
		if sec := PlanSection(q.Index); sec != "" {
			return fmt.Sprintf("Let's keep building the %s section of your plan.", sec), false
		}
	case domain.PhaseRoadmap:
		return "Ready for me to turn your plan into a stage-by-stage roadmap?", true
	case domain.PhaseImplementation:
		return fmt.Sprintf("Implementation step %d: what progress have you made, and where are you stuck?", q.Index), false
	}
	return "", false
}

// PlanSection returns the business-plan section name for a plan question
// index, or "" if out of range.
func PlanSection(index int) string {
	for _, sec := range planSections {
		if index >= sec.from && index <= sec.to {
			return sec.name
		}
	}
	return ""
}

// Prompt renders the default prompt line for a question: a numbered header
// plus the canonical or templated text.
func Prompt(q domain.QuestionRef) string {
	text, _ := Text(q)
	if text == "" {
		text = fmt.Sprintf("Tell me more so we can finish the %s phase.", q.Phase.DisplayName())
	}
	return fmt.Sprintf("Question %d of %d: %s", q.Index, q.Phase.QuestionCount(), text)
}
