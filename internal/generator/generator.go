// Package generator produces the conversational prose for interview prompts.
// It is an external collaborator from the engine's point of view: accept and
// reject decisions never depend on it, and any failure falls back to the
// canonical question text.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/founderport/angel/internal/domain"
	"github.com/founderport/angel/internal/questions"
)

// Generator phrases the prompt for a question in the context of a session.
type Generator interface {
	Question(ctx context.Context, session *domain.Session, q domain.QuestionRef) (string, error)
}

// Template is the deterministic fallback generator. It renders the canonical
// question text with business context substituted, no model call involved.
type Template struct{}

var _ Generator = Template{}

// Question renders the default prompt line for q.
func (Template) Question(_ context.Context, session *domain.Session, q domain.QuestionRef) (string, error) {
	prompt := questions.Prompt(q)
	if session != nil {
		prompt = Substitute(prompt, session.BusinessContext)
	}
	return prompt, nil
}

// Substitute replaces {{slot}} placeholders in text with resolved context
// values, falling back to the slot defaults.
func Substitute(text string, businessContext map[string]string) string {
	for _, slot := range domain.ContextSlots {
		placeholder := fmt.Sprintf("{{%s}}", slot)
		if !strings.Contains(text, placeholder) {
			continue
		}
		value := strings.TrimSpace(businessContext[slot])
		if value == "" {
			value = domain.DefaultContext[slot]
		}
		text = strings.ReplaceAll(text, placeholder, value)
	}
	return text
}
