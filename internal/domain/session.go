package domain

import (
	"time"
)

// Business context slot names. Slots are extracted from the conversation and
// substituted into generated prose.
const (
	SlotBusinessName = "business_name"
	SlotIndustry     = "industry"
	SlotLocation     = "location"
	SlotBusinessType = "business_type"
)

// ContextSlots lists the recognized business context slots in a fixed order.
var ContextSlots = []string{SlotBusinessName, SlotIndustry, SlotLocation, SlotBusinessType}

// DefaultContext maps each slot to its generic fallback value.
var DefaultContext = map[string]string{
	SlotBusinessName: "your business",
	SlotIndustry:     "general business",
	SlotLocation:     "United States",
	SlotBusinessType: "startup",
}

// IsDefaultSlot reports whether value is the generic fallback for slot.
func IsDefaultSlot(slot, value string) bool {
	return value == DefaultContext[slot]
}

// Session holds the interview state for one conversation. It is mutated only
// through the interview service, under a per-session lock.
type Session struct {
	ID              string            `json:"session_id"`
	UserID          string            `json:"-"`
	Title           string            `json:"title"`
	Phase           Phase             `json:"phase"`
	Question        QuestionRef       `json:"current_question"`
	AnsweredCount   int               `json:"answered_count"`
	BusinessContext map[string]string `json:"business_context"`
	LastQuoteID     string            `json:"last_quote_id,omitempty"`
	JumpArmed       bool              `json:"-"`
	Completed       bool              `json:"completed"`
	Version         int64             `json:"-"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewSession creates a session positioned at the first identity question.
func NewSession(id, userID, title string, now time.Time) *Session {
	return &Session{
		ID:              id,
		UserID:          userID,
		Title:           title,
		Phase:           PhaseIdentity,
		Question:        FirstQuestion(PhaseIdentity),
		BusinessContext: map[string]string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Consistent reports whether the answered count agrees with the question
// pointer. The pair is allowed to diverge only inside the one-shot jump
// window; anything else indicates corrupt upstream state.
func (s *Session) Consistent() bool {
	if s.JumpArmed {
		return true
	}
	if s.Completed {
		return s.AnsweredCount == s.Question.Index
	}
	return s.AnsweredCount == s.Question.Index-1
}

// ContextValue returns the stored slot value, falling back to the generic
// default when the slot is missing or blank.
func (s *Session) ContextValue(slot string) string {
	if v, ok := s.BusinessContext[slot]; ok && v != "" {
		return v
	}
	return DefaultContext[slot]
}

// Advance moves the pointer to the next question in the current phase and
// credits the accepted answer. The caller must have checked Terminal first.
func (s *Session) Advance() {
	s.AnsweredCount++
	s.Question.Index++
}

// EnterPhase resets the pointer and answered count under the given phase.
func (s *Session) EnterPhase(p Phase) {
	s.Phase = p
	s.Question = FirstQuestion(p)
	s.AnsweredCount = 0
}

// HistoryEntry is one message in the conversation, read-only to the core.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"-"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	QuestionTag string    `json:"question_tag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// History entry roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
