package interview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/founderport/angel/internal/domain"
	"github.com/founderport/angel/internal/generator"
	"github.com/founderport/angel/internal/progress"
	"github.com/founderport/angel/internal/quotes"
	"github.com/founderport/angel/internal/store"
)

// SubmitResult is the envelope returned by every submission.
type SubmitResult struct {
	Status       Status                `json:"status"`
	Reasons      []string              `json:"reasons,omitempty"`
	NextQuestion string                `json:"next_question,omitempty"`
	Prompt       string                `json:"prompt,omitempty"`
	Progress     progress.Snapshot     `json:"progress"`
	Critique     domain.CritiqueResult `json:"-"`
	Transition   *TransitionPayload    `json:"transition,omitempty"`
}

// Service is the interview engine's entrypoint. All session mutation flows
// through it under a per-session lock, so two concurrent submissions for the
// same session can never interleave pointer updates or double-fire a
// transition. Different sessions proceed fully in parallel.
type Service struct {
	repo    store.Repository
	catalog *quotes.Catalog
	gen     generator.Generator

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates the interview service.
func NewService(repo store.Repository, catalog *quotes.Catalog, gen generator.Generator) *Service {
	if catalog == nil {
		catalog = quotes.Default()
	}
	if gen == nil {
		gen = generator.Template{}
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		gen:     gen,
		locks:   map[string]*sync.Mutex{},
	}
}

// lockFor returns the mutex serializing access to one session id.
func (s *Service) lockFor(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[sessionID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[sessionID] = l
	return l
}

// Submit processes one answer for the question the caller claims to be
// answering. The sequence check, the critique gate, pointer advancement, and
// transition composition all happen under the session lock; the session is
// persisted in a single save so no partial pointer update is observable.
func (s *Service) Submit(ctx context.Context, sessionID, claimedTag, text string) (*SubmitResult, error) {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	claimed, err := domain.ParseTag(claimedTag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutOfSequence, err)
	}

	hadJump := session.JumpArmed
	if err := checkSequence(session, claimed); err != nil {
		return nil, err
	}
	if hadJump {
		// The one-shot bypass is consumed even when the answer below is
		// rejected; persisting the cleared flag is the only mutation then.
		if saveErr := s.repo.UpdateSession(ctx, session); saveErr != nil {
			return nil, saveErr
		}
	}

	answered := claimed
	if hadJump {
		answered = session.Question
	}

	if err := s.repo.AppendHistory(ctx, &domain.HistoryEntry{
		SessionID:   sessionID,
		Role:        domain.RoleUser,
		Content:     text,
		QuestionTag: answered.Tag(),
	}); err != nil {
		return nil, err
	}

	critique := Evaluate(text)
	if !critique.Accepted {
		return &SubmitResult{
			Status:   StatusRejected,
			Reasons:  critique.Reasons,
			Critique: critique,
			Progress: progress.ForSession(session),
		}, nil
	}

	if phaseDone := accept(session); !phaseDone {
		if err := s.refreshContext(ctx, session); err != nil {
			return nil, err
		}
		if err := s.repo.UpdateSession(ctx, session); err != nil {
			return nil, err
		}
		return s.proceedResult(ctx, session, critique), nil
	}

	// Terminal question accepted: compose the transition and flip the phase
	// in the same save.
	history, err := s.repo.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	payload := composeTransition(session, history, s.catalog)
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	result := &SubmitResult{
		Status:     StatusPhaseComplete,
		Critique:   critique,
		Progress:   progress.ForSession(session),
		Transition: payload,
	}
	if !payload.InterviewDone {
		result.NextQuestion = payload.NextQuestion
		result.Prompt = s.promptFor(ctx, session)
	}
	return result, nil
}

// ForceJump positions the session at an arbitrary question and arms the
// one-shot ordering bypass. Administrative use only.
func (s *Service) ForceJump(ctx context.Context, sessionID string, target domain.QuestionRef) (*domain.Session, error) {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ForceJump(session, target); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	slog.Info("Session jumped", "session_id", sessionID, "target", target.Tag())
	return session, nil
}

// ResolveContext returns the fully resolved business context for a session
// along with each slot's source, refreshing stored slots from history first.
func (s *Service) ResolveContext(ctx context.Context, sessionID string) (resolved, sources map[string]string, updated bool, err error) {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, false, err
	}
	history, err := s.repo.History(ctx, sessionID)
	if err != nil {
		return nil, nil, false, err
	}
	resolved, sources = ExtractContextSources(history, session.BusinessContext)
	updated = MergeContext(session, resolved)
	if updated {
		if err := s.repo.UpdateSession(ctx, session); err != nil {
			return nil, nil, false, err
		}
	}
	return resolved, sources, updated, nil
}

// refreshContext re-extracts slots after an accepted answer so slot-bearing
// questions take effect immediately.
func (s *Service) refreshContext(ctx context.Context, session *domain.Session) error {
	history, err := s.repo.History(ctx, session.ID)
	if err != nil {
		return err
	}
	MergeContext(session, ExtractContext(history, session.BusinessContext))
	return nil
}

func (s *Service) proceedResult(ctx context.Context, session *domain.Session, critique domain.CritiqueResult) *SubmitResult {
	return &SubmitResult{
		Status:       StatusAccepted,
		Critique:     critique,
		NextQuestion: session.Question.Tag(),
		Prompt:       s.promptFor(ctx, session),
		Progress:     progress.ForSession(session),
	}
}

// promptFor asks the generator to phrase the session's current question and
// records the prompt in history. Generation failures degrade to canonical
// text and never fail the submission.
func (s *Service) promptFor(ctx context.Context, session *domain.Session) string {
	prompt, err := s.gen.Question(ctx, session, session.Question)
	if err != nil {
		slog.Warn("prompt generation failed", "session_id", session.ID, "question", session.Question.Tag(), "error", err)
		prompt, _ = generator.Template{}.Question(ctx, session, session.Question)
	}
	if err := s.repo.AppendHistory(ctx, &domain.HistoryEntry{
		SessionID:   session.ID,
		Role:        domain.RoleAssistant,
		Content:     prompt,
		QuestionTag: session.Question.Tag(),
	}); err != nil {
		slog.Warn("failed to record assistant prompt", "session_id", session.ID, "error", err)
	}
	return prompt
}
