package interview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/founderport/angel/internal/domain"
	"github.com/founderport/angel/internal/store"
)

// memoryRepo is an in-memory store.Repository with the same copy and
// optimistic-locking semantics as the SQLite implementation.
type memoryRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	history  map[string][]domain.HistoryEntry
	users    map[string]*domain.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sessions: map[string]*domain.Session{},
		history:  map[string][]domain.HistoryEntry{},
		users:    map[string]*domain.User{},
	}
}

func copySession(s *domain.Session) *domain.Session {
	c := *s
	c.BusinessContext = make(map[string]string, len(s.BusinessContext))
	for k, v := range s.BusinessContext {
		c.BusinessContext[k] = v
	}
	return &c
}

func (r *memoryRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *memoryRepo) UpsertUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *user
	r.users[user.UserID] = &c
	return nil
}

func (r *memoryRepo) CreateSession(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.Version == 0 {
		session.Version = 1
	}
	r.sessions[session.ID] = copySession(session)
	return nil
}

func (r *memoryRepo) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copySession(s), nil
}

func (r *memoryRepo) ListSessions(_ context.Context, userID string) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, copySession(s))
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdateSession(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[session.ID]
	if !ok {
		return store.ErrNotFound
	}
	if stored.Version != session.Version {
		return store.ErrConflict
	}
	session.Version++
	session.UpdatedAt = time.Now()
	r.sessions[session.ID] = copySession(session)
	return nil
}

func (r *memoryRepo) AppendHistory(_ context.Context, entry *domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *entry
	e.ID = int64(len(r.history[entry.SessionID]) + 1)
	e.CreatedAt = time.Now()
	r.history[entry.SessionID] = append(r.history[entry.SessionID], e)
	return nil
}

func (r *memoryRepo) History(_ context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.HistoryEntry(nil), r.history[sessionID]...), nil
}

func (r *memoryRepo) CleanupExpiredSessions(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func (r *memoryRepo) Ping(_ context.Context) error { return nil }
func (r *memoryRepo) Close() error                 { return nil }

const goodAnswer = "We will sell refurbished espresso machines to offices across the Portland metro area."

func newServiceFixture(t *testing.T, mutate func(*domain.Session)) (*Service, *memoryRepo, *domain.Session) {
	t.Helper()
	repo := newMemoryRepo()
	s := domain.NewSession("sess-1", "anon_user", "Test venture", time.Now())
	if mutate != nil {
		mutate(s)
	}
	if err := repo.CreateSession(context.Background(), s); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return NewService(repo, nil, nil), repo, s
}

func TestSubmitAcceptedAdvancesAndPersists(t *testing.T) {
	svc, repo, _ := newServiceFixture(t, nil)

	res, err := svc.Submit(context.Background(), "sess-1", "IDENTITY.01", goodAnswer)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != StatusAccepted {
		t.Fatalf("Status = %s, want accepted", res.Status)
	}
	if res.NextQuestion != "IDENTITY.02" {
		t.Errorf("NextQuestion = %s, want IDENTITY.02", res.NextQuestion)
	}
	if res.Prompt == "" {
		t.Error("Accepted submission should carry the next prompt")
	}
	if res.Progress.Answered != 2 || res.Progress.Total != 12 {
		t.Errorf("Progress = %d/%d, want 2/12", res.Progress.Answered, res.Progress.Total)
	}

	stored, err := repo.GetSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if stored.Question.Tag() != "IDENTITY.02" || stored.AnsweredCount != 1 {
		t.Errorf("Persisted pointer %s count %d, want IDENTITY.02 / 1", stored.Question.Tag(), stored.AnsweredCount)
	}

	history, _ := repo.History(context.Background(), "sess-1")
	if len(history) != 2 {
		t.Fatalf("History length = %d, want user answer plus assistant prompt", len(history))
	}
	if history[0].Role != domain.RoleUser || history[0].QuestionTag != "IDENTITY.01" {
		t.Errorf("First entry = %+v, want user answer for IDENTITY.01", history[0])
	}
	if history[1].Role != domain.RoleAssistant || history[1].QuestionTag != "IDENTITY.02" {
		t.Errorf("Second entry = %+v, want assistant prompt for IDENTITY.02", history[1])
	}
}

func TestSubmitRejectedLeavesSessionUntouched(t *testing.T) {
	svc, repo, _ := newServiceFixture(t, nil)

	res, err := svc.Submit(context.Background(), "sess-1", "IDENTITY.01", "Maybe, not sure at all honestly.")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != StatusRejected {
		t.Fatalf("Status = %s, want rejected", res.Status)
	}
	if len(res.Reasons) == 0 {
		t.Error("Rejected submission should carry reasons")
	}

	stored, _ := repo.GetSession(context.Background(), "sess-1")
	if stored.Question.Tag() != "IDENTITY.01" || stored.AnsweredCount != 0 {
		t.Errorf("Rejected submission mutated the session: %s / %d", stored.Question.Tag(), stored.AnsweredCount)
	}
	if stored.Version != 1 {
		t.Errorf("Rejected submission bumped the version to %d", stored.Version)
	}

	// The attempt itself is still recorded.
	history, _ := repo.History(context.Background(), "sess-1")
	if len(history) != 1 || history[0].Role != domain.RoleUser {
		t.Errorf("History = %+v, want just the rejected answer", history)
	}
}

func TestSubmitDuplicateIsRejectedNotReapplied(t *testing.T) {
	svc, _, _ := newServiceFixture(t, nil)

	if _, err := svc.Submit(context.Background(), "sess-1", "IDENTITY.01", goodAnswer); err != nil {
		t.Fatalf("First submit: %v", err)
	}
	_, err := svc.Submit(context.Background(), "sess-1", "IDENTITY.01", goodAnswer)
	if !errors.Is(err, ErrOutOfSequence) {
		t.Fatalf("Duplicate submit = %v, want ErrOutOfSequence", err)
	}
}

func TestSubmitMalformedTag(t *testing.T) {
	svc, _, _ := newServiceFixture(t, nil)

	for _, tag := range []string{"", "identity.01", "IDENTITY", "IDENTITY.99", "PLAN.0"} {
		if _, err := svc.Submit(context.Background(), "sess-1", tag, goodAnswer); !errors.Is(err, ErrOutOfSequence) {
			t.Errorf("Submit(%q) = %v, want ErrOutOfSequence", tag, err)
		}
	}
}

func TestSubmitPhaseCompletion(t *testing.T) {
	svc, repo, _ := newServiceFixture(t, func(s *domain.Session) {
		s.Phase = domain.PhasePlan
		s.Question = domain.QuestionRef{Phase: domain.PhasePlan, Index: 46}
		s.AnsweredCount = 45
		s.BusinessContext[domain.SlotBusinessName] = "Brew & Bloom"
	})

	res, err := svc.Submit(context.Background(), "sess-1", "PLAN.46",
		"Our five year vision is a regional chain of three cafes with a wholesale roasting arm.")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != StatusPhaseComplete {
		t.Fatalf("Status = %s, want phase_complete", res.Status)
	}
	tr := res.Transition
	if tr == nil {
		t.Fatal("Phase completion must carry a transition payload")
	}
	if tr.FromPhase != domain.PhasePlan || tr.NextPhase != domain.PhaseRoadmap {
		t.Errorf("Transition %s -> %s, want PLAN -> ROADMAP", tr.FromPhase, tr.NextPhase)
	}
	if tr.NextQuestion != "ROADMAP.01" || res.NextQuestion != "ROADMAP.01" {
		t.Errorf("NextQuestion = %s / %s, want ROADMAP.01", tr.NextQuestion, res.NextQuestion)
	}
	if tr.BusinessName != "Brew & Bloom" {
		t.Errorf("BusinessName = %q, want Brew & Bloom", tr.BusinessName)
	}
	if tr.Quote.ID == "" || tr.Quote.Text == "" {
		t.Errorf("Transition quote not populated: %+v", tr.Quote)
	}
	if tr.ServicePreview != nil {
		t.Error("Provider preview belongs to the IMPLEMENTATION transition only")
	}

	stored, _ := repo.GetSession(context.Background(), "sess-1")
	if stored.Phase != domain.PhaseRoadmap || stored.Question.Tag() != "ROADMAP.01" || stored.AnsweredCount != 0 {
		t.Errorf("Persisted session %s %s count %d, want ROADMAP.01 / 0",
			stored.Phase, stored.Question.Tag(), stored.AnsweredCount)
	}
	if stored.LastQuoteID != tr.Quote.ID {
		t.Errorf("LastQuoteID = %s, want %s", stored.LastQuoteID, tr.Quote.ID)
	}
}

func TestSubmitRoadmapTransitionCarriesProviderPreview(t *testing.T) {
	svc, _, _ := newServiceFixture(t, func(s *domain.Session) {
		s.Phase = domain.PhaseRoadmap
		s.Question = domain.FirstQuestion(domain.PhaseRoadmap)
		s.BusinessContext[domain.SlotLocation] = "Austin, Texas"
	})

	res, err := svc.Submit(context.Background(), "sess-1", "ROADMAP.01",
		"First we incorporate, then we secure the lease, then we hire two baristas and open.")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	tr := res.Transition
	if tr == nil || tr.NextPhase != domain.PhaseImplementation {
		t.Fatalf("Expected transition into IMPLEMENTATION, got %+v", tr)
	}
	if len(tr.ServicePreview) < 3 {
		t.Errorf("Provider preview has %d entries, want at least 3", len(tr.ServicePreview))
	}
	foundLocal := false
	for _, p := range tr.ServicePreview {
		if p.Local && strings.Contains(p.Name, "Austin, Texas") {
			foundLocal = true
		}
	}
	if !foundLocal {
		t.Errorf("Preview missing a local provider for the resolved location: %+v", tr.ServicePreview)
	}
}

func TestSubmitFinalPhaseCompletesInterview(t *testing.T) {
	svc, repo, _ := newServiceFixture(t, func(s *domain.Session) {
		s.Phase = domain.PhaseImplementation
		s.Question = domain.QuestionRef{Phase: domain.PhaseImplementation, Index: 10}
		s.AnsweredCount = 9
	})

	res, err := svc.Submit(context.Background(), "sess-1", "IMPLEMENTATION.10",
		"Launch day is set for March with a soft opening the weekend before for friends and family.")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != StatusPhaseComplete {
		t.Fatalf("Status = %s, want phase_complete", res.Status)
	}
	if res.Transition == nil || !res.Transition.InterviewDone {
		t.Fatalf("Expected interview_done transition, got %+v", res.Transition)
	}
	if res.NextQuestion != "" {
		t.Errorf("Final transition should have no next question, got %s", res.NextQuestion)
	}

	stored, _ := repo.GetSession(context.Background(), "sess-1")
	if !stored.Completed {
		t.Error("Session should be marked completed")
	}
	if !stored.Consistent() {
		t.Error("Completed session should satisfy the consistency invariant")
	}

	_, err = svc.Submit(context.Background(), "sess-1", "IMPLEMENTATION.10", goodAnswer)
	if !errors.Is(err, ErrInterviewComplete) {
		t.Errorf("Submit after completion = %v, want ErrInterviewComplete", err)
	}
}

func TestServiceForceJumpThenSubmit(t *testing.T) {
	svc, repo, _ := newServiceFixture(t, nil)

	target := domain.QuestionRef{Phase: domain.PhasePlan, Index: 46}
	jumped, err := svc.ForceJump(context.Background(), "sess-1", target)
	if err != nil {
		t.Fatalf("ForceJump: %v", err)
	}
	if !jumped.JumpArmed || jumped.Question != target {
		t.Fatalf("Jumped session %+v", jumped)
	}

	// The bypass lets a claim that mismatches the pointer through once, and
	// the answer is credited to the pointer question.
	res, err := svc.Submit(context.Background(), "sess-1", "IDENTITY.01",
		"Our five year vision is a regional chain of three cafes with a wholesale roasting arm.")
	if err != nil {
		t.Fatalf("Submit after jump: %v", err)
	}
	if res.Status != StatusPhaseComplete {
		t.Errorf("Status = %s, want phase_complete for PLAN.46", res.Status)
	}

	stored, _ := repo.GetSession(context.Background(), "sess-1")
	if stored.JumpArmed {
		t.Error("Jump flag should be cleared after the bypassing submission")
	}
}

func TestServiceJumpConsumedByRejectedSubmission(t *testing.T) {
	svc, repo, _ := newServiceFixture(t, nil)

	if _, err := svc.ForceJump(context.Background(), "sess-1", domain.QuestionRef{Phase: domain.PhasePlan, Index: 10}); err != nil {
		t.Fatalf("ForceJump: %v", err)
	}

	res, err := svc.Submit(context.Background(), "sess-1", "PLAN.10", "Maybe, not sure at all honestly.")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != StatusRejected {
		t.Fatalf("Status = %s, want rejected", res.Status)
	}

	// The flag is spent even though the answer was rejected.
	stored, _ := repo.GetSession(context.Background(), "sess-1")
	if stored.JumpArmed {
		t.Error("Jump flag should be consumed by a rejected submission")
	}
	if stored.Question.Tag() != "PLAN.10" {
		t.Errorf("Pointer = %s, want PLAN.10", stored.Question.Tag())
	}
}

func TestResolveContextPersistsExtractedSlots(t *testing.T) {
	svc, repo, _ := newServiceFixture(t, nil)

	entries := []domain.HistoryEntry{
		{SessionID: "sess-1", Role: domain.RoleUser, Content: "Austin, Texas", QuestionTag: "IDENTITY.10"},
		{SessionID: "sess-1", Role: domain.RoleUser, Content: "specialty coffee", QuestionTag: "IDENTITY.12"},
	}
	for i := range entries {
		if err := repo.AppendHistory(context.Background(), &entries[i]); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	resolved, sources, updated, err := svc.ResolveContext(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ResolveContext: %v", err)
	}
	if !updated {
		t.Error("Expected extraction to persist new slot values")
	}
	if resolved[domain.SlotLocation] != "Austin, Texas" || resolved[domain.SlotIndustry] != "specialty coffee" {
		t.Errorf("Resolved = %v", resolved)
	}
	if resolved[domain.SlotBusinessName] != "your business" {
		t.Errorf("Unanswered slot should resolve to its default, got %q", resolved[domain.SlotBusinessName])
	}
	if sources[domain.SlotLocation] != SourceHistory || sources[domain.SlotBusinessName] != SourceDefault {
		t.Errorf("Sources = %v", sources)
	}

	stored, _ := repo.GetSession(context.Background(), "sess-1")
	if _, ok := stored.BusinessContext[domain.SlotBusinessName]; ok {
		t.Error("Default values must not be written into the session")
	}
	if stored.BusinessContext[domain.SlotLocation] != "Austin, Texas" {
		t.Errorf("Stored location = %q", stored.BusinessContext[domain.SlotLocation])
	}

	// Second resolve is a no-op.
	_, _, updated, err = svc.ResolveContext(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ResolveContext: %v", err)
	}
	if updated {
		t.Error("Second resolve should not report changes")
	}
}

func TestSubmitConcurrentSameSessionSerialized(t *testing.T) {
	svc, repo, _ := newServiceFixture(t, nil)

	var wg sync.WaitGroup
	outcomes := make([]error, 8)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), "sess-1", "IDENTITY.01", goodAnswer)
			outcomes[i] = err
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range outcomes {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrOutOfSequence):
		default:
			t.Errorf("Unexpected outcome: %v", err)
		}
	}
	if accepted != 1 {
		t.Errorf("Exactly one racing submission should win, got %d", accepted)
	}

	stored, _ := repo.GetSession(context.Background(), "sess-1")
	if stored.Question.Tag() != "IDENTITY.02" || stored.AnsweredCount != 1 {
		t.Errorf("Pointer after race = %s / %d, want IDENTITY.02 / 1", stored.Question.Tag(), stored.AnsweredCount)
	}
}
