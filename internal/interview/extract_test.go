package interview

import (
	"testing"

	"github.com/founderport/angel/internal/domain"
)

func userEntry(tag, content string) domain.HistoryEntry {
	return domain.HistoryEntry{Role: domain.RoleUser, Content: content, QuestionTag: tag}
}

func TestExtractContext(t *testing.T) {
	tests := []struct {
		name    string
		history []domain.HistoryEntry
		stored  map[string]string
		want    map[string]string
	}{
		{
			name:    "all defaults when nothing is known",
			history: nil,
			stored:  nil,
			want: map[string]string{
				domain.SlotBusinessName: "your business",
				domain.SlotIndustry:     "general business",
				domain.SlotLocation:     "United States",
				domain.SlotBusinessType: "startup",
			},
		},
		{
			name: "history answers win over stored values",
			history: []domain.HistoryEntry{
				userEntry("IDENTITY.10", "Austin, Texas"),
				userEntry("PLAN.01", "Brew & Bloom"),
			},
			stored: map[string]string{
				domain.SlotLocation:     "Seattle",
				domain.SlotBusinessType: "LLC",
			},
			want: map[string]string{
				domain.SlotBusinessName: "Brew & Bloom",
				domain.SlotIndustry:     "general business",
				domain.SlotLocation:     "Austin, Texas",
				domain.SlotBusinessType: "LLC",
			},
		},
		{
			name: "latest re-answer supersedes earlier ones",
			history: []domain.HistoryEntry{
				userEntry("IDENTITY.12", "food trucks"),
				userEntry("IDENTITY.12", "specialty coffee"),
			},
			want: map[string]string{
				domain.SlotBusinessName: "your business",
				domain.SlotIndustry:     "specialty coffee",
				domain.SlotLocation:     "United States",
				domain.SlotBusinessType: "startup",
			},
		},
		{
			name: "blank history answers fall through to stored",
			history: []domain.HistoryEntry{
				userEntry("IDENTITY.10", "   "),
			},
			stored: map[string]string{domain.SlotLocation: "Denver"},
			want: map[string]string{
				domain.SlotBusinessName: "your business",
				domain.SlotIndustry:     "general business",
				domain.SlotLocation:     "Denver",
				domain.SlotBusinessType: "startup",
			},
		},
		{
			name: "assistant messages never feed slots",
			history: []domain.HistoryEntry{
				{Role: domain.RoleAssistant, Content: "Gotham", QuestionTag: "IDENTITY.10"},
			},
			want: map[string]string{
				domain.SlotBusinessName: "your business",
				domain.SlotIndustry:     "general business",
				domain.SlotLocation:     "United States",
				domain.SlotBusinessType: "startup",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractContext(tt.history, tt.stored)
			for slot, want := range tt.want {
				if got[slot] != want {
					t.Errorf("slot %s = %q, want %q", slot, got[slot], want)
				}
			}
			if len(got) != len(domain.ContextSlots) {
				t.Errorf("Expected an entry for every slot, got %d", len(got))
			}
		})
	}
}

func TestExtractContextSources(t *testing.T) {
	history := []domain.HistoryEntry{userEntry("IDENTITY.10", "Austin, Texas")}
	stored := map[string]string{domain.SlotIndustry: "specialty coffee"}

	resolved, sources := ExtractContextSources(history, stored)

	if sources[domain.SlotLocation] != SourceHistory {
		t.Errorf("location source = %q, want history", sources[domain.SlotLocation])
	}
	if sources[domain.SlotIndustry] != SourceStored {
		t.Errorf("industry source = %q, want stored", sources[domain.SlotIndustry])
	}
	if sources[domain.SlotBusinessName] != SourceDefault || sources[domain.SlotBusinessType] != SourceDefault {
		t.Errorf("sources = %v", sources)
	}
	if resolved[domain.SlotLocation] != "Austin, Texas" || resolved[domain.SlotIndustry] != "specialty coffee" {
		t.Errorf("resolved = %v", resolved)
	}
}

func TestMergeContext(t *testing.T) {
	t.Run("defaults are never persisted", func(t *testing.T) {
		s := newTestSession()
		changed := MergeContext(s, ExtractContext(nil, nil))
		if changed {
			t.Error("All-default extraction should not mutate the session")
		}
		if len(s.BusinessContext) != 0 {
			t.Errorf("BusinessContext = %v, want empty", s.BusinessContext)
		}
	})

	t.Run("stored value survives later default extraction", func(t *testing.T) {
		s := newTestSession()
		s.BusinessContext[domain.SlotLocation] = "Austin, Texas"

		// A later extraction with no location answer resolves the slot from
		// stored state, so the merge sees a non-default candidate.
		resolved := ExtractContext(nil, s.BusinessContext)
		if resolved[domain.SlotLocation] != "Austin, Texas" {
			t.Fatalf("resolved location = %q", resolved[domain.SlotLocation])
		}
		if MergeContext(s, resolved) {
			t.Error("Re-merging the same value should report no change")
		}
		if s.BusinessContext[domain.SlotLocation] != "Austin, Texas" {
			t.Errorf("Stored location clobbered: %q", s.BusinessContext[domain.SlotLocation])
		}
	})

	t.Run("fresh history value replaces stale stored value", func(t *testing.T) {
		s := newTestSession()
		s.BusinessContext[domain.SlotBusinessName] = "Old Name Co"

		history := []domain.HistoryEntry{userEntry("PLAN.01", "New Name Co")}
		if !MergeContext(s, ExtractContext(history, s.BusinessContext)) {
			t.Error("Expected merge to report a change")
		}
		if got := s.BusinessContext[domain.SlotBusinessName]; got != "New Name Co" {
			t.Errorf("business_name = %q, want %q", got, "New Name Co")
		}
	})

	t.Run("nil context map initialized on demand", func(t *testing.T) {
		s := newTestSession()
		s.BusinessContext = nil
		history := []domain.HistoryEntry{userEntry("IDENTITY.08", "bakery")}
		if !MergeContext(s, ExtractContext(history, nil)) {
			t.Error("Expected merge to report a change")
		}
		if s.BusinessContext[domain.SlotBusinessType] != "bakery" {
			t.Errorf("business_type = %q, want bakery", s.BusinessContext[domain.SlotBusinessType])
		}
	})
}
