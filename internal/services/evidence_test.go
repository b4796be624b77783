package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/platform/openai"
)

func policyWith(enabled, verified []string, strict bool) FilterPolicy {
	p := FilterPolicy{
		EnabledRefs:        map[string]struct{}{},
		VerifiedRefs:       map[string]struct{}{},
		HasRegistryRows:    true,
		StrictVerifiedOnly: strict,
	}
	for _, ref := range enabled {
		p.EnabledRefs[NormalizeRef(ref)] = struct{}{}
	}
	for _, ref := range verified {
		p.VerifiedRefs[NormalizeRef(ref)] = struct{}{}
	}
	return p
}

func TestAssembleEmptyQueryMakesNoCall(t *testing.T) {
	svc := NewEvidenceService(&fakeAI{}, "vs_123", newTestLogger())
	bundle, err := svc.Assemble(context.Background(), "   ", policyWith(nil, nil, false))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if bundle.ContextText != "" || len(bundle.Evidence.Sources) != 0 {
		t.Fatalf("expected empty bundle, got %+v", bundle)
	}
}

func TestAssembleFiltersDisabledAndCountsThem(t *testing.T) {
	ai := &fakeAI{
		searchVector: func(ctx context.Context, storeID, query string, max int) (*openai.VectorSearchResults, error) {
			return &openai.VectorSearchResults{Results: []openai.SearchResult{
				{FileID: "file-a", Filename: "anatomy.pdf", Score: 0.9, Content: "heart"},
				{FileID: "file-b", Filename: "banned.pdf", Score: 0.8, Content: "nope"},
			}}, nil
		},
	}
	svc := NewEvidenceService(ai, "vs_123", newTestLogger())
	bundle, err := svc.Assemble(context.Background(), "heart", policyWith([]string{"file-a"}, nil, false))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(bundle.Evidence.Sources) != 1 || bundle.Evidence.Sources[0].FileID != "file-a" {
		t.Fatalf("wrong sources: %+v", bundle.Evidence.Sources)
	}
	if bundle.Evidence.SourceFilter.FilteredOutDisabled != 1 {
		t.Fatalf("filtered_out_disabled = %d, want 1", bundle.Evidence.SourceFilter.FilteredOutDisabled)
	}
}

func TestAssembleMatchesByFilenameToo(t *testing.T) {
	ai := &fakeAI{
		searchVector: func(ctx context.Context, storeID, query string, max int) (*openai.VectorSearchResults, error) {
			return &openai.VectorSearchResults{Results: []openai.SearchResult{
				{FileID: "file-x", Filename: "Anatomy.PDF", Score: 0.9, Content: "heart"},
			}}, nil
		},
	}
	svc := NewEvidenceService(ai, "vs_123", newTestLogger())
	bundle, err := svc.Assemble(context.Background(), "heart", policyWith([]string{" anatomy.pdf "}, nil, false))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(bundle.Evidence.Sources) != 1 {
		t.Fatalf("filename match failed: %+v", bundle.Evidence)
	}
}

func TestAssembleStrictDropsUnverified(t *testing.T) {
	ai := &fakeAI{
		searchVector: func(ctx context.Context, storeID, query string, max int) (*openai.VectorSearchResults, error) {
			return &openai.VectorSearchResults{Results: []openai.SearchResult{
				{FileID: "file-a", Filename: "a.pdf", Score: 0.9, Content: "one"},
				{FileID: "file-b", Filename: "b.pdf", Score: 0.8, Content: "two"},
			}}, nil
		},
	}
	svc := NewEvidenceService(ai, "vs_123", newTestLogger())
	policy := policyWith([]string{"file-a", "file-b"}, []string{"file-b"}, true)
	bundle, err := svc.Assemble(context.Background(), "q", policy)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(bundle.Evidence.Sources) != 1 || bundle.Evidence.Sources[0].FileID != "file-b" {
		t.Fatalf("strict filtering wrong: %+v", bundle.Evidence.Sources)
	}
	if bundle.Evidence.SourceFilter.FilteredOutUnverified != 1 {
		t.Fatalf("filtered_out_unverified = %d, want 1", bundle.Evidence.SourceFilter.FilteredOutUnverified)
	}
}

func TestAssembleVerifiedRerankIsStable(t *testing.T) {
	ai := &fakeAI{
		searchVector: func(ctx context.Context, storeID, query string, max int) (*openai.VectorSearchResults, error) {
			return &openai.VectorSearchResults{Results: []openai.SearchResult{
				{FileID: "file-a", Filename: "a.pdf", Score: 0.9, Content: "one"},
				{FileID: "file-b", Filename: "b.pdf", Score: 0.8, Content: "two"},
				{FileID: "file-c", Filename: "c.pdf", Score: 0.7, Content: "three"},
			}}, nil
		},
	}
	svc := NewEvidenceService(ai, "vs_123", newTestLogger())
	policy := policyWith([]string{"file-a", "file-b", "file-c"}, []string{"file-c"}, false)
	bundle, err := svc.Assemble(context.Background(), "q", policy)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	got := []string{}
	for _, s := range bundle.Evidence.Sources {
		got = append(got, s.FileID)
	}
	want := []string{"file-c", "file-a", "file-b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("re-rank order = %v, want %v", got, want)
		}
	}
	if !bundle.Evidence.Sources[0].VerifiedMatch || bundle.Evidence.Sources[1].VerifiedMatch {
		t.Fatalf("verified tagging wrong: %+v", bundle.Evidence.Sources)
	}
}

func TestAssembleCapsResultsAndSnippets(t *testing.T) {
	long := strings.Repeat("x", 2000)
	ai := &fakeAI{
		searchVector: func(ctx context.Context, storeID, query string, max int) (*openai.VectorSearchResults, error) {
			var hits []openai.SearchResult
			for i := 0; i < 10; i++ {
				hits = append(hits, openai.SearchResult{
					FileID:   "file-" + string(rune('a'+i)),
					Filename: "f.pdf",
					Content:  long,
				})
			}
			return &openai.VectorSearchResults{Results: hits}, nil
		},
	}
	svc := NewEvidenceService(ai, "vs_123", newTestLogger())
	bundle, err := svc.Assemble(context.Background(), "q", FilterPolicy{HasRegistryRows: false})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(bundle.Evidence.Sources) != evidenceMaxResults {
		t.Fatalf("got %d sources, want %d", len(bundle.Evidence.Sources), evidenceMaxResults)
	}
	snippet := bundle.Evidence.Sources[0].Snippet
	if len(snippet) != evidenceMaxCharsPerHit+3 || !strings.HasSuffix(snippet, "...") {
		t.Fatalf("snippet not truncated: len=%d", len(snippet))
	}
	if !strings.HasPrefix(bundle.ContextText, "Knowledge base sources:") {
		t.Fatalf("missing banner: %q", bundle.ContextText[:40])
	}
	if !strings.Contains(bundle.ContextText, "[1] f.pdf\n") {
		t.Fatal("missing numbered source block")
	}
}

func TestAssembleSkipsEmptySnippets(t *testing.T) {
	ai := &fakeAI{
		searchVector: func(ctx context.Context, storeID, query string, max int) (*openai.VectorSearchResults, error) {
			return &openai.VectorSearchResults{Results: []openai.SearchResult{
				{FileID: "file-a", Filename: "blank.pdf", Score: 0.9, Content: "   \n\t"},
				{FileID: "file-b", Filename: "real.pdf", Score: 0.8, Content: "substance"},
			}}, nil
		},
	}
	svc := NewEvidenceService(ai, "vs_123", newTestLogger())
	bundle, err := svc.Assemble(context.Background(), "q", FilterPolicy{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(bundle.Evidence.Sources) != 1 || bundle.Evidence.Sources[0].FileID != "file-b" {
		t.Fatalf("whitespace-only hit kept: %+v", bundle.Evidence.Sources)
	}
	if strings.Contains(bundle.ContextText, "blank.pdf") {
		t.Fatalf("empty block rendered: %q", bundle.ContextText)
	}
	if bundle.Evidence.SourceFilter.FilteredOutDisabled != 0 {
		t.Fatalf("empty hit counted against the registry filter: %+v", bundle.Evidence.SourceFilter)
	}
}

func TestAssembleTruncatesOnRunes(t *testing.T) {
	ai := &fakeAI{
		searchVector: func(ctx context.Context, storeID, query string, max int) (*openai.VectorSearchResults, error) {
			return &openai.VectorSearchResults{Results: []openai.SearchResult{
				{FileID: "file-a", Filename: "cjk.pdf", Score: 0.9, Content: strings.Repeat("中", 1300)},
			}}, nil
		},
	}
	svc := NewEvidenceService(ai, "vs_123", newTestLogger())
	bundle, err := svc.Assemble(context.Background(), "q", FilterPolicy{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	snippet := bundle.Evidence.Sources[0].Snippet
	if !utf8.ValidString(snippet) {
		t.Fatal("truncation produced invalid UTF-8")
	}
	if got := len([]rune(snippet)); got != evidenceMaxCharsPerHit+3 {
		t.Fatalf("snippet is %d runes, want %d", got, evidenceMaxCharsPerHit+3)
	}
	if !strings.HasSuffix(snippet, "...") {
		t.Fatalf("missing ellipsis: %q", snippet[len(snippet)-12:])
	}
}

func TestAssembleCarriesEchoedSearchQuery(t *testing.T) {
	echo := ""
	ai := &fakeAI{
		searchVector: func(ctx context.Context, storeID, query string, max int) (*openai.VectorSearchResults, error) {
			return &openai.VectorSearchResults{
				SearchQuery: echo,
				Results: []openai.SearchResult{
					{FileID: "file-a", Filename: "a.pdf", Score: 0.9, Content: "one"},
				},
			}, nil
		},
	}
	svc := NewEvidenceService(ai, "vs_123", newTestLogger())

	bundle, err := svc.Assemble(context.Background(), "what is the heart", FilterPolicy{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if bundle.Evidence.SearchQuery != "what is the heart" {
		t.Fatalf("no echo should fall back to the submitted query, got %q", bundle.Evidence.SearchQuery)
	}

	echo = "heart anatomy overview"
	bundle, err = svc.Assemble(context.Background(), "what is the heart", FilterPolicy{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if bundle.Evidence.SearchQuery != "heart anatomy overview" {
		t.Fatalf("echoed query lost, got %q", bundle.Evidence.SearchQuery)
	}
	if bundle.Evidence.Query != "what is the heart" {
		t.Fatalf("submitted query overwritten: %q", bundle.Evidence.Query)
	}
}

func TestAssembleProviderFailureIsDependencyError(t *testing.T) {
	ai := &fakeAI{
		searchVector: func(ctx context.Context, storeID, query string, max int) (*openai.VectorSearchResults, error) {
			return nil, errors.New("boom")
		},
	}
	svc := NewEvidenceService(ai, "vs_123", newTestLogger())
	_, err := svc.Assemble(context.Background(), "q", FilterPolicy{})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeDependency {
		t.Fatalf("want %s, got %v", apierr.CodeDependency, err)
	}
}
