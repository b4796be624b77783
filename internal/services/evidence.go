package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/platform/openai"
	"github.com/yungbote/studybridge-backend/internal/types"
)

const (
	evidenceMaxResults     = 6
	evidenceMaxCharsPerHit = 1200
	// Fetch more hits than we keep so registry filtering does not starve
	// the context.
	evidenceFetchSize = 12
)

// EvidenceBundle is one assembled retrieval pass: the prompt context block
// and the audit record persisted with the assistant message.
type EvidenceBundle struct {
	ContextText string
	Evidence    types.Evidence
}

type EvidenceService interface {
	Assemble(ctx context.Context, query string, policy FilterPolicy) (*EvidenceBundle, error)
}

type evidenceService struct {
	ai            openai.Client
	vectorStoreID string
	log           *logger.Logger
}

func NewEvidenceService(ai openai.Client, vectorStoreID string, log *logger.Logger) EvidenceService {
	return &evidenceService{
		ai:            ai,
		vectorStoreID: vectorStoreID,
		log:           log.With("service", "evidence"),
	}
}

func (s *evidenceService) Assemble(ctx context.Context, query string, policy FilterPolicy) (*EvidenceBundle, error) {
	query = strings.TrimSpace(query)
	bundle := &EvidenceBundle{
		Evidence: types.Evidence{
			VectorStoreID: s.vectorStoreID,
			Query:         query,
			SearchQuery:   query,
			Sources:       []types.EvidenceSource{},
			SourceFilter: types.SourceFilter{
				RegistryEnforced:   policy.HasRegistryRows,
				StrictVerifiedOnly: policy.StrictVerifiedOnly,
			},
		},
	}
	if query == "" || s.vectorStoreID == "" {
		return bundle, nil
	}

	res, err := s.ai.SearchVectorStore(ctx, s.vectorStoreID, query, evidenceFetchSize)
	if err != nil {
		return nil, apierr.Dependency("vector search failed: %v", err)
	}
	if res.SearchQuery != "" {
		bundle.Evidence.SearchQuery = res.SearchQuery
	}

	type rankedHit struct {
		hit      openai.SearchResult
		snippet  string
		verified bool
		index    int
	}
	var kept []rankedHit
	for i, hit := range res.Results {
		snippet := strings.TrimSpace(hit.Content)
		if snippet == "" {
			continue
		}
		enabled := policy.Enabled(hit.FileID) || policy.Enabled(hit.Filename)
		if !enabled {
			bundle.Evidence.SourceFilter.FilteredOutDisabled++
			continue
		}
		verified := policy.Verified(hit.FileID) || policy.Verified(hit.Filename)
		if policy.StrictVerifiedOnly && !verified {
			bundle.Evidence.SourceFilter.FilteredOutUnverified++
			continue
		}
		kept = append(kept, rankedHit{hit: hit, snippet: snippet, verified: verified, index: i})
	}

	// With verified sources in the registry and strict mode off, verified
	// matches float to the front; provider order breaks ties.
	if policy.HasVerified() && !policy.StrictVerifiedOnly {
		sort.SliceStable(kept, func(a, b int) bool {
			if kept[a].verified != kept[b].verified {
				return kept[a].verified
			}
			return kept[a].index < kept[b].index
		})
	}
	if len(kept) > evidenceMaxResults {
		kept = kept[:evidenceMaxResults]
	}

	var blocks []string
	for i, rh := range kept {
		snippet := rh.snippet
		if clipped, ok := truncateRunes(snippet, evidenceMaxCharsPerHit); ok {
			snippet = clipped + "..."
		}
		bundle.Evidence.Sources = append(bundle.Evidence.Sources, types.EvidenceSource{
			FileID:        rh.hit.FileID,
			Filename:      rh.hit.Filename,
			Score:         rh.hit.Score,
			Snippet:       snippet,
			VerifiedMatch: rh.verified,
		})
		blocks = append(blocks, fmt.Sprintf("[%d] %s\n%s", i+1, rh.hit.Filename, snippet))
	}
	if len(blocks) > 0 {
		bundle.ContextText = "Knowledge base sources:\n\n" + strings.Join(blocks, "\n\n")
	}
	return bundle, nil
}

// truncateRunes caps s at max runes, so multibyte text never gets split
// mid-rune. The clipped prefix loses trailing whitespace so an appended
// ellipsis never follows a space. Reports whether anything was cut.
func truncateRunes(s string, max int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= max {
		return s, false
	}
	return strings.TrimRight(string(runes[:max]), " \t\r\n"), true
}
