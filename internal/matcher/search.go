package matcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/pkg/govwin"
)

// Search strategy names recorded on matches.
const (
	StrategyTitleKeywords      = "title_keywords"
	StrategyAgencyName         = "agency_name"
	StrategySolicitationNumber = "solicitation_number"
)

// Searcher issues candidate queries against GovWin for one source
// opportunity at a time.
type Searcher struct {
	client        govwin.Client
	maxCandidates int
}

// NewSearcher creates a candidate searcher.
func NewSearcher(client govwin.Client, maxCandidates int) *Searcher {
	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	return &Searcher{client: client, maxCandidates: maxCandidates}
}

// Search runs the query strategies in order and stops at the first one that
// yields candidates. Results are deduplicated by GovWin id. A failing query
// is logged and the next strategy is tried; total failure returns an empty
// list, never an error.
func (s *Searcher) Search(ctx context.Context, opp *model.Opportunity) ([]govwin.Record, string) {
	type strategy struct {
		name  string
		query string
	}
	strategies := []strategy{
		{StrategyTitleKeywords, ExtractKeywords(opp.Title)},
		{StrategyAgencyName, StripAgencyBoilerplate(opp.Department)},
		{StrategySolicitationNumber, opp.SolicitationNumber},
	}

	for _, st := range strategies {
		if st.query == "" {
			continue
		}

		results, err := s.client.Search(ctx, st.query, s.maxCandidates)
		if err != nil {
			zap.L().Warn("candidate search failed",
				zap.String("notice_id", opp.NoticeID),
				zap.String("strategy", st.name),
				zap.Error(err))
			continue
		}
		if len(results) == 0 {
			continue
		}

		deduped := dedupeByID(results)
		zap.L().Info("candidate search hit",
			zap.String("notice_id", opp.NoticeID),
			zap.String("strategy", st.name),
			zap.Int("candidates", len(deduped)))
		return deduped, st.name
	}
	return nil, ""
}

func dedupeByID(recs []govwin.Record) []govwin.Record {
	seen := map[string]bool{}
	out := recs[:0:0]
	for _, r := range recs {
		id := r.GovWinID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, r)
	}
	return out
}
