package matcher

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/config"
	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/pkg/anthropic"
	"github.com/Bemerick/AI-SAM-Research/pkg/govwin"
)

// Store is the full store surface the matching run needs.
type Store interface {
	RecorderStore
	ListMatchCandidates(ctx context.Context, minFitScore float64, limit int) ([]model.Opportunity, error)
}

// Result summarizes one matching run.
type Result struct {
	Processed        int `json:"processed"`
	Searched         int `json:"candidates_found"`
	Admitted         int `json:"admitted"`
	MatchesRecorded  int `json:"matches_recorded"`
	MatchesExisting  int `json:"matches_existing"`
	OpportunitySkips int `json:"skipped"`

	// NewMatches holds the matches recorded this run, for notification.
	NewMatches []NewMatch `json:"-"`
}

// NewMatch pairs a freshly recorded match with its source opportunity and
// the external GovWin identifier of the counterpart.
type NewMatch struct {
	Match       model.Match
	Opportunity model.Opportunity
	GovWinID    string
}

// Matcher runs the full pipeline for a batch of high-scoring opportunities:
// candidate search, pre-filter, model evaluation, recording. Opportunities
// are processed strictly one at a time; a failure on one is contained and
// the run continues.
type Matcher struct {
	store     Store
	searcher  *Searcher
	evaluator *Evaluator
	recorder  *Recorder
	client    govwin.Client
	cfg       config.MatcherConfig
}

// New wires the matching pipeline.
func New(s Store, gw govwin.Client, oracle anthropic.Client, cfg config.MatcherConfig, oracleModel string, maxTokens int64) *Matcher {
	return &Matcher{
		store:    s,
		searcher: NewSearcher(gw, cfg.MaxCandidates),
		evaluator: NewEvaluator(oracle, EvaluatorConfig{
			Model:            oracleModel,
			MaxTokens:        maxTokens,
			ConfidenceFloor:  cfg.ConfidenceFloor,
			LikelyThreshold:  cfg.LikelyThreshold,
			ConfirmThreshold: cfg.ConfirmThreshold,
		}),
		recorder: NewRecorder(s, gw),
		client:   gw,
		cfg:      cfg,
	}
}

// Run matches the current batch of scored opportunities against GovWin.
func (m *Matcher) Run(ctx context.Context) (*Result, error) {
	opps, err := m.store.ListMatchCandidates(ctx, m.cfg.MinFitScore, m.cfg.BatchLimit)
	if err != nil {
		return nil, eris.Wrap(err, "matcher: load batch")
	}
	zap.L().Info("matching batch loaded",
		zap.Int("opportunities", len(opps)),
		zap.Float64("min_fit_score", m.cfg.MinFitScore))

	res := &Result{}
	for i := range opps {
		select {
		case <-ctx.Done():
			return res, eris.Wrap(ctx.Err(), "matcher: run cancelled")
		default:
		}

		if err := m.processOne(ctx, &opps[i], res); err != nil {
			zap.L().Error("opportunity matching failed",
				zap.String("notice_id", opps[i].NoticeID), zap.Error(err))
			res.OpportunitySkips++
		}
		res.Processed++
	}
	return res, nil
}

func (m *Matcher) processOne(ctx context.Context, opp *model.Opportunity, res *Result) error {
	searchCtx, cancel := context.WithTimeout(ctx, m.searchTimeout())
	candidates, strategy := m.searcher.Search(searchCtx, opp)
	cancel()
	if len(candidates) == 0 {
		return nil
	}
	res.Searched += len(candidates)

	pfCfg := PrefilterConfig{
		AdmitThreshold:      m.cfg.AdmitThreshold,
		SimilarityThreshold: m.cfg.SimilarityThreshold,
	}

	var admitted []govwin.Record
	for _, cand := range candidates {
		pf := Prefilter(opp, cand.Title, pfCfg)
		if !pf.Pass {
			zap.L().Debug("candidate rejected by pre-filter",
				zap.String("notice_id", opp.NoticeID),
				zap.String("govwin_id", cand.GovWinID()),
				zap.Int("score", pf.Score))
			continue
		}
		zap.L().Info("candidate admitted",
			zap.String("notice_id", opp.NoticeID),
			zap.String("govwin_id", cand.GovWinID()),
			zap.Int("score", pf.Score),
			zap.Strings("reasons", pf.Reasons))

		// Full details carry the description the evaluator needs.
		detailCtx, cancel := context.WithTimeout(ctx, m.searchTimeout())
		full, err := m.client.GetOpportunity(detailCtx, cand.GovWinID())
		cancel()
		if err != nil {
			zap.L().Warn("detail fetch failed, using search result",
				zap.String("govwin_id", cand.GovWinID()), zap.Error(err))
			admitted = append(admitted, cand)
			continue
		}
		admitted = append(admitted, *full)
	}
	if len(admitted) == 0 {
		return nil
	}
	res.Admitted += len(admitted)

	oracleCtx, cancel := context.WithTimeout(ctx, m.oracleTimeout())
	verdicts := m.evaluator.Evaluate(oracleCtx, opp, admitted)
	cancel()

	byID := map[string]govwin.Record{}
	for _, c := range admitted {
		byID[c.GovWinID()] = c
	}

	for _, v := range verdicts {
		cand, ok := byID[v.GovWinID]
		if !ok {
			zap.L().Warn("verdict references unknown candidate",
				zap.String("notice_id", opp.NoticeID),
				zap.String("govwin_id", v.GovWinID))
			continue
		}
		match, created, err := m.recorder.Record(ctx, opp, cand, v, strategy)
		if err != nil {
			zap.L().Error("match recording failed",
				zap.String("notice_id", opp.NoticeID),
				zap.String("govwin_id", v.GovWinID), zap.Error(err))
			continue
		}
		if created {
			res.MatchesRecorded++
			res.NewMatches = append(res.NewMatches, NewMatch{
				Match:       *match,
				Opportunity: *opp,
				GovWinID:    cand.GovWinID(),
			})
		} else {
			res.MatchesExisting++
		}
	}
	return nil
}

func (m *Matcher) searchTimeout() time.Duration {
	if m.cfg.SearchTimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(m.cfg.SearchTimeoutSecs) * time.Second
}

func (m *Matcher) oracleTimeout() time.Duration {
	if m.cfg.OracleTimeoutSecs <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(m.cfg.OracleTimeoutSecs) * time.Second
}
