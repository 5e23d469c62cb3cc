// Package export pushes confirmed matches out to downstream sinks: a Notion
// tracking database and the Salesforce CRM. Sinks are idempotent; a match
// already present downstream is skipped, so the export job can rerun freely.
package export

import (
	"context"

	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/internal/store"
)

// Store is the subset of store operations the exporter needs.
type Store interface {
	ListMatches(ctx context.Context, filter store.MatchFilter) ([]model.Match, error)
	GetOpportunityByID(ctx context.Context, id string) (*model.Opportunity, error)
	GetGovWinOpportunity(ctx context.Context, id string) (*model.GovWinOpportunity, error)
}

// Record is a confirmed match joined with both source records, ready for a
// sink to serialize.
type Record struct {
	Match  model.Match
	SAM    *model.Opportunity
	GovWin *model.GovWinOpportunity
}

// Sink delivers one record to a downstream system. Created is false when the
// record was already present and nothing was written.
type Sink interface {
	Name() string
	Export(ctx context.Context, rec Record) (created bool, err error)
}

// Result summarizes one export run.
type Result struct {
	Matches int
	Created map[string]int
	Skipped map[string]int
	Errors  int
}

// Exporter joins confirmed matches with their source records and fans them
// out to every configured sink.
type Exporter struct {
	store Store
	sinks []Sink
	limit int
}

// New creates an Exporter over the given sinks.
func New(s Store, limit int, sinks ...Sink) *Exporter {
	if limit <= 0 {
		limit = 200
	}
	return &Exporter{store: s, sinks: sinks, limit: limit}
}

// Run exports all confirmed matches. Sink failures are counted and logged
// per-record; one bad record never aborts the run.
func (e *Exporter) Run(ctx context.Context) (*Result, error) {
	matches, err := e.store.ListMatches(ctx, store.MatchFilter{
		Status: model.MatchStatusConfirmed,
		Limit:  e.limit,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Matches: len(matches),
		Created: map[string]int{},
		Skipped: map[string]int{},
	}

	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		rec, err := e.load(ctx, m)
		if err != nil {
			zap.L().Error("export: load match records",
				zap.String("match_id", m.ID),
				zap.Error(err),
			)
			res.Errors++
			continue
		}

		for _, sink := range e.sinks {
			created, err := sink.Export(ctx, rec)
			if err != nil {
				zap.L().Error("export: sink failed",
					zap.String("sink", sink.Name()),
					zap.String("match_id", m.ID),
					zap.Error(err),
				)
				res.Errors++
				continue
			}
			if created {
				res.Created[sink.Name()]++
			} else {
				res.Skipped[sink.Name()]++
			}
		}
	}

	zap.L().Info("export: run complete",
		zap.Int("matches", res.Matches),
		zap.Any("created", res.Created),
		zap.Any("skipped", res.Skipped),
		zap.Int("errors", res.Errors),
	)
	return res, nil
}

func (e *Exporter) load(ctx context.Context, m model.Match) (Record, error) {
	rec := Record{Match: m}

	sam, err := e.store.GetOpportunityByID(ctx, m.SAMOpportunityID)
	if err != nil {
		return rec, err
	}
	rec.SAM = sam

	gw, err := e.store.GetGovWinOpportunity(ctx, m.GovWinOpportunityID)
	if err != nil {
		return rec, err
	}
	rec.GovWin = gw

	return rec, nil
}
