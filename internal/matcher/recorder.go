package matcher

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/pkg/govwin"
)

// RecorderStore is the store surface match recording needs.
type RecorderStore interface {
	EnsureGovWinOpportunity(ctx context.Context, opp *model.GovWinOpportunity) (*model.GovWinOpportunity, bool, error)
	CreateContract(ctx context.Context, c *model.Contract) (bool, error)
	RecordMatch(ctx context.Context, m *model.Match) (*model.Match, bool, error)
}

// Recorder persists accepted verdicts: the GovWin counterpart record, its
// contracts, and the match row itself.
type Recorder struct {
	store  RecorderStore
	client govwin.Client
}

// NewRecorder creates a Recorder.
func NewRecorder(s RecorderStore, client govwin.Client) *Recorder {
	return &Recorder{store: s, client: client}
}

// Record stores one accepted verdict for an opportunity. The GovWin record
// is created if absent, contracts are fetched best-effort, and the match row
// is written idempotently; recording the same pair twice changes nothing.
func (r *Recorder) Record(ctx context.Context, opp *model.Opportunity, cand govwin.Record, v Verdict, strategy string) (*model.Match, bool, error) {
	gw, gwCreated, err := r.store.EnsureGovWinOpportunity(ctx, &model.GovWinOpportunity{
		GovWinID: cand.GovWinID(),
		Title:    cand.Title,
		RawData:  cand.RawJSON,
	})
	if err != nil {
		return nil, false, eris.Wrap(err, "matcher: ensure govwin record")
	}

	// Contracts enrich the record but are not worth failing the match over.
	r.fetchContracts(ctx, cand.GovWinID(), gw.ID)

	match := &model.Match{
		SAMOpportunityID:    opp.ID,
		GovWinOpportunityID: gw.ID,
		SearchStrategy:      strategy,
		MatchType:           v.MatchType,
		AIMatchScore:        v.Confidence,
		AIReasoning:         v.Reasoning,
		Status:              v.Status,
	}
	stored, created, err := r.store.RecordMatch(ctx, match)
	if err != nil {
		return nil, false, eris.Wrap(err, "matcher: record match")
	}

	zap.L().Info("match recorded",
		zap.String("notice_id", opp.NoticeID),
		zap.String("govwin_id", cand.GovWinID()),
		zap.Float64("confidence", v.Confidence),
		zap.String("status", string(stored.Status)),
		zap.Bool("new_match", created),
		zap.Bool("new_govwin_record", gwCreated))
	return stored, created, nil
}

func (r *Recorder) fetchContracts(ctx context.Context, govwinID, govwinRowID string) {
	contracts, err := r.client.GetContracts(ctx, govwinID)
	if err != nil {
		zap.L().Warn("contract fetch failed",
			zap.String("govwin_id", govwinID), zap.Error(err))
		return
	}

	created := 0
	for _, c := range contracts {
		rec := toContract(c, govwinRowID)
		if rec.ContractID == "" && rec.ContractNumber == "" {
			zap.L().Warn("contract missing identifiers, skipped",
				zap.String("govwin_id", govwinID), zap.String("title", rec.Title))
			continue
		}
		ok, err := r.store.CreateContract(ctx, rec)
		if err != nil {
			zap.L().Warn("contract store failed",
				zap.String("govwin_id", govwinID),
				zap.String("contract_id", rec.ContractID), zap.Error(err))
			continue
		}
		if ok {
			created++
		}
	}
	if len(contracts) > 0 {
		zap.L().Info("contracts stored",
			zap.String("govwin_id", govwinID),
			zap.Int("fetched", len(contracts)),
			zap.Int("created", created))
	}
}

func toContract(c govwin.ContractRecord, govwinRowID string) *model.Contract {
	rec := &model.Contract{
		GovWinOpportunityID: govwinRowID,
		ContractID:          c.ID.String(),
		ContractNumber:      c.ContractNumber,
		Title:               c.Title,
		ContractValue:       c.EstimatedValue,
		AwardDate:           c.AwardDate,
		StartDate:           c.StartDate,
		EndDate:             c.ExpirationDate,
		RawData:             c.RawJSON,
	}
	if c.Company != nil {
		rec.VendorName = c.Company.Name
		rec.VendorID = c.Company.ID.String()
	}
	if c.Incumbent {
		rec.Status = "Incumbent"
	}
	// json.Number renders an absent id as "", not "0".
	if rec.ContractID == "" && c.ContractNumber != "" {
		rec.ContractID = c.ContractNumber
	}
	if len(rec.RawData) == 0 {
		rec.RawData = json.RawMessage("{}")
	}
	return rec
}
