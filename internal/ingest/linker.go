package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/internal/store"
)

// LinkerStore is the store surface the amendment linker needs.
type LinkerStore interface {
	ListBySolicitation(ctx context.Context, solicitationNumber string) ([]model.Opportunity, error)
	LinkAmendment(ctx context.Context, link store.AmendmentLink) error
}

// Linker threads new notice versions into per-solicitation chains. Each
// chain has one root (is_amendment 0), sequential amendment numbers, and a
// single current version whose superseded_by pointer is unset.
type Linker struct {
	store LinkerStore
}

// NewLinker creates an amendment linker.
func NewLinker(s LinkerStore) *Linker {
	return &Linker{store: s}
}

// Link places a newly stored notice into its solicitation's version chain.
// Notices without a solicitation number stand alone and are left untouched.
func (l *Linker) Link(ctx context.Context, opp *model.Opportunity) error {
	if opp.SolicitationNumber == "" {
		return nil
	}

	chain, err := l.store.ListBySolicitation(ctx, opp.SolicitationNumber)
	if err != nil {
		return eris.Wrapf(err, "ingest: load chain for %s", opp.SolicitationNumber)
	}

	// Strip the new record itself; it is already stored.
	others := chain[:0:0]
	for _, member := range chain {
		if member.NoticeID != opp.NoticeID {
			others = append(others, member)
		}
	}

	if len(others) == 0 {
		// First notice for this solicitation. It is already a root by
		// default; nothing to write.
		return nil
	}

	root := findRoot(others)
	if root == nil {
		// No explicit root in the chain. Fall back to the earliest record
		// so numbering stays stable.
		root = &others[0]
		zap.L().Warn("amendment chain has no root, using earliest record",
			zap.String("solicitation_number", opp.SolicitationNumber),
			zap.String("root_notice_id", root.NoticeID))
	}

	link := store.AmendmentLink{
		NoticeID:         opp.NoticeID,
		IsAmendment:      len(others),
		OriginalNoticeID: &root.NoticeID,
	}

	if current := findCurrent(others); current != nil {
		link.SupersedeNoticeID = current.NoticeID
	}

	if err := l.store.LinkAmendment(ctx, link); err != nil {
		return eris.Wrapf(err, "ingest: link amendment %s", opp.NoticeID)
	}

	zap.L().Info("linked amendment",
		zap.String("notice_id", opp.NoticeID),
		zap.String("solicitation_number", opp.SolicitationNumber),
		zap.Int("amendment_number", link.IsAmendment),
		zap.String("supersedes", link.SupersedeNoticeID))
	return nil
}

func findRoot(chain []model.Opportunity) *model.Opportunity {
	for i := range chain {
		if chain[i].IsAmendment == 0 {
			return &chain[i]
		}
	}
	return nil
}

func findCurrent(chain []model.Opportunity) *model.Opportunity {
	for i := range chain {
		if chain[i].IsCurrent() {
			return &chain[i]
		}
	}
	return nil
}
