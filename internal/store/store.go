package store

import (
	"context"

	"github.com/Bemerick/AI-SAM-Research/internal/model"
)

// MatchFilter specifies criteria for listing matches.
type MatchFilter struct {
	Status model.MatchStatus `json:"status,omitempty"`
	Limit  int               `json:"limit,omitempty"`
	Offset int               `json:"offset,omitempty"`
}

// AmendmentLink describes the chain updates applied when a new notice
// version arrives. Both writes happen in one transaction so the chain is
// never observed half-linked.
type AmendmentLink struct {
	NoticeID         string
	IsAmendment      int
	OriginalNoticeID *string
	// SupersedeNoticeID is the previously-current notice whose forward
	// pointer should now reference NoticeID. Empty for a chain root.
	SupersedeNoticeID string
}

// Store defines the persistence interface for the opportunity pipeline.
type Store interface {
	// SAM opportunities
	CreateOpportunity(ctx context.Context, opp *model.Opportunity) (*model.Opportunity, bool, error)
	GetOpportunity(ctx context.Context, noticeID string) (*model.Opportunity, error)
	GetOpportunityByID(ctx context.Context, id string) (*model.Opportunity, error)
	ListUnscored(ctx context.Context, limit int) ([]model.Opportunity, error)
	UpdateScore(ctx context.Context, noticeID string, fitScore float64, practiceArea, justification string) error
	ListMatchCandidates(ctx context.Context, minFitScore float64, limit int) ([]model.Opportunity, error)
	ListBySolicitation(ctx context.Context, solicitationNumber string) ([]model.Opportunity, error)
	LinkAmendment(ctx context.Context, link AmendmentLink) error

	// GovWin opportunities and contracts
	EnsureGovWinOpportunity(ctx context.Context, opp *model.GovWinOpportunity) (*model.GovWinOpportunity, bool, error)
	GetGovWinOpportunity(ctx context.Context, id string) (*model.GovWinOpportunity, error)
	CreateContract(ctx context.Context, c *model.Contract) (bool, error)

	// Matches
	RecordMatch(ctx context.Context, m *model.Match) (*model.Match, bool, error)
	GetMatch(ctx context.Context, id string) (*model.Match, error)
	ListMatches(ctx context.Context, filter MatchFilter) ([]model.Match, error)
	ReviewMatch(ctx context.Context, id string, status model.MatchStatus, userNotes, reviewedBy string) (*model.Match, error)

	// Analytics
	MatchStats(ctx context.Context) (*model.MatchStats, error)
	OpportunityStats(ctx context.Context) (*model.OpportunityStats, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
