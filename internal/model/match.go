package model

import "time"

// MatchStatus is the review state of a recorded match.
type MatchStatus string

// Match review states. A match enters pending_review or confirmed from the
// pipeline; humans move it between the others.
const (
	MatchStatusPendingReview MatchStatus = "pending_review"
	MatchStatusConfirmed     MatchStatus = "confirmed"
	MatchStatusRejected      MatchStatus = "rejected"
	MatchStatusNeedsInfo     MatchStatus = "needs_info"
)

// ValidMatchStatus reports whether s is one of the fixed review states.
func ValidMatchStatus(s MatchStatus) bool {
	switch s {
	case MatchStatusPendingReview, MatchStatusConfirmed, MatchStatusRejected, MatchStatusNeedsInfo:
		return true
	}
	return false
}

// MatchType is the oracle's categorical judgment for a candidate pair.
type MatchType string

// Oracle match categories.
const (
	MatchTypeExactDuplicate   MatchType = "exact_duplicate"
	MatchTypeRelated          MatchType = "related"
	MatchTypeTeamingCandidate MatchType = "teaming_candidate"
	MatchTypeUnrelated        MatchType = "unrelated"
)

// Match links one SAM opportunity to one GovWin opportunity. The
// (SAMOpportunityID, GovWinOpportunityID) pair is unique; re-recording the
// same pair returns the existing row untouched.
type Match struct {
	ID                  string      `json:"id"`
	SAMOpportunityID    string      `json:"sam_opportunity_id"`
	GovWinOpportunityID string      `json:"govwin_opportunity_id"`
	SearchStrategy      string      `json:"search_strategy"`
	MatchType           MatchType   `json:"match_type,omitempty"`
	AIMatchScore        float64     `json:"ai_match_score"`
	AIReasoning         string      `json:"ai_reasoning,omitempty"`
	Status              MatchStatus `json:"status"`
	UserNotes           string      `json:"user_notes,omitempty"`
	ReviewedBy          string      `json:"reviewed_by,omitempty"`
	ReviewedAt          *time.Time  `json:"reviewed_at,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// MatchStats summarizes match rows for the analytics endpoints.
type MatchStats struct {
	Total             int     `json:"total_matches"`
	PendingReview     int     `json:"pending_review"`
	Confirmed         int     `json:"confirmed"`
	Rejected          int     `json:"rejected"`
	NeedsInfo         int     `json:"needs_info"`
	AverageScore      float64 `json:"average_ai_score"`
	TopSearchStrategy string  `json:"top_search_strategy,omitempty"`
}

// OpportunityStats summarizes opportunity rows for the analytics endpoints.
type OpportunityStats struct {
	TotalSAM        int     `json:"total_sam_opportunities"`
	TotalGovWin     int     `json:"total_govwin_opportunities"`
	HighScoringSAM  int     `json:"high_scoring_sam_opps"`
	AverageFitScore float64 `json:"avg_fit_score"`
}
