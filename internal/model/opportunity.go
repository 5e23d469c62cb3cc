// Package model defines the typed records flowing through the matching
// pipeline. Raw upstream payloads are normalized into these types once at
// ingestion; downstream components never consume the raw API shapes.
package model

import "time"

// Opportunity is a normalized SAM.gov notice.
type Opportunity struct {
	ID                 string  `json:"id"`
	NoticeID           string  `json:"notice_id"`
	Title              string  `json:"title"`
	Department         string  `json:"department,omitempty"`
	SubTier            string  `json:"sub_tier,omitempty"`
	Office             string  `json:"office,omitempty"`
	FullParentPath     string  `json:"full_parent_path,omitempty"`
	NAICSCode          string  `json:"naics_code,omitempty"`
	SolicitationNumber string  `json:"solicitation_number,omitempty"`
	PostedDate         string  `json:"posted_date,omitempty"`
	ResponseDeadline   string  `json:"response_deadline,omitempty"`
	Type               string  `json:"type,omitempty"`
	SetAside           string  `json:"set_aside,omitempty"`
	Description        string  `json:"description,omitempty"`
	SAMLink            string  `json:"sam_link,omitempty"`

	// FitScore is 1-10 once scored; 0 means not yet scored.
	FitScore             float64 `json:"fit_score"`
	AssignedPracticeArea string  `json:"assigned_practice_area,omitempty"`
	Justification        string  `json:"justification,omitempty"`

	// Amendment chain fields. IsAmendment is 0 for the chain root and N for
	// the Nth amendment. SupersededBy is nil for the current version.
	IsAmendment      int     `json:"is_amendment"`
	OriginalNoticeID *string `json:"original_notice_id,omitempty"`
	SupersededBy     *string `json:"superseded_by_notice_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Scored reports whether the fit scoring stage has run for this opportunity.
func (o *Opportunity) Scored() bool {
	return o.FitScore != 0
}

// IsCurrent reports whether this record is the latest version of its
// solicitation (no forward pointer).
func (o *Opportunity) IsCurrent() bool {
	return o.SupersededBy == nil
}
