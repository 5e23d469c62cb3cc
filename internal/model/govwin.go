package model

import "time"

// GovWinOpportunity is a counterpart record from the GovWin intelligence
// feed, created the first time an accepted match references it. RawData holds
// the full feed payload as an opaque snapshot for audit and debugging.
type GovWinOpportunity struct {
	ID        string    `json:"id"`
	GovWinID  string    `json:"govwin_id"`
	Title     string    `json:"title"`
	RawData   []byte    `json:"raw_data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Contract is an award/contract record attached to a GovWin opportunity.
// Contracts are fetched best-effort when a match is recorded.
type Contract struct {
	ID                  string    `json:"id"`
	GovWinOpportunityID string    `json:"govwin_opportunity_id"`
	ContractID          string    `json:"contract_id,omitempty"`
	ContractNumber      string    `json:"contract_number,omitempty"`
	Title               string    `json:"title,omitempty"`
	VendorName          string    `json:"vendor_name,omitempty"`
	VendorID            string    `json:"vendor_id,omitempty"`
	ContractValue       float64   `json:"contract_value,omitempty"`
	AwardDate           string    `json:"award_date,omitempty"`
	StartDate           string    `json:"start_date,omitempty"`
	EndDate             string    `json:"end_date,omitempty"`
	Status              string    `json:"status,omitempty"`
	RawData             []byte    `json:"raw_data,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}
