// Package ingest pulls notices from the SAM.gov feed into the store and
// maintains amendment version chains.
package ingest

import (
	"strings"

	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/pkg/sam"
)

// Normalize converts a raw feed record into the stored representation.
// This is the only place raw SAM fields are read; everything downstream
// works with model.Opportunity.
func Normalize(raw sam.RawOpportunity) model.Opportunity {
	opp := model.Opportunity{
		NoticeID:           strings.TrimSpace(raw.NoticeID),
		Title:              strings.TrimSpace(raw.Title),
		FullParentPath:     raw.FullParentPathName,
		NAICSCode:          raw.NAICSCode,
		SolicitationNumber: strings.TrimSpace(raw.SolicitationNumber),
		PostedDate:         raw.PostedDate,
		ResponseDeadline:   raw.ResponseDeadLine,
		Type:               raw.Type,
		SetAside:           raw.SetAside,
		SAMLink:            raw.UILink,
	}

	// The agency hierarchy arrives as a dot-delimited path, e.g.
	// "DEPT OF DEFENSE.DEFENSE LOGISTICS AGENCY.DLA TROOP SUPPORT".
	parts := strings.Split(raw.FullParentPathName, ".")
	if len(parts) > 0 && parts[0] != "" {
		opp.Department = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		opp.SubTier = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		opp.Office = strings.TrimSpace(strings.Join(parts[2:], "."))
	}

	return opp
}
