package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Bemerick/AI-SAM-Research/pkg/salesforce"
)

// matchSObject is the custom object confirmed matches land in.
const matchSObject = "Opportunity_Match__c"

// SalesforceSink upserts confirmed matches into the CRM. The match ID is
// stored in an external-ID field and looked up before insert, so reruns are
// no-ops for matches already pushed.
type SalesforceSink struct {
	client salesforce.Client
}

// NewSalesforceSink creates a CRM sink over the given client.
func NewSalesforceSink(client salesforce.Client) *SalesforceSink {
	return &SalesforceSink{client: client}
}

func (s *SalesforceSink) Name() string { return "salesforce" }

// Export inserts a match record unless one with the same match ID exists.
func (s *SalesforceSink) Export(ctx context.Context, rec Record) (bool, error) {
	soql := fmt.Sprintf(
		"SELECT Id FROM %s WHERE Match_ID__c = '%s' LIMIT 1",
		matchSObject, soqlEscape(rec.Match.ID),
	)

	// go-salesforce decodes query rows into a slice target only.
	var rows []struct {
		ID string `json:"Id"`
	}
	if err := s.client.Query(ctx, soql, &rows); err != nil {
		return false, eris.Wrap(err, "export: query crm matches")
	}
	if len(rows) > 0 {
		return false, nil
	}

	if _, err := s.client.InsertOne(ctx, matchSObject, s.fields(rec)); err != nil {
		return false, eris.Wrap(err, "export: insert crm match")
	}
	return true, nil
}

func (s *SalesforceSink) fields(rec Record) map[string]any {
	fields := map[string]any{
		"Match_ID__c":       rec.Match.ID,
		"AI_Match_Score__c": rec.Match.AIMatchScore,
		"Match_Type__c":     string(rec.Match.MatchType),
		"Review_Status__c":  string(rec.Match.Status),
	}
	if rec.SAM != nil {
		fields["Name"] = clip(rec.SAM.Title, 80)
		fields["Notice_ID__c"] = rec.SAM.NoticeID
		fields["Solicitation_Number__c"] = rec.SAM.SolicitationNumber
		fields["Agency__c"] = rec.SAM.Department
		fields["NAICS_Code__c"] = rec.SAM.NAICSCode
		fields["Response_Deadline__c"] = rec.SAM.ResponseDeadline
		fields["SAM_Link__c"] = rec.SAM.SAMLink
	}
	if rec.GovWin != nil {
		fields["GovWin_ID__c"] = rec.GovWin.GovWinID
		fields["GovWin_Title__c"] = clip(rec.GovWin.Title, 255)
	}
	return fields
}

// soqlEscape escapes single quotes and backslashes for SOQL string literals.
func soqlEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
