package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bemerick/AI-SAM-Research/internal/config"
	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/pkg/govwin"
)

// fakeGovWin serves canned search results and contracts.
type fakeGovWin struct {
	searchResults map[string][]govwin.Record
	details       map[string]govwin.Record
	contracts     map[string][]govwin.ContractRecord
	searchCalls   []string
}

func (f *fakeGovWin) Search(_ context.Context, query string, _ int) ([]govwin.Record, error) {
	f.searchCalls = append(f.searchCalls, query)
	return f.searchResults[query], nil
}

func (f *fakeGovWin) GetOpportunity(_ context.Context, id string) (*govwin.Record, error) {
	if rec, ok := f.details[id]; ok {
		return &rec, nil
	}
	rec := govwin.Record{ID: id}
	return &rec, nil
}

func (f *fakeGovWin) GetContracts(_ context.Context, id string) ([]govwin.ContractRecord, error) {
	return f.contracts[id], nil
}

// fakeMatchStore implements Store in memory with the real store's
// idempotency semantics.
type fakeMatchStore struct {
	candidates []model.Opportunity
	govwin     map[string]*model.GovWinOpportunity
	contracts  map[string][]*model.Contract
	matches    map[string]*model.Match
}

func newFakeMatchStore(candidates ...model.Opportunity) *fakeMatchStore {
	return &fakeMatchStore{
		candidates: candidates,
		govwin:     map[string]*model.GovWinOpportunity{},
		contracts:  map[string][]*model.Contract{},
		matches:    map[string]*model.Match{},
	}
}

func (f *fakeMatchStore) ListMatchCandidates(_ context.Context, min float64, _ int) ([]model.Opportunity, error) {
	var out []model.Opportunity
	for _, o := range f.candidates {
		if o.FitScore >= min && o.IsCurrent() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeMatchStore) EnsureGovWinOpportunity(_ context.Context, opp *model.GovWinOpportunity) (*model.GovWinOpportunity, bool, error) {
	if existing, ok := f.govwin[opp.GovWinID]; ok {
		return existing, false, nil
	}
	cp := *opp
	cp.ID = "row-" + opp.GovWinID
	f.govwin[opp.GovWinID] = &cp
	return &cp, true, nil
}

func (f *fakeMatchStore) CreateContract(_ context.Context, c *model.Contract) (bool, error) {
	for _, existing := range f.contracts[c.GovWinOpportunityID] {
		if existing.ContractID == c.ContractID {
			return false, nil
		}
	}
	f.contracts[c.GovWinOpportunityID] = append(f.contracts[c.GovWinOpportunityID], c)
	return true, nil
}

func (f *fakeMatchStore) RecordMatch(_ context.Context, m *model.Match) (*model.Match, bool, error) {
	key := m.SAMOpportunityID + "|" + m.GovWinOpportunityID
	if existing, ok := f.matches[key]; ok {
		return existing, false, nil
	}
	cp := *m
	cp.ID = "match-" + key
	f.matches[key] = &cp
	return &cp, true, nil
}

func matcherCfg() config.MatcherConfig {
	return config.MatcherConfig{
		MinFitScore:         7,
		BatchLimit:          50,
		MaxCandidates:       10,
		AdmitThreshold:      40,
		SimilarityThreshold: 0.6,
		ConfidenceFloor:     31,
		LikelyThreshold:     61,
		ConfirmThreshold:    86,
	}
}

// A scored opportunity whose solicitation number appears in a candidate
// title must end as one confirmed match with the GovWin record and its
// contract stored, and a second run must change nothing.
func TestMatcherEndToEnd(t *testing.T) {
	opp := model.Opportunity{
		ID:                 "opp-1",
		NoticeID:           "n-1",
		Title:              "Cloud Migration Support Services",
		SolicitationNumber: "ABCD-24-R-0099",
		Department:         "GENERAL SERVICES ADMINISTRATION",
		FitScore:           8,
	}

	gw := &fakeGovWin{
		searchResults: map[string][]govwin.Record{
			"cloud migration": {{
				ID:      "FBO4090400",
				Title:   "Cloud Migration Support ABCD-24-R-0099",
				RawJSON: []byte(`{"id":"FBO4090400"}`),
			}},
		},
		details: map[string]govwin.Record{
			"FBO4090400": {
				ID:          "FBO4090400",
				Title:       "Cloud Migration Support ABCD-24-R-0099",
				Description: "Migration of legacy workloads to cloud hosting.",
				RawJSON:     []byte(`{"id":"FBO4090400","description":"full"}`),
			},
		},
		contracts: map[string][]govwin.ContractRecord{
			"FBO4090400": {{
				ID:             "99887",
				ContractNumber: "W912DY-21-C-0001",
				Title:          "Base Year",
			}},
		},
	}
	oracle := &fakeOracle{response: `{"matches":[{"govwin_id":"FBO4090400","match_confidence":92,"match_type":"exact_duplicate","reasoning":"Same solicitation number and scope."}]}`}
	st := newFakeMatchStore(opp)

	m := New(st, gw, oracle, matcherCfg(), "test-model", 2048)
	res, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.MatchesRecorded)
	assert.Equal(t, 0, res.MatchesExisting)
	require.Len(t, res.NewMatches, 1)
	assert.Equal(t, "Cloud Migration Support Services", res.NewMatches[0].Opportunity.Title)

	require.Len(t, st.matches, 1)
	match := st.matches["opp-1|row-FBO4090400"]
	require.NotNil(t, match)
	assert.Equal(t, model.MatchStatusConfirmed, match.Status)
	assert.Equal(t, model.MatchTypeExactDuplicate, match.MatchType)
	assert.Equal(t, 92.0, match.AIMatchScore)
	assert.Equal(t, StrategyTitleKeywords, match.SearchStrategy)

	require.Contains(t, st.govwin, "FBO4090400")
	assert.Len(t, st.contracts["row-FBO4090400"], 1)

	// Re-running records nothing new.
	res2, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res2.MatchesRecorded)
	assert.Equal(t, 1, res2.MatchesExisting)
	assert.Len(t, st.matches, 1)
	assert.Len(t, st.contracts["row-FBO4090400"], 1)
}

func TestMatcherSkipsRejectedCandidates(t *testing.T) {
	opp := model.Opportunity{
		ID:       "opp-1",
		NoticeID: "n-1",
		Title:    "Cloud Migration Support Services",
		FitScore: 9,
	}
	gw := &fakeGovWin{
		searchResults: map[string][]govwin.Record{
			"cloud migration": {{ID: "FBO1", Title: "Unrelated submarine propulsion components"}},
		},
	}
	oracle := &fakeOracle{response: `{"matches":[]}`}
	st := newFakeMatchStore(opp)

	res, err := New(st, gw, oracle, matcherCfg(), "test-model", 2048).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Admitted)
	assert.Empty(t, st.matches)
	// Nothing admitted means the oracle is never invoked.
	assert.Empty(t, oracle.lastReq.Messages)
}

func TestMatcherFallsThroughSearchStrategies(t *testing.T) {
	opp := model.Opportunity{
		ID:                 "opp-1",
		NoticeID:           "n-1",
		Title:              "Cloud Migration Support Services",
		Department:         "Department of Defense",
		SolicitationNumber: "ABCD-24-R-0099",
		FitScore:           8,
	}
	// Title keywords and agency queries return nothing; the solicitation
	// query hits.
	gw := &fakeGovWin{
		searchResults: map[string][]govwin.Record{
			"ABCD-24-R-0099": {{ID: "FBO2", Title: "Cloud Migration Support RFP ABCD-24-R-0099"}},
		},
	}
	oracle := &fakeOracle{response: `{"matches":[{"govwin_id":"FBO2","match_confidence":70,"match_type":"related","reasoning":"likely"}]}`}
	st := newFakeMatchStore(opp)

	res, err := New(st, gw, oracle, matcherCfg(), "test-model", 2048).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cloud migration", "DEFENSE", "ABCD-24-R-0099"}, gw.searchCalls)
	assert.Equal(t, 1, res.MatchesRecorded)

	match := st.matches["opp-1|row-FBO2"]
	require.NotNil(t, match)
	assert.Equal(t, StrategySolicitationNumber, match.SearchStrategy)
	assert.Equal(t, model.MatchStatusPendingReview, match.Status)
}

func TestMatcherIgnoresSupersededVersions(t *testing.T) {
	sup := "n-2"
	old := model.Opportunity{ID: "opp-old", NoticeID: "n-1", Title: "Old Version", FitScore: 9, SupersededBy: &sup}
	st := newFakeMatchStore(old)
	gw := &fakeGovWin{}
	oracle := &fakeOracle{}

	res, err := New(st, gw, oracle, matcherCfg(), "test-model", 2048).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Empty(t, gw.searchCalls)
}
