package export

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bemerick/AI-SAM-Research/internal/config"
	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/internal/store"
)

type fakeExportStore struct {
	matches []model.Match
	sam     map[string]*model.Opportunity
	govwin  map[string]*model.GovWinOpportunity
}

func (f *fakeExportStore) ListMatches(_ context.Context, filter store.MatchFilter) ([]model.Match, error) {
	var out []model.Match
	for _, m := range f.matches {
		if filter.Status == "" || m.Status == filter.Status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeExportStore) GetOpportunityByID(_ context.Context, id string) (*model.Opportunity, error) {
	return f.sam[id], nil
}

func (f *fakeExportStore) GetGovWinOpportunity(_ context.Context, id string) (*model.GovWinOpportunity, error) {
	return f.govwin[id], nil
}

type fakeNotion struct {
	existing map[string]bool
	created  []*notionapi.PageCreateRequest
}

func (f *fakeNotion) QueryDatabase(_ context.Context, _ string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp := &notionapi.DatabaseQueryResponse{}
	pf, ok := req.Filter.(notionapi.PropertyFilter)
	if ok && pf.RichText != nil && f.existing[pf.RichText.Equals] {
		resp.Results = []notionapi.Page{{}}
	}
	return resp, nil
}

func (f *fakeNotion) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.created = append(f.created, req)
	return &notionapi.Page{}, nil
}

type fakeSalesforce struct {
	existing map[string]bool
	queries  []string
	inserted []map[string]any
}

// Query mirrors go-salesforce's decode contract: result rows only decode
// into a pointer to a slice.
func (f *fakeSalesforce) Query(_ context.Context, soql string, out any) error {
	f.queries = append(f.queries, soql)

	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("query target must be a pointer to a slice, got %T", out)
	}

	records := []map[string]any{}
	for id := range f.existing {
		if strings.Contains(soql, "'"+id+"'") {
			records = append(records, map[string]any{"Id": "sf-" + id})
		}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeSalesforce) InsertOne(_ context.Context, _ string, record map[string]any) (string, error) {
	f.inserted = append(f.inserted, record)
	return "sf-new", nil
}

func testStore() *fakeExportStore {
	return &fakeExportStore{
		matches: []model.Match{
			{
				ID:                  "m-1",
				SAMOpportunityID:    "sam-1",
				GovWinOpportunityID: "gw-1",
				MatchType:           model.MatchTypeExactDuplicate,
				AIMatchScore:        92,
				Status:              model.MatchStatusConfirmed,
				AIReasoning:         "same solicitation number",
			},
			{
				ID:                  "m-2",
				SAMOpportunityID:    "sam-2",
				GovWinOpportunityID: "gw-2",
				AIMatchScore:        70,
				Status:              model.MatchStatusPendingReview,
			},
		},
		sam: map[string]*model.Opportunity{
			"sam-1": {
				ID:                 "sam-1",
				NoticeID:           "n-100",
				Title:              "Cloud Migration Support",
				Department:         "DEPT OF DEFENSE",
				SolicitationNumber: "ABCD-24-R-0099",
				SAMLink:            "https://sam.gov/opp/n-100",
			},
		},
		govwin: map[string]*model.GovWinOpportunity{
			"gw-1": {ID: "gw-1", GovWinID: "FBO4090400", Title: "Cloud Migration Support Services"},
		},
	}
}

func TestExporterOnlyConfirmedMatches(t *testing.T) {
	st := testStore()
	nc := &fakeNotion{existing: map[string]bool{}}
	sink := NewNotionSink(nc, config.NotionConfig{MatchDB: "db-1"})

	res, err := New(st, 0, sink).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Matches)
	assert.Equal(t, 1, res.Created["notion"])
	assert.Equal(t, 0, res.Errors)
	require.Len(t, nc.created, 1)
}

func TestNotionSinkSkipsExistingPage(t *testing.T) {
	st := testStore()
	nc := &fakeNotion{existing: map[string]bool{"m-1": true}}
	sink := NewNotionSink(nc, config.NotionConfig{MatchDB: "db-1"})

	res, err := New(st, 0, sink).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Created["notion"])
	assert.Equal(t, 1, res.Skipped["notion"])
	assert.Empty(t, nc.created)
}

func TestNotionSinkPageProperties(t *testing.T) {
	nc := &fakeNotion{existing: map[string]bool{}}
	sink := NewNotionSink(nc, config.NotionConfig{MatchDB: "db-1"})
	st := testStore()

	_, err := New(st, 0, sink).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, nc.created, 1)

	props := nc.created[0].Properties
	title, ok := props["Name"].(notionapi.TitleProperty)
	require.True(t, ok)
	assert.Equal(t, "Cloud Migration Support", title.Title[0].Text.Content)

	matchID, ok := props["Match ID"].(notionapi.RichTextProperty)
	require.True(t, ok)
	assert.Equal(t, "m-1", matchID.RichText[0].Text.Content)

	score, ok := props["AI Score"].(notionapi.NumberProperty)
	require.True(t, ok)
	assert.Equal(t, 92.0, score.Number)

	govwinID, ok := props["GovWin ID"].(notionapi.RichTextProperty)
	require.True(t, ok)
	assert.Equal(t, "FBO4090400", govwinID.RichText[0].Text.Content)
}

func TestSalesforceSinkInsertsNewMatch(t *testing.T) {
	st := testStore()
	sf := &fakeSalesforce{existing: map[string]bool{}}
	sink := NewSalesforceSink(sf)

	res, err := New(st, 0, sink).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created["salesforce"])
	require.Len(t, sf.inserted, 1)
	assert.Equal(t, "m-1", sf.inserted[0]["Match_ID__c"])
	assert.Equal(t, "n-100", sf.inserted[0]["Notice_ID__c"])
	assert.Equal(t, "FBO4090400", sf.inserted[0]["GovWin_ID__c"])
}

func TestSalesforceSinkSkipsExistingMatch(t *testing.T) {
	st := testStore()
	sf := &fakeSalesforce{existing: map[string]bool{"m-1": true}}
	sink := NewSalesforceSink(sf)

	res, err := New(st, 0, sink).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped["salesforce"])
	assert.Empty(t, sf.inserted)
}

func TestSalesforceSinkQueriesIntoSliceTarget(t *testing.T) {
	sf := &fakeSalesforce{existing: map[string]bool{}}
	sink := NewSalesforceSink(sf)

	created, err := sink.Export(context.Background(), Record{
		Match: model.Match{ID: "m-1", Status: model.MatchStatusConfirmed},
	})
	require.NoError(t, err, "dedup query must decode into a slice pointer")
	assert.True(t, created)
	require.Len(t, sf.queries, 1)
	assert.Contains(t, sf.queries[0], "Match_ID__c = 'm-1'")

	sf.existing["m-1"] = true
	created, err = sink.Export(context.Background(), Record{
		Match: model.Match{ID: "m-1", Status: model.MatchStatusConfirmed},
	})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestExporterFansOutToAllSinks(t *testing.T) {
	st := testStore()
	nc := &fakeNotion{existing: map[string]bool{}}
	sf := &fakeSalesforce{existing: map[string]bool{}}

	res, err := New(st, 0,
		NewNotionSink(nc, config.NotionConfig{MatchDB: "db-1"}),
		NewSalesforceSink(sf),
	).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created["notion"])
	assert.Equal(t, 1, res.Created["salesforce"])
}

func TestSoqlEscape(t *testing.T) {
	assert.Equal(t, `O\'Brien`, soqlEscape("O'Brien"))
	assert.Equal(t, `a\\b`, soqlEscape(`a\b`))
}

func TestClipKeepsRuneBoundary(t *testing.T) {
	assert.Equal(t, "plain", clip("plain", 10))
	// A cut landing inside the two-byte "ï" must back up.
	assert.Equal(t, "na...", clip("naïveté overview", 3))
}
