package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/internal/store"
)

type fakeStore struct {
	matches map[string]*model.Match
	opps    map[string]*model.Opportunity
	govwin  map[string]*model.GovWinOpportunity
	pingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		matches: map[string]*model.Match{},
		opps:    map[string]*model.Opportunity{},
		govwin:  map[string]*model.GovWinOpportunity{},
	}
}

func (f *fakeStore) GetMatch(_ context.Context, id string) (*model.Match, error) {
	return f.matches[id], nil
}

func (f *fakeStore) ListMatches(_ context.Context, filter store.MatchFilter) ([]model.Match, error) {
	var out []model.Match
	for _, m := range f.matches {
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeStore) ReviewMatch(_ context.Context, id string, status model.MatchStatus, notes, reviewedBy string) (*model.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, eris.Errorf("match not found: %s", id)
	}
	m.Status = status
	m.UserNotes = notes
	if m.ReviewedAt == nil && status != model.MatchStatusPendingReview {
		now := time.Now().UTC()
		m.ReviewedAt = &now
		m.ReviewedBy = reviewedBy
	}
	return m, nil
}

func (f *fakeStore) GetOpportunityByID(_ context.Context, id string) (*model.Opportunity, error) {
	return f.opps[id], nil
}

func (f *fakeStore) GetGovWinOpportunity(_ context.Context, id string) (*model.GovWinOpportunity, error) {
	return f.govwin[id], nil
}

func (f *fakeStore) MatchStats(_ context.Context) (*model.MatchStats, error) {
	stats := &model.MatchStats{Total: len(f.matches)}
	for _, m := range f.matches {
		switch m.Status {
		case model.MatchStatusPendingReview:
			stats.PendingReview++
		case model.MatchStatusConfirmed:
			stats.Confirmed++
		}
	}
	return stats, nil
}

func (f *fakeStore) OpportunityStats(_ context.Context) (*model.OpportunityStats, error) {
	return &model.OpportunityStats{TotalSAM: len(f.opps), TotalGovWin: len(f.govwin)}, nil
}

func (f *fakeStore) Ping(_ context.Context) error { return f.pingErr }

func seedMatch(f *fakeStore, id string, status model.MatchStatus) *model.Match {
	m := &model.Match{
		ID:                  id,
		SAMOpportunityID:    "opp-" + id,
		GovWinOpportunityID: "gw-" + id,
		AIMatchScore:        75,
		Status:              status,
	}
	f.matches[id] = m
	return m
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFakeStore()
	router := NewServer(f).Router()

	rec := doRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.pingErr = eris.New("down")
	rec = doRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListMatchesFiltersByStatus(t *testing.T) {
	f := newFakeStore()
	seedMatch(f, "m-1", model.MatchStatusPendingReview)
	seedMatch(f, "m-2", model.MatchStatusConfirmed)
	router := NewServer(f).Router()

	rec := doRequest(t, router, http.MethodGet, "/api/matches?status=confirmed", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Matches []model.Match `json:"matches"`
		Count   int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "m-2", resp.Matches[0].ID)
}

func TestListMatchesRejectsBadParams(t *testing.T) {
	router := NewServer(newFakeStore()).Router()

	rec := doRequest(t, router, http.MethodGet, "/api/matches?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/matches?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMatchJoinsLinkedRecords(t *testing.T) {
	f := newFakeStore()
	seedMatch(f, "m-1", model.MatchStatusPendingReview)
	f.opps["opp-m-1"] = &model.Opportunity{ID: "opp-m-1", NoticeID: "n-1", Title: "Cloud Migration"}
	f.govwin["gw-m-1"] = &model.GovWinOpportunity{ID: "gw-m-1", GovWinID: "FBO1"}
	router := NewServer(f).Router()

	rec := doRequest(t, router, http.MethodGet, "/api/matches/m-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Match  *model.Match             `json:"match"`
		SAM    *model.Opportunity       `json:"sam_opportunity"`
		GovWin *model.GovWinOpportunity `json:"govwin_opportunity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "m-1", detail.Match.ID)
	assert.Equal(t, "n-1", detail.SAM.NoticeID)
	assert.Equal(t, "FBO1", detail.GovWin.GovWinID)
}

func TestGetMatchNotFound(t *testing.T) {
	router := NewServer(newFakeStore()).Router()
	rec := doRequest(t, router, http.MethodGet, "/api/matches/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewMatchTransitionsAndStamps(t *testing.T) {
	f := newFakeStore()
	seedMatch(f, "m-1", model.MatchStatusPendingReview)
	router := NewServer(f).Router()

	rec := doRequest(t, router, http.MethodPatch, "/api/matches/m-1", map[string]string{
		"status":      "confirmed",
		"user_notes":  "verified against both portals",
		"reviewed_by": "analyst@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var m model.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, model.MatchStatusConfirmed, m.Status)
	assert.Equal(t, "analyst@example.com", m.ReviewedBy)
	require.NotNil(t, m.ReviewedAt)
}

func TestReviewMatchRejectsInvalidStatus(t *testing.T) {
	f := newFakeStore()
	seedMatch(f, "m-1", model.MatchStatusPendingReview)
	router := NewServer(f).Router()

	rec := doRequest(t, router, http.MethodPatch, "/api/matches/m-1", map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewMatchNotFound(t *testing.T) {
	router := NewServer(newFakeStore()).Router()
	rec := doRequest(t, router, http.MethodPatch, "/api/matches/ghost", map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsEndpoints(t *testing.T) {
	f := newFakeStore()
	seedMatch(f, "m-1", model.MatchStatusConfirmed)
	f.opps["opp-1"] = &model.Opportunity{ID: "opp-1"}
	router := NewServer(f).Router()

	rec := doRequest(t, router, http.MethodGet, "/api/stats/matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ms model.MatchStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ms))
	assert.Equal(t, 1, ms.Total)
	assert.Equal(t, 1, ms.Confirmed)

	rec = doRequest(t, router, http.MethodGet, "/api/stats/opportunities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var os model.OpportunityStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &os))
	assert.Equal(t, 1, os.TotalSAM)
}
