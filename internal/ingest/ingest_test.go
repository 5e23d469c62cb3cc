package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bemerick/AI-SAM-Research/internal/config"
	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/internal/store"
	"github.com/Bemerick/AI-SAM-Research/pkg/sam"
)

// memStore is an in-memory FetcherStore that mirrors the idempotency and
// transactional behavior of the real store.
type memStore struct {
	opps map[string]*model.Opportunity
	seq  int
}

func newMemStore() *memStore {
	return &memStore{opps: map[string]*model.Opportunity{}}
}

func (m *memStore) CreateOpportunity(_ context.Context, opp *model.Opportunity) (*model.Opportunity, bool, error) {
	if existing, ok := m.opps[opp.NoticeID]; ok {
		return existing, false, nil
	}
	m.seq++
	cp := *opp
	cp.ID = opp.NoticeID + "-row"
	cp.CreatedAt = cp.CreatedAt.AddDate(0, 0, m.seq)
	m.opps[opp.NoticeID] = &cp
	return &cp, true, nil
}

func (m *memStore) ListBySolicitation(_ context.Context, solicitation string) ([]model.Opportunity, error) {
	var out []model.Opportunity
	// Insertion order approximates created_at ordering.
	for _, id := range m.orderedIDs() {
		if o := m.opps[id]; o.SolicitationNumber == solicitation {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memStore) orderedIDs() []string {
	ids := make([]string, 0, len(m.opps))
	for id := range m.opps {
		ids = append(ids, id)
	}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if m.opps[ids[j]].CreatedAt.Before(m.opps[ids[i]].CreatedAt) {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	return ids
}

func (m *memStore) LinkAmendment(_ context.Context, link store.AmendmentLink) error {
	opp := m.opps[link.NoticeID]
	opp.IsAmendment = link.IsAmendment
	opp.OriginalNoticeID = link.OriginalNoticeID
	if link.SupersedeNoticeID != "" {
		m.opps[link.SupersedeNoticeID].SupersededBy = &link.NoticeID
	}
	return nil
}

type fakeSAM struct {
	results      []sam.RawOpportunity
	descriptions map[string]string
}

func (f *fakeSAM) SearchOpportunities(_ context.Context, _ sam.SearchParams) ([]sam.RawOpportunity, error) {
	return f.results, nil
}

func (f *fakeSAM) GetDescription(_ context.Context, url string) (string, error) {
	return f.descriptions[url], nil
}

func TestNormalizeSplitsAgencyPath(t *testing.T) {
	opp := Normalize(sam.RawOpportunity{
		NoticeID:           " n-1 ",
		Title:              "Logistics Support",
		FullParentPathName: "DEPT OF DEFENSE.DEFENSE LOGISTICS AGENCY.DLA TROOP SUPPORT",
		SolicitationNumber: "SPE300-24-R-0012",
		UILink:             "https://sam.gov/opp/n-1/view",
	})
	assert.Equal(t, "n-1", opp.NoticeID)
	assert.Equal(t, "DEPT OF DEFENSE", opp.Department)
	assert.Equal(t, "DEFENSE LOGISTICS AGENCY", opp.SubTier)
	assert.Equal(t, "DLA TROOP SUPPORT", opp.Office)
	assert.Equal(t, "https://sam.gov/opp/n-1/view", opp.SAMLink)
	assert.True(t, opp.IsCurrent())
	assert.False(t, opp.Scored())
}

func TestNormalizeSingleSegmentPath(t *testing.T) {
	opp := Normalize(sam.RawOpportunity{
		NoticeID:           "n-2",
		FullParentPathName: "GENERAL SERVICES ADMINISTRATION",
	})
	assert.Equal(t, "GENERAL SERVICES ADMINISTRATION", opp.Department)
	assert.Empty(t, opp.SubTier)
	assert.Empty(t, opp.Office)
}

func TestFetcherStoresNewAndSkipsDuplicates(t *testing.T) {
	client := &fakeSAM{
		results: []sam.RawOpportunity{
			{NoticeID: "n-1", Title: "First", Description: "desc-url-1"},
			{NoticeID: "n-2", Title: "Second"},
		},
		descriptions: map[string]string{"desc-url-1": "Full text."},
	}
	ms := newMemStore()
	f := NewFetcher(client, ms, config.SAMConfig{NAICS: "541611", Limit: 100})

	res, err := f.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Duplicates)
	assert.Equal(t, "Full text.", ms.opps["n-1"].Description)

	// Second run over the same window changes nothing.
	res, err = f.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Duplicates)
}

func TestFetcherRequiresNAICS(t *testing.T) {
	f := NewFetcher(&fakeSAM{}, newMemStore(), config.SAMConfig{})
	_, err := f.Run(context.Background())
	require.Error(t, err)
}

// Three versions of one solicitation arriving in order must produce a
// root, amendment 1 superseding the root, and amendment 2 superseding
// amendment 1, with exactly one current version at each step.
func TestLinkerBuildsVersionChain(t *testing.T) {
	ms := newMemStore()
	linker := NewLinker(ms)
	ctx := context.Background()

	add := func(noticeID string) *model.Opportunity {
		stored, created, err := ms.CreateOpportunity(ctx, &model.Opportunity{
			NoticeID:           noticeID,
			SolicitationNumber: "ABCD-24-R-0099",
		})
		require.NoError(t, err)
		require.True(t, created)
		require.NoError(t, linker.Link(ctx, stored))
		return ms.opps[noticeID]
	}

	root := add("n-root")
	assert.Equal(t, 0, root.IsAmendment)
	assert.Nil(t, root.OriginalNoticeID)
	assert.True(t, root.IsCurrent())

	amend1 := add("n-a1")
	assert.Equal(t, 1, amend1.IsAmendment)
	require.NotNil(t, amend1.OriginalNoticeID)
	assert.Equal(t, "n-root", *amend1.OriginalNoticeID)
	assert.True(t, amend1.IsCurrent())
	require.NotNil(t, root.SupersededBy)
	assert.Equal(t, "n-a1", *root.SupersededBy)

	amend2 := add("n-a2")
	assert.Equal(t, 2, amend2.IsAmendment)
	assert.Equal(t, "n-root", *amend2.OriginalNoticeID)
	require.NotNil(t, amend1.SupersededBy)
	assert.Equal(t, "n-a2", *amend1.SupersededBy)

	// Exactly one current version.
	current := 0
	for _, o := range ms.opps {
		if o.IsCurrent() {
			current++
		}
	}
	assert.Equal(t, 1, current)
}

func TestLinkerFallsBackToEarliestWhenNoRoot(t *testing.T) {
	ms := newMemStore()
	ctx := context.Background()

	// Seed a chain whose members all claim to be amendments.
	for i, id := range []string{"n-x1", "n-x2"} {
		stored, _, err := ms.CreateOpportunity(ctx, &model.Opportunity{
			NoticeID:           id,
			SolicitationNumber: "WXYZ-25-R-0001",
		})
		require.NoError(t, err)
		stored.IsAmendment = i + 1
	}
	// Leave only the latest current.
	sup := "n-x2"
	ms.opps["n-x1"].SupersededBy = &sup

	stored, _, err := ms.CreateOpportunity(ctx, &model.Opportunity{
		NoticeID:           "n-x3",
		SolicitationNumber: "WXYZ-25-R-0001",
	})
	require.NoError(t, err)
	require.NoError(t, NewLinker(ms).Link(ctx, stored))

	got := ms.opps["n-x3"]
	assert.Equal(t, 2, got.IsAmendment)
	require.NotNil(t, got.OriginalNoticeID)
	assert.Equal(t, "n-x1", *got.OriginalNoticeID)
	require.NotNil(t, ms.opps["n-x2"].SupersededBy)
	assert.Equal(t, "n-x3", *ms.opps["n-x2"].SupersededBy)
}

func TestLinkerIgnoresNoticesWithoutSolicitation(t *testing.T) {
	ms := newMemStore()
	stored, _, err := ms.CreateOpportunity(context.Background(), &model.Opportunity{NoticeID: "n-solo"})
	require.NoError(t, err)
	require.NoError(t, NewLinker(ms).Link(context.Background(), stored))
	assert.Equal(t, 0, ms.opps["n-solo"].IsAmendment)
}
