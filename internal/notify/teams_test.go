package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bemerick/AI-SAM-Research/internal/config"
	"github.com/Bemerick/AI-SAM-Research/internal/model"
)

func TestNotifyMatchesPostsCard(t *testing.T) {
	var got card
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(config.NotifyConfig{WebhookURL: srv.URL})
	sent, err := n.NotifyMatches(context.Background(), []MatchDigest{
		{
			Title:    "Cloud Migration Support",
			Agency:   "DEPT OF DEFENSE",
			GovWinID: "FBO4090400",
			Score:    92,
			Status:   model.MatchStatusConfirmed,
		},
		{
			Title:  "Facilities Maintenance",
			Score:  70,
			Status: model.MatchStatusPendingReview,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	assert.Equal(t, "MessageCard", got.Type)
	assert.Equal(t, colorConfirmed, got.ThemeColor)
	require.Len(t, got.Sections, 3)
	assert.Contains(t, got.Sections[0].ActivityTitle, "2 new GovWin match(es)")
	assert.Contains(t, got.Sections[0].ActivityTitle, "1 confirmed")

	facts := got.Sections[1].Facts
	require.Len(t, facts, 4)
	assert.Equal(t, "FBO4090400", facts[1].Value)
	assert.Equal(t, "92", facts[2].Value)
}

func TestNotifyMatchesPendingOnlyColor(t *testing.T) {
	var got card
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(config.NotifyConfig{WebhookURL: srv.URL})
	_, err := n.NotifyMatches(context.Background(), []MatchDigest{
		{Title: "Facilities Maintenance", Score: 55, Status: model.MatchStatusPendingReview},
	})
	require.NoError(t, err)
	assert.Equal(t, colorPending, got.ThemeColor)
}

func TestNotifyMatchesDisabledWithoutURL(t *testing.T) {
	n := New(config.NotifyConfig{})
	sent, err := n.NotifyMatches(context.Background(), []MatchDigest{{Title: "x"}})
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.False(t, n.Enabled())
}

func TestNotifyMatchesEmptyDigestNoPost(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	n := New(config.NotifyConfig{WebhookURL: srv.URL})
	sent, err := n.NotifyMatches(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, calls)
}

func TestNotifyMatchesWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := New(config.NotifyConfig{WebhookURL: srv.URL})
	_, err := n.NotifyMatches(context.Background(), []MatchDigest{{Title: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
