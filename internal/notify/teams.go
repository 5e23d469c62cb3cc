// Package notify posts match digests to a Teams incoming webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/config"
	"github.com/Bemerick/AI-SAM-Research/internal/model"
)

const (
	colorConfirmed = "2EB67D"
	colorPending   = "E2B203"
)

// MatchDigest is one match line in a notification card.
type MatchDigest struct {
	Title      string
	Agency     string
	GovWinID   string
	Score      float64
	Status     model.MatchStatus
	ReviewLink string
}

// card is the Teams MessageCard payload.
type card struct {
	Type       string        `json:"@type"`
	Context    string        `json:"@context"`
	ThemeColor string        `json:"themeColor"`
	Summary    string        `json:"summary"`
	Sections   []cardSection `json:"sections"`
}

type cardSection struct {
	ActivityTitle string     `json:"activityTitle"`
	Facts         []cardFact `json:"facts,omitempty"`
	Markdown      bool       `json:"markdown"`
}

type cardFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Notifier sends match digests to a Teams webhook. A Notifier with no
// webhook URL configured is a no-op.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a Notifier from the webhook config.
func New(cfg config.NotifyConfig) *Notifier {
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// NotifyMatches posts one card summarizing the given matches. Returns the
// number of matches included, or 0 when the notifier is disabled or the
// digest is empty.
func (n *Notifier) NotifyMatches(ctx context.Context, digests []MatchDigest) (int, error) {
	if !n.Enabled() || len(digests) == 0 {
		return 0, nil
	}

	confirmed := 0
	for _, d := range digests {
		if d.Status == model.MatchStatusConfirmed {
			confirmed++
		}
	}

	color := colorPending
	if confirmed > 0 {
		color = colorConfirmed
	}

	c := card{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: color,
		Summary:    fmt.Sprintf("%d new GovWin match(es) found", len(digests)),
		Sections:   []cardSection{{ActivityTitle: fmt.Sprintf("**%d new GovWin match(es)** (%d confirmed, %d pending review)", len(digests), confirmed, len(digests)-confirmed), Markdown: true}},
	}

	for _, d := range digests {
		section := cardSection{
			ActivityTitle: d.Title,
			Markdown:      true,
			Facts: []cardFact{
				{Name: "Agency", Value: orDash(d.Agency)},
				{Name: "GovWin ID", Value: orDash(d.GovWinID)},
				{Name: "AI Score", Value: fmt.Sprintf("%.0f", d.Score)},
				{Name: "Status", Value: string(d.Status)},
			},
		}
		if d.ReviewLink != "" {
			section.Facts = append(section.Facts, cardFact{Name: "Review", Value: d.ReviewLink})
		}
		c.Sections = append(c.Sections, section)
	}

	if err := n.send(ctx, c); err != nil {
		return 0, err
	}
	zap.L().Info("notify: match digest sent",
		zap.Int("matches", len(digests)),
		zap.Int("confirmed", confirmed),
	)
	return len(digests), nil
}

func (n *Notifier) send(ctx context.Context, c card) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "notify: marshal card")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
