// Package analyzer scores stored opportunities for business fit. Each
// opportunity receives a 1-10 fit score, a practice area assignment, and a
// one-line justification from the model.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/pkg/anthropic"
)

// PracticeAreas maps each service line to the capability summary the model
// scores against.
var PracticeAreas = map[string]string{
	"Acquisition Lifecycle Management":             "Helping federal agencies buy goods and services efficiently through the entire procurement process, from market research and cost estimates to contract closeout, including procurement package development, contract administration, and evaluation panel support.",
	"Program Management & Delivery":                "Program management, performance evaluation using data analytics, process improvement through automation, and comprehensive management support for federal program execution.",
	"Business Transformation & Change Management":  "Process diagnostics, workflow redesign, organizational change management, and strategic communications for federal operational improvement initiatives.",
	"Grant Program Management":                     "Technical assistance through research and data analytics, policy evaluation, peer review management, event coordination, and grants operations oversight.",
	"Risk, Safety & Mission Assurance":             "Safety and risk management, cybersecurity compliance, mission assurance, risk assessment, incident preparedness, continuity planning, and compliance auditing.",
	"Business & Technology Services":               "Technology modernization including custom software development, RPA and AI automation, user experience design, application support, quality assurance, and data analytics.",
	"Human Capital & Workforce Innovation":         "Strategic HR consulting, workforce planning, talent acquisition, training and development program design, and organizational structure improvement.",
}

// UncategorizedArea is assigned when no practice area clearly fits.
const UncategorizedArea = "Uncategorized"

// preferredAgencies get a small scoring preference when relevance is equal.
var preferredAgencies = []string{
	"Department of Agriculture",
	"Department of Transportation",
	"Department of Veterans Affairs",
	"Department of Education",
	"Department of Interior",
	"Department of Homeland Security",
}

// Store is the store surface the analyzer needs.
type Store interface {
	ListUnscored(ctx context.Context, limit int) ([]model.Opportunity, error)
	UpdateScore(ctx context.Context, noticeID string, fitScore float64, practiceArea, justification string) error
}

// Config tunes the scoring run.
type Config struct {
	Model     string
	MaxTokens int64
	BatchSize int
	Limit     int
}

// Result summarizes one scoring run.
type Result struct {
	Considered int `json:"considered"`
	Scored     int `json:"scored"`
	Errors     int `json:"errors"`
}

// Analyzer scores unscored opportunities in batches.
type Analyzer struct {
	store  Store
	oracle anthropic.Client
	cfg    Config
}

// New creates an Analyzer.
func New(s Store, oracle anthropic.Client, cfg Config) *Analyzer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 200
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	return &Analyzer{store: s, oracle: oracle, cfg: cfg}
}

// Run scores every unscored opportunity, batching model calls. A failed
// batch is logged and skipped; its opportunities stay unscored for the next
// run.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	opps, err := a.store.ListUnscored(ctx, a.cfg.Limit)
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: list unscored")
	}

	res := &Result{Considered: len(opps)}
	for start := 0; start < len(opps); start += a.cfg.BatchSize {
		select {
		case <-ctx.Done():
			return res, eris.Wrap(ctx.Err(), "analyzer: run cancelled")
		default:
		}

		end := start + a.cfg.BatchSize
		if end > len(opps) {
			end = len(opps)
		}
		batch := opps[start:end]

		scores, err := a.scoreBatch(ctx, batch)
		if err != nil {
			zap.L().Error("batch scoring failed",
				zap.Int("batch_start", start), zap.Int("size", len(batch)), zap.Error(err))
			res.Errors += len(batch)
			continue
		}

		for _, sc := range scores {
			if err := a.store.UpdateScore(ctx, sc.NoticeID, sc.FitScore, sc.PracticeArea, sc.Justification); err != nil {
				zap.L().Error("score persist failed",
					zap.String("notice_id", sc.NoticeID), zap.Error(err))
				res.Errors++
				continue
			}
			res.Scored++
		}
	}

	zap.L().Info("scoring run complete",
		zap.Int("considered", res.Considered),
		zap.Int("scored", res.Scored),
		zap.Int("errors", res.Errors))
	return res, nil
}

// Score is one model verdict for an opportunity.
type Score struct {
	NoticeID      string  `json:"notice_id"`
	PracticeArea  string  `json:"assigned_practice_area"`
	FitScore      float64 `json:"fit_score"`
	Justification string  `json:"justification"`
}

type scoreResponse struct {
	RankedOpportunities []Score `json:"ranked_opportunities"`
}

func (a *Analyzer) scoreBatch(ctx context.Context, batch []model.Opportunity) ([]Score, error) {
	temp := 0.1
	resp, err := a.oracle.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      scoringRubric(),
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildScoringPrompt(batch)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: oracle call")
	}
	resp.Usage.LogCost(a.cfg.Model, "fit-scoring")

	var parsed scoreResponse
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &parsed); err != nil {
		return nil, eris.Wrap(err, "analyzer: parse oracle response")
	}

	known := map[string]bool{}
	for _, o := range batch {
		known[o.NoticeID] = true
	}

	var valid []Score
	for _, sc := range parsed.RankedOpportunities {
		if !known[sc.NoticeID] {
			zap.L().Warn("score references unknown notice", zap.String("notice_id", sc.NoticeID))
			continue
		}
		if sc.FitScore < 1 {
			sc.FitScore = 1
		}
		if sc.FitScore > 10 {
			sc.FitScore = 10
		}
		if sc.PracticeArea == "" {
			sc.PracticeArea = UncategorizedArea
		}
		valid = append(valid, sc)
	}
	return valid, nil
}

func scoringRubric() string {
	areas := make([]string, 0, len(PracticeAreas))
	for name := range PracticeAreas {
		areas = append(areas, name)
	}
	sort.Strings(areas)

	var sb strings.Builder
	sb.WriteString("You are a business development analyst for a federal consulting firm. Score each opportunity for fit against the firm's practice areas.\n\nPractice areas:\n")
	for _, name := range areas {
		fmt.Fprintf(&sb, "- %s: %s\n", name, PracticeAreas[name])
	}
	fmt.Fprintf(&sb, "\nPreferred agencies (add 1 point when relevant and otherwise equal): %s.\n", strings.Join(preferredAgencies, ", "))
	sb.WriteString(`
Rules:
1. Assign a fit_score from 1 (poor fit) to 10 (excellent fit).
2. Assign exactly one assigned_practice_area, the one where the opportunity scores highest; use "Uncategorized" when nothing clearly fits.
3. Provide a one-sentence justification of 15 words or less.
4. Opportunities centered on hardware purchases, medical services, construction trades, software licensing, or facility alarm systems are a poor fit; score them 1-2.

Respond with ONLY a JSON object:
{"ranked_opportunities": [{"notice_id": "<id>", "assigned_practice_area": "<area>", "fit_score": <1-10>, "justification": "<sentence>"}]}
Include one entry per opportunity.`)
	return sb.String()
}

const scoringDescriptionLimit = 1500

func buildScoringPrompt(batch []model.Opportunity) string {
	var sb strings.Builder
	sb.WriteString("Score the following opportunities:\n")
	for i, o := range batch {
		fmt.Fprintf(&sb, "\nOpportunity %d:\n", i+1)
		fmt.Fprintf(&sb, "- Notice ID: %s\n", o.NoticeID)
		fmt.Fprintf(&sb, "- Title: %s\n", o.Title)
		fmt.Fprintf(&sb, "- Department: %s\n", o.Department)
		fmt.Fprintf(&sb, "- NAICS: %s\n", o.NAICSCode)
		fmt.Fprintf(&sb, "- Type: %s\n", o.Type)
		fmt.Fprintf(&sb, "- Set-Aside: %s\n", o.SetAside)
		fmt.Fprintf(&sb, "- Description: %s\n", truncate(o.Description, scoringDescriptionLimit))
	}
	return sb.String()
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
