package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/pkg/anthropic"
	"github.com/Bemerick/AI-SAM-Research/pkg/govwin"
)

const evaluationRubric = `You are a government contracting expert. Your task is to evaluate whether opportunities from two different sources (SAM.gov and GovWin) represent the same procurement opportunity.

Consider:
- Title similarity
- Description/scope similarity
- Agency/department match
- NAICS code match
- Timeline alignment
- Dollar value alignment

Score each candidate from 0-100:
- 0-30: Not a match
- 31-60: Possible match, needs review
- 61-85: Likely match
- 86-100: Definite match

Respond with ONLY a JSON object in this exact format:
{
  "matches": [
    {
      "govwin_id": "<candidate id>",
      "match_confidence": <0-100>,
      "match_type": "<exact_duplicate|related|teaming_candidate|unrelated>",
      "reasoning": "<brief explanation>"
    }
  ]
}
Include one entry per candidate.`

// Verdict is one accepted model judgment for a candidate pair.
type Verdict struct {
	GovWinID   string
	Confidence float64
	MatchType  model.MatchType
	Reasoning  string
	Status     model.MatchStatus
}

// EvaluatorConfig holds the oracle thresholds. Confidences below the floor
// are dropped; at or above ConfirmThreshold a match is auto-confirmed.
type EvaluatorConfig struct {
	Model            string
	MaxTokens        int64
	ConfidenceFloor  float64
	LikelyThreshold  float64
	ConfirmThreshold float64
}

// Evaluator batches admitted candidates into a single model call per source
// opportunity and parses the returned verdicts.
type Evaluator struct {
	oracle anthropic.Client
	cfg    EvaluatorConfig
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(oracle anthropic.Client, cfg EvaluatorConfig) *Evaluator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	return &Evaluator{oracle: oracle, cfg: cfg}
}

type oracleResponse struct {
	Matches []struct {
		GovWinID        string  `json:"govwin_id"`
		MatchConfidence float64 `json:"match_confidence"`
		MatchType       string  `json:"match_type"`
		Reasoning       string  `json:"reasoning"`
	} `json:"matches"`
}

// Evaluate asks the model to judge all candidates for one opportunity in a
// single call. Failures of any kind yield no verdicts, never an error; the
// caller moves on to the next opportunity.
func (e *Evaluator) Evaluate(ctx context.Context, opp *model.Opportunity, candidates []govwin.Record) []Verdict {
	if len(candidates) == 0 {
		return nil
	}

	temp := 0.1
	resp, err := e.oracle.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		System:      evaluationRubric,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildEvaluationPrompt(opp, candidates)},
		},
	})
	if err != nil {
		zap.L().Error("oracle evaluation failed",
			zap.String("notice_id", opp.NoticeID), zap.Error(err))
		return nil
	}
	resp.Usage.LogCost(e.cfg.Model, "match-evaluation")

	var parsed oracleResponse
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &parsed); err != nil {
		zap.L().Error("oracle response unparseable",
			zap.String("notice_id", opp.NoticeID), zap.Error(err))
		return nil
	}

	var verdicts []Verdict
	for _, m := range parsed.Matches {
		if m.MatchConfidence < e.cfg.ConfidenceFloor {
			continue
		}
		verdicts = append(verdicts, Verdict{
			GovWinID:   m.GovWinID,
			Confidence: m.MatchConfidence,
			MatchType:  model.MatchType(m.MatchType),
			Reasoning:  m.Reasoning,
			Status:     e.deriveStatus(m.MatchConfidence),
		})
	}
	return verdicts
}

// deriveStatus maps a retained confidence onto the review state.
func (e *Evaluator) deriveStatus(confidence float64) model.MatchStatus {
	if confidence >= e.cfg.ConfirmThreshold {
		return model.MatchStatusConfirmed
	}
	return model.MatchStatusPendingReview
}

// ConfidenceTier names the band a retained confidence falls into, for logs
// and review notes.
func (e *Evaluator) ConfidenceTier(confidence float64) string {
	switch {
	case confidence >= e.cfg.ConfirmThreshold:
		return "definite"
	case confidence >= e.cfg.LikelyThreshold:
		return "likely"
	default:
		return "possible"
	}
}

const descriptionLimit = 800

func buildEvaluationPrompt(opp *model.Opportunity, candidates []govwin.Record) string {
	var sb strings.Builder
	sb.WriteString("Evaluate whether any of the candidates below is the same opportunity as this SAM.gov notice:\n\n")
	sb.WriteString("SAM.gov Opportunity:\n")
	fmt.Fprintf(&sb, "- Title: %s\n", opp.Title)
	fmt.Fprintf(&sb, "- Notice ID: %s\n", opp.NoticeID)
	fmt.Fprintf(&sb, "- Solicitation #: %s\n", orNA(opp.SolicitationNumber))
	fmt.Fprintf(&sb, "- Department: %s\n", orNA(opp.Department))
	fmt.Fprintf(&sb, "- NAICS: %s\n", orNA(opp.NAICSCode))
	fmt.Fprintf(&sb, "- Posted: %s\n", orNA(opp.PostedDate))
	fmt.Fprintf(&sb, "- Response Deadline: %s\n", orNA(opp.ResponseDeadline))
	fmt.Fprintf(&sb, "- Description: %s\n", truncate(opp.Description, descriptionLimit))

	for i, c := range candidates {
		fmt.Fprintf(&sb, "\nCandidate %d:\n", i+1)
		fmt.Fprintf(&sb, "- GovWin ID: %s\n", c.GovWinID())
		fmt.Fprintf(&sb, "- Title: %s\n", c.Title)
		naics := "N/A"
		if c.PrimaryNAICS != nil {
			naics = c.PrimaryNAICS.ID
		}
		fmt.Fprintf(&sb, "- NAICS: %s\n", naics)
		fmt.Fprintf(&sb, "- Solicitation #: %s\n", orNA(c.SolicitationNumber))
		fmt.Fprintf(&sb, "- Description: %s\n", truncate(c.Description, descriptionLimit))
	}
	return sb.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if s == "" {
		return "N/A"
	}
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
