package matcher

import (
	"fmt"
	"strings"

	"github.com/Bemerick/AI-SAM-Research/internal/model"
)

// PrefilterResult is the rule-based screening verdict for one candidate.
type PrefilterResult struct {
	Pass    bool
	Score   int
	Reasons []string
}

// PrefilterConfig holds the screening thresholds.
type PrefilterConfig struct {
	AdmitThreshold      int
	SimilarityThreshold float64
}

// Prefilter scores a candidate title against a source opportunity using
// cheap signals, deciding whether the pair is worth a model evaluation.
// Points: 50 for a contained solicitation number, up to 30 for title
// similarity above the threshold, up to 20 for shared keywords (counted only
// once two or more match).
func Prefilter(opp *model.Opportunity, candidateTitle string, cfg PrefilterConfig) PrefilterResult {
	res := PrefilterResult{}

	if opp.SolicitationNumber != "" {
		if id := ExtractIdentifier(candidateTitle); id != "" &&
			strings.Contains(id, strings.ToUpper(opp.SolicitationNumber)) {
			res.Score += 50
			res.Reasons = append(res.Reasons, fmt.Sprintf("solicitation number match: %s", opp.SolicitationNumber))
		}
	}

	if sim := TitleSimilarity(opp.Title, candidateTitle); sim >= cfg.SimilarityThreshold {
		res.Score += int(sim * 30)
		res.Reasons = append(res.Reasons, fmt.Sprintf("title similarity: %.0f%%", sim*100))
	}

	if shared := sharedKeywords(opp.Title, candidateTitle); len(shared) >= 2 {
		points := len(shared) * 10
		if points > 20 {
			points = 20
		}
		res.Score += points
		res.Reasons = append(res.Reasons, fmt.Sprintf("matching keywords: %s", strings.Join(shared, ", ")))
	}

	res.Pass = res.Score >= cfg.AdmitThreshold
	return res
}
