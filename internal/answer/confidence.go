package answer

import (
	"math"

	"github.com/chemassist/backend/internal/retrieval"
)

const (
	coverageBonusPerDoc = 0.1
	coverageBonusCap    = 0.3
	singleSourcePenalty = 0.7
	confidenceCeiling   = 0.99
)

// ComputeConfidence scores an answer from its retrieval evidence. The base is
// the mean similarity score; corroboration across distinct source documents
// adds a capped bonus. Regulatory answers resting on a single source are
// penalized before the bonus. The result never reports full certainty.
func ComputeConfidence(nChunks int, avgScore float64, nUniqueDocs int, mode string) float64 {
	if nChunks == 0 {
		return 0.0
	}

	base := avgScore
	bonus := math.Min(coverageBonusPerDoc*math.Max(float64(nUniqueDocs-1), 0), coverageBonusCap)

	if mode == retrieval.ModeRegulatory && nUniqueDocs < 2 {
		base *= singleSourcePenalty
	}

	score := base + bonus
	if score < 0 {
		score = 0
	}
	if score > confidenceCeiling {
		score = confidenceCeiling
	}
	return math.Round(score*100) / 100
}
