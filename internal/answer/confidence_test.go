package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chemassist/backend/internal/retrieval"
)

func TestComputeConfidenceZeroChunks(t *testing.T) {
	assert.Equal(t, 0.0, ComputeConfidence(0, 0.9, 5, retrieval.ModeGeneral))
	assert.Equal(t, 0.0, ComputeConfidence(0, 0.0, 0, retrieval.ModeRegulatory))
}

func TestComputeConfidenceBaseIsAverageScore(t *testing.T) {
	assert.Equal(t, 0.6, ComputeConfidence(3, 0.6, 1, retrieval.ModeGeneral))
}

func TestComputeConfidenceCoverageBonus(t *testing.T) {
	assert.Equal(t, 0.7, ComputeConfidence(3, 0.6, 2, retrieval.ModeGeneral))
	assert.Equal(t, 0.8, ComputeConfidence(3, 0.6, 3, retrieval.ModeGeneral))
	// Bonus is capped at 0.3.
	assert.Equal(t, 0.9, ComputeConfidence(10, 0.6, 10, retrieval.ModeGeneral))
}

func TestComputeConfidenceMonotonicInUniqueDocs(t *testing.T) {
	prev := 0.0
	for docs := 1; docs <= 8; docs++ {
		score := ComputeConfidence(docs, 0.5, docs, retrieval.ModeGeneral)
		assert.GreaterOrEqual(t, score, prev)
		prev = score
	}
}

func TestComputeConfidenceRegulatorySingleSourcePenalty(t *testing.T) {
	general := ComputeConfidence(3, 0.8, 1, retrieval.ModeGeneral)
	regulatory := ComputeConfidence(3, 0.8, 1, retrieval.ModeRegulatory)

	assert.Equal(t, 0.8, general)
	assert.Equal(t, 0.56, regulatory)

	// Two sources lift the penalty.
	assert.Equal(t, 0.9, ComputeConfidence(3, 0.8, 2, retrieval.ModeRegulatory))
}

func TestComputeConfidenceNeverFullCertainty(t *testing.T) {
	assert.Equal(t, 0.99, ComputeConfidence(10, 0.95, 10, retrieval.ModeGeneral))
	assert.Equal(t, 0.99, ComputeConfidence(1, 1.5, 1, retrieval.ModeGeneral))
}
