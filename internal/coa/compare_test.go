package coa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractParameters(t *testing.T) {
	text := strings.Join([]string{
		"pH: 7.2",
		"Assay: 99.5 %",
		"Heavy Metals: 10 ppm",
		"Melting Point | 120.3",
		"Density = 0.79",
	}, "\n")

	params := ExtractParameters(text)

	assert.Equal(t, 7.2, params["ph"])
	assert.Equal(t, 99.5, params["assay"])
	assert.Equal(t, 10.0, params["heavy metals"])
	assert.Equal(t, 120.3, params["melting point"])
	assert.Equal(t, 0.79, params["density"])
}

func TestExtractParametersFirstOccurrenceWins(t *testing.T) {
	params := ExtractParameters("pH: 7.2\npH: 9.9")

	assert.Equal(t, 7.2, params["ph"])
}

func TestCompareWithinThreshold(t *testing.T) {
	c := Compare("Assay: 99.5\npH: 7.0", "Assay: 99.0\npH: 7.1", 5.0)

	require.Len(t, c.Parameters, 2)
	for _, p := range c.Parameters {
		assert.False(t, p.Flagged, p.Name)
	}
	assert.Contains(t, c.Summary, "No significant deviations detected")
}

func TestCompareFlagsLargeDeviation(t *testing.T) {
	c := Compare("Heavy Metals: 10", "Heavy Metals: 20", 5.0)

	require.Len(t, c.Parameters, 1)
	p := c.Parameters[0]
	assert.True(t, p.Flagged)
	// abs(10-20)/15*100
	require.NotNil(t, p.Deviation)
	assert.InDelta(t, 66.67, *p.Deviation, 0.01)
	assert.Contains(t, c.Summary, "does not constitute a GMP release decision")
}

func TestCompareParameterInOneFileOnly(t *testing.T) {
	c := Compare("pH: 7.0\nAssay: 99.5", "pH: 7.0", 5.0)

	require.Len(t, c.Parameters, 2)

	var only *Deviation
	for i := range c.Parameters {
		if c.Parameters[i].Name == "assay" {
			only = &c.Parameters[i]
		}
	}
	require.NotNil(t, only)
	assert.True(t, only.Flagged)
	assert.Nil(t, only.Val2)
	assert.Nil(t, only.Deviation)
	assert.Contains(t, c.Summary, "present only in File A: assay")
}

func TestCompareZeroMidpoint(t *testing.T) {
	c := Compare("Offset: 0", "Offset: 0", 5.0)

	require.Len(t, c.Parameters, 1)
	assert.False(t, c.Parameters[0].Flagged)
	assert.Equal(t, 0.0, *c.Parameters[0].Deviation)
}
