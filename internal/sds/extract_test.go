package sds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleSDS = `SECTION 1: IDENTIFICATION
Product name: Acetone, technical grade
CAS: 67-64-1

SECTION 2: HAZARDS IDENTIFICATION
Classification: Flam. Liq. 2, Eye Irrit. 2, STOT SE 3
Signal word: DANGER
Hazard statements: H225, H319, H336
Also listed: H225 (repeated)
Precautionary statements: P210, P261, P305+P351+P338

SECTION 8: EXPOSURE CONTROLS
OEL (IT): 500 ppm
ACGIH TLV: 250 ppm TWA
`

func TestExtractFullSheet(t *testing.T) {
	e := Extract(sampleSDS)

	assert.Equal(t, "67-64-1", e.CAS)
	assert.Equal(t, "Acetone, technical grade", e.SubstanceName)
	assert.Equal(t, "Danger", e.SignalWord)
	assert.Equal(t, []string{"H225", "H319", "H336"}, e.HazardStatements)
	assert.Contains(t, e.PrecautionaryStatements, "P210")
	assert.Contains(t, e.PrecautionaryStatements, "P305")
	assert.Contains(t, e.CLPClassification, "Flam. Liq.")
	assert.Contains(t, e.CLPClassification, "Eye Irrit.")
	assert.Contains(t, e.CLPClassification, "STOT SE")
	assert.Len(t, e.ExposureLimits, 2)
}

func TestExtractDeduplicatesPreservingOrder(t *testing.T) {
	e := Extract("H319 then H225 then H319 again")

	assert.Equal(t, []string{"H319", "H225"}, e.HazardStatements)
}

func TestExtractEmptyText(t *testing.T) {
	e := Extract("nothing of interest here")

	assert.Empty(t, e.CAS)
	assert.Empty(t, e.SubstanceName)
	assert.Empty(t, e.SignalWord)
	assert.Empty(t, e.HazardStatements)
	assert.Empty(t, e.ExposureLimits)
}
