package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntities(t *testing.T) {
	text := "Acetone (CAS 67-64-1, C3H6O) is classified H225 and H319. " +
		"Apply P210 and P280. Toluene CAS 108-88-3 shares H225."

	e := ExtractEntities(text)

	assert.Equal(t, []string{"108-88-3", "67-64-1"}, e.CASNumbers)
	assert.Equal(t, []string{"H225", "H319"}, e.HazardStatements)
	assert.Equal(t, []string{"P210", "P280"}, e.PrecautionaryStatements)
	assert.Contains(t, e.ChemicalFormulas, "C3H6O")
}

func TestExtractEntitiesEmptyText(t *testing.T) {
	e := ExtractEntities("no domain tokens here")

	assert.Empty(t, e.CASNumbers)
	assert.Empty(t, e.HazardStatements)
	assert.Empty(t, e.PrecautionaryStatements)
	assert.Empty(t, e.ChemicalFormulas)
}
