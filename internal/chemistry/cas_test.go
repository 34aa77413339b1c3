package chemistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCAS(t *testing.T) {
	// Acetone, toluene, ethanol.
	for _, cas := range []string{"67-64-1", "108-88-3", "64-17-5"} {
		assert.NoError(t, ValidateCAS(cas), cas)
	}
}

func TestValidateCASChecksumMismatch(t *testing.T) {
	err := ValidateCAS("67-64-2")
	assert.ErrorContains(t, err, "checksum mismatch")
}

func TestValidateCASBadFormat(t *testing.T) {
	for _, cas := range []string{"", "abc", "1-11-1", "67641", "67-64-12"} {
		assert.ErrorContains(t, ValidateCAS(cas), "format", cas)
	}
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		in   string
		kind string
	}{
		{"67-64-1", KindCAS},
		{"C3H6O", KindFormula},
		{"H2O", KindFormula},
		{"CC(=O)C", KindSMILES},
		{"c1ccccc1", KindSMILES},
	}
	for _, tt := range tests {
		kind, value := ParseInput(" " + tt.in + " ")
		assert.Equal(t, tt.kind, kind, tt.in)
		assert.Equal(t, tt.in, value)
	}
}

func TestValidFormula(t *testing.T) {
	for _, f := range []string{"C3H6O", "H2O", "NaCl", " C6H12O6 "} {
		assert.True(t, ValidFormula(f), f)
	}
	for _, f := range []string{"", "h2o", "CC(=O)C", "67-64-1", "C3 H6O"} {
		assert.False(t, ValidFormula(f), f)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "2-propanone acetone", NormalizeName("2-Propanone (Acetone)"))
	assert.Equal(t, "sodium chloride", NormalizeName("  Sodium Chloride!  "))
}
