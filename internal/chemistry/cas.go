package chemistry

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	casPattern     = regexp.MustCompile(`^\d{2,7}-\d{2}-\d$`)
	formulaPattern = regexp.MustCompile(`^([A-Z][a-z]?\d*)+$`)
	namePattern    = regexp.MustCompile(`[^a-z0-9\s\-]`)
)

// Input kinds recognized by ParseInput.
const (
	KindCAS     = "cas"
	KindFormula = "formula"
	KindSMILES  = "smiles"
)

// ValidateCAS checks format and the CAS checksum: the check digit equals the
// positionally weighted digit sum of the body, mod 10.
func ValidateCAS(cas string) error {
	cas = strings.TrimSpace(cas)
	if !casPattern.MatchString(cas) {
		return fmt.Errorf("invalid CAS format (expected XX-YY-Z): %q", cas)
	}

	digits := strings.ReplaceAll(cas, "-", "")
	check := int(digits[len(digits)-1] - '0')
	body := digits[:len(digits)-1]

	total := 0
	for i := 0; i < len(body); i++ {
		d := int(body[len(body)-1-i] - '0')
		total += (i + 1) * d
	}

	if expected := total % 10; check != expected {
		return fmt.Errorf("CAS checksum mismatch (expected %d, got %d)", expected, check)
	}
	return nil
}

// ParseInput classifies a chemical identifier as a CAS number, a molecular
// formula, or (by default) a SMILES string.
func ParseInput(text string) (kind, value string) {
	text = strings.TrimSpace(text)
	if casPattern.MatchString(text) {
		return KindCAS, text
	}
	if formulaPattern.MatchString(text) {
		return KindFormula, text
	}
	return KindSMILES, text
}

// ValidFormula reports whether the string looks like a Hill-style molecular
// formula (element symbols with optional counts).
func ValidFormula(formula string) bool {
	return formulaPattern.MatchString(strings.TrimSpace(formula))
}

// NormalizeName lowercases a chemical name and strips everything except
// letters, digits, spaces and hyphens.
func NormalizeName(name string) string {
	return strings.TrimSpace(namePattern.ReplaceAllString(strings.ToLower(name), ""))
}
