package answer

import (
	"regexp"
	"sort"
)

var (
	casPattern           = regexp.MustCompile(`\b\d{2,7}-\d{2}-\d\b`)
	hazardPattern        = regexp.MustCompile(`\bH\d{3}[A-Z0-9]*\b`)
	precautionaryPattern = regexp.MustCompile(`\bP\d{3}[A-Z0-9]*\b`)
	formulaPattern       = regexp.MustCompile(`\b[A-Z][a-z]?\d*(?:[A-Z][a-z]?\d*)+\b`)
)

// ExtractEntities pulls CAS numbers, hazard and precautionary statement codes,
// and formula-like tokens from answer text. Each list is deduplicated and
// sorted. The formula pattern is a heuristic and will match some acronyms.
func ExtractEntities(text string) Entities {
	return Entities{
		CASNumbers:              uniqueSorted(casPattern.FindAllString(text, -1)),
		HazardStatements:        uniqueSorted(hazardPattern.FindAllString(text, -1)),
		PrecautionaryStatements: uniqueSorted(precautionaryPattern.FindAllString(text, -1)),
		ChemicalFormulas:        uniqueSorted(formulaPattern.FindAllString(text, -1)),
	}
}

func uniqueSorted(matches []string) []string {
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
