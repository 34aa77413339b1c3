package coa

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Package coa compares numeric parameters between two Certificates of
// Analysis. The comparison is technical commentary only and never makes a
// GMP release decision.

const DefaultThreshold = 5.0

var (
	// "pH: 7.2", "Assay: 99.5 %", "Melting Point | 120.3"
	colonPattern = regexp.MustCompile(`(?m)^([A-Za-z][A-Za-z0-9 \-/()]{1,50}?)\s*[:|]\s*([+-]?\d+\.?\d*)`)
	// "Density = 0.79"
	equalsPattern = regexp.MustCompile(`([A-Za-z][A-Za-z0-9 \-/()]{1,50}?)\s*=\s*([+-]?\d+\.?\d*)`)

	spacesPattern = regexp.MustCompile(`\s+`)
)

// Deviation is one compared parameter. Val1/Val2 are nil when the parameter
// appears in only one document; such rows are always flagged.
type Deviation struct {
	Name      string   `json:"name"`
	Val1      *float64 `json:"val1"`
	Val2      *float64 `json:"val2"`
	Deviation *float64 `json:"deviation"`
	Flagged   bool     `json:"flagged"`
}

type Comparison struct {
	Parameters []Deviation `json:"parameters"`
	Summary    string      `json:"summary"`
}

// ExtractParameters pulls named numeric values from CoA text. The first
// occurrence of a parameter name wins.
func ExtractParameters(text string) map[string]float64 {
	params := make(map[string]float64)

	for _, pattern := range []*regexp.Regexp{colonPattern, equalsPattern} {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			name := normalizeName(m[1])
			val, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			if _, ok := params[name]; !ok {
				params[name] = val
			}
		}
	}

	return params
}

func normalizeName(name string) string {
	return spacesPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), " ")
}

// Compare extracts parameters from both documents and reports per-parameter
// percentage deviations. Shared parameters deviating more than threshold
// percent, and parameters present in only one document, are flagged.
func Compare(text1, text2 string, threshold float64) Comparison {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	params1 := ExtractParameters(text1)
	params2 := ExtractParameters(text2)

	var shared, only1, only2 []string
	for name := range params1 {
		if _, ok := params2[name]; ok {
			shared = append(shared, name)
		} else {
			only1 = append(only1, name)
		}
	}
	for name := range params2 {
		if _, ok := params1[name]; !ok {
			only2 = append(only2, name)
		}
	}
	sort.Strings(shared)
	sort.Strings(only1)
	sort.Strings(only2)

	results := make([]Deviation, 0, len(shared)+len(only1)+len(only2))

	for _, name := range shared {
		v1, v2 := params1[name], params2[name]
		mid := (v1 + v2) / 2
		deviation := 0.0
		if mid != 0 {
			deviation = math.Abs(v1-v2) / mid * 100
		}
		deviation = round2(deviation)
		results = append(results, Deviation{
			Name:      name,
			Val1:      ptr(v1),
			Val2:      ptr(v2),
			Deviation: ptr(deviation),
			Flagged:   deviation > threshold,
		})
	}

	for _, name := range only1 {
		results = append(results, Deviation{Name: name, Val1: ptr(params1[name]), Flagged: true})
	}
	for _, name := range only2 {
		results = append(results, Deviation{Name: name, Val2: ptr(params2[name]), Flagged: true})
	}

	flagged := 0
	for _, r := range results {
		if r.Flagged {
			flagged++
		}
	}

	return Comparison{Parameters: results, Summary: buildSummary(shared, only1, only2, flagged, len(results), threshold)}
}

func buildSummary(shared, only1, only2 []string, flagged, total int, threshold float64) string {
	parts := []string{
		fmt.Sprintf("Compared %d shared parameters between two CoA documents.", len(shared)),
		fmt.Sprintf("%d of %d parameters exceed the %.1f%% deviation threshold.", flagged, total, threshold),
	}

	if len(only1) > 0 {
		parts = append(parts, fmt.Sprintf("%d parameter(s) present only in File A: %s.", len(only1), joinFirst(only1, 5)))
	}
	if len(only2) > 0 {
		parts = append(parts, fmt.Sprintf("%d parameter(s) present only in File B: %s.", len(only2), joinFirst(only2, 5)))
	}

	if flagged == 0 {
		parts = append(parts, "No significant deviations detected — technical values are consistent.")
	} else {
		parts = append(parts, "Technical note: flagged deviations warrant review against specification limits. "+
			"This report does not constitute a GMP release decision.")
	}

	return strings.Join(parts, " ")
}

func joinFirst(names []string, n int) string {
	if len(names) > n {
		names = names[:n]
	}
	return strings.Join(names, ", ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 {
	return &v
}
