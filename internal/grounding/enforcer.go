package grounding

import (
	"regexp"
	"sort"
	"strings"

	"github.com/chemassist/backend/internal/metrics"
	"github.com/chemassist/backend/internal/retrieval"
)

// Package grounding audits regulatory answers against retrieved evidence.
// Both checks are advisory: they prepend warnings, never block the answer.

const (
	independenceWarning = "⚠ WARNING: Regulatory answer based on fewer than 2 independent sources. " +
		"Confidence is reduced. Verify with official regulatory databases."

	hallucinationWarningPrefix = "⚠ NOTE: The following numeric limits appear in the answer but were not found " +
		"in retrieved documents and may not be grounded: "
)

// Numeric limit tokens: a number followed by a concentration unit. Matched
// verbatim so "500 mg/kg" and "500mg/kg" are distinct claims.
var limitPattern = regexp.MustCompile(`(?i)\b(\d+\.?\d*)\s*(mg/[lLkK]g?|ppm|ppb|µg/[lLmM]|%)\b`)

// Result carries the warnings an audit produced, in prepend order.
type Result struct {
	Warnings []string
}

// HasWarnings reports whether any check fired.
func (r Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Prepend joins the warnings and prefixes them to the answer, one warning per
// line, with a blank line before the original text.
func (r Result) Prepend(answer string) string {
	if !r.HasWarnings() {
		return answer
	}
	return strings.Join(r.Warnings, "\n") + "\n\n" + answer
}

// CheckSourceIndependence fires when retrieved chunks span fewer than two
// distinct source files.
func CheckSourceIndependence(chunks []retrieval.ScoredChunk) (string, bool) {
	if retrieval.UniqueSourceFiles(chunks) >= 2 {
		return "", false
	}
	metrics.GroundingWarnings.WithLabelValues("source_independence").Inc()
	return independenceWarning, true
}

// CheckNumericClaims extracts numeric-limit tokens from the answer and from
// the concatenated evidence, and fires when the answer claims a limit the
// evidence never states. The unsupported values are listed sorted.
func CheckNumericClaims(answer string, chunks []retrieval.ScoredChunk) (string, bool) {
	answerLimits := extractLimits(answer)
	if len(answerLimits) == 0 {
		return "", false
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	evidenceLimits := extractLimits(strings.Join(texts, " "))

	var unsupported []string
	for limit := range answerLimits {
		if _, ok := evidenceLimits[limit]; !ok {
			unsupported = append(unsupported, limit)
		}
	}
	if len(unsupported) == 0 {
		return "", false
	}

	sort.Strings(unsupported)
	metrics.GroundingWarnings.WithLabelValues("numeric_claims").Inc()
	return hallucinationWarningPrefix + strings.Join(unsupported, ", "), true
}

// Audit runs both checks against a finished answer.
func Audit(answer string, chunks []retrieval.ScoredChunk) Result {
	var res Result
	if w, ok := CheckSourceIndependence(chunks); ok {
		res.Warnings = append(res.Warnings, w)
	}
	if w, ok := CheckNumericClaims(answer, chunks); ok {
		res.Warnings = append(res.Warnings, w)
	}
	return res
}

// Enforce audits the answer and returns it with any warnings prepended.
func Enforce(answer string, chunks []retrieval.ScoredChunk) string {
	return Audit(answer, chunks).Prepend(answer)
}

func extractLimits(text string) map[string]struct{} {
	limits := make(map[string]struct{})
	for _, m := range limitPattern.FindAllString(text, -1) {
		limits[m] = struct{}{}
	}
	return limits
}
