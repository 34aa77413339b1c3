package sds

import (
	"regexp"
	"strings"
)

// Extraction pulls structured safety data out of raw SDS text. All fields are
// best-effort regex extractions; absent data stays empty rather than failing.
type Extraction struct {
	CAS                     string   `json:"cas"`
	SubstanceName           string   `json:"substance_name"`
	HazardStatements        []string `json:"hazard_statements"`
	PrecautionaryStatements []string `json:"precautionary_statements"`
	CLPClassification       []string `json:"clp_classification"`
	SignalWord              string   `json:"signal_word"`
	ExposureLimits          []string `json:"exposure_limits"`
}

var (
	casPattern    = regexp.MustCompile(`\b\d{2,7}-\d{2}-\d\b`)
	namePattern   = regexp.MustCompile(`(?i)(?:substance\s*name|product\s*name|chemical\s*name)\s*[:\-]?\s*([^\n]+)`)
	hazardPattern = regexp.MustCompile(`\bH\d{3}[A-Z0-9]*\b`)
	precPattern   = regexp.MustCompile(`\bP\d{3}[A-Z0-9]*\b`)
	signalPattern = regexp.MustCompile(`(?i)\b(Danger|Warning)\b`)
	oelPattern    = regexp.MustCompile(`(?i)(?:OEL|TWA|STEL|WEL|OSHA PEL|ACGIH TLV)[^\n]*?(\d+\.?\d*\s*(?:mg/m3|ppm|ppb|mg/L|µg/m3))`)
)

// CLP hazard class abbreviations as they appear in section 2 of an SDS.
var clpKeywords = []string{
	"Flam. Liq.", "Acute Tox.", "Skin Irrit.", "Eye Dam.", "Eye Irrit.",
	"Skin Sens.", "Resp. Sens.", "Muta.", "Carc.", "Repr.", "STOT SE",
	"STOT RE", "Asp. Tox.", "Aquatic Chronic", "Aquatic Acute",
	"Ox. Liq.", "Ox. Sol.", "Expl.", "Self-react.", "Org. Perox.",
	"Press. Gas", "Self-heat.", "Pyr. Liq.", "Pyr. Sol.", "Water-react.",
	"Flam. Gas", "Flam. Sol.", "Flam. Aer.",
}

// Extract parses SDS text into structured fields. List fields are
// deduplicated preserving first-occurrence order.
func Extract(text string) Extraction {
	out := Extraction{
		HazardStatements:        uniqueInOrder(hazardPattern.FindAllString(text, -1)),
		PrecautionaryStatements: uniqueInOrder(precPattern.FindAllString(text, -1)),
	}

	if m := casPattern.FindString(text); m != "" {
		out.CAS = m
	}

	if m := namePattern.FindStringSubmatch(text); m != nil {
		out.SubstanceName = strings.TrimSpace(m[1])
	}

	if m := signalPattern.FindStringSubmatch(text); m != nil {
		w := strings.ToLower(m[1])
		out.SignalWord = strings.ToUpper(w[:1]) + w[1:]
	}

	lower := strings.ToLower(text)
	for _, kw := range clpKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			out.CLPClassification = append(out.CLPClassification, kw)
		}
	}

	var limits []string
	for _, m := range oelPattern.FindAllString(text, -1) {
		limits = append(limits, strings.TrimSpace(m))
	}
	out.ExposureLimits = uniqueInOrder(limits)

	return out
}

func uniqueInOrder(matches []string) []string {
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
