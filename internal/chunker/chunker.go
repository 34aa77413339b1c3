// Package chunker splits extracted document text into ordered, titled chunks
// sized for embedding. Hazard/precaution code lines (H300, P210, ...) are never
// separated from the context that precedes them, and tables are kept whole.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

const DefaultSectionTitle = "General"

var (
	// H/P code pattern — never split these lines from surrounding context.
	hpPattern = regexp.MustCompile(`\b[HP]\d{3}[A-Z0-9]*\b`)

	// Conservative title detection: all-caps words only, or explicit "SECTION N" pattern.
	titlePattern = regexp.MustCompile(`(?i)^(?:[A-Z][A-Z\s\d\-/]{2,}:|SECTION\s+\d|SEZIONE\s+\d)`)

	listItemPattern = regexp.MustCompile(`^[\d\-*•]`)
)

type Chunk struct {
	Text         string
	SectionTitle string
}

type Chunker struct {
	size         int
	overlapLines int
}

func New(size, overlapLines int) *Chunker {
	if size <= 0 {
		size = 600
	}
	if overlapLines <= 0 {
		overlapLines = 3
	}
	return &Chunker{size: size, overlapLines: overlapLines}
}

// Split chunks plain text into ~size-character pieces with overlapLines of
// line overlap between consecutive chunks. Section titles are detected
// conservatively so that list-style documents (ingredient lists, hazard
// tables) do not fragment into one chunk per line.
func (c *Chunker) Split(text string) []Chunk {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}

	var chunks []Chunk
	currentSection := DefaultSectionTitle
	var buf []string
	bufLen := 0

	flush := func() {
		joined := strings.TrimSpace(strings.Join(buf, "\n"))
		if joined != "" {
			chunks = append(chunks, Chunk{Text: joined, SectionTitle: currentSection})
		}
	}

	keepOverlap := func() {
		start := len(buf) - c.overlapLines
		if start < 0 {
			start = 0
		}
		buf = append([]string(nil), buf[start:]...)
		bufLen = 0
		for _, l := range buf {
			bufLen += len(l) + 1
		}
	}

	for _, line := range lines {
		words := strings.Fields(line)

		// A section title matches the pattern AND is short AND is not a
		// list item (no leading digit or bullet).
		isTitle := len(line) <= 70 &&
			len(words) <= 8 &&
			!listItemPattern.MatchString(line) &&
			(titlePattern.MatchString(line) || (isAllCaps(line) && len(words) <= 6))

		if isTitle {
			// Flush the buffer only when it holds enough content; the chunk
			// keeps the previous section's title.
			if len(buf) > 0 && bufLen >= c.size/4 {
				flush()
				keepOverlap()
			}
			currentSection = strings.TrimRight(line, ":")
		}

		buf = append(buf, line)
		bufLen += len(line) + 1

		if bufLen >= c.size {
			// Don't split if the triggering line carries an H/P code.
			if hpPattern.MatchString(line) {
				continue
			}
			flush()
			keepOverlap()
		}
	}

	if len(buf) > 0 {
		flush()
	}

	if len(chunks) == 0 {
		return []Chunk{{Text: truncateRunes(text, c.size), SectionTitle: DefaultSectionTitle}}
	}
	return chunks
}

func isAllCaps(s string) bool {
	hasCased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasCased = true
		}
	}
	return hasCased
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
