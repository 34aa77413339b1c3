package chunker

import (
	"regexp"
	"strings"
)

var (
	mdHeadingPattern = regexp.MustCompile(`^(#{1,4})\s+(.+)$`)
	paragraphSplit   = regexp.MustCompile(`\n\n+`)
)

// SplitMarkdown chunks markdown text. Headings are unconditional section
// boundaries, consecutive table rows form one atomic unit (split by row with
// repeated headers only past a 3x size ceiling), and long non-tabular sections
// fall back to paragraph-boundary splitting with single-paragraph overlap.
func (c *Chunker) SplitMarkdown(text string) []Chunk {
	var chunks []Chunk
	currentTitle := DefaultSectionTitle
	var buf []string

	flushSection := func() {
		block := strings.TrimSpace(strings.Join(buf, "\n"))
		if block == "" {
			return
		}
		if len(block) <= c.size {
			chunks = append(chunks, Chunk{Text: block, SectionTitle: currentTitle})
		} else {
			chunks = append(chunks, c.splitByParagraphs(block, currentTitle)...)
		}
	}

	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		line := lines[i]

		if m := mdHeadingPattern.FindStringSubmatch(line); m != nil {
			flushSection()
			currentTitle = strings.TrimSpace(m[2])
			buf = nil
			i++
			continue
		}

		if strings.HasPrefix(line, "|") {
			var tableLines []string
			for i < len(lines) && (strings.HasPrefix(lines[i], "|") || strings.TrimSpace(lines[i]) == "") {
				if strings.HasPrefix(lines[i], "|") {
					tableLines = append(tableLines, lines[i])
				}
				i++
			}
			tableText := strings.Join(tableLines, "\n")
			// Row splitting needs data rows below the two header rows.
			if len(tableText) <= c.size*3 || len(tableLines) < 3 {
				buf = append(buf, tableText)
			} else {
				// Very large table: repeat the header rows in every sub-chunk.
				header := tableLines[:2]
				data := tableLines[2:]
				rowsPerChunk := c.tableRowsPerChunk(data)
				for j := 0; j < len(data); j += rowsPerChunk {
					end := j + rowsPerChunk
					if end > len(data) {
						end = len(data)
					}
					rows := append(append([]string(nil), header...), data[j:end]...)
					chunks = append(chunks, Chunk{Text: strings.Join(rows, "\n"), SectionTitle: currentTitle})
				}
			}
			continue
		}

		buf = append(buf, line)
		i++
	}

	flushSection()

	if len(chunks) == 0 {
		return []Chunk{{Text: truncateRunes(text, c.size), SectionTitle: DefaultSectionTitle}}
	}
	return chunks
}

func (c *Chunker) tableRowsPerChunk(data []string) int {
	widest := 1
	sample := data
	if len(sample) > 10 {
		sample = sample[:10]
	}
	for _, row := range sample {
		if len(row) > widest {
			widest = len(row)
		}
	}
	rows := c.size / widest
	if rows < 5 {
		rows = 5
	}
	return rows
}

func (c *Chunker) splitByParagraphs(text, sectionTitle string) []Chunk {
	var paras []string
	for _, p := range paragraphSplit.Split(text, -1) {
		if t := strings.TrimSpace(p); t != "" {
			paras = append(paras, t)
		}
	}

	var chunks []Chunk
	var buf []string
	bufLen := 0
	for _, para := range paras {
		if bufLen+len(para) > c.size && len(buf) > 0 {
			chunks = append(chunks, Chunk{Text: strings.Join(buf, "\n\n"), SectionTitle: sectionTitle})
			// Keep the last paragraph as overlap.
			buf = []string{buf[len(buf)-1]}
			bufLen = len(buf[0])
		}
		buf = append(buf, para)
		bufLen += len(para) + 2
	}
	if len(buf) > 0 {
		chunks = append(chunks, Chunk{Text: strings.Join(buf, "\n\n"), SectionTitle: sectionTitle})
	}

	if len(chunks) == 0 {
		return []Chunk{{Text: truncateRunes(text, c.size), SectionTitle: sectionTitle}}
	}
	return chunks
}
