package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSmallInputSingleChunk(t *testing.T) {
	c := New(600, 3)
	text := "Acetone is a volatile solvent.\nStore below 25 °C.\nKeep away from ignition sources."

	chunks := c.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, DefaultSectionTitle, chunks[0].SectionTitle)
}

func TestSplitRespectsSizeBound(t *testing.T) {
	c := New(200, 3)
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Sample line number %d with some filler content.\n", i)
	}

	chunks := c.Split(b.String())

	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(ch.Text))
	}
}

func TestSplitNeverSeparatesHazardCodeFromContext(t *testing.T) {
	c := New(120, 3)
	lines := []string{
		"The substance is classified as follows according to CLP.",
		"Flammable liquid category 2.",
		"Hazard statement H225 applies to this formulation.",
		"Additional handling guidance follows in the next section.",
	}

	chunks := c.Split(strings.Join(lines, "\n"))

	for _, ch := range chunks {
		chunkLines := strings.Split(ch.Text, "\n")
		for i, l := range chunkLines {
			if strings.Contains(l, "H225") {
				// The code line must keep its preceding context line.
				require.Greater(t, i, 0, "hazard code line opened a chunk: %q", ch.Text)
				assert.Equal(t, "Flammable liquid category 2.", chunkLines[i-1])
			}
		}
	}
}

func TestSplitConsecutiveChunksOverlap(t *testing.T) {
	c := New(150, 3)
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("Reagent %d is stored in cabinet %d.", i, i%5))
	}

	chunks := c.Split(strings.Join(lines, "\n"))
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Split(chunks[i-1].Text, "\n")
		curr := strings.Split(chunks[i].Text, "\n")

		shared := false
		for _, l := range curr {
			for _, p := range prev {
				if l == p {
					shared = true
				}
			}
		}
		assert.True(t, shared, "chunks %d and %d share no line", i-1, i)
	}
}

func TestSplitSectionTitleDetection(t *testing.T) {
	c := New(100, 3)
	text := strings.Join([]string{
		"SECTION 2: HAZARDS IDENTIFICATION",
		"The product is classified as flammable liquid category 2.",
		"It causes serious eye irritation on contact.",
		"Vapours may cause drowsiness and dizziness in enclosed spaces.",
		"Repeated exposure may cause skin dryness or cracking over time.",
	}, "\n")

	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.Equal(t, "SECTION 2: HAZARDS IDENTIFICATION", ch.SectionTitle)
	}
}

func TestSplitAllCapsHeading(t *testing.T) {
	c := New(600, 3)
	text := "COMPOSIZIONE QUALITATIVA\nAqua 70%\nGlycerin 15%"

	chunks := c.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, "COMPOSIZIONE QUALITATIVA", chunks[0].SectionTitle)
}

func TestSplitListItemsNotTreatedAsTitles(t *testing.T) {
	c := New(600, 3)
	text := strings.Join([]string{
		"INGREDIENTS",
		"- AQUA",
		"- GLYCERIN",
		"- PHENOXYETHANOL",
		"• SODIUM BENZOATE",
		"1. ETHANOL",
	}, "\n")

	chunks := c.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, "INGREDIENTS", chunks[0].SectionTitle)
}

func TestSplitDegenerateInput(t *testing.T) {
	c := New(600, 3)

	chunks := c.Split("   \n  \n ")

	require.Len(t, chunks, 1)
	assert.Equal(t, DefaultSectionTitle, chunks[0].SectionTitle)
}

func TestSplitTitleChunkKeepsPreviousSection(t *testing.T) {
	c := New(100, 3)
	first := []string{
		"SECTION 1: IDENTIFICATION",
		"Product name Acetone technical grade for laboratory use only.",
		"Supplier details are listed on the final page of this sheet.",
	}
	second := []string{
		"SECTION 2: HAZARDS",
		"Highly flammable liquid and vapour under ambient conditions.",
	}

	chunks := c.Split(strings.Join(append(first, second...), "\n"))

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "SECTION 1: IDENTIFICATION", chunks[0].SectionTitle)
	assert.Equal(t, "SECTION 2: HAZARDS", chunks[len(chunks)-1].SectionTitle)
}
