package parse

import (
	"strings"

	"github.com/brainstorm-platform/idea-engine/internal/models"
)

// NoData fills any analysis category that had no text in the source. A
// SwotRecord is never partially undefined.
const NoData = "(no data)"

type swotCategory int

const (
	swotNone swotCategory = iota
	swotStrengths
	swotWeaknesses
	swotOpportunities
	swotThreats
)

// Category headings are matched by fixed label or case-insensitive English
// synonym; they may appear in any order.
var swotHeadings = []struct {
	category swotCategory
	synonyms []string
}{
	{swotStrengths, []string{"강점", "strengths"}},
	{swotWeaknesses, []string{"약점", "weaknesses"}},
	{swotOpportunities, []string{"기회", "opportunities"}},
	{swotThreats, []string{"위협", "threats"}},
}

// Swot scans one analysis text into a four-category record. Content on the
// heading line after a colon is kept; subsequent non-empty lines accumulate
// into the category with bullet markers stripped. Text before the first
// heading is discarded.
func Swot(text string) models.SwotRecord {
	buffers := map[swotCategory]*strings.Builder{
		swotStrengths:     {},
		swotWeaknesses:    {},
		swotOpportunities: {},
		swotThreats:       {},
	}

	current := swotNone
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if cat, rest := classifySwotHeading(line); cat != swotNone {
			current = cat
			if rest != "" {
				appendLine(buffers[current], rest)
			}
			continue
		}

		if current == swotNone {
			continue
		}
		if cleaned := stripBullet(line); cleaned != "" {
			appendLine(buffers[current], cleaned)
		}
	}

	return models.SwotRecord{
		Strengths:     orNoData(buffers[swotStrengths]),
		Weaknesses:    orNoData(buffers[swotWeaknesses]),
		Opportunities: orNoData(buffers[swotOpportunities]),
		Threats:       orNoData(buffers[swotThreats]),
	}
}

// classifySwotHeading returns the category a line introduces and any content
// following a colon on the same line.
func classifySwotHeading(line string) (swotCategory, string) {
	lower := strings.ToLower(line)
	for _, h := range swotHeadings {
		for _, syn := range h.synonyms {
			if !strings.Contains(lower, syn) {
				continue
			}
			rest := ""
			if idx := strings.Index(line, ":"); idx >= 0 {
				rest = strings.TrimSpace(line[idx+1:])
			}
			return h.category, rest
		}
	}
	return swotNone, ""
}

func appendLine(b *strings.Builder, s string) {
	if b.Len() > 0 {
		b.WriteString(" ")
	}
	b.WriteString(s)
}

func orNoData(b *strings.Builder) string {
	if b.Len() == 0 {
		return NoData
	}
	return b.String()
}

// Questions splits a warmup generation result into an ordered question list:
// every non-empty line with leading ordinals and bullet markers stripped.
func Questions(text string) []string {
	var questions []string
	for _, raw := range strings.Split(text, "\n") {
		line := stripListMarker(strings.TrimSpace(raw))
		if line != "" {
			questions = append(questions, line)
		}
	}
	return questions
}
