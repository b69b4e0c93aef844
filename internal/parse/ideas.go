package parse

import (
	"regexp"
	"strings"

	"github.com/brainstorm-platform/idea-engine/internal/models"
)

// ideaMarker matches the start of a new idea block: an idea marker, an
// ordinal, and a colon ("Idea 1:", "아이디어 2:").
var ideaMarker = regexp.MustCompile(`^(?:아이디어|Idea)\s*\d+\s*[:：]`)

// separatorToken is emitted by models between idea blocks and is always
// ignored.
const separatorToken = "---"

// Ideas converts one generation result into an ordered sequence of idea
// records. Lines before the first idea marker and outside any known section
// are discarded. Records without a title are dropped. An empty result is a
// valid return; callers decide whether that is an error.
func Ideas(text string) []models.Idea {
	var (
		ideas   []models.Idea
		current *models.Idea
		active  SectionKind
		body    strings.Builder
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(body.String())
		if current.Title != "" {
			splitAnalysis(current)
			ideas = append(ideas, *current)
		}
		current = nil
		active = SectionNone
		body.Reset()
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || line == separatorToken {
			continue
		}

		if loc := ideaMarker.FindStringIndex(line); loc != nil {
			flush()
			current = &models.Idea{Title: strings.TrimSpace(line[loc[1]:])}
			continue
		}
		if current == nil {
			continue
		}

		if kind := classifyHeading(line); kind != SectionNone {
			active = kind
			body.WriteString("\n")
			body.WriteString(kind.Label())
			body.WriteString("\n")
			continue
		}

		if active != SectionNone {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()

	return ideas
}

// splitAnalysis moves everything from the analysis heading onward out of the
// description and into the analysis field. Ideas without an analysis section
// keep an empty analysis.
func splitAnalysis(idea *models.Idea) {
	label := SectionAnalysis.Label()
	idx := strings.Index(idea.Description, label)
	if idx < 0 {
		idea.Analysis = ""
		return
	}
	rest := strings.TrimSpace(strings.TrimPrefix(idea.Description[idx:], label))
	idea.Description = strings.TrimSpace(idea.Description[:idx])
	idea.Analysis = label + "\n" + rest
}
