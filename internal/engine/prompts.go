package engine

import (
	"fmt"
	"strings"

	"github.com/brainstorm-platform/idea-engine/internal/rag"
)

// Prompt builders. The wording is not a contract; the output-format blocks
// are, because the parsers key on the markers and headings requested here.

const warmupSystemPrompt = "You are a capable planner. You ask concrete, practical questions matched to the user's line of work."

func warmupPrompt(purpose string) string {
	return fmt.Sprintf(`The user wants to generate ideas for: "%s"

Infer the user's line of work from the purpose (creator, small business owner, office worker, developer, student, ...) and write 2-3 specific warm-up questions that person would actually wrestle with.

Rules:
- Each question on its own line, prefixed with "- "
- Questions only, no other commentary
- Keep each question short and concrete`, purpose)
}

const ideaSystemPrompt = "You are a pragmatic planner. You never invent statistics, costs, or market sizes, and you only propose ideas the user could start within days or weeks with the resources they already have. You must produce 2-3 complete ideas."

func ideaPrompt(purpose string, keywords, trends []string, techniques []rag.TechniqueDoc) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The user wants ideas for: %q\n\n", purpose)

	fmt.Fprintf(&b, "Core: the user's own brainstorming keywords (80%% weight):\n%s\n", strings.Join(keywords, ", "))
	b.WriteString("Build every idea around these keywords; the user came up with them.\n\n")

	trendLine := "none"
	if len(trends) > 0 {
		trendLine = strings.Join(trends, ", ")
	}
	fmt.Fprintf(&b, "Reference: current trend keywords (20%% weight):\n%s\n", trendLine)
	b.WriteString("Use trends only to add timeliness.\n\n")

	if len(techniques) > 0 {
		b.WriteString("Applicable brainstorming techniques:\n")
		for i, t := range techniques {
			content := t.Content
			if len(content) > 500 {
				content = content[:500] + "..."
			}
			fmt.Fprintf(&b, "[Technique %d] %s\n%s\n\n", i+1, t.Title, content)
		}
		b.WriteString("Apply at least one technique per idea and name it.\n\n")
	}

	b.WriteString(`Rules:
1. Produce 2-3 complete ideas.
2. Never invent statistics, costs, competitor data, or market sizes. Mark unknowns as "needs checking".
3. Each idea must be realistically startable within days to weeks.
4. Plain text only, no markdown bold.

Output format (repeat for every idea, separated by a line containing only ---):

Idea 1: [title implying the solution]

Problem:
[who is in what situation, and what concretely goes wrong]

Solution:
[how the idea works, what the user does and what happens]

Expected Effect:
[the concrete changes this produces, tied to the problem above]

Technique:
[the brainstorming technique used and how it led here]

Analysis:
Strengths: [1-2 lines]
Weaknesses: [1-2 lines]
Opportunities: [1-2 lines]
Threats: [1-2 lines]
`)

	return b.String()
}

const swotSystemPrompt = "You are a pragmatic planner. SWOT analyses are short, 1-2 lines per category, and all four categories are always present."

func swotPrompt(title, description string) string {
	return fmt.Sprintf(`Run a SWOT analysis of this idea:

Title: %s
Description: %s

Rules:
1. No invented data: no statistics, costs, or named competitors.
2. 1-2 lines per category, concrete over abstract.

Required format (all four categories):

Strengths:
- [one line]

Weaknesses:
- [one line]

Opportunities:
- [one line]

Threats:
- [one line]`, title, description)
}
