// Package parse converts semi-formatted model output into structured idea and
// analysis records. Heading detection is table-driven so new synonyms can be
// added without touching the line scanners.
package parse

import "strings"

// SectionKind identifies one of the named sections inside an idea block.
type SectionKind int

const (
	SectionNone SectionKind = iota
	SectionProblem
	SectionSolution
	SectionEffect
	SectionTechnique
	SectionAnalysis
)

// Label returns the canonical heading written into the record for a section.
func (k SectionKind) Label() string {
	switch k {
	case SectionProblem:
		return "Problem:"
	case SectionSolution:
		return "Solution:"
	case SectionEffect:
		return "Expected Effect:"
	case SectionTechnique:
		return "Technique:"
	case SectionAnalysis:
		return "Analysis:"
	default:
		return ""
	}
}

// sectionHeading maps heading synonyms, as they appear in generated text, to
// a section kind. Matching is substring-based and case-insensitive because
// models decorate headings with markers and emoji unpredictably.
type sectionHeading struct {
	kind     SectionKind
	synonyms []string
}

// Order matters: earlier entries win when a line matches more than one.
var sectionHeadings = []sectionHeading{
	{SectionProblem, []string{"상황과 문제", "problem", "situation"}},
	{SectionSolution, []string{"해결 아이디어", "solution"}},
	{SectionEffect, []string{"기대 효과", "기대효과", "expected effect"}},
	{SectionTechnique, []string{"발상 기법", "적용된 기법", "technique"}},
	{SectionAnalysis, []string{"분석 결과", "swot 분석", "swot analysis", "analysis"}},
}

// classifyHeading returns the section a line introduces, or SectionNone when
// the line is body text.
func classifyHeading(line string) SectionKind {
	lower := strings.ToLower(line)
	for _, h := range sectionHeadings {
		for _, syn := range h.synonyms {
			if strings.Contains(lower, syn) {
				return h.kind
			}
		}
	}
	return SectionNone
}

// stripBullet removes leading list markers and surrounding whitespace.
func stripBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "-•*· \t"))
}

// stripListMarker removes leading ordinals, bullets, and bracketing used in
// generated question lists ("1. ", "- ", "• ", "1) ").
func stripListMarker(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "0123456789.).-•* \t"))
}
