package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwotAllCategories(t *testing.T) {
	text := `Strengths: low upfront cost
Weaknesses:
- depends on one supplier
- long lead time
Opportunities: seasonal demand spike
Threats: larger chains may copy it`

	record := Swot(text)
	assert.Equal(t, "low upfront cost", record.Strengths)
	assert.Equal(t, "depends on one supplier long lead time", record.Weaknesses)
	assert.Equal(t, "seasonal demand spike", record.Opportunities)
	assert.Equal(t, "larger chains may copy it", record.Threats)
}

func TestSwotKoreanHeadings(t *testing.T) {
	text := `강점: 비용이 적게 든다
약점: 인력이 부족하다
기회: 지역 축제 시즌
위협: 경쟁 업체 증가`

	record := Swot(text)
	assert.Equal(t, "비용이 적게 든다", record.Strengths)
	assert.Equal(t, "인력이 부족하다", record.Weaknesses)
	assert.Equal(t, "지역 축제 시즌", record.Opportunities)
	assert.Equal(t, "경쟁 업체 증가", record.Threats)
}

func TestSwotMissingCategoryGetsSentinel(t *testing.T) {
	text := `Strengths: quick to test
Weaknesses: unproven channel
Opportunities: first mover locally`

	record := Swot(text)
	assert.Equal(t, "quick to test", record.Strengths)
	assert.Equal(t, NoData, record.Threats)
}

func TestSwotEmptyInput(t *testing.T) {
	record := Swot("")
	assert.Equal(t, NoData, record.Strengths)
	assert.Equal(t, NoData, record.Weaknesses)
	assert.Equal(t, NoData, record.Opportunities)
	assert.Equal(t, NoData, record.Threats)
}

func TestSwotTextBeforeFirstHeadingDiscarded(t *testing.T) {
	text := `Here is the breakdown you asked for.
Strengths: loyal base`

	record := Swot(text)
	assert.Equal(t, "loyal base", record.Strengths)
}
