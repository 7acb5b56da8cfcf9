package expert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_HeadingsAndBullets(t *testing.T) {
	text := `Some introduction text.

KEY FINDINGS:
- The pump needs a 12V supply
- Soil sensors drift over time

RECOMMENDATIONS:
1. Use capacitive sensors
2) Add a watchdog timer`

	findings, recommendations := Parse(text)

	assert.Equal(t, []string{"The pump needs a 12V supply", "Soil sensors drift over time"}, findings)
	assert.Equal(t, []string{"Use capacitive sensors", "Add a watchdog timer"}, recommendations)
}

func TestParse_MarkdownHeadings(t *testing.T) {
	text := `## Findings
* moisture matters
## Recommendations
* water at dawn`

	findings, recommendations := Parse(text)

	assert.Equal(t, []string{"moisture matters"}, findings)
	assert.Equal(t, []string{"water at dawn"}, recommendations)
}

func TestParse_InlineHeadingContent(t *testing.T) {
	findings, recommendations := Parse("Key findings: the valve leaks\nRecommendation: replace the seal")

	assert.Equal(t, []string{"the valve leaks"}, findings)
	assert.Equal(t, []string{"replace the seal"}, recommendations)
}

func TestParse_KeywordBucketingWithoutHeadings(t *testing.T) {
	text := `We recommend using a drip line.
An important point is pressure regulation.`

	findings, recommendations := Parse(text)

	assert.Len(t, recommendations, 1)
	assert.Contains(t, recommendations[0], "drip line")
	assert.Len(t, findings, 1)
	assert.Contains(t, findings[0], "pressure regulation")
}

func TestParse_NoStructureBecomesSingleFinding(t *testing.T) {
	findings, recommendations := Parse("just a blob of prose with no markers at all")

	assert.Equal(t, []string{"just a blob of prose with no markers at all"}, findings)
	assert.Empty(t, recommendations)
}

func TestParse_EmptyInput(t *testing.T) {
	findings, recommendations := Parse("   \n  ")

	assert.Empty(t, findings)
	assert.Empty(t, recommendations)
}
