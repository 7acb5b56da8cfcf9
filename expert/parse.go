package expert

import (
	"strings"
	"unicode"
)

type section int

const (
	sectionNone section = iota
	sectionFindings
	sectionRecommendations
)

// Parse extracts key findings and recommendations from a free-text model
// response using tolerant line-oriented rules: heading lines switch the
// current section, bullet lines become items of that section, and keyword
// lines ("...recommend...", "...finding...") are bucketed even without a
// heading. If no structure is detected at all, the entire response becomes
// a single finding so downstream stages always have material to work with.
func Parse(text string) (findings, recommendations []string) {
	findings = []string{}
	recommendations = []string{}
	current := sectionNone

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if sec, rest, ok := classifyHeading(trimmed); ok {
			current = sec
			if rest != "" {
				appendItem(&findings, &recommendations, current, rest)
			}
			continue
		}

		if item, isBullet := trimBullet(trimmed); isBullet {
			sec := current
			if sec == sectionNone {
				sec = sectionFindings
			}
			appendItem(&findings, &recommendations, sec, item)
			continue
		}

		if current != sectionNone {
			appendItem(&findings, &recommendations, current, trimmed)
			continue
		}

		// No heading seen yet: bucket by keyword, the way free-form model
		// prose tends to label its own sentences.
		lower := strings.ToLower(trimmed)
		switch {
		case strings.Contains(lower, "recommend"):
			recommendations = append(recommendations, trimmed)
		case strings.Contains(lower, "finding") || strings.Contains(lower, "important"):
			findings = append(findings, trimmed)
		}
	}

	if len(findings) == 0 && len(recommendations) == 0 {
		if whole := strings.TrimSpace(text); whole != "" {
			findings = append(findings, whole)
		}
	}
	return findings, recommendations
}

// classifyHeading recognizes section headings such as "KEY FINDINGS:",
// "## Findings", "Recommendations: do X". The remainder after a colon is
// returned so inline content is not lost.
func classifyHeading(line string) (section, string, bool) {
	head := line
	rest := ""
	if idx := strings.Index(line, ":"); idx >= 0 {
		head = line[:idx]
		rest = strings.TrimSpace(line[idx+1:])
	}
	head = strings.ToLower(strings.Trim(head, "#*- \t"))

	switch {
	case head == "key findings" || head == "key finding" || head == "findings" || head == "finding":
		return sectionFindings, rest, true
	case head == "recommendations" || head == "recommendation":
		return sectionRecommendations, rest, true
	}
	return sectionNone, "", false
}

// trimBullet strips a leading list marker ("-", "*", "•", "1.", "2)") and
// reports whether the line was a bullet.
func trimBullet(line string) (string, bool) {
	for _, prefix := range []string{"-", "*", "•"} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	// Numbered list: digits followed by '.' or ')'.
	i := 0
	for i < len(line) && unicode.IsDigit(rune(line[i])) {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:]), true
	}
	return line, false
}

func appendItem(findings, recommendations *[]string, sec section, item string) {
	if item == "" {
		return
	}
	switch sec {
	case sectionFindings:
		*findings = append(*findings, item)
	case sectionRecommendations:
		*recommendations = append(*recommendations, item)
	}
}
