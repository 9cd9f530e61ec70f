package publish

import (
	"regexp"
	"strings"
	"unicode"
)

// Auto-classification tags.
const (
	TagThread    = "Thread"
	TagEmoji     = "Emoji"
	TagShort     = "Short"
	TagTechnical = "Technical"
)

const (
	shortThreshold = 100
	emojiThreshold = 3
)

var (
	numberedLine      = regexp.MustCompile(`(?m)^\d+[.)]`)
	technicalKeywords = []string{"code", "api", "data", "system", "algorithm", "function", "deploy"}
)

// emojiRanges covers the pictographic blocks.
var emojiRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2600, Hi: 0x27bf, Stride: 1},
		{Lo: 0x2b00, Hi: 0x2bff, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1faff, Stride: 1},
	},
}

// Classify derives content tags: Thread, Emoji, Short and Technical.
func Classify(content string) []string {
	tags := []string{}

	if numberedLine.MatchString(content) || len(strings.Split(content, "\n\n")) > 2 {
		tags = append(tags, TagThread)
	}

	if countEmoji(content) > emojiThreshold {
		tags = append(tags, TagEmoji)
	}

	if Length(content) < shortThreshold {
		tags = append(tags, TagShort)
	}

	lower := strings.ToLower(content)
	for _, kw := range technicalKeywords {
		if strings.Contains(lower, kw) {
			tags = append(tags, TagTechnical)
			break
		}
	}

	return tags
}

// MergeTags appends extra to tags, skipping duplicates, keeping order.
func MergeTags(tags []string, extra ...string) []string {
	seen := make(map[string]bool, len(tags)+len(extra))
	out := make([]string, 0, len(tags)+len(extra))
	for _, t := range append(append([]string{}, tags...), extra...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func countEmoji(s string) int {
	n := 0
	for _, r := range s {
		if unicode.Is(emojiRanges, r) {
			n++
		}
	}
	return n
}
