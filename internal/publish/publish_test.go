package publish

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentURL(t *testing.T) {
	tests := []struct {
		name string
		opts IntentOptions
		want string
	}{
		{
			name: "text only",
			opts: IntentOptions{Text: "Hello world"},
			want: "https://twitter.com/intent/tweet?text=Hello+world",
		},
		{
			name: "all fields strip prefixes",
			opts: IntentOptions{
				Text:     "Launch day",
				URL:      "https://example.com/a?b=c",
				Hashtags: []string{"#golang", "dev"},
				Via:      "@polypost",
			},
			want: "https://twitter.com/intent/tweet?text=Launch+day&url=https%3A%2F%2Fexample.com%2Fa%3Fb%3Dc&hashtags=golang%2Cdev&via=polypost",
		},
		{
			name: "unicode text",
			opts: IntentOptions{Text: "你好"},
			want: "https://twitter.com/intent/tweet?text=%E4%BD%A0%E5%A5%BD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IntentURL(tt.opts))
		})
	}
}

func TestExtractHashtags(t *testing.T) {
	assert.Equal(t, []string{"#go", "#开发", "#v2_release"}, ExtractHashtags("Shipping #go today #开发 and #v2_release!"))
	assert.Empty(t, ExtractHashtags("no tags here"))
}

func TestRemoveHashtags(t *testing.T) {
	assert.Equal(t, "Shipping  today", RemoveHashtags("Shipping #go today #release"))
}

func TestMeasure(t *testing.T) {
	s := Measure("hello")
	assert.Equal(t, Stats{Length: 5, Remaining: 275}, s)

	long := Measure(strings.Repeat("a", 281))
	assert.True(t, long.OverLimit)
	assert.Equal(t, -1, long.Remaining)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"short", "Good morning", []string{TagShort}},
		{"numbered thread", "1. first\n2. second", []string{TagThread, TagShort}},
		{"paragraph thread", "a\n\nb\n\nc", []string{TagThread, TagShort}},
		{"emoji", "🎉🎉🎉🎉 party", []string{TagEmoji, TagShort}},
		{"three emoji is not enough", "🎉🎉🎉", []string{TagShort}},
		{"technical", "Our new API is live", []string{TagShort, TagTechnical}},
		{"long plain", strings.Repeat("word ", 30), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.content))
		})
	}
}

func TestMergeTags(t *testing.T) {
	assert.Equal(t, []string{"Short", "launch", "Technical"}, MergeTags([]string{"Short", "launch"}, "launch", "Technical", ""))
	assert.Equal(t, []string{}, MergeTags(nil))
}

func TestLength_CountsNFCCodePoints(t *testing.T) {
	assert.Equal(t, 1, Length("e\u0301"))
	assert.Equal(t, 1, Length("é"))
	assert.Equal(t, 2, Length("日本"))
	assert.Equal(t, 0, Length(""))
}
