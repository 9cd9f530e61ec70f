// Package publish prepares post content for the compose page of the social site.
package publish

import (
	"net/url"
	"regexp"
	"strings"
)

// IntentBaseURL is the web intent endpoint that opens a prefilled compose box.
const IntentBaseURL = "https://twitter.com/intent/tweet"

var hashtagPattern = regexp.MustCompile(`#[\w\x{4e00}-\x{9fa5}]+`)

// IntentOptions are the fields of a compose intent.
type IntentOptions struct {
	Text     string   `json:"text"`
	URL      string   `json:"url,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
	Via      string   `json:"via,omitempty"`
}

// IntentURL builds the compose intent URL. Parameters keep the order
// text, url, hashtags, via; empty fields are omitted.
func IntentURL(opts IntentOptions) string {
	var params []string
	add := func(k, v string) {
		params = append(params, k+"="+url.QueryEscape(v))
	}

	if opts.Text != "" {
		add("text", opts.Text)
	}
	if opts.URL != "" {
		add("url", opts.URL)
	}
	if len(opts.Hashtags) > 0 {
		clean := make([]string, len(opts.Hashtags))
		for i, tag := range opts.Hashtags {
			clean[i] = strings.TrimPrefix(tag, "#")
		}
		add("hashtags", strings.Join(clean, ","))
	}
	if opts.Via != "" {
		add("via", strings.TrimPrefix(opts.Via, "@"))
	}

	return IntentBaseURL + "?" + strings.Join(params, "&")
}

// ExtractHashtags returns the hashtags in content, with their leading '#'.
func ExtractHashtags(content string) []string {
	return hashtagPattern.FindAllString(content, -1)
}

// RemoveHashtags strips hashtags from content.
func RemoveHashtags(content string) string {
	return strings.TrimSpace(hashtagPattern.ReplaceAllString(content, ""))
}

// Stats describes content against the platform length ceiling.
type Stats struct {
	Length    int  `json:"length"`
	Remaining int  `json:"remaining"`
	OverLimit bool `json:"over_limit"`
}

// Measure counts content in NFC code points.
func Measure(content string) Stats {
	n := Length(content)
	return Stats{
		Length:    n,
		Remaining: MaxPostLength - n,
		OverLimit: n > MaxPostLength,
	}
}
