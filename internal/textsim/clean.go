package textsim

import (
	"regexp"
	"strings"
)

// Cleaning regexes, applied in order. \p{L} keeps hashtag/mention stripping
// working for Cyrillic tags, which plain \w would miss.
var (
	urlPattern        = regexp.MustCompile(`https?://[^\s]+`)
	hashtagPattern    = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	mentionPattern    = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Clean normalizes post text before comparison: URLs, hashtags and
// @-mentions are stripped and whitespace is collapsed. All comparators
// operate on cleaned text so their scores are mutually consistent.
// Parameters:
//   - text: raw post text.
// Returns:
//   - string: normalized text, possibly empty.
func Clean(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = hashtagPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Tokens splits cleaned text into lowercase whitespace-delimited tokens.
// Parameters:
//   - cleaned: text already passed through Clean.
// Returns:
//   - []string: tokens in order of appearance, possibly empty.
func Tokens(cleaned string) []string {
	if cleaned == "" {
		return nil
	}
	return strings.Fields(strings.ToLower(cleaned))
}
