package detector

import (
	"strings"
	"unicode/utf8"

	"github.com/smolin/antiplag/internal/domain"
	"github.com/smolin/antiplag/internal/textsim"
)

// repostKeywords marks platform-native reshare wording; a post containing
// one is treated as attributed by construction.
var repostKeywords = []string{
	"репост",
	"repost",
	"поделился",
	"поделилась",
	"поделились",
}

// attributionKeywords short-circuit the verdict: a target that credits a
// source is not plagiarism no matter how similar it is.
var attributionKeywords = []string{
	"источник",
	"автор",
	"оригинал",
	"source",
	"author",
	"original",
	"credit",
	"спасибо",
	"thanks to",
}

// Guard runs the cheap pre-filters that reject pairs before the expensive
// comparators get involved.
type Guard struct {
	minTextLength int
}

// NewGuard creates a guard.
// Parameters:
//   - minTextLength: minimum cleaned text length in runes.
// Returns:
//   - *Guard: initialized guard.
func NewGuard(minTextLength int) *Guard {
	return &Guard{minTextLength: minTextLength}
}

// IsRepost reports whether the post is a reshare: it carries copy history,
// contains a repost keyword, or has a shared-wall-post attachment.
// Parameters:
//   - post: post to inspect.
// Returns:
//   - bool: true when the post must be excluded from plagiarism checks.
func (g *Guard) IsRepost(post *domain.Post) bool {
	if post.IsShared() {
		return true
	}
	text := strings.ToLower(post.Text)
	for _, kw := range repostKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	for _, att := range post.Attachments {
		if att.Type == "wall" {
			return true
		}
	}
	return false
}

// PassesMinLength reports whether the text still reaches the configured
// minimum length after cleaning.
func (g *Guard) PassesMinLength(text string) bool {
	return utf8.RuneCountInString(textsim.Clean(text)) >= g.minTextLength
}

// HasAttribution reports whether the target text contains any attribution
// keyword, case-insensitively.
// Parameters:
//   - targetText: raw text of the post under test.
// Returns:
//   - bool: true when the post credits a source.
func (g *Guard) HasAttribution(targetText string) bool {
	text := strings.ToLower(targetText)
	for _, kw := range attributionKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// IsAfter reports whether target was published strictly after original.
// Plagiarism requires the target to come second.
func (g *Guard) IsAfter(original, target *domain.Post) bool {
	return target.Date > original.Date
}
