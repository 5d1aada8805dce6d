package textsim

import (
	"math"
	"unicode/utf8"
)

// Reason strings attached to text similarity reports.
const (
	ReasonInsufficientLength = "insufficient length"
	ReasonHighSimilarity     = "high similarity, likely plagiarism"
	ReasonModerateSimilarity = "moderate similarity, possible plagiarism"
	ReasonMeetsThreshold     = "similarity meets threshold"
	ReasonBelowThreshold     = "similarity below threshold"
)

// Report holds the per-signal and combined text similarity scores
// for one comparison. Produced fresh per pair, never persisted.
type Report struct {
	CharSimilarity     float64 `json:"char_similarity"`
	SemanticSimilarity float64 `json:"semantic_similarity"`
	TokenJaccard       float64 `json:"token_jaccard_similarity"`
	Combined           float64 `json:"combined_similarity"`
	IsPlagiarism       bool    `json:"is_plagiarism"`
	Reason             string  `json:"reason"`
}

// Comparator computes multi-signal text similarity between two post bodies.
// The combined score is the maximum of the three signals: any single strong
// signal is sufficient evidence, a weak one must never mask a strong one.
type Comparator struct {
	threshold float64
	minLength int
}

// NewComparator creates a text comparator.
// Parameters:
//   - threshold: combined-score threshold above which a pair is flagged.
//   - minLength: minimum cleaned text length in runes for a comparison.
// Returns:
//   - *Comparator: initialized comparator.
func NewComparator(threshold float64, minLength int) *Comparator {
	return &Comparator{threshold: threshold, minLength: minLength}
}

// Compare cleans both texts and computes the similarity report.
// The contract is total: malformed or too-short input yields a zero report
// with a reason, never an error.
// Parameters:
//   - original: raw text of the candidate original post.
//   - target: raw text of the post under test.
// Returns:
//   - Report: similarity signals, combined score, verdict and reason.
func (c *Comparator) Compare(original, target string) Report {
	cleanOrig := Clean(original)
	cleanTarget := Clean(target)

	if utf8.RuneCountInString(cleanOrig) < c.minLength || utf8.RuneCountInString(cleanTarget) < c.minLength {
		return Report{Reason: ReasonInsufficientLength}
	}

	origTokens := Tokens(cleanOrig)
	targetTokens := Tokens(cleanTarget)

	report := Report{
		CharSimilarity:     sequenceRatio([]rune(cleanOrig), []rune(cleanTarget)),
		SemanticSimilarity: tfidfCosine(origTokens, targetTokens),
		TokenJaccard:       jaccard(origTokens, targetTokens),
	}
	report.Combined = math.Max(report.CharSimilarity, math.Max(report.SemanticSimilarity, report.TokenJaccard))
	report.IsPlagiarism = report.Combined >= c.threshold

	switch {
	case report.Combined >= 0.9:
		report.Reason = ReasonHighSimilarity
	case report.Combined >= 0.8:
		report.Reason = ReasonModerateSimilarity
	case report.IsPlagiarism:
		report.Reason = ReasonMeetsThreshold
	default:
		report.Reason = ReasonBelowThreshold
	}
	return report
}

// sequenceRatio returns the longest-common-subsequence matching ratio
// 2*M/(len1+len2) over the raw rune sequences. 1.0 for identical texts.
func sequenceRatio(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	matched := lcsLength(a, b)
	return 2 * float64(matched) / float64(len(a)+len(b))
}

// lcsLength computes the LCS length with a rolling two-row table.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// tfidfCosine vectorizes both token sequences with a TF-IDF model fit on
// just this pair (word 1- and 2-grams, smoothed idf, L2 normalization) and
// returns the cosine between the vectors. Degenerate input, including pairs
// that share no vocabulary, resolves to 0.0 rather than an error.
func tfidfCosine(a, b []string) float64 {
	ta := termFrequencies(a)
	tb := termFrequencies(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	// Smoothed idf over the two-document corpus: ln((1+N)/(1+df)) + 1.
	idf := func(term string) float64 {
		df := 0.0
		if _, ok := ta[term]; ok {
			df++
		}
		if _, ok := tb[term]; ok {
			df++
		}
		return math.Log(3.0/(1.0+df)) + 1.0
	}

	var dot, normA, normB float64
	for term, tf := range ta {
		w := tf * idf(term)
		normA += w * w
		if tfB, ok := tb[term]; ok {
			dot += w * tfB * idf(term)
		}
	}
	for term, tf := range tb {
		w := tf * idf(term)
		normB += w * w
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// termFrequencies counts word 1-grams and 2-grams.
func termFrequencies(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens)*2)
	for i, tok := range tokens {
		tf[tok]++
		if i+1 < len(tokens) {
			tf[tok+" "+tokens[i+1]]++
		}
	}
	return tf
}

// jaccard returns the Jaccard index over the token sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, tok := range a {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, tok := range b {
		setB[tok] = struct{}{}
	}
	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
