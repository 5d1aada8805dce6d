package detector

import (
	"context"

	"github.com/smolin/antiplag/internal/domain"
	"github.com/smolin/antiplag/internal/imagesim"
	"github.com/smolin/antiplag/internal/textsim"
)

// Recommendation is the closed set of follow-up actions derived from a
// verdict and its confidence.
type Recommendation string

const (
	RecommendationNone         Recommendation = "no-plagiarism"
	RecommendationReport       Recommendation = "high-confidence-report"
	RecommendationManualReview Recommendation = "medium-confidence-manual-review"
	RecommendationSkip         Recommendation = "low-confidence-do-not-report"
)

// Guard short-circuit reasons.
const (
	ReasonRepost          = "repost, not plagiarism"
	ReasonHasAttribution  = "has attribution, not plagiarism"
	ReasonPublishedBefore = "published before original, not plagiarism"
)

// Text and image axis weights for the overall score. Text dominates: it is
// present far more often and cheaper to compute reliably.
const (
	textWeight  = 0.7
	imageWeight = 0.3
)

// Verdict is the engine's complete answer for one (original, target) pair.
// Transient; the orchestrator copies the fields it persists.
type Verdict struct {
	IsPlagiarism      bool            `json:"is_plagiarism"`
	OverallSimilarity float64         `json:"overall_similarity"`
	TextSimilarity    float64         `json:"text_similarity"`
	ImageSimilarity   float64         `json:"image_similarity"`
	Confidence        float64         `json:"confidence"`
	Recommendation    Recommendation  `json:"recommendation"`
	Reason            string          `json:"reason"`
	Text              textsim.Report  `json:"text_report"`
	Image             imagesim.Report `json:"image_report"`
}

// Options narrows which axes run for a given monitored source.
type Options struct {
	CheckText   bool
	CheckImages bool
}

// Engine combines guard outcomes with the text and image comparators into a
// single verdict. Its contract is total: Check always returns a well-formed
// Verdict and never an error for well-typed input.
type Engine struct {
	guard *Guard
	text  *textsim.Comparator
	image *imagesim.Comparator
}

// NewEngine creates a decision engine.
// Parameters:
//   - guard: pre-filter guard.
//   - text: text comparator.
//   - image: image comparator.
// Returns:
//   - *Engine: initialized engine.
func NewEngine(guard *Guard, text *textsim.Comparator, image *imagesim.Comparator) *Engine {
	return &Engine{guard: guard, text: text, image: image}
}

// Check evaluates whether target plagiarizes original.
//
// Guard short-circuits run first: reposts, attributed posts and posts
// published before the original are rejected without running a comparator.
// Otherwise both axes run independently; either axis alone flags the pair,
// while the weighted overall score is reported for ranking only. Image
// comparison is skipped entirely when either side has no photos, to avoid
// needless network calls.
// Parameters:
//   - ctx: context bounding image fetches.
//   - original: candidate original post.
//   - target: post under test.
//   - opts: per-source axis toggles.
// Returns:
//   - Verdict: complete decision with confidence and recommendation.
func (e *Engine) Check(ctx context.Context, original, target *domain.Post, opts Options) Verdict {
	if e.guard.IsRepost(target) {
		return rejected(ReasonRepost)
	}
	if !e.guard.IsAfter(original, target) {
		return rejected(ReasonPublishedBefore)
	}
	if e.guard.HasAttribution(target.Text) {
		return rejected(ReasonHasAttribution)
	}

	v := Verdict{
		Text:  textsim.Report{Reason: textsim.ReasonInsufficientLength},
		Image: imagesim.Report{HammingDistance: imagesim.HashBits, Reason: imagesim.ReasonNoImages},
	}
	if opts.CheckText {
		v.Text = e.text.Compare(original.Text, target.Text)
	}
	if opts.CheckImages && original.HasImages() && target.HasImages() {
		v.Image = e.image.Compare(ctx, original.ImageURLs(), target.ImageURLs())
	}

	v.TextSimilarity = v.Text.Combined
	v.ImageSimilarity = v.Image.CombinedSimilarity
	v.OverallSimilarity = clamp01(textWeight*v.TextSimilarity + imageWeight*v.ImageSimilarity)
	v.IsPlagiarism = v.Text.IsPlagiarism || v.Image.IsPlagiarism
	v.Confidence = confidence(v.TextSimilarity, v.ImageSimilarity)

	switch {
	case v.Text.IsPlagiarism:
		v.Reason = v.Text.Reason
	case v.Image.IsPlagiarism:
		v.Reason = v.Image.Reason
	default:
		v.Reason = v.Text.Reason
	}
	v.Recommendation = recommend(v.IsPlagiarism, v.Confidence)
	return v
}

// confidence scores the strength of the evidence for notification gating.
// It never affects the verdict itself.
func confidence(textSim, imageSim float64) float64 {
	c := 0.0
	switch {
	case textSim >= 0.9:
		c += 0.4
	case textSim >= 0.8:
		c += 0.3
	case textSim >= 0.7:
		c += 0.2
	}
	switch {
	case imageSim >= 0.9:
		c += 0.3
	case imageSim >= 0.8:
		c += 0.2
	}
	return clamp01(c)
}

func recommend(isPlagiarism bool, confidence float64) Recommendation {
	if !isPlagiarism {
		return RecommendationNone
	}
	switch {
	case confidence >= 0.7:
		return RecommendationReport
	case confidence >= 0.4:
		return RecommendationManualReview
	default:
		return RecommendationSkip
	}
}

func rejected(reason string) Verdict {
	return Verdict{
		Reason:         reason,
		Recommendation: RecommendationNone,
		Text:           textsim.Report{Reason: reason},
		Image:          imagesim.Report{HammingDistance: imagesim.HashBits, Reason: reason},
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
