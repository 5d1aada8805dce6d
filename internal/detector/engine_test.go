package detector

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smolin/antiplag/internal/domain"
	"github.com/smolin/antiplag/internal/imagesim"
	"github.com/smolin/antiplag/internal/textsim"
)

func newTestEngine() *Engine {
	return NewEngine(
		NewGuard(20),
		textsim.NewComparator(0.70, 20),
		imagesim.NewComparator(&imagesim.Config{HammingThreshold: 10, FetchTimeout: 5 * time.Second}),
	)
}

func textPost(ownerID, postID, date int64, text string) *domain.Post {
	return &domain.Post{PostID: postID, OwnerID: ownerID, Text: text, Date: date}
}

var allAxes = Options{CheckText: true, CheckImages: true}

func TestCheckNearDuplicateText(t *testing.T) {
	e := newTestEngine()

	v := e.Check(context.Background(),
		textPost(-1, 1, 1000, "Интересная статья о технологиях и инновациях в современном мире."),
		textPost(-2, 2, 2000, "Интересная статья о технологиях и инновациях в мире."),
		allAxes,
	)

	if !v.IsPlagiarism {
		t.Fatal("near-duplicate text must be flagged")
	}
	if v.TextSimilarity < 0.70 {
		t.Errorf("text similarity = %v, want >= 0.70", v.TextSimilarity)
	}
	if v.OverallSimilarity != clamp01(0.7*v.TextSimilarity+0.3*v.ImageSimilarity) {
		t.Error("overall similarity is not the weighted function of the axis scores")
	}
}

func TestCheckRepostNeverFlagged(t *testing.T) {
	e := newTestEngine()
	text := "Это оригинальный текст с уникальным содержанием и интересными фактами."

	target := textPost(-2, 2, 2000, text)
	target.CopyHistory = []domain.Post{{PostID: 5}}

	v := e.Check(context.Background(), textPost(-1, 1, 1000, text), target, allAxes)

	if v.IsPlagiarism {
		t.Error("repost must never be flagged, regardless of similarity")
	}
	if v.Reason != ReasonRepost {
		t.Errorf("reason = %q, want %q", v.Reason, ReasonRepost)
	}
}

func TestCheckTargetPublishedBefore(t *testing.T) {
	e := newTestEngine()
	text := "Это оригинальный текст с уникальным содержанием и интересными фактами."

	v := e.Check(context.Background(), textPost(-1, 1, 2000, text), textPost(-2, 2, 1000, text), allAxes)

	if v.IsPlagiarism {
		t.Error("target published before original must not be flagged")
	}
	if v.Reason != ReasonPublishedBefore {
		t.Errorf("reason = %q, want %q", v.Reason, ReasonPublishedBefore)
	}
}

func TestCheckAttributionShortCircuits(t *testing.T) {
	e := newTestEngine()
	text := "Это оригинальный текст с уникальным содержанием и интересными фактами."

	v := e.Check(context.Background(),
		textPost(-1, 1, 1000, text),
		textPost(-2, 2, 2000, text+" Source: original blog"),
		allAxes,
	)

	if v.IsPlagiarism {
		t.Error("attributed post must not be flagged")
	}
	if v.Reason != ReasonHasAttribution {
		t.Errorf("reason = %q, want %q", v.Reason, ReasonHasAttribution)
	}
}

func TestCheckShortTextBelowThreshold(t *testing.T) {
	e := newTestEngine()

	v := e.Check(context.Background(),
		textPost(-1, 1, 1000, "Короткий текст."),
		textPost(-2, 2, 2000, "Другой короткий текст."),
		allAxes,
	)

	if v.IsPlagiarism {
		t.Error("short texts must not be flagged")
	}
	if v.TextSimilarity != 0.0 {
		t.Errorf("text similarity = %v, want 0.0", v.TextSimilarity)
	}
	if v.Text.Reason != textsim.ReasonInsufficientLength {
		t.Errorf("text reason = %q, want %q", v.Text.Reason, textsim.ReasonInsufficientLength)
	}
}

func TestCheckImageAxisAloneTriggers(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 5), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	photo := func(url string) []domain.Attachment {
		return []domain.Attachment{{
			Type:  "photo",
			Photo: &domain.Photo{Sizes: []domain.PhotoSize{{URL: url, Width: 48}}},
		}}
	}

	original := &domain.Post{PostID: 1, OwnerID: -1, Date: 1000, Attachments: photo(srv.URL + "/orig.png")}
	target := &domain.Post{PostID: 2, OwnerID: -2, Date: 2000, Attachments: photo(srv.URL + "/copy.png")}

	e := newTestEngine()
	v := e.Check(context.Background(), original, target, allAxes)

	if !v.Image.IsPlagiarism {
		t.Fatal("identical images must flag the image axis")
	}
	if !v.IsPlagiarism {
		t.Error("image axis alone must be sufficient for the verdict")
	}
	if v.TextSimilarity != 0.0 {
		t.Errorf("text similarity = %v, want 0.0 for empty texts", v.TextSimilarity)
	}
}

func TestConfidenceBands(t *testing.T) {
	testCases := []struct {
		name     string
		textSim  float64
		imageSim float64
		want     float64
	}{
		{name: "both maxed", textSim: 0.95, imageSim: 0.95, want: 0.7},
		{name: "strong text only", textSim: 0.92, imageSim: 0.0, want: 0.4},
		{name: "moderate text", textSim: 0.85, imageSim: 0.0, want: 0.3},
		{name: "threshold text", textSim: 0.72, imageSim: 0.0, want: 0.2},
		{name: "strong image only", textSim: 0.0, imageSim: 0.95, want: 0.3},
		{name: "moderate image only", textSim: 0.0, imageSim: 0.85, want: 0.2},
		{name: "nothing", textSim: 0.5, imageSim: 0.5, want: 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := confidence(tc.textSim, tc.imageSim); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("confidence(%v, %v) = %v, want %v", tc.textSim, tc.imageSim, got, tc.want)
			}
		})
	}
}

func TestVerdictMonotonicInAxisScores(t *testing.T) {
	// Raising either axis similarity while holding the other fixed must
	// never flip a positive verdict back to negative.
	base := confidence(0.7, 0.0)
	for _, ts := range []float64{0.7, 0.8, 0.9, 1.0} {
		if confidence(ts, 0.0) < base {
			t.Errorf("confidence decreased as text similarity rose to %v", ts)
		}
	}

	flagged := false
	for _, ts := range []float64{0.5, 0.6, 0.69, 0.7, 0.8, 0.95} {
		is := ts >= 0.70 // text axis gate
		if flagged && !is {
			t.Errorf("verdict flipped to false at text similarity %v", ts)
		}
		if is {
			flagged = true
		}
	}
}

func TestRecommendationMapping(t *testing.T) {
	testCases := []struct {
		name         string
		isPlagiarism bool
		confidence   float64
		want         Recommendation
	}{
		{name: "not plagiarism", isPlagiarism: false, confidence: 0.9, want: RecommendationNone},
		{name: "high confidence", isPlagiarism: true, confidence: 0.7, want: RecommendationReport},
		{name: "medium confidence", isPlagiarism: true, confidence: 0.4, want: RecommendationManualReview},
		{name: "low confidence", isPlagiarism: true, confidence: 0.2, want: RecommendationSkip},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := recommend(tc.isPlagiarism, tc.confidence); got != tc.want {
				t.Errorf("recommend(%v, %v) = %v, want %v", tc.isPlagiarism, tc.confidence, got, tc.want)
			}
		})
	}
}
