package textsim

import (
	"math"
	"testing"
)

func TestCleanStripsMarkup(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "url removed",
			input: "read this https://example.com/post?id=1 now",
			want:  "read this now",
		},
		{
			name:  "hashtags and mentions removed",
			input: "great news #новости #tech by @someuser today",
			want:  "great news by today",
		},
		{
			name:  "whitespace collapsed",
			input: "too   many\n\nspaces\there",
			want:  "too many spaces here",
		},
		{
			name:  "only markup leaves empty string",
			input: "#tag @user https://example.com",
			want:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Clean(tc.input)
			if got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestCompareIdenticalTexts(t *testing.T) {
	c := NewComparator(0.70, 20)
	text := "Это оригинальный текст с уникальным содержанием и интересными фактами."

	report := c.Compare(text, text)

	if report.Combined != 1.0 {
		t.Errorf("combined similarity = %v, want exactly 1.0", report.Combined)
	}
	if !report.IsPlagiarism {
		t.Error("identical texts above minimum length must be flagged")
	}
	if report.Reason != ReasonHighSimilarity {
		t.Errorf("reason = %q, want %q", report.Reason, ReasonHighSimilarity)
	}
}

func TestCompareNoSharedTokens(t *testing.T) {
	c := NewComparator(0.70, 20)

	report := c.Compare(
		"completely unrelated sentence about gardening tips",
		"финансовый отчет за прошедший квартал компании",
	)

	if report.SemanticSimilarity != 0.0 {
		t.Errorf("semantic similarity = %v, want exactly 0.0", report.SemanticSimilarity)
	}
	if report.TokenJaccard != 0.0 {
		t.Errorf("token jaccard = %v, want exactly 0.0", report.TokenJaccard)
	}
	if report.IsPlagiarism {
		t.Error("disjoint texts must not be flagged")
	}
}

func TestCompareNearDuplicate(t *testing.T) {
	c := NewComparator(0.70, 20)

	report := c.Compare(
		"Интересная статья о технологиях и инновациях в современном мире.",
		"Интересная статья о технологиях и инновациях в мире.",
	)

	if report.Combined < 0.70 {
		t.Errorf("combined similarity = %v, want >= 0.70", report.Combined)
	}
	if !report.IsPlagiarism {
		t.Error("near-duplicate pair must be flagged")
	}
}

func TestCompareShortTexts(t *testing.T) {
	c := NewComparator(0.70, 20)

	report := c.Compare("Короткий текст.", "Другой короткий текст.")

	if report.Combined != 0.0 {
		t.Errorf("combined similarity = %v, want 0.0", report.Combined)
	}
	if report.IsPlagiarism {
		t.Error("texts below minimum length must not be flagged")
	}
	if report.Reason != ReasonInsufficientLength {
		t.Errorf("reason = %q, want %q", report.Reason, ReasonInsufficientLength)
	}
}

func TestSequenceRatioSymmetric(t *testing.T) {
	a := []rune("the quick brown fox jumps over the lazy dog")
	b := []rune("the quick brown fox leaps over a lazy dog")

	ab := sequenceRatio(a, b)
	ba := sequenceRatio(b, a)
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("sequenceRatio not symmetric: %v vs %v", ab, ba)
	}
	if ab <= 0 || ab >= 1 {
		t.Errorf("sequenceRatio = %v, want in (0,1) for near-duplicates", ab)
	}
}

func TestTfidfCosineBounds(t *testing.T) {
	a := Tokens("shared words appear in both of these texts")
	b := Tokens("shared words appear in one of those texts")

	got := tfidfCosine(a, b)
	if got <= 0 || got > 1 {
		t.Errorf("tfidfCosine = %v, want in (0,1]", got)
	}
}

func TestJaccardPartialOverlap(t *testing.T) {
	a := Tokens("alpha beta gamma")
	b := Tokens("beta gamma delta")

	got := jaccard(a, b)
	want := 2.0 / 4.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("jaccard = %v, want %v", got, want)
	}
}
