package imagesim

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestComparator() *Comparator {
	return NewComparator(&Config{
		HammingThreshold: 10,
		FetchTimeout:     5 * time.Second,
	})
}

// imageServer serves the deterministic test pattern as PNG under /a and /b
// and answers 404 for anything else.
func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, patternImage(64)); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	payload := buf.Bytes()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a", "/b":
			w.Header().Set("Content-Type", "image/png")
			w.Write(payload)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestCompareIdenticalImages(t *testing.T) {
	srv := imageServer(t)
	defer srv.Close()

	c := newTestComparator()
	report := c.Compare(context.Background(), []string{srv.URL + "/a"}, []string{srv.URL + "/b"})

	if report.HammingDistance != 0 {
		t.Errorf("hamming distance = %d, want 0", report.HammingDistance)
	}
	if report.CombinedSimilarity != 1.0 {
		t.Errorf("similarity = %v, want 1.0", report.CombinedSimilarity)
	}
	if !report.IsPlagiarism {
		t.Error("identical images must be flagged")
	}
	if report.MatchedOriginal != srv.URL+"/a" || report.MatchedTarget != srv.URL+"/b" {
		t.Errorf("matched pair = (%q, %q), want (/a, /b)", report.MatchedOriginal, report.MatchedTarget)
	}
}

func TestCompareSymmetric(t *testing.T) {
	srv := imageServer(t)
	defer srv.Close()

	c := newTestComparator()
	ab := c.Compare(context.Background(), []string{srv.URL + "/a"}, []string{srv.URL + "/b"})
	ba := c.Compare(context.Background(), []string{srv.URL + "/b"}, []string{srv.URL + "/a"})

	if ab.CombinedSimilarity != ba.CombinedSimilarity {
		t.Errorf("similarity not symmetric: %v vs %v", ab.CombinedSimilarity, ba.CombinedSimilarity)
	}
	if ab.HammingDistance != ba.HammingDistance {
		t.Errorf("distance not symmetric: %d vs %d", ab.HammingDistance, ba.HammingDistance)
	}
}

func TestCompareSwallowsFetchFailures(t *testing.T) {
	srv := imageServer(t)
	defer srv.Close()

	c := newTestComparator()
	report := c.Compare(context.Background(),
		[]string{srv.URL + "/missing", srv.URL + "/a"},
		[]string{srv.URL + "/b"},
	)

	// The broken URL is skipped; the fetchable pair still wins.
	if report.HammingDistance != 0 {
		t.Errorf("hamming distance = %d, want 0", report.HammingDistance)
	}
	if !report.IsPlagiarism {
		t.Error("fetchable pair must still produce a verdict")
	}
}

func TestCompareAllFetchesFail(t *testing.T) {
	srv := imageServer(t)
	defer srv.Close()

	c := newTestComparator()
	report := c.Compare(context.Background(), []string{srv.URL + "/x"}, []string{srv.URL + "/y"})

	if report.IsPlagiarism {
		t.Error("no comparable pair must not be flagged")
	}
	if report.CombinedSimilarity != 0.0 {
		t.Errorf("similarity = %v, want 0.0", report.CombinedSimilarity)
	}
	if report.HammingDistance != HashBits {
		t.Errorf("hamming distance = %d, want %d", report.HammingDistance, HashBits)
	}
	if report.Reason != ReasonNoComparablePair {
		t.Errorf("reason = %q, want %q", report.Reason, ReasonNoComparablePair)
	}
}

func TestCompareNoImages(t *testing.T) {
	c := newTestComparator()

	report := c.Compare(context.Background(), nil, nil)

	if report.IsPlagiarism {
		t.Error("empty input must not be flagged")
	}
	if report.Reason != ReasonNoImages {
		t.Errorf("reason = %q, want %q", report.Reason, ReasonNoImages)
	}
}
