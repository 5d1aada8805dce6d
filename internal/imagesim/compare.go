package imagesim

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Reason strings attached to image similarity reports.
const (
	ReasonNoImages         = "no images to compare"
	ReasonNoComparablePair = "no image pair could be fetched"
	ReasonWithinThreshold  = "image hamming distance within threshold"
	ReasonBelowThreshold   = "image similarity below threshold"
)

// Report holds the best image match found across the cross product of two
// image URL sequences.
type Report struct {
	CombinedSimilarity float64 `json:"combined_similarity"`
	HammingDistance    int     `json:"hamming_distance"`
	IsPlagiarism       bool    `json:"is_plagiarism"`
	Reason             string  `json:"reason"`
	MatchedOriginal    string  `json:"matched_original,omitempty"`
	MatchedTarget      string  `json:"matched_target,omitempty"`
}

// Comparator fetches images by URL and compares their perceptual hashes.
// The plagiarism gate is the raw Hamming distance rather than the derived
// similarity score: small distances resolve near-duplicates at a finer
// grain than the 1/64 steps of the score.
type Comparator struct {
	client           *resty.Client
	hammingThreshold int
}

// Config holds image comparator settings.
type Config struct {
	HammingThreshold int
	FetchTimeout     time.Duration
}

// NewComparator creates an image comparator with a bounded fetch timeout.
// Parameters:
//   - cfg: threshold and timeout settings.
// Returns:
//   - *Comparator: initialized comparator.
func NewComparator(cfg *Config) *Comparator {
	client := resty.New()
	client.SetTimeout(cfg.FetchTimeout)
	return &Comparator{
		client:           client,
		hammingThreshold: cfg.HammingThreshold,
	}
}

// Compare hashes every fetchable image from both URL sequences and reports
// the minimum-distance pair across the cross product. Fetch and decode
// failures are swallowed: the failed pair scores zero similarity and the
// comparison continues with the remaining pairs. The winner is selected by
// distance value, so the result is deterministic regardless of fetch
// completion order.
// Parameters:
//   - ctx: context bounding all fetches.
//   - originalURLs: candidate original post image URLs.
//   - targetURLs: target post image URLs.
// Returns:
//   - Report: best pair similarity, distance, verdict and matched URLs.
func (c *Comparator) Compare(ctx context.Context, originalURLs, targetURLs []string) Report {
	if len(originalURLs) == 0 || len(targetURLs) == 0 {
		return Report{HammingDistance: HashBits, Reason: ReasonNoImages}
	}

	hashes := c.fetchHashes(ctx, append(append([]string{}, originalURLs...), targetURLs...))

	best := Report{HammingDistance: HashBits, Reason: ReasonNoComparablePair}
	found := false
	for _, origURL := range originalURLs {
		origHash, ok := hashes[origURL]
		if !ok {
			continue
		}
		for _, targetURL := range targetURLs {
			targetHash, ok := hashes[targetURL]
			if !ok {
				continue
			}
			d := Distance(origHash, targetHash)
			if !found || d < best.HammingDistance {
				found = true
				best.HammingDistance = d
				best.MatchedOriginal = origURL
				best.MatchedTarget = targetURL
			}
		}
	}
	if !found {
		return best
	}

	best.CombinedSimilarity = clamp01(1 - float64(best.HammingDistance)/float64(HashBits))
	best.IsPlagiarism = best.HammingDistance <= c.hammingThreshold
	if best.IsPlagiarism {
		best.Reason = ReasonWithinThreshold
	} else {
		best.Reason = ReasonBelowThreshold
	}
	return best
}

// fetchHashes fetches and hashes each unique URL concurrently. URLs that
// fail to fetch or decode are simply absent from the result.
func (c *Comparator) fetchHashes(ctx context.Context, urls []string) map[string]Hash {
	unique := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		unique[u] = struct{}{}
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		hashes = make(map[string]Hash, len(unique))
	)
	for u := range unique {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			h, err := c.fetchHash(ctx, u)
			if err != nil {
				return
			}
			mu.Lock()
			hashes[u] = h
			mu.Unlock()
		}(u)
	}
	wg.Wait()
	return hashes
}

func (c *Comparator) fetchHash(ctx context.Context, url string) (Hash, error) {
	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch image %s: %w", url, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("failed to fetch image %s: status %d", url, resp.StatusCode())
	}
	return DecodeAndHash(bytes.NewReader(resp.Body()))
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
