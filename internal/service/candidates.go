package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/smolin/antiplag/internal/domain"
	"github.com/smolin/antiplag/internal/logger"
	"github.com/smolin/antiplag/internal/source"
)

// SourceLister lists monitored sources for candidate selection.
type SourceLister interface {
	ListActive(ctx context.Context, limit int) ([]domain.MonitoredSource, error)
}

// Candidate is one candidate source together with its recent posts.
type Candidate struct {
	Source domain.MonitoredSource
	Posts  []domain.Post
}

// CandidateFeed yields candidate original posts to compare a target post
// against. It encapsulates per-source exclusion and caches fetched walls for
// the duration of one run, so checking twenty posts of one source does not
// fetch every other wall twenty times.
type CandidateFeed struct {
	sources    SourceLister
	posts      source.PostSource
	cache      *gocache.Cache
	maxSources int
	maxPosts   int
}

// NewCandidateFeed creates a candidate feed.
// Parameters:
//   - sources: registry of monitored sources.
//   - posts: external post provider.
//   - maxSources: bound on candidate sources per query.
//   - maxPosts: bound on posts fetched per candidate source.
//   - cacheTTL: how long a fetched wall stays fresh.
// Returns:
//   - *CandidateFeed: initialized feed.
func NewCandidateFeed(sources SourceLister, posts source.PostSource, maxSources, maxPosts int, cacheTTL time.Duration) *CandidateFeed {
	return &CandidateFeed{
		sources:    sources,
		posts:      posts,
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
		maxSources: maxSources,
		maxPosts:   maxPosts,
	}
}

// Candidates returns candidate sources and their recent posts, excluding the
// target's own source. A fetch failure for one candidate is logged and that
// candidate skipped; the remaining candidates are still returned.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - exclude: the source whose posts are being checked.
// Returns:
//   - []Candidate: candidate sources with posts, possibly empty.
//   - error: non-nil only if the source registry itself fails.
func (f *CandidateFeed) Candidates(ctx context.Context, exclude *domain.MonitoredSource) ([]Candidate, error) {
	// One extra so the exclusion does not shrink the candidate set.
	active, err := f.sources.ListActive(ctx, f.maxSources+1)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate sources: %w", err)
	}

	var candidates []Candidate
	for _, src := range active {
		if src.ID == exclude.ID || src.ExternalID == exclude.ExternalID {
			continue
		}
		if len(candidates) >= f.maxSources {
			break
		}
		posts, err := f.fetchWall(ctx, src.ExternalID)
		if err != nil {
			logger.CtxWarn(ctx, "Skipping candidate source %s: %v", src.ID, err)
			continue
		}
		candidates = append(candidates, Candidate{Source: src, Posts: posts})
	}
	return candidates, nil
}

// fetchWall fetches a wall through the run-scoped cache.
func (f *CandidateFeed) fetchWall(ctx context.Context, externalID int64) ([]domain.Post, error) {
	key := strconv.FormatInt(externalID, 10)
	if cached, ok := f.cache.Get(key); ok {
		return cached.([]domain.Post), nil
	}
	posts, err := f.posts.FetchRecent(ctx, externalID, f.maxPosts)
	if err != nil {
		return nil, err
	}
	f.cache.SetDefault(key, posts)
	return posts, nil
}
