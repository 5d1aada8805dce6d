package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smolin/antiplag/internal/domain"
)

type countingPostSource struct {
	mu      sync.Mutex
	fetches map[int64]int
	walls   map[int64][]domain.Post
}

func (p *countingPostSource) FetchRecent(_ context.Context, ownerID int64, _ int) ([]domain.Post, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fetches == nil {
		p.fetches = make(map[int64]int)
	}
	p.fetches[ownerID]++
	return p.walls[ownerID], nil
}

func TestCandidatesExcludesOwnSource(t *testing.T) {
	registry := &fakeRegistry{
		sources: []domain.MonitoredSource{
			{ID: "src-a", ExternalID: -100, IsActive: true},
			{ID: "src-b", ExternalID: -200, IsActive: true},
			{ID: "src-c", ExternalID: -300, IsActive: true},
		},
	}
	posts := &countingPostSource{walls: map[int64][]domain.Post{
		-200: {{PostID: 1, OwnerID: -200}},
		-300: {{PostID: 2, OwnerID: -300}},
	}}
	feed := NewCandidateFeed(registry, posts, 10, 20, time.Minute)

	candidates, err := feed.Candidates(context.Background(), &registry.sources[0])
	if err != nil {
		t.Fatalf("Candidates() error = %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	for _, c := range candidates {
		if c.Source.ID == "src-a" {
			t.Error("candidate set includes the excluded source")
		}
	}
	if posts.fetches[-100] != 0 {
		t.Errorf("fetched the excluded source's wall %d times", posts.fetches[-100])
	}
}

func TestCandidatesCachesWalls(t *testing.T) {
	registry := &fakeRegistry{
		sources: []domain.MonitoredSource{
			{ID: "src-a", ExternalID: -100, IsActive: true},
			{ID: "src-b", ExternalID: -200, IsActive: true},
		},
	}
	posts := &countingPostSource{walls: map[int64][]domain.Post{
		-200: {{PostID: 1, OwnerID: -200}},
	}}
	feed := NewCandidateFeed(registry, posts, 10, 20, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := feed.Candidates(context.Background(), &registry.sources[0]); err != nil {
			t.Fatalf("Candidates() #%d error = %v", i+1, err)
		}
	}
	if got := posts.fetches[-200]; got != 1 {
		t.Errorf("candidate wall fetched %d times within TTL, want 1", got)
	}
}
