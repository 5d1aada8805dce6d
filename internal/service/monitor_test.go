package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smolin/antiplag/internal/config"
	"github.com/smolin/antiplag/internal/detector"
	"github.com/smolin/antiplag/internal/domain"
	"github.com/smolin/antiplag/internal/imagesim"
	"github.com/smolin/antiplag/internal/textsim"
)

type fakeRegistry struct {
	sources []domain.MonitoredSource
	listErr error
	stats   map[string][2]int64
}

func (r *fakeRegistry) ListActive(_ context.Context, limit int) ([]domain.MonitoredSource, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	if limit > len(r.sources) {
		limit = len(r.sources)
	}
	return r.sources[:limit], nil
}

func (r *fakeRegistry) UpdateStats(_ context.Context, id string, postsChecked, plagiarismFound int64, _ time.Time) error {
	if r.stats == nil {
		r.stats = make(map[string][2]int64)
	}
	prev := r.stats[id]
	r.stats[id] = [2]int64{prev[0] + postsChecked, prev[1] + plagiarismFound}
	return nil
}

type fakeCaseStore struct {
	mu        sync.Mutex
	cases     []*domain.PlagiarismCase
	createErr error
}

func (s *fakeCaseStore) Create(_ context.Context, c *domain.PlagiarismCase) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases = append(s.cases, c)
	return nil
}

func (s *fakeCaseStore) ExistsForPair(_ context.Context, originalRef, targetRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cases {
		if c.OriginalPostRef == originalRef && c.TargetPostRef == targetRef {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeCaseStore) MarkNotificationSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cases {
		if c.ID == id {
			c.NotificationSent = true
			return nil
		}
	}
	return errors.New("case not found")
}

type fakePostSource struct {
	walls map[int64][]domain.Post
	errs  map[int64]error
}

func (p *fakePostSource) FetchRecent(_ context.Context, ownerID int64, _ int) ([]domain.Post, error) {
	if err := p.errs[ownerID]; err != nil {
		return nil, err
	}
	return p.walls[ownerID], nil
}

const monitorOriginalText = "Сегодня мы выпустили новую версию нашего продукта с долгожданными функциями. " +
	"Команда работала над этим релизом несколько месяцев и мы гордимся результатом."

func monitorFixture() (*fakeRegistry, *fakeCaseStore, *fakePostSource, *memNotifier, *Orchestrator) {
	registry := &fakeRegistry{
		sources: []domain.MonitoredSource{
			{ID: "src-a", ExternalID: -100, RecipientID: 1, IsActive: true, CheckText: true, ExcludeReposts: true},
			{ID: "src-b", ExternalID: -200, RecipientID: 2, IsActive: true, CheckText: true, ExcludeReposts: true},
		},
	}
	posts := &fakePostSource{
		walls: map[int64][]domain.Post{
			// src-a republishes src-b's older post almost verbatim.
			-100: {{PostID: 1, OwnerID: -100, Text: monitorOriginalText + " Подписывайтесь!", Date: 2000}},
			-200: {{PostID: 7, OwnerID: -200, Text: monitorOriginalText, Date: 1000}},
		},
	}
	cases := &fakeCaseStore{}
	notifier := &memNotifier{}

	guard := detector.NewGuard(20)
	engine := detector.NewEngine(
		guard,
		textsim.NewComparator(0.70, 20),
		imagesim.NewComparator(&imagesim.Config{HammingThreshold: 10, FetchTimeout: time.Second}),
	)
	feed := NewCandidateFeed(registry, posts, 10, 20, time.Minute)
	gate := NewNotificationGate(newMemQuotaStore(), cases, notifier, 10)

	cfg := config.MonitoringConfig{
		IntervalHours:       3,
		MaxSourcesPerRun:    10,
		MaxPostsPerSource:   20,
		MaxCandidateSources: 10,
		SourcePause:         time.Millisecond,
		// Text-only evidence tops out at 0.4 on the confidence scale, so a
		// fixture without images needs a lower gate to record anything.
		ConfidenceThreshold: 0.35,
	}
	orch := NewOrchestrator(cfg, registry, cases, posts, feed, guard, engine, gate, nil)
	return registry, cases, posts, notifier, orch
}

func TestRunOnceRecordsCaseAndNotifies(t *testing.T) {
	registry, cases, _, notifier, orch := monitorFixture()

	stats, err := orch.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if stats.SourcesChecked != 2 {
		t.Errorf("SourcesChecked = %d, want 2", stats.SourcesChecked)
	}
	if stats.CasesRecorded != 1 {
		t.Fatalf("CasesRecorded = %d, want 1", stats.CasesRecorded)
	}

	c := cases.cases[0]
	if c.OriginalPostRef != "-200_7" || c.TargetPostRef != "-100_1" {
		t.Errorf("case pair = (%s, %s), want (-200_7, -100_1)", c.OriginalPostRef, c.TargetPostRef)
	}
	if c.SourceID != "src-a" {
		t.Errorf("SourceID = %s, want src-a", c.SourceID)
	}
	if c.TextSimilarity < 0.70 {
		t.Errorf("TextSimilarity = %.3f, want >= 0.70", c.TextSimilarity)
	}
	if !c.NotificationSent {
		t.Error("case not marked as notified")
	}
	if len(notifier.messages) != 1 {
		t.Errorf("expected 1 notification, got %d", len(notifier.messages))
	}
	if got := registry.stats["src-a"]; got[1] != 1 {
		t.Errorf("src-a plagiarism stat = %d, want 1", got[1])
	}
	if orch.State() != StateIdle {
		t.Errorf("State() = %s after run, want %s", orch.State(), StateIdle)
	}
}

func TestRunOnceConfidenceGate(t *testing.T) {
	_, cases, _, _, orch := monitorFixture()
	// At the default gate, text-only evidence is never strong enough on its
	// own; the match must be corroborated by images before it is recorded.
	orch.cfg.ConfidenceThreshold = 0.70

	stats, err := orch.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(cases.cases) != 0 {
		t.Errorf("expected no cases below the confidence gate, got %d", len(cases.cases))
	}
	if stats.PostsChecked != 2 {
		t.Errorf("PostsChecked = %d, want 2", stats.PostsChecked)
	}
}

func TestRunOnceDeduplicatesAcrossRuns(t *testing.T) {
	_, cases, _, notifier, orch := monitorFixture()

	for i := 0; i < 2; i++ {
		if _, err := orch.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce() #%d error = %v", i+1, err)
		}
	}
	if len(cases.cases) != 1 {
		t.Errorf("expected 1 case after repeated runs, got %d", len(cases.cases))
	}
	if len(notifier.messages) != 1 {
		t.Errorf("expected 1 notification after repeated runs, got %d", len(notifier.messages))
	}
}

func TestRunOnceSkipsReposts(t *testing.T) {
	_, cases, posts, _, orch := monitorFixture()
	posts.walls[-100][0].CopyHistory = []domain.Post{{PostID: 7, OwnerID: -200}}

	stats, err := orch.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(cases.cases) != 0 {
		t.Errorf("expected no cases for a repost, got %d", len(cases.cases))
	}
	// The repost is filtered before it counts as checked.
	if stats.PostsChecked != 1 {
		t.Errorf("PostsChecked = %d, want 1", stats.PostsChecked)
	}
}

func TestRunOnceToleratesFetchFailure(t *testing.T) {
	registry, _, posts, _, orch := monitorFixture()
	posts.errs = map[int64]error{-100: errors.New("api unavailable")}

	stats, err := orch.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v, fetch failures should be skipped", err)
	}
	if stats.SourcesChecked != 2 {
		t.Errorf("SourcesChecked = %d, want 2", stats.SourcesChecked)
	}
	if got := registry.stats["src-b"]; got[0] != 1 {
		t.Errorf("src-b posts stat = %d, want 1", got[0])
	}
}

func TestRunOncePropagatesPersistenceFailure(t *testing.T) {
	_, cases, _, _, orch := monitorFixture()
	cases.createErr = errors.New("disk full")

	if _, err := orch.RunOnce(context.Background()); err == nil {
		t.Fatal("RunOnce() error = nil, want persistence failure")
	}
}

func TestRunsNeverOverlap(t *testing.T) {
	_, _, _, _, orch := monitorFixture()

	release := make(chan struct{})
	started := make(chan struct{})
	orch.posts = &blockingPostSource{release: release, started: started}

	done := make(chan error, 1)
	go func() {
		_, err := orch.RunOnce(context.Background())
		done <- err
	}()
	<-started

	if _, err := orch.RunOnce(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("concurrent RunOnce() error = %v, want ErrRunInProgress", err)
	}
	if orch.State() != StateRunning {
		t.Errorf("State() = %s mid-run, want %s", orch.State(), StateRunning)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first RunOnce() error = %v", err)
	}
}

type blockingPostSource struct {
	release <-chan struct{}
	started chan struct{}
	once    sync.Once
}

func (p *blockingPostSource) FetchRecent(_ context.Context, _ int64, _ int) ([]domain.Post, error) {
	p.once.Do(func() { close(p.started) })
	<-p.release
	return nil, nil
}
