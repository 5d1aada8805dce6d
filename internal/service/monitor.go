package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smolin/antiplag/internal/config"
	"github.com/smolin/antiplag/internal/detector"
	"github.com/smolin/antiplag/internal/domain"
	"github.com/smolin/antiplag/internal/logger"
	"github.com/smolin/antiplag/internal/source"
)

// SourceStore is the persistence surface the orchestrator needs for
// monitored sources.
type SourceStore interface {
	ListActive(ctx context.Context, limit int) ([]domain.MonitoredSource, error)
	UpdateStats(ctx context.Context, id string, postsChecked, plagiarismFound int64, lastCheck time.Time) error
}

// CaseStore is the persistence surface the orchestrator needs for cases.
type CaseStore interface {
	Create(ctx context.Context, c *domain.PlagiarismCase) error
	ExistsForPair(ctx context.Context, originalRef, targetRef string) (bool, error)
}

// State is the orchestrator's observable run state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// ErrRunInProgress is returned when a run is triggered while another run is
// still active. Runs never overlap; a colliding trigger is skipped.
var ErrRunInProgress = errors.New("monitoring run already in progress")

// RunStats summarizes one monitoring run.
type RunStats struct {
	SourcesChecked    int       `json:"sources_checked"`
	PostsChecked      int       `json:"posts_checked"`
	CasesRecorded     int       `json:"cases_recorded"`
	NotificationsSent int       `json:"notifications_sent"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
}

// Orchestrator drives the plagiarism pipeline over the set of monitored
// sources on a schedule. Sources are processed sequentially with a pause
// between them to respect the external API's shared rate limit; per-source
// failures are logged and skipped, persistence failures abort the run.
type Orchestrator struct {
	cfg      config.MonitoringConfig
	sources  SourceStore
	cases    CaseStore
	posts    source.PostSource
	feed     *CandidateFeed
	guard    *detector.Guard
	engine   *detector.Engine
	gate     *NotificationGate
	evidence *EvidenceArchiver

	runMu    sync.Mutex
	stateMu  sync.RWMutex
	state    State
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewOrchestrator creates a monitoring orchestrator. All dependencies are
// explicit so a test can substitute fakes for the external API and store.
// Parameters:
//   - cfg: monitoring settings.
//   - sources: monitored source persistence.
//   - cases: case persistence.
//   - posts: external post provider.
//   - feed: candidate feed.
//   - guard: cheap pre-filters.
//   - engine: decision engine.
//   - gate: notification gate.
//   - evidence: evidence archiver, may be nil.
// Returns:
//   - *Orchestrator: initialized orchestrator in the idle state.
func NewOrchestrator(
	cfg config.MonitoringConfig,
	sources SourceStore,
	cases CaseStore,
	posts source.PostSource,
	feed *CandidateFeed,
	guard *detector.Guard,
	engine *detector.Engine,
	gate *NotificationGate,
	evidence *EvidenceArchiver,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		sources:  sources,
		cases:    cases,
		posts:    posts,
		feed:     feed,
		guard:    guard,
		engine:   engine,
		gate:     gate,
		evidence: evidence,
		state:    StateIdle,
		stopCh:   make(chan struct{}),
	}
}

// State returns the current run state.
func (o *Orchestrator) State() State {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.stateMu.Lock()
	o.state = s
	o.stateMu.Unlock()
}

// Start launches the recurring monitoring loop in the background.
// Parameters:
//   - ctx: base context for all runs; canceling it stops in-flight work.
// Returns: none.
func (o *Orchestrator) Start(ctx context.Context) {
	interval := time.Duration(o.cfg.IntervalHours) * time.Hour
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		if o.cfg.RunOnStart {
			o.runAndLog(ctx)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-o.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.runAndLog(ctx)
			}
		}
	}()
	logger.CtxInfo(ctx, "Monitoring started: interval=%s, run_on_start=%v", interval, o.cfg.RunOnStart)
}

// Stop signals the loop to exit and waits for the in-flight run to finish.
// This is the only cancellation path for a whole run; individual calls are
// bounded by their own timeouts.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() { close(o.stopCh) })
	o.wg.Wait()
}

// RunAsync triggers a run in the background unless one is already active.
// Parameters: none.
// Returns:
//   - bool: true when a run was started.
func (o *Orchestrator) RunAsync() bool {
	if o.State() == StateRunning {
		return false
	}
	go o.runAndLog(context.Background())
	return true
}

func (o *Orchestrator) runAndLog(ctx context.Context) {
	stats, err := o.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			logger.CtxInfo(ctx, "Skipping monitoring trigger: run already in progress")
			return
		}
		logger.CtxError(ctx, "Monitoring run failed: %v", err)
		return
	}
	logger.With(logger.Fields{
		logger.FieldDurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
		logger.FieldCount:      stats.PostsChecked,
	}).Info(ctx, "Monitoring run finished: sources=%d, cases=%d, notifications=%d",
		stats.SourcesChecked, stats.CasesRecorded, stats.NotificationsSent)
}

// RunOnce executes one full monitoring run. If a run is already active it
// returns ErrRunInProgress without blocking. Per-source failures are logged
// and the run proceeds to the next source; persistence failures are
// returned to the caller since a lost case write must not pass silently.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - RunStats: run summary, valid even on error.
//   - error: ErrRunInProgress, context error, or a persistence failure.
func (o *Orchestrator) RunOnce(ctx context.Context) (stats RunStats, err error) {
	if !o.runMu.TryLock() {
		return RunStats{}, ErrRunInProgress
	}
	defer o.runMu.Unlock()
	o.setState(StateRunning)
	defer o.setState(StateIdle)

	stats.StartTime = time.Now()
	defer func() { stats.EndTime = time.Now() }()

	ctx = logger.SetRunID(ctx, uuid.New().String())
	logger.CtxInfo(ctx, "Monitoring run started")

	active, err := o.sources.ListActive(ctx, o.cfg.MaxSourcesPerRun)
	if err != nil {
		return stats, fmt.Errorf("failed to list monitored sources: %w", err)
	}

	for i := range active {
		if i > 0 {
			// Deliberate pause between sources for the shared rate limit.
			select {
			case <-o.stopCh:
				return stats, nil
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(o.cfg.SourcePause):
			}
		}
		if err := o.checkSource(ctx, &active[i], &stats); err != nil {
			return stats, err
		}
		stats.SourcesChecked++
	}
	return stats, nil
}

// checkSource fetches one source's recent posts and runs the pipeline over
// each. Returns an error only for persistence failures.
func (o *Orchestrator) checkSource(ctx context.Context, src *domain.MonitoredSource, stats *RunStats) error {
	ctx = logger.SetSourceID(ctx, src.ID)

	posts, err := o.posts.FetchRecent(ctx, src.ExternalID, o.cfg.MaxPostsPerSource)
	if err != nil {
		// External fetch failure: tolerated, the run moves on.
		logger.CtxWarn(ctx, "Failed to fetch posts for source %s: %v", src.ID, err)
		return nil
	}

	candidates, err := o.feed.Candidates(ctx, src)
	if err != nil {
		return err
	}

	var checked, found int64
	for i := range posts {
		post := &posts[i]
		if src.ExcludeReposts && o.guard.IsRepost(post) {
			continue
		}
		checked++

		recorded, notified, err := o.checkPost(ctx, src, post, candidates)
		if err != nil {
			return err
		}
		if recorded {
			found++
			stats.CasesRecorded++
		}
		if notified {
			stats.NotificationsSent++
		}
	}
	stats.PostsChecked += int(checked)

	if err := o.sources.UpdateStats(ctx, src.ID, checked, found, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update stats for source %s: %w", src.ID, err)
	}
	logger.CtxInfo(ctx, "Source checked: posts=%d, plagiarism=%d", checked, found)
	return nil
}

// checkPost compares one post against every candidate original and records
// at most one case: the first confirmed match wins, matching the manual
// complaint flow where one origin suffices.
func (o *Orchestrator) checkPost(ctx context.Context, src *domain.MonitoredSource, post *domain.Post, candidates []Candidate) (recorded, notified bool, err error) {
	ctx = logger.WithField(ctx, logger.FieldPostRef, post.Ref())
	opts := detector.Options{CheckText: src.CheckText, CheckImages: src.CheckImages}

	for _, candidate := range candidates {
		for i := range candidate.Posts {
			original := &candidate.Posts[i]
			verdict := o.engine.Check(ctx, original, post, opts)
			if !verdict.IsPlagiarism || verdict.Confidence < o.cfg.ConfidenceThreshold {
				continue
			}
			created, c, err := o.recordCase(ctx, src, original, post, &verdict)
			if err != nil {
				return false, false, err
			}
			if !created {
				return false, false, nil
			}
			sent, err := o.gate.Notify(ctx, src.RecipientID, c)
			if err != nil {
				return true, sent, err
			}
			return true, sent, nil
		}
	}
	return false, false, nil
}

// recordCase persists one confirmed verdict, unless the pair is already on
// record from an earlier run.
func (o *Orchestrator) recordCase(ctx context.Context, src *domain.MonitoredSource, original, target *domain.Post, verdict *detector.Verdict) (bool, *domain.PlagiarismCase, error) {
	exists, err := o.cases.ExistsForPair(ctx, original.Ref(), target.Ref())
	if err != nil {
		return false, nil, fmt.Errorf("failed to check for existing case: %w", err)
	}
	if exists {
		return false, nil, nil
	}

	c := &domain.PlagiarismCase{
		ID:                uuid.New().String(),
		SourceID:          src.ID,
		OriginalPostRef:   original.Ref(),
		TargetPostRef:     target.Ref(),
		OriginalOwnerID:   original.OwnerID,
		TargetOwnerID:     target.OwnerID,
		TextSimilarity:    verdict.TextSimilarity,
		ImageSimilarity:   verdict.ImageSimilarity,
		OverallSimilarity: verdict.OverallSimilarity,
		Confidence:        verdict.Confidence,
		Reason:            verdict.Reason,
	}
	if o.evidence != nil && verdict.Image.IsPlagiarism {
		c.EvidenceKeys = o.evidence.Archive(ctx, c.ID, []string{
			verdict.Image.MatchedOriginal,
			verdict.Image.MatchedTarget,
		})
	}
	if err := o.cases.Create(ctx, c); err != nil {
		return false, nil, fmt.Errorf("failed to persist case for %s: %w", target.Ref(), err)
	}
	logger.With(logger.Fields{logger.FieldCaseID: c.ID}).Info(ctx,
		"Plagiarism recorded: original=%s, target=%s, overall=%.2f, confidence=%.2f",
		c.OriginalPostRef, c.TargetPostRef, c.OverallSimilarity, c.Confidence)
	return true, c, nil
}
