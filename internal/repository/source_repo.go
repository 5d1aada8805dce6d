package repository

import (
	"context"
	"time"

	"github.com/smolin/antiplag/internal/domain"
	"gorm.io/gorm"
)

// SourceRepository handles monitored source data operations.
type SourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository creates a new SourceRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SourceRepository: repository instance bound to db.
func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// Create inserts a new monitored source record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - source: source record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *SourceRepository) Create(ctx context.Context, source *domain.MonitoredSource) error {
	return r.db.WithContext(ctx).Create(source).Error
}

// GetByID retrieves a monitored source by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: source ID.
// Returns:
//   - *domain.MonitoredSource: source record if found.
//   - error: non-nil if lookup fails.
func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.MonitoredSource, error) {
	var source domain.MonitoredSource
	if err := r.db.WithContext(ctx).First(&source, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &source, nil
}

// ListActive retrieves active monitored sources, bounded by limit.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of sources; 0 means no bound.
// Returns:
//   - []domain.MonitoredSource: active sources ordered by creation time.
//   - error: non-nil if the query fails.
func (r *SourceRepository) ListActive(ctx context.Context, limit int) ([]domain.MonitoredSource, error) {
	var sources []domain.MonitoredSource
	q := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

// List retrieves all monitored sources.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.MonitoredSource: all sources ordered by creation time.
//   - error: non-nil if the query fails.
func (r *SourceRepository) List(ctx context.Context) ([]domain.MonitoredSource, error) {
	var sources []domain.MonitoredSource
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

// UpdateStats atomically increments the check counters of a source and
// records the time of its last check. The increments run server-side so two
// writers can never interleave a partial stats update.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: source ID.
//   - postsChecked: number of posts checked in this run.
//   - plagiarismFound: number of cases recorded in this run.
//   - lastCheck: completion time of the check.
// Returns:
//   - error: non-nil if the update fails.
func (r *SourceRepository) UpdateStats(ctx context.Context, id string, postsChecked, plagiarismFound int64, lastCheck time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.MonitoredSource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"posts_checked":    gorm.Expr("posts_checked + ?", postsChecked),
			"plagiarism_found": gorm.Expr("plagiarism_found + ?", plagiarismFound),
			"last_check":       lastCheck,
		}).Error
}
