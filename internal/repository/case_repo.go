package repository

import (
	"context"
	"errors"

	"github.com/smolin/antiplag/internal/domain"
	"gorm.io/gorm"
)

// CaseRepository handles plagiarism case data operations. Cases are never
// deleted; review and notification only update flags.
type CaseRepository struct {
	db *gorm.DB
}

// NewCaseRepository creates a new CaseRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *CaseRepository: repository instance bound to db.
func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create inserts a new case record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - c: case record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *CaseRepository) Create(ctx context.Context, c *domain.PlagiarismCase) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// GetByID retrieves a case by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: case ID.
// Returns:
//   - *domain.PlagiarismCase: case record if found.
//   - error: non-nil if lookup fails.
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*domain.PlagiarismCase, error) {
	var c domain.PlagiarismCase
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ExistsForPair reports whether a case already records the given post pair,
// so a pair is recorded at most once across runs.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - originalRef: original post reference.
//   - targetRef: target post reference.
// Returns:
//   - bool: true when a matching case exists.
//   - error: non-nil if the query fails.
func (r *CaseRepository) ExistsForPair(ctx context.Context, originalRef, targetRef string) (bool, error) {
	var c domain.PlagiarismCase
	err := r.db.WithContext(ctx).
		Where("original_post_ref = ? AND target_post_ref = ?", originalRef, targetRef).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List retrieves cases for a source, newest first, bounded by limit and offset.
// An empty sourceID lists cases across all sources.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: source filter or empty.
//   - limit: page size; 0 means no bound.
//   - offset: page offset.
// Returns:
//   - []domain.PlagiarismCase: matching cases.
//   - error: non-nil if the query fails.
func (r *CaseRepository) List(ctx context.Context, sourceID string, limit, offset int) ([]domain.PlagiarismCase, error) {
	var cases []domain.PlagiarismCase
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if sourceID != "" {
		q = q.Where("source_id = ?", sourceID)
	}
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&cases).Error; err != nil {
		return nil, err
	}
	return cases, nil
}

// SetReview records a human review decision on a case.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: case ID.
//   - confirmed: true when the reviewer confirms plagiarism.
//   - falsePositive: true when the reviewer rejects the case.
// Returns:
//   - error: gorm.ErrRecordNotFound if no such case, non-nil if the update fails.
func (r *CaseRepository) SetReview(ctx context.Context, id string, confirmed, falsePositive bool) error {
	result := r.db.WithContext(ctx).Model(&domain.PlagiarismCase{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"confirmed":      confirmed,
			"false_positive": falsePositive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkNotificationSent flips the notification flag of a case.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: case ID.
// Returns:
//   - error: non-nil if the update fails.
func (r *CaseRepository) MarkNotificationSent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.PlagiarismCase{}).
		Where("id = ?", id).
		Update("notification_sent", true).Error
}
