package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smolin/antiplag/internal/domain"
	"gorm.io/gorm"
)

// QuotaRepository handles notification quota data operations.
type QuotaRepository struct {
	db *gorm.DB
}

// NewQuotaRepository creates a new QuotaRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *QuotaRepository: repository instance bound to db.
func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// Get retrieves the quota of a recipient, creating a fresh zeroed row when
// none exists yet.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - recipientID: external recipient ID.
// Returns:
//   - *domain.NotificationQuota: current quota row.
//   - error: non-nil if the lookup fails.
func (r *QuotaRepository) Get(ctx context.Context, recipientID int64) (*domain.NotificationQuota, error) {
	var quota domain.NotificationQuota
	err := r.db.WithContext(ctx).First(&quota, "recipient_id = ?", recipientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.NotificationQuota{
				RecipientID: recipientID,
				WindowStart: time.Now().UTC().Truncate(24 * time.Hour),
			}, nil
		}
		return nil, err
	}
	return &quota, nil
}

// Save upserts a quota row. The row is a single atomic unit: the counter
// and window advance together or not at all.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - quota: quota row to persist.
// Returns:
//   - error: non-nil if the write fails.
func (r *QuotaRepository) Save(ctx context.Context, quota *domain.NotificationQuota) error {
	return r.db.WithContext(ctx).Save(quota).Error
}
