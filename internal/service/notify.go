package service

import (
	"context"
	"fmt"
	"time"

	"github.com/smolin/antiplag/internal/domain"
	"github.com/smolin/antiplag/internal/logger"
	"github.com/smolin/antiplag/internal/source"
)

// QuotaStore persists per-recipient notification quotas.
type QuotaStore interface {
	Get(ctx context.Context, recipientID int64) (*domain.NotificationQuota, error)
	Save(ctx context.Context, quota *domain.NotificationQuota) error
}

// CaseMarker flips the notification flag of a recorded case.
type CaseMarker interface {
	MarkNotificationSent(ctx context.Context, id string) error
}

// NotificationGate decides whether a recorded case results in an outbound
// message, enforcing a per-recipient daily quota. Sends are best-effort: a
// delivery failure leaves the quota and the case untouched, so a later run
// may retry.
type NotificationGate struct {
	quotas    QuotaStore
	cases     CaseMarker
	notifier  source.Notifier
	maxPerDay int
	now       func() time.Time
}

// NewNotificationGate creates a notification gate.
// Parameters:
//   - quotas: quota persistence.
//   - cases: case flag persistence.
//   - notifier: outbound message delivery.
//   - maxPerDay: per-recipient daily send limit.
// Returns:
//   - *NotificationGate: initialized gate.
func NewNotificationGate(quotas QuotaStore, cases CaseMarker, notifier source.Notifier, maxPerDay int) *NotificationGate {
	return &NotificationGate{
		quotas:    quotas,
		cases:     cases,
		notifier:  notifier,
		maxPerDay: maxPerDay,
		now:       time.Now,
	}
}

// CanNotify reports whether the recipient is under quota today. A quota
// whose window predates today is reset before the check.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - recipientID: external recipient ID.
// Returns:
//   - bool: true when a notification may be sent.
//   - error: non-nil if the quota store fails.
func (g *NotificationGate) CanNotify(ctx context.Context, recipientID int64) (bool, error) {
	quota, err := g.quotas.Get(ctx, recipientID)
	if err != nil {
		return false, err
	}
	g.rollWindow(quota)
	return quota.SentCount < g.maxPerDay, nil
}

// Notify sends the case notification if the recipient is under quota. On
// successful delivery the quota is incremented and the case marked sent as
// one logical step; on failure neither changes.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - recipientID: external recipient ID.
//   - c: recorded case to notify about.
// Returns:
//   - bool: true when a message was delivered.
//   - error: non-nil if the quota store fails; delivery failures are
//     logged, not returned.
func (g *NotificationGate) Notify(ctx context.Context, recipientID int64, c *domain.PlagiarismCase) (bool, error) {
	quota, err := g.quotas.Get(ctx, recipientID)
	if err != nil {
		return false, err
	}
	g.rollWindow(quota)
	if quota.SentCount >= g.maxPerDay {
		logger.CtxInfo(ctx, "Notification quota reached for recipient %d", recipientID)
		return false, nil
	}

	if err := g.notifier.SendMessage(ctx, recipientID, FormatCaseMessage(c)); err != nil {
		logger.CtxWarn(ctx, "Failed to deliver notification to %d: %v", recipientID, err)
		return false, nil
	}

	quota.SentCount++
	if err := g.quotas.Save(ctx, quota); err != nil {
		return true, fmt.Errorf("failed to save quota for %d: %w", recipientID, err)
	}
	if err := g.cases.MarkNotificationSent(ctx, c.ID); err != nil {
		return true, fmt.Errorf("failed to mark case %s as notified: %w", c.ID, err)
	}
	return true, nil
}

// rollWindow resets the counter when the current date has advanced past the
// recorded window start.
func (g *NotificationGate) rollWindow(quota *domain.NotificationQuota) {
	today := g.now().UTC().Truncate(24 * time.Hour)
	if today.After(quota.WindowStart) {
		quota.SentCount = 0
		quota.WindowStart = today
	}
}

// FormatCaseMessage renders the notification text for a recorded case:
// overall similarity as integer percent, both wall links, and the per-axis
// percentages.
// Parameters:
//   - c: recorded case.
// Returns:
//   - string: message body.
func FormatCaseMessage(c *domain.PlagiarismCase) string {
	return fmt.Sprintf(`Найден плагиат!

Схожесть: %d%%

Оригинальный пост:
https://vk.com/wall%s

Пост с плагиатом:
https://vk.com/wall%s

Детали анализа:
- Текст: %d%%
- Изображения: %d%%`,
		int(c.OverallSimilarity*100),
		c.OriginalPostRef,
		c.TargetPostRef,
		int(c.TextSimilarity*100),
		int(c.ImageSimilarity*100),
	)
}
