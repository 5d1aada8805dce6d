package domain

import "time"

// NotificationQuota tracks the daily outbound message allowance of one recipient.
// The window resets when the current date advances past WindowStart.
type NotificationQuota struct {
	RecipientID int64     `gorm:"primaryKey" json:"recipient_id"`
	SentCount   int       `gorm:"default:0" json:"sent_count"`
	WindowStart time.Time `json:"window_start"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for NotificationQuota.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (NotificationQuota) TableName() string {
	return "notification_quotas"
}
