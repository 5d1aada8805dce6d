package domain

import "time"

// MonitoredSource represents a wall registered for plagiarism monitoring.
type MonitoredSource struct {
	ID              string     `gorm:"type:text;primaryKey" json:"id"`
	Name            string     `gorm:"type:text;not null" json:"name"`
	ExternalID      int64      `gorm:"not null;uniqueIndex:idx_sources_external" json:"external_id"`
	RecipientID     int64      `gorm:"not null;index:idx_sources_recipient" json:"recipient_id"`
	IsActive        bool       `gorm:"default:true;index:idx_sources_active" json:"is_active"`
	CheckText       bool       `gorm:"default:true" json:"check_text"`
	CheckImages     bool       `gorm:"default:true" json:"check_images"`
	ExcludeReposts  bool       `gorm:"default:true" json:"exclude_reposts"`
	PostsChecked    int64      `gorm:"default:0" json:"posts_checked"`
	PlagiarismFound int64      `gorm:"default:0" json:"plagiarism_found"`
	LastCheck       *time.Time `json:"last_check,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name for MonitoredSource.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (MonitoredSource) TableName() string {
	return "monitored_sources"
}
