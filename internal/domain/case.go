package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// PlagiarismCase is the persisted record of one confirmed verdict.
// Cases are never deleted; review and notification only flip flags.
type PlagiarismCase struct {
	ID                string      `gorm:"type:text;primaryKey" json:"id"`
	SourceID          string      `gorm:"type:text;not null;index:idx_cases_source" json:"source_id"`
	OriginalPostRef   string      `gorm:"type:text;not null;index:idx_cases_pair,unique" json:"original_post_ref"`
	TargetPostRef     string      `gorm:"type:text;not null;index:idx_cases_pair,unique" json:"target_post_ref"`
	OriginalOwnerID   int64       `json:"original_owner_id"`
	TargetOwnerID     int64       `json:"target_owner_id"`
	TextSimilarity    float64     `json:"text_similarity"`
	ImageSimilarity   float64     `json:"image_similarity"`
	OverallSimilarity float64     `json:"overall_similarity"`
	Confidence        float64     `json:"confidence"`
	Reason            string      `gorm:"type:text" json:"reason"`
	EvidenceKeys      StringArray `gorm:"type:text" json:"evidence_keys"`
	Confirmed         bool        `gorm:"default:false" json:"confirmed"`
	FalsePositive     bool        `gorm:"default:false" json:"false_positive"`
	NotificationSent  bool        `gorm:"default:false" json:"notification_sent"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// TableName returns the database table name for PlagiarismCase.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (PlagiarismCase) TableName() string {
	return "plagiarism_cases"
}
