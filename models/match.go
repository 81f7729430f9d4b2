package models

import "time"

// MatchRecord is the immutable record of a successful parent/therapist
// match. Keyed by the (parent, therapist) pair: recording the same pair
// twice updates the existing row instead of duplicating it, which is what
// makes crash-retry of RecordMatch safe.
type MatchRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ParentID    uint      `gorm:"not null;uniqueIndex:ux_match_records_pair" json:"parent_id"`
	TherapistID uint      `gorm:"not null;uniqueIndex:ux_match_records_pair" json:"therapist_id"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	RecordedBy  uint      `gorm:"not null" json:"recorded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
