package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatSessionStatus represents the state of an interview channel.
type ChatSessionStatus string

const (
	// ChatSessionStatusOpen indicates an active session.
	ChatSessionStatusOpen ChatSessionStatus = "open"
	// ChatSessionStatusClosed indicates a session ended by either party.
	ChatSessionStatusClosed ChatSessionStatus = "closed"
)

// ChatSession is the two-party interview channel between a parent and a
// therapist. The pair is stored in canonical (low, high) order so the
// unique index makes creation idempotent per unordered pair: Start(a, b)
// and Start(b, a) resolve to the same row.
type ChatSession struct {
	ID              uint `gorm:"primaryKey" json:"id"`
	ParticipantLow  uint `gorm:"not null;uniqueIndex:ux_chat_sessions_pair" json:"participant_low"`
	ParticipantHigh uint `gorm:"not null;uniqueIndex:ux_chat_sessions_pair" json:"participant_high"`
	// ParentID identifies which participant pays for the session.
	ParentID    uint              `gorm:"not null;index" json:"parent_id"`
	TherapistID uint              `gorm:"not null;index" json:"therapist_id"`
	Status      ChatSessionStatus `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	// TokenCharged flips false→true at most once, on the first responder
	// action, and never reverts.
	TokenCharged   bool           `gorm:"not null;default:false" json:"token_charged"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate ensures ParticipantLow < ParticipantHigh for consistent ordering.
func (s *ChatSession) BeforeCreate(_ *gorm.DB) error {
	if s.ParticipantLow > s.ParticipantHigh {
		s.ParticipantLow, s.ParticipantHigh = s.ParticipantHigh, s.ParticipantLow
	}
	return nil
}

// Includes reports whether the given user is one of the two participants.
func (s *ChatSession) Includes(userID uint) bool {
	return userID == s.ParticipantLow || userID == s.ParticipantHigh
}

// PairKey returns the canonical (low, high) pair for the two identities.
func PairKey(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}
