package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus represents the lifecycle state of a service request.
type PostStatus string

const (
	// PostStatusMatching means the post is open and accepting applications.
	PostStatusMatching PostStatus = "matching"
	// PostStatusMeeting means the parent is interviewing applicants.
	PostStatusMeeting PostStatus = "meeting"
	// PostStatusCompleted is the terminal state; no further applications or bumps.
	PostStatusCompleted PostStatus = "completed"
)

// MaxApplicationsPerPost caps non-withdrawn applications on a single post.
const MaxApplicationsPerPost = 2

// Post is a parent's standing service request.
//
// The partial unique index on AuthorID enforces the single-active-request
// rule at the store: a second insert while one post is still in
// matching/meeting fails with a duplicate-key error regardless of what a
// concurrent reader saw.
type Post struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	AuthorID uint       `gorm:"not null;uniqueIndex:ux_posts_active_author,where:status <> 'completed' AND deleted_at IS NULL" json:"author_id"`
	Author   User       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title    string     `gorm:"not null" json:"title"`
	Content  string     `gorm:"type:text;not null" json:"content"`
	Status   PostStatus `gorm:"type:varchar(20);not null;default:'matching';index" json:"status"`
	// BumpedAt records the last re-surface; nil until the first bump.
	BumpedAt *time.Time `json:"bumped_at,omitempty"`
	// ApplicationCount is not persisted; computed at query time.
	ApplicationCount int `gorm:"-" json:"application_count"`
	// CreatedAt doubles as the recency-ordering field: a bump rewrites it
	// so listings sorted on it re-surface the post without a priority column.
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Active reports whether the post still participates in matching.
func (p *Post) Active() bool {
	return p.Status == PostStatusMatching || p.Status == PostStatusMeeting
}

// CanTransitionTo reports whether the status edge is permitted.
// Allowed edges: matching→meeting, meeting→completed, and the shortcut
// matching→completed used when a match is recorded without a visible
// interview phase.
func (p *Post) CanTransitionTo(next PostStatus) bool {
	switch p.Status {
	case PostStatusMatching:
		return next == PostStatusMeeting || next == PostStatusCompleted
	case PostStatusMeeting:
		return next == PostStatusCompleted
	default:
		return false
	}
}
