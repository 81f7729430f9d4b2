package models

import (
	"time"

	"gorm.io/gorm"
)

// ApplicationStatus represents the status of a therapist's application.
type ApplicationStatus string

const (
	// ApplicationStatusPending indicates an application awaiting the parent's decision.
	ApplicationStatusPending ApplicationStatus = "pending"
	// ApplicationStatusApproved indicates the parent accepted the application.
	ApplicationStatusApproved ApplicationStatus = "approved"
	// ApplicationStatusRejected indicates the parent declined the application.
	ApplicationStatusRejected ApplicationStatus = "rejected"
	// ApplicationStatusWithdrawn indicates the applicant pulled out; withdrawn
	// applications free their capacity slot and their uniqueness claim.
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
)

// Application is a therapist's bid on a post.
//
// The partial unique index on (PostID, ApplicantID) makes "at most one
// non-withdrawn application per therapist per post" a store-level guarantee:
// concurrent duplicate applies lose with a duplicate-key error instead of
// both inserting. Withdrawn rows fall outside the index, so re-applying
// after a withdrawal is allowed.
type Application struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	PostID      uint `gorm:"not null;index;uniqueIndex:ux_applications_live_pair,where:status <> 'withdrawn' AND deleted_at IS NULL" json:"post_id"`
	Post        Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
	ApplicantID uint `gorm:"not null;index;uniqueIndex:ux_applications_live_pair" json:"applicant_id"`
	Applicant   User `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	// PostAuthorID is denormalized so owner checks skip a post load.
	PostAuthorID uint              `gorm:"not null;index" json:"post_author_id"`
	Status       ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Message      string            `gorm:"type:text" json:"message"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	DeletedAt    gorm.DeletedAt    `gorm:"index" json:"-"`
}

// Live reports whether the application still occupies a capacity slot.
func (a *Application) Live() bool {
	return a.Status != ApplicationStatusWithdrawn
}
