// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// UserType distinguishes the two marketplace roles plus operators.
type UserType string

const (
	// UserTypeParent is a parent posting service requests.
	UserTypeParent UserType = "parent"
	// UserTypeTherapist is a therapist applying to service requests.
	UserTypeTherapist UserType = "therapist"
	// UserTypeOperator is an administrative/moderation account.
	UserTypeOperator UserType = "operator"
)

// User is the identity record mirrored from the auth collaborator.
// Accounts are created and authenticated elsewhere; this service only
// reads display fields and the user type.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	DisplayName string         `gorm:"not null" json:"display_name"`
	Email       string         `gorm:"unique;not null" json:"email"`
	UserType    UserType       `gorm:"type:varchar(20);not null;default:'parent'" json:"user_type"`
	Avatar      string         `json:"avatar"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsOperator reports whether the user holds the operator role.
func (u *User) IsOperator() bool {
	return u.UserType == UserTypeOperator
}
