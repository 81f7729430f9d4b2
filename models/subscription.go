package models

import "time"

// SubscriptionType matches a subscription to a marketplace role.
type SubscriptionType string

const (
	// SubscriptionTypeParent entitles a parent to initiate chats without tokens.
	SubscriptionTypeParent SubscriptionType = "parent"
	// SubscriptionTypeTherapist entitles a therapist to apply to posts.
	SubscriptionTypeTherapist SubscriptionType = "therapist"
)

// SubscriptionStatus is the per-identity entitlement record. It is written
// only by the billing collaborator; this service reads it.
type SubscriptionStatus struct {
	UserID                uint             `gorm:"primaryKey" json:"user_id"`
	HasActiveSubscription bool             `gorm:"not null;default:false" json:"has_active_subscription"`
	SubscriptionType      SubscriptionType `gorm:"type:varchar(20)" json:"subscription_type"`
	ExpiryDate            time.Time        `json:"expiry_date"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// ActiveAt reports whether the subscription is live at the given instant.
func (s *SubscriptionStatus) ActiveAt(now time.Time) bool {
	return s.HasActiveSubscription && s.ExpiryDate.After(now)
}

// TokenBalance is the per-identity consumable credit spent on chat
// initiation when no subscription is active. Credits are written by
// billing; the only debit path is the chat broker's first-response charge.
type TokenBalance struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	Tokens    int       `gorm:"not null;default:0" json:"tokens"`
	UpdatedAt time.Time `json:"updated_at"`
}
