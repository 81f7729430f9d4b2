package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carematch/cache"
	"carematch/models"

	"gorm.io/gorm"
)

// subscriptionCacheTTL bounds staleness of gate reads. The gate is purely
// advisory: callers re-check nothing at mutation time because the mutations
// themselves are idempotent or store-enforced.
const subscriptionCacheTTL = 30 * time.Second

// SubscriptionGate resolves whether an identity currently holds an active,
// type-matched subscription or a usable token balance. Read-side policy
// only; it never writes.
type SubscriptionGate struct {
	db *gorm.DB
}

// NewSubscriptionGate creates a new subscription gate.
func NewSubscriptionGate(db *gorm.DB) *SubscriptionGate {
	return &SubscriptionGate{db: db}
}

// Entitlements is the gate's read model for a single identity.
type Entitlements struct {
	UserID          uint                       `json:"user_id"`
	Subscription    *models.SubscriptionStatus `json:"subscription,omitempty"`
	Tokens          int                        `json:"tokens"`
	CanInitiateChat bool                       `json:"can_initiate_chat"`
}

func (g *SubscriptionGate) subscriptionFor(ctx context.Context, userID uint) (*models.SubscriptionStatus, error) {
	var sub models.SubscriptionStatus
	key := fmt.Sprintf("sub:%d", userID)
	err := cache.CacheAside(ctx, key, &sub, subscriptionCacheTTL, func() error {
		return g.db.WithContext(ctx).First(&sub, "user_id = ?", userID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// IsActive reports whether the user holds an unexpired subscription of the
// given type.
func (g *SubscriptionGate) IsActive(ctx context.Context, userID uint, typ models.SubscriptionType) (bool, error) {
	sub, err := g.subscriptionFor(ctx, userID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, nil
	}
	return sub.ActiveAt(time.Now()) && sub.SubscriptionType == typ, nil
}

// HasUsableToken reports whether the user has at least one token left.
// Balances are never cached: the debit path mutates them.
func (g *SubscriptionGate) HasUsableToken(ctx context.Context, userID uint) (bool, error) {
	var balance models.TokenBalance
	err := g.db.WithContext(ctx).First(&balance, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return balance.Tokens > 0, nil
}

// CanInitiateChat reports whether the user may start a chat session: an
// active parent subscription or a non-zero token balance.
func (g *SubscriptionGate) CanInitiateChat(ctx context.Context, userID uint) (bool, error) {
	active, err := g.IsActive(ctx, userID, models.SubscriptionTypeParent)
	if err != nil {
		return false, err
	}
	if active {
		return true, nil
	}
	return g.HasUsableToken(ctx, userID)
}

// Entitlements returns the combined entitlement view for the UI.
func (g *SubscriptionGate) Entitlements(ctx context.Context, userID uint) (*Entitlements, error) {
	sub, err := g.subscriptionFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	var balance models.TokenBalance
	err = g.db.WithContext(ctx).First(&balance, "user_id = ?", userID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	canChat := balance.Tokens > 0
	if sub != nil && sub.ActiveAt(time.Now()) && sub.SubscriptionType == models.SubscriptionTypeParent {
		canChat = true
	}

	return &Entitlements{
		UserID:          userID,
		Subscription:    sub,
		Tokens:          balance.Tokens,
		CanInitiateChat: canChat,
	}, nil
}
