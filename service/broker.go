package service

import (
	"context"
	"errors"
	"time"

	"carematch/models"
	"carematch/notifications"

	"gorm.io/gorm"
)

// ChatSessionBroker idempotently creates or reuses the two-party interview
// session between a parent and a therapist, and realizes the deferred
// token charge on the therapist's first response.
type ChatSessionBroker struct {
	db     *gorm.DB
	gate   *SubscriptionGate
	events *notifications.Notifier
}

// NewChatSessionBroker creates a new chat session broker.
func NewChatSessionBroker(db *gorm.DB, gate *SubscriptionGate, events *notifications.Notifier) *ChatSessionBroker {
	return &ChatSessionBroker{db: db, gate: gate, events: events}
}

// Start returns the session for the unordered (parent, therapist) pair,
// creating it if absent. Repeated calls, including retries after a
// timeout, return the same session and never re-check entitlement or
// re-charge: the gate applies only on the create path. Concurrent racers
// are resolved by the unique pair index; the loser re-reads the winner's
// row.
func (b *ChatSessionBroker) Start(ctx context.Context, parentID, therapistID uint) (*models.ChatSession, error) {
	if parentID == therapistID {
		return nil, models.NewValidationError("a chat needs two distinct participants")
	}

	if session, err := b.find(ctx, parentID, therapistID); err != nil {
		return nil, err
	} else if session != nil {
		return session, nil
	}

	allowed, err := b.gate.CanInitiateChat(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewEntitlementError("an active subscription or a token is required to start a chat")
	}

	session := models.ChatSession{
		ParticipantLow:  parentID,
		ParticipantHigh: therapistID,
		ParentID:        parentID,
		TherapistID:     therapistID,
		Status:          models.ChatSessionStatusOpen,
		LastActivityAt:  time.Now(),
	}
	if err := b.db.WithContext(ctx).Create(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race; the pair's session already exists.
			existing, ferr := b.find(ctx, parentID, therapistID)
			if ferr != nil {
				return nil, ferr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	b.events.Publish(ctx, parentID, notifications.EventChatStarted, session)
	b.events.Publish(ctx, therapistID, notifications.EventChatStarted, session)
	return &session, nil
}

func (b *ChatSessionBroker) find(ctx context.Context, a, c uint) (*models.ChatSession, error) {
	low, high := models.PairKey(a, c)
	var session models.ChatSession
	err := b.db.WithContext(ctx).
		Where("participant_low = ? AND participant_high = ?", low, high).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Get returns a session, visible only to its participants.
func (b *ChatSessionBroker) Get(ctx context.Context, sessionID, actorID uint) (*models.ChatSession, error) {
	var session models.ChatSession
	err := b.db.WithContext(ctx).First(&session, sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("chat session", sessionID)
	}
	if err != nil {
		return nil, err
	}
	if !session.Includes(actorID) {
		return nil, models.NewAuthorizationError("you are not a participant in this chat")
	}
	return &session, nil
}

// OnFirstResponderAction realizes the deferred charge when the therapist
// first responds. Calls after the first are no-ops: the charged flag flips
// via a conditional update, and only the caller whose update lands runs
// the debit. The flip and the debit share one transaction, so no reader
// observes one without the other. The balance is not re-validated here;
// entitlement was checked at Start, and a balance that has since reached
// zero simply debits nothing.
func (b *ChatSessionBroker) OnFirstResponderAction(ctx context.Context, sessionID, responderID uint) error {
	var session models.ChatSession
	var charged bool
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("chat session", sessionID)
			}
			return err
		}
		if !session.Includes(responderID) {
			return models.NewAuthorizationError("you are not a participant in this chat")
		}
		if responderID == session.ParentID {
			// Only the therapist's first reply triggers the charge.
			return nil
		}

		res := tx.Model(&models.ChatSession{}).
			Where("id = ? AND token_charged = ?", sessionID, false).
			Updates(map[string]interface{}{
				"token_charged":    true,
				"last_activity_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already charged.
			return nil
		}
		charged = true
		session.TokenCharged = true

		// Subscription holders are never debited.
		var sub models.SubscriptionStatus
		err := tx.First(&sub, "user_id = ?", session.ParentID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && sub.ActiveAt(time.Now()) && sub.SubscriptionType == models.SubscriptionTypeParent {
			return nil
		}

		return tx.Model(&models.TokenBalance{}).
			Where("user_id = ? AND tokens > 0", session.ParentID).
			Update("tokens", gorm.Expr("tokens - 1")).Error
	})
	if err != nil {
		return err
	}

	if charged {
		b.events.Publish(ctx, session.ParentID, notifications.EventChatCharged, session)
	}
	return nil
}

// Close ends a session. Either participant may close; closing before any
// response never charges.
func (b *ChatSessionBroker) Close(ctx context.Context, sessionID, actorID uint) (*models.ChatSession, error) {
	session, err := b.Get(ctx, sessionID, actorID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.ChatSessionStatusClosed {
		return session, nil
	}
	err = b.db.WithContext(ctx).Model(session).
		Update("status", models.ChatSessionStatusClosed).Error
	if err != nil {
		return nil, err
	}
	session.Status = models.ChatSessionStatusClosed
	return session, nil
}
