package service

import (
	"context"
	"errors"
	"time"

	"carematch/models"
	"carematch/notifications"

	"gorm.io/gorm"
)

// BumpCooldown is the minimum interval between owner-triggered re-surfaces
// of the same post.
const BumpCooldown = 24 * time.Hour

// PostLifecycleManager owns a post's status state machine and its
// rate-limited bump operation.
type PostLifecycleManager struct {
	db     *gorm.DB
	events *notifications.Notifier
}

// NewPostLifecycleManager creates a new post lifecycle manager.
func NewPostLifecycleManager(db *gorm.DB, events *notifications.Notifier) *PostLifecycleManager {
	return &PostLifecycleManager{db: db, events: events}
}

// PostAttrs carries the caller-supplied fields of a new post.
type PostAttrs struct {
	Title   string
	Content string
}

// Create opens a new service request in the matching state. The
// single-active-request rule (at most one post per owner in
// matching/meeting) is enforced by a partial unique index, so the insert
// itself is the check: a concurrent second create loses with a
// duplicate-key error and surfaces as a conflict.
func (m *PostLifecycleManager) Create(ctx context.Context, ownerID uint, attrs PostAttrs) (*models.Post, error) {
	if attrs.Title == "" || attrs.Content == "" {
		return nil, models.NewValidationError("title and content are required")
	}

	post := models.Post{
		AuthorID: ownerID,
		Title:    attrs.Title,
		Content:  attrs.Content,
		Status:   models.PostStatusMatching,
	}
	if err := m.db.WithContext(ctx).Create(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.NewConflictError("you already have an active post")
		}
		return nil, err
	}

	m.events.Publish(ctx, ownerID, notifications.EventPostCreated, post)
	return &post, nil
}

// Get returns a post with its live application count computed.
func (m *PostLifecycleManager) Get(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	err := m.db.WithContext(ctx).Preload("Author").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("post", postID)
	}
	if err != nil {
		return nil, err
	}

	var count int64
	err = m.db.WithContext(ctx).Model(&models.Application{}).
		Where("post_id = ? AND status <> ?", postID, models.ApplicationStatusWithdrawn).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	post.ApplicationCount = int(count)
	return &post, nil
}

// List returns posts in recency order. Bumped posts surface naturally
// because Bump rewrites created_at, the same field this sorts on.
func (m *PostLifecycleManager) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var posts []*models.Post
	err := m.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// Bump re-surfaces the post in recency-ordered listings. Owner only, at
// most once per cooldown window. The cooldown check and the timestamp
// rewrite run in one transaction under a row lock so two racing bumps
// cannot both pass the check.
func (m *PostLifecycleManager) Bump(ctx context.Context, postID, actorID uint) (*models.Post, error) {
	var post models.Post
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("post", postID)
			}
			return err
		}
		if post.AuthorID != actorID {
			return models.NewAuthorizationError("only the post owner can bump it")
		}
		if !post.Active() {
			return models.NewClosedError("this post is no longer active")
		}

		now := time.Now()
		if post.BumpedAt != nil {
			if elapsed := now.Sub(*post.BumpedAt); elapsed < BumpCooldown {
				return models.NewRateLimitedError(BumpCooldown - elapsed)
			}
		}

		post.CreatedAt = now
		post.BumpedAt = &now
		return tx.Model(&post).Updates(map[string]interface{}{
			"created_at": now,
			"bumped_at":  now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	m.events.Publish(ctx, post.AuthorID, notifications.EventPostBumped, post)
	return &post, nil
}

// Transition moves the post along one of the permitted status edges.
// Callable by the post owner or an operator. The current status is
// re-checked under a row lock, so transitions apply in the order their
// preconditions are satisfied and never out of order.
func (m *PostLifecycleManager) Transition(ctx context.Context, postID, actorID uint, next models.PostStatus) (*models.Post, error) {
	switch next {
	case models.PostStatusMeeting, models.PostStatusCompleted:
	default:
		return nil, models.NewValidationError("unknown target status")
	}

	var post models.Post
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("post", postID)
			}
			return err
		}

		if post.AuthorID != actorID {
			operator, err := isOperator(ctx, tx, actorID)
			if err != nil {
				return err
			}
			if !operator {
				return models.NewAuthorizationError("only the post owner or an operator can change its status")
			}
		}

		if !post.CanTransitionTo(next) {
			return models.NewInvalidTransitionError(string(post.Status), string(next))
		}

		post.Status = next
		return tx.Model(&post).Update("status", next).Error
	})
	if err != nil {
		return nil, err
	}

	m.events.Publish(ctx, post.AuthorID, notifications.EventPostTransitioned, post)
	return &post, nil
}
