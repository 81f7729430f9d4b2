package service

import (
	"context"
	"errors"

	"carematch/models"
	"carematch/notifications"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRecorder records a terminal successful match and closes the post.
// Record first, then close: a crash between the two steps is recovered by
// re-running RecordMatch, which upserts the same record and finds the post
// either still open or already completed.
type MatchRecorder struct {
	db        *gorm.DB
	lifecycle *PostLifecycleManager
	events    *notifications.Notifier
}

// NewMatchRecorder creates a new match recorder.
func NewMatchRecorder(db *gorm.DB, lifecycle *PostLifecycleManager, events *notifications.Notifier) *MatchRecorder {
	return &MatchRecorder{db: db, lifecycle: lifecycle, events: events}
}

// RecordMatch writes the immutable match record for the (parent,
// therapist) pair and transitions the post to completed. Idempotent:
// recording the same pair again updates the existing record, and a post
// that is already completed is left as is.
func (r *MatchRecorder) RecordMatch(ctx context.Context, postID, parentID, therapistID, actorID uint) (*models.MatchRecord, error) {
	var post models.Post
	err := r.db.WithContext(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("post", postID)
	}
	if err != nil {
		return nil, err
	}

	if post.AuthorID != actorID {
		operator, err := isOperator(ctx, r.db, actorID)
		if err != nil {
			return nil, err
		}
		if !operator {
			return nil, models.NewAuthorizationError("only the post owner or an operator can record a match")
		}
	}

	record := models.MatchRecord{
		ParentID:    parentID,
		TherapistID: therapistID,
		PostID:      postID,
		RecordedBy:  actorID,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "parent_id"}, {Name: "therapist_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"post_id", "recorded_by", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}

	// The upsert does not reliably backfill the ID on conflict; read the
	// row back so the caller sees the canonical record.
	err = r.db.WithContext(ctx).
		Where("parent_id = ? AND therapist_id = ?", parentID, therapistID).
		First(&record).Error
	if err != nil {
		return nil, err
	}

	if post.Status != models.PostStatusCompleted {
		_, err = r.lifecycle.Transition(ctx, postID, actorID, models.PostStatusCompleted)
		if err != nil && !alreadyCompleted(ctx, r.db, postID, err) {
			return nil, err
		}
	}

	r.events.Publish(ctx, parentID, notifications.EventMatchRecorded, record)
	r.events.Publish(ctx, therapistID, notifications.EventMatchRecorded, record)
	return &record, nil
}

// alreadyCompleted reports whether a failed terminal transition lost to a
// concurrent completion, which RecordMatch treats as success.
func alreadyCompleted(ctx context.Context, db *gorm.DB, postID uint, cause error) bool {
	if !models.IsCode(cause, models.CodeInvalidTransition) {
		return false
	}
	var post models.Post
	if err := db.WithContext(ctx).Select("status").First(&post, postID).Error; err != nil {
		return false
	}
	return post.Status == models.PostStatusCompleted
}
