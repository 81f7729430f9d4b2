package service

import (
	"context"
	"errors"

	"carematch/models"
	"carematch/notifications"

	"gorm.io/gorm"
)

// ApplicationAdmissionController decides whether a new application to a
// post may be created, enforcing the capacity and uniqueness invariants:
// at most two non-withdrawn applications per post, at most one per
// (post, applicant) pair.
type ApplicationAdmissionController struct {
	db     *gorm.DB
	gate   *SubscriptionGate
	events *notifications.Notifier
}

// NewApplicationAdmissionController creates a new admission controller.
func NewApplicationAdmissionController(db *gorm.DB, gate *SubscriptionGate, events *notifications.Notifier) *ApplicationAdmissionController {
	return &ApplicationAdmissionController{db: db, gate: gate, events: events}
}

// Apply admits a therapist's application to a post, or rejects it with a
// business error. The capacity count, the duplicate check and the insert
// run in one transaction with the post row locked, so concurrent appliers
// are serialized per post; the partial unique index backstops the pair
// uniqueness at the store.
func (a *ApplicationAdmissionController) Apply(ctx context.Context, postID, applicantID uint, message string) (*models.Application, error) {
	active, err := a.gate.IsActive(ctx, applicantID, models.SubscriptionTypeTherapist)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, models.NewEntitlementError("an active therapist subscription is required to apply")
	}

	var app models.Application
	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := lockForUpdate(tx).First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("post", postID)
			}
			return err
		}
		if post.Status == models.PostStatusCompleted {
			return models.NewClosedError("this post is no longer accepting applications")
		}

		var count int64
		err := tx.Model(&models.Application{}).
			Where("post_id = ? AND status <> ?", postID, models.ApplicationStatusWithdrawn).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count >= models.MaxApplicationsPerPost {
			return models.NewCapacityError(models.MaxApplicationsPerPost)
		}

		var existing models.Application
		err = tx.Where("post_id = ? AND applicant_id = ? AND status <> ?",
			postID, applicantID, models.ApplicationStatusWithdrawn).
			First(&existing).Error
		if err == nil {
			return models.NewDuplicateError("you have already applied to this post")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		app = models.Application{
			PostID:       postID,
			ApplicantID:  applicantID,
			PostAuthorID: post.AuthorID,
			Status:       models.ApplicationStatusPending,
			Message:      message,
		}
		if err := tx.Create(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.NewDuplicateError("you have already applied to this post")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.events.Publish(ctx, app.PostAuthorID, notifications.EventApplicationCreated, app)
	return &app, nil
}

// Approve marks a pending application approved. Post owner only. Approval
// does not change the post's status; that is a separate, explicit
// Transition call.
func (a *ApplicationAdmissionController) Approve(ctx context.Context, applicationID, actorID uint) (*models.Application, error) {
	return a.decide(ctx, applicationID, actorID, models.ApplicationStatusApproved)
}

// Reject marks a pending application rejected. Post owner only.
func (a *ApplicationAdmissionController) Reject(ctx context.Context, applicationID, actorID uint) (*models.Application, error) {
	return a.decide(ctx, applicationID, actorID, models.ApplicationStatusRejected)
}

func (a *ApplicationAdmissionController) decide(ctx context.Context, applicationID, actorID uint, decision models.ApplicationStatus) (*models.Application, error) {
	var app models.Application
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := a.loadMutable(ctx, tx, applicationID, &app); err != nil {
			return err
		}
		if app.PostAuthorID != actorID {
			return models.NewAuthorizationError("only the post owner can decide on applications")
		}

		// Conditional update: only a still-pending row can be decided, so
		// two racing decisions cannot both land.
		res := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", applicationID, models.ApplicationStatusPending).
			Update("status", decision)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewConflictError("this application has already been decided or withdrawn")
		}
		app.Status = decision
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.events.Publish(ctx, app.ApplicantID, notifications.EventApplicationUpdated, app)
	return &app, nil
}

// Withdraw lets the applicant pull a non-withdrawn application, freeing
// its capacity slot and its uniqueness claim.
func (a *ApplicationAdmissionController) Withdraw(ctx context.Context, applicationID, actorID uint) (*models.Application, error) {
	var app models.Application
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := a.loadMutable(ctx, tx, applicationID, &app); err != nil {
			return err
		}
		if app.ApplicantID != actorID {
			return models.NewAuthorizationError("only the applicant can withdraw an application")
		}

		res := tx.Model(&models.Application{}).
			Where("id = ? AND status <> ?", applicationID, models.ApplicationStatusWithdrawn).
			Update("status", models.ApplicationStatusWithdrawn)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewConflictError("this application is already withdrawn")
		}
		app.Status = models.ApplicationStatusWithdrawn
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.events.Publish(ctx, app.PostAuthorID, notifications.EventApplicationUpdated, app)
	return &app, nil
}

// loadMutable loads an application and rejects mutation once its post has
// reached the terminal state: applications freeze when the post completes.
func (a *ApplicationAdmissionController) loadMutable(ctx context.Context, tx *gorm.DB, applicationID uint, app *models.Application) error {
	err := tx.WithContext(ctx).First(app, applicationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("application", applicationID)
	}
	if err != nil {
		return err
	}

	var post models.Post
	if err := tx.WithContext(ctx).Select("status").First(&post, app.PostID).Error; err != nil {
		return err
	}
	if post.Status == models.PostStatusCompleted {
		return models.NewClosedError("applications are immutable once the post is completed")
	}
	return nil
}

// ListForPost returns a post's applications, visible to the post owner,
// an operator, or (filtered to their own) an applicant.
func (a *ApplicationAdmissionController) ListForPost(ctx context.Context, postID, actorID uint) ([]*models.Application, error) {
	var post models.Post
	err := a.db.WithContext(ctx).Select("id", "author_id").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("post", postID)
	}
	if err != nil {
		return nil, err
	}

	query := a.db.WithContext(ctx).
		Preload("Applicant").
		Where("post_id = ?", postID).
		Order("created_at ASC")

	if post.AuthorID != actorID {
		operator, err := isOperator(ctx, a.db, actorID)
		if err != nil {
			return nil, err
		}
		if !operator {
			query = query.Where("applicant_id = ?", actorID)
		}
	}

	var apps []*models.Application
	if err := query.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}
