package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"carematch/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing. The pool
// is capped at one connection: every in-memory handle sees the same
// database and concurrent transactions serialize exactly like they would
// under the Postgres row locks.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Application{},
		&models.ChatSession{},
		&models.SubscriptionStatus{},
		&models.TokenBalance{},
		&models.MatchRecord{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

var userSeq int

func createUser(t *testing.T, db *gorm.DB, typ models.UserType) *models.User {
	t.Helper()
	userSeq++
	user := &models.User{
		DisplayName: fmt.Sprintf("user-%d", userSeq),
		Email:       fmt.Sprintf("user-%d@example.com", userSeq),
		UserType:    typ,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func giveSubscription(t *testing.T, db *gorm.DB, userID uint, typ models.SubscriptionType) {
	t.Helper()
	sub := models.SubscriptionStatus{
		UserID:                userID,
		HasActiveSubscription: true,
		SubscriptionType:      typ,
		ExpiryDate:            time.Now().Add(30 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(&sub).Error)
}

func giveTokens(t *testing.T, db *gorm.DB, userID uint, tokens int) {
	t.Helper()
	require.NoError(t, db.Create(&models.TokenBalance{UserID: userID, Tokens: tokens}).Error)
}

func tokensOf(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()
	var balance models.TokenBalance
	require.NoError(t, db.First(&balance, "user_id = ?", userID).Error)
	return balance.Tokens
}

// createActivePost seeds a matching-state post owned by a fresh parent.
func createActivePost(t *testing.T, db *gorm.DB) (*models.Post, *models.User) {
	t.Helper()
	parent := createUser(t, db, models.UserTypeParent)
	lifecycle := NewPostLifecycleManager(db, nil)
	post, err := lifecycle.Create(context.Background(), parent.ID, PostAttrs{
		Title:   "Looking for a speech therapist",
		Content: "Twice a week, afternoons.",
	})
	require.NoError(t, err)
	return post, parent
}

// createTherapist seeds a therapist with an active subscription.
func createTherapist(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	therapist := createUser(t, db, models.UserTypeTherapist)
	giveSubscription(t, db, therapist.ID, models.SubscriptionTypeTherapist)
	return therapist
}
