package service

import (
	"context"
	"testing"
	"time"

	"carematch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsActive(t *testing.T) {
	db := setupTestDB(t)
	gate := NewSubscriptionGate(db)
	ctx := context.Background()

	t.Run("no record means inactive", func(t *testing.T) {
		user := createUser(t, db, models.UserTypeTherapist)
		active, err := gate.IsActive(ctx, user.ID, models.SubscriptionTypeTherapist)
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("active and type matched", func(t *testing.T) {
		user := createUser(t, db, models.UserTypeTherapist)
		giveSubscription(t, db, user.ID, models.SubscriptionTypeTherapist)

		active, err := gate.IsActive(ctx, user.ID, models.SubscriptionTypeTherapist)
		require.NoError(t, err)
		assert.True(t, active)
	})

	t.Run("type mismatch is inactive", func(t *testing.T) {
		user := createUser(t, db, models.UserTypeParent)
		giveSubscription(t, db, user.ID, models.SubscriptionTypeParent)

		active, err := gate.IsActive(ctx, user.ID, models.SubscriptionTypeTherapist)
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("expired subscription is inactive", func(t *testing.T) {
		user := createUser(t, db, models.UserTypeParent)
		sub := models.SubscriptionStatus{
			UserID:                user.ID,
			HasActiveSubscription: true,
			SubscriptionType:      models.SubscriptionTypeParent,
			ExpiryDate:            time.Now().Add(-time.Hour),
		}
		require.NoError(t, db.Create(&sub).Error)

		active, err := gate.IsActive(ctx, user.ID, models.SubscriptionTypeParent)
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("flag off overrides a future expiry", func(t *testing.T) {
		user := createUser(t, db, models.UserTypeParent)
		sub := models.SubscriptionStatus{
			UserID:                user.ID,
			HasActiveSubscription: false,
			SubscriptionType:      models.SubscriptionTypeParent,
			ExpiryDate:            time.Now().Add(time.Hour),
		}
		require.NoError(t, db.Create(&sub).Error)

		active, err := gate.IsActive(ctx, user.ID, models.SubscriptionTypeParent)
		require.NoError(t, err)
		assert.False(t, active)
	})
}

func TestHasUsableToken(t *testing.T) {
	db := setupTestDB(t)
	gate := NewSubscriptionGate(db)
	ctx := context.Background()

	user := createUser(t, db, models.UserTypeParent)

	ok, err := gate.HasUsableToken(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, ok, "no balance record")

	giveTokens(t, db, user.ID, 0)
	ok, err = gate.HasUsableToken(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, ok, "zero balance")

	require.NoError(t, db.Model(&models.TokenBalance{}).
		Where("user_id = ?", user.ID).Update("tokens", 2).Error)
	ok, err = gate.HasUsableToken(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanInitiateChat(t *testing.T) {
	db := setupTestDB(t)
	gate := NewSubscriptionGate(db)
	ctx := context.Background()

	t.Run("neither subscription nor tokens", func(t *testing.T) {
		user := createUser(t, db, models.UserTypeParent)
		ok, err := gate.CanInitiateChat(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("parent subscription alone", func(t *testing.T) {
		user := createUser(t, db, models.UserTypeParent)
		giveSubscription(t, db, user.ID, models.SubscriptionTypeParent)
		ok, err := gate.CanInitiateChat(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("tokens alone", func(t *testing.T) {
		user := createUser(t, db, models.UserTypeParent)
		giveTokens(t, db, user.ID, 1)
		ok, err := gate.CanInitiateChat(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("therapist subscription does not open chat initiation", func(t *testing.T) {
		user := createUser(t, db, models.UserTypeTherapist)
		giveSubscription(t, db, user.ID, models.SubscriptionTypeTherapist)
		ok, err := gate.CanInitiateChat(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestEntitlements(t *testing.T) {
	db := setupTestDB(t)
	gate := NewSubscriptionGate(db)
	ctx := context.Background()

	user := createUser(t, db, models.UserTypeParent)
	giveTokens(t, db, user.ID, 3)

	ent, err := gate.Entitlements(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, ent.UserID)
	assert.Nil(t, ent.Subscription)
	assert.Equal(t, 3, ent.Tokens)
	assert.True(t, ent.CanInitiateChat)
}
