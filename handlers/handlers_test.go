package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"carematch/database"
	"carematch/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestApp wires the handlers to an in-memory SQLite database and a
// fake auth middleware that trusts the X-User-ID header.
func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	database.DB = db
	Init(db, nil)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if raw := c.Get("X-User-ID"); raw != "" {
			var id uint
			fmt.Sscanf(raw, "%d", &id)
			c.Locals("userID", id)
		}
		return c.Next()
	})

	app.Post("/posts", CreatePost)
	app.Get("/posts", GetPosts)
	app.Get("/posts/:id", GetPost)
	app.Post("/posts/:id/bump", BumpPost)
	app.Post("/posts/:id/applications", CreateApplication)
	app.Post("/chats", StartChat)
	app.Get("/users/:id", GetUser)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, userID uint, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	_, err = rec.Body.ReadFrom(resp.Body)
	require.NoError(t, err)
	return rec
}

func seedUser(t *testing.T, db *gorm.DB, typ models.UserType, email string) *models.User {
	t.Helper()
	user := &models.User{DisplayName: "u", Email: email, UserType: typ}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestPostEndpoints(t *testing.T) {
	app, db := setupTestApp(t)
	parent := seedUser(t, db, models.UserTypeParent, "parent@example.com")

	// Create
	rec := doJSON(t, app, "POST", "/posts", parent.ID, map[string]string{
		"title":   "Looking for help",
		"content": "Weekday afternoons",
	})
	require.Equal(t, fiber.StatusCreated, rec.Code)

	var post models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, models.PostStatusMatching, post.Status)

	// Second active post conflicts and carries the machine code
	rec = doJSON(t, app, "POST", "/posts", parent.ID, map[string]string{
		"title":   "Another",
		"content": "More",
	})
	require.Equal(t, fiber.StatusConflict, rec.Code)
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, models.CodeConflict, errResp.Code)

	// First bump succeeds, immediate second bump is rate limited
	rec = doJSON(t, app, "POST", fmt.Sprintf("/posts/%d/bump", post.ID), parent.ID, nil)
	require.Equal(t, fiber.StatusOK, rec.Code)

	rec = doJSON(t, app, "POST", fmt.Sprintf("/posts/%d/bump", post.ID), parent.ID, nil)
	require.Equal(t, fiber.StatusTooManyRequests, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, models.CodeRateLimited, errResp.Code)
	assert.NotNil(t, errResp.Details["retry_after_seconds"])

	// Read back with application count
	rec = doJSON(t, app, "GET", fmt.Sprintf("/posts/%d", post.ID), 0, nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
}

func TestApplicationEndpointErrors(t *testing.T) {
	app, db := setupTestApp(t)
	parent := seedUser(t, db, models.UserTypeParent, "p2@example.com")
	therapist := seedUser(t, db, models.UserTypeTherapist, "t2@example.com")

	rec := doJSON(t, app, "POST", "/posts", parent.ID, map[string]string{
		"title": "Help", "content": "Details",
	})
	require.Equal(t, fiber.StatusCreated, rec.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))

	// No therapist subscription: entitlement failure maps to 402
	rec = doJSON(t, app, "POST", fmt.Sprintf("/posts/%d/applications", post.ID), therapist.ID,
		map[string]string{"message": "hi"})
	require.Equal(t, fiber.StatusPaymentRequired, rec.Code)
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, models.CodeEntitlement, errResp.Code)
}

func TestChatEndpointErrors(t *testing.T) {
	app, db := setupTestApp(t)
	parent := seedUser(t, db, models.UserTypeParent, "p3@example.com")
	therapist := seedUser(t, db, models.UserTypeTherapist, "t3@example.com")

	// No subscription, no tokens
	rec := doJSON(t, app, "POST", "/chats", parent.ID, map[string]uint{
		"therapist_id": therapist.ID,
	})
	require.Equal(t, fiber.StatusPaymentRequired, rec.Code)

	// Missing therapist_id
	rec = doJSON(t, app, "POST", "/chats", parent.ID, map[string]uint{})
	require.Equal(t, fiber.StatusBadRequest, rec.Code)
}

func TestGetUserEndpoint(t *testing.T) {
	app, db := setupTestApp(t)
	user := seedUser(t, db, models.UserTypeTherapist, "t4@example.com")

	rec := doJSON(t, app, "GET", fmt.Sprintf("/users/%d", user.ID), 0, nil)
	require.Equal(t, fiber.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, "therapist", body["user_type"])
	// Display fields only; email is never exposed.
	assert.NotContains(t, body, "email")

	rec = doJSON(t, app, "GET", "/users/99999", 0, nil)
	require.Equal(t, fiber.StatusNotFound, rec.Code)
}
