package handlers

import (
	"errors"
	"strconv"

	"carematch/database"
	"carematch/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetUser returns the display fields for an identity. Used by the UI for
// denormalized rendering only; never for authorization.
func GetUser(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var user models.User
	err = database.DB.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, models.NewNotFoundError("user", userID))
	}
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":           user.ID,
		"display_name": user.DisplayName,
		"user_type":    user.UserType,
		"avatar":       user.Avatar,
	})
}

// GetMyEntitlements returns the caller's subscription/token view so the UI
// can gate chat and apply buttons without guessing.
func GetMyEntitlements(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	ent, err := gate.Entitlements(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(ent)
}
