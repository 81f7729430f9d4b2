package handlers

import (
	"strconv"

	"carematch/models"

	"github.com/gofiber/fiber/v2"
)

type CreateApplicationRequest struct {
	Message string `json:"message"`
}

// CreateApplication applies the authenticated therapist to a post.
func CreateApplication(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post ID",
		})
	}

	req := new(CreateApplicationRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	app, err := admission.Apply(c.Context(), uint(postID), userID, req.Message)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

// GetApplications lists a post's applications for the owner, an operator,
// or (own rows only) an applicant.
func GetApplications(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post ID",
		})
	}

	apps, err := admission.ListForPost(c.Context(), uint(postID), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(apps)
}

// ApproveApplication marks an application approved (post owner only).
func ApproveApplication(c *fiber.Ctx) error {
	return decideApplication(c, "approve")
}

// RejectApplication marks an application rejected (post owner only).
func RejectApplication(c *fiber.Ctx) error {
	return decideApplication(c, "reject")
}

// WithdrawApplication withdraws the caller's own application.
func WithdrawApplication(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	appID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid application ID",
		})
	}

	app, err := admission.Withdraw(c.Context(), uint(appID), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(app)
}

func decideApplication(c *fiber.Ctx, action string) error {
	userID := c.Locals("userID").(uint)
	appID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid application ID",
		})
	}

	var app *models.Application
	if action == "approve" {
		app, err = admission.Approve(c.Context(), uint(appID), userID)
	} else {
		app, err = admission.Reject(c.Context(), uint(appID), userID)
	}
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(app)
}
