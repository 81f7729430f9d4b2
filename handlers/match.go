package handlers

import (
	"carematch/models"

	"github.com/gofiber/fiber/v2"
)

type RecordMatchRequest struct {
	PostID      uint `json:"post_id"`
	ParentID    uint `json:"parent_id"`
	TherapistID uint `json:"therapist_id"`
}

// RecordMatch records a successful match and closes the post. Idempotent:
// retrying after a crash or timeout converges on the same record.
func RecordMatch(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	req := new(RecordMatchRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.PostID == 0 || req.ParentID == 0 || req.TherapistID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "post_id, parent_id and therapist_id are required",
		})
	}

	record, err := recorder.RecordMatch(c.Context(), req.PostID, req.ParentID, req.TherapistID, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}
