package handlers

import (
	"strconv"

	"carematch/models"

	"github.com/gofiber/fiber/v2"
)

type StartChatRequest struct {
	TherapistID uint `json:"therapist_id"`
}

// StartChat creates or reuses the chat session between the authenticated
// parent and a therapist. Safe to retry: repeated calls return the same
// session.
func StartChat(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	req := new(StartChatRequest)
	if err := c.BodyParser(req); err != nil || req.TherapistID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "therapist_id is required",
		})
	}

	session, err := broker.Start(c.Context(), userID, req.TherapistID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// GetChat returns a session to one of its participants.
func GetChat(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	sessionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chat session ID",
		})
	}

	session, err := broker.Get(c.Context(), uint(sessionID), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(session)
}

// ChatResponded is the first-responder hook: the messaging layer calls it
// when the therapist's first reply lands. Idempotent; repeated calls are
// no-ops.
func ChatResponded(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	sessionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chat session ID",
		})
	}

	if err := broker.OnFirstResponderAction(c.Context(), uint(sessionID), userID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CloseChat ends a session; closing before any response never charges.
func CloseChat(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	sessionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chat session ID",
		})
	}

	session, err := broker.Close(c.Context(), uint(sessionID), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(session)
}
