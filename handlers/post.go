package handlers

import (
	"strconv"

	"carematch/models"
	"carematch/service"

	"github.com/gofiber/fiber/v2"
)

type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type TransitionPostRequest struct {
	Status string `json:"status"`
}

// CreatePost opens a new service request for the authenticated parent.
func CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	req := new(CreatePostRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	post, err := lifecycle.Create(c.Context(), userID, service.PostAttrs{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts lists posts in recency order.
func GetPosts(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)

	posts, err := lifecycle.List(c.Context(), limit, offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(posts)
}

// GetPost returns a single post with its live application count.
func GetPost(c *fiber.Ctx) error {
	postID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post ID",
		})
	}

	post, err := lifecycle.Get(c.Context(), uint(postID))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(post)
}

// BumpPost re-surfaces the caller's post, subject to the cooldown.
func BumpPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post ID",
		})
	}

	post, err := lifecycle.Bump(c.Context(), uint(postID), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(post)
}

// TransitionPost moves a post along a permitted status edge.
func TransitionPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post ID",
		})
	}

	req := new(TransitionPostRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	post, err := lifecycle.Transition(c.Context(), uint(postID), userID, models.PostStatus(req.Status))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(post)
}
