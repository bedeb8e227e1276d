// handlers/scoring.go
package handlers

import (
	"fmt"

	"tour-session-system/middleware"
	"tour-session-system/services"
	"tour-session-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupScoringRoutes(app *fiber.App, scoring *services.ScoringService, pubGolf *services.PubGolfService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Post("/sessions/:id/challenges/:challengeId/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		snap, err := scoring.CompleteChallenge(c.Params("id"), c.Params("challengeId"), userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(snap)
	})

	securedGroup.Post("/sessions/:id/challenges/:challengeId/fail", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		snap, err := scoring.FailChallenge(c.Params("id"), c.Params("challengeId"), userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(snap)
	})

	securedGroup.Post("/sessions/:id/challenges/:challengeId/photo", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		fileHeader, err := c.FormFile("photo")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo file is required"})
		}

		key := fmt.Sprintf("challenge-photos/%s/%s-%s", c.Params("id"), uuid.NewString()[:8], fileHeader.Filename)
		photoURL, err := utils.UploadChallengePhoto(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "photo upload failed",
				"cause": err.Error(),
			})
		}

		if err := scoring.AttachPhoto(c.Params("id"), c.Params("challengeId"), userID, photoURL); err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"photo_url": photoURL})
	})

	securedGroup.Post("/sessions/:id/stops/:stopId/golf", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Sips int `json:"sips"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		if req.Sips < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sips must be zero or more"})
		}

		row, category, err := pubGolf.RecordScore(c.Params("id"), c.Params("stopId"), req.Sips, userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"stop":     row,
			"category": category,
		})
	})
}
