// handlers/achievements.go
package handlers

import (
	"tour-session-system/middleware"
	"tour-session-system/models"
	"tour-session-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAchievementRoutes(app *fiber.App, achievements *services.AchievementService, progression *services.ProgressionService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Get("/achievements", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		list, err := achievements.ListForUser(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list achievements",
				"cause": err.Error(),
			})
		}
		return c.JSON(list)
	})

	// Unlock-by-criteria for counters owned by other services: the
	// friends service reports friendship counts, the authoring service
	// reports published tours and reviews. A failed check never fails
	// the triggering operation upstream, so this endpoint is the whole
	// blast radius.
	securedGroup.Post("/achievements/check", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			CriteriaKey models.CriteriaKey `json:"criteria_key"`
			Count       int64              `json:"count"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}

		if err := achievements.CheckExternalCount(userID, req.CriteriaKey, req.Count); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "criteria check failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "criteria checked"})
	})

	securedGroup.Get("/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		prog, err := progression.GetProgress(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"user_id":          prog.UserID,
			"total_xp":         prog.TotalXP,
			"level":            prog.Level,
			"last_level_up_at": prog.LastLevelUpAt,
		})
	})

	securedGroup.Get("/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var records []models.PlayHistoryRecord
		if err := achievements.DB.
			Where("user_id = ?", userID).
			Order("finished_at DESC").
			Limit(50).
			Find(&records).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load play history",
				"cause": err.Error(),
			})
		}
		return c.JSON(records)
	})
}
