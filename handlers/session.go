// handlers/session.go
package handlers

import (
	"errors"

	"tour-session-system/middleware"
	"tour-session-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// failureStatus maps the typed error taxonomy to HTTP statuses. Every
// error here is recoverable at the caller boundary; nothing is fatal.
func failureStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrChallengeNotFound),
		errors.Is(err, services.ErrTourNotFound),
		errors.Is(err, services.ErrPubGolfStopNotTracked),
		errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrSessionNotJoinable):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrInsufficientTokens):
		return fiber.StatusPaymentRequired
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	var conflict *services.ActiveSessionConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":               "active session conflict — retry with force to replace it",
			"conflicting_session": conflict.Session,
		})
	}
	return c.Status(failureStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

func SetupSessionRoutes(app *fiber.App, sessions *services.SessionService, teams *services.TeamService, lifecycle *services.LifecycleService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Post("/sessions", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			TourTemplateID string            `json:"tour_template_id"`
			Force          bool              `json:"force"`
			Team           services.TeamInfo `json:"team"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		if req.TourTemplateID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "tour_template_id is required"})
		}

		session, err := sessions.StartSession(req.TourTemplateID, userID, req.Force, req.Team)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	securedGroup.Get("/sessions/:id", func(c *fiber.Ctx) error {
		session, err := sessions.GetSession(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(session)
	})

	securedGroup.Post("/sessions/:id/join", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Team services.TeamInfo `json:"team"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}

		team, err := teams.JoinSession(c.Params("id"), userID, req.Team)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(team)
	})

	securedGroup.Post("/sessions/:id/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		session, err := lifecycle.StartTour(c.Params("id"), userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(session)
	})

	securedGroup.Post("/sessions/:id/finish", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := lifecycle.Finish(c.Params("id"), userID); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "tour finished"})
	})

	securedGroup.Post("/sessions/:id/abandon", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := lifecycle.Abandon(c.Params("id"), userID); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "tour abandoned"})
	})
}
