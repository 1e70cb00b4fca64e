package handlers

import (
	"lessonfolders/internal/app"
	"lessonfolders/internal/handlers/middleware"
	"lessonfolders/internal/logger"
	"lessonfolders/internal/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.TraceID())

	api := router.Group("/api")
	HealthHandler(api, app.Config)
	NewFolderHandler(*app, api).Register()
	NewAdminHandler(*app, api).Register()

	return nil
}

// respondError maps a folder error kind to its status code. Causes stay in the logs.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	folderErr := types.AsFolderError(err)
	return c.Status(folderErr.StatusCode()).JSON(fiber.Map{
		"error": folderErr.Message,
		"kind":  folderErr.Kind,
	})
}

func (h *Handler) requireUser(c *fiber.Ctx) (uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
		return uuid.Nil, false
	}
	return userID, true
}

func (h *Handler) uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, types.Validation(name+" must be a valid uuid", err)
	}
	return id, nil
}

func (h *Handler) uuidQuery(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, types.Validation(name+" must be a valid uuid", err)
	}
	return &id, nil
}
