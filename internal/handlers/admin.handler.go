package handlers

import (
	"lessonfolders/internal/app"
	"lessonfolders/internal/database"
	"lessonfolders/internal/logger"
	"lessonfolders/internal/types"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Handler
	db database.DB
}

func NewAdminHandler(app app.App, router fiber.Router) *AdminHandler {
	log := logger.New("handlers").File("admin_handler")
	return &AdminHandler{
		db: app.Database,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AdminHandler) Register() {
	admin := h.router.Group(
		"/admin",
		h.middleware.RequireAuth(),
		h.middleware.RequireRole(types.RoleSystemAdmin),
	)

	admin.Post("/cache/flush", h.flushCaches)
}

func (h *AdminHandler) flushCaches(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("flushCaches")

	if err := h.db.FlushAllCaches(); err != nil {
		log.Er("failed to flush caches", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to flush caches",
		})
	}

	return c.JSON(fiber.Map{"flushed": true})
}
