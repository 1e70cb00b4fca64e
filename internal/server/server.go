package server

import (
	"errors"
	"fmt"
	"time"

	"lessonfolders/config"
	"lessonfolders/internal/app"
	"lessonfolders/internal/handlers"
	"lessonfolders/internal/handlers/middleware"
	"lessonfolders/internal/logger"
	"lessonfolders/internal/types"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogs "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/helmet/v2"
)

// Folder requests carry names and id lists only.
const bodyLimit = 64 * 1024

const accessLogFormat = "${time} ${status} ${method} ${path} ${latency} trace=${respHeader:" +
	middleware.TraceIDHeader + "}\n"

type AppServer struct {
	FiberApp *fiber.App
	log      logger.Logger
}

func New(app *app.App) (*AppServer, error) {
	log := logger.New("server").Function("New")
	log.Info("Initializing server", "environment", app.Config.Environment)

	server := fiber.New(fiberConfig(app.Config))

	server.Use(cors.New(corsConfig(app.Config.CorsAllowOrigins)))
	server.Use(fiberLogs.New(fiberLogs.Config{Format: accessLogFormat}))
	server.Use(compress.New())
	server.Use(helmet.New(helmet.Config{
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		ReferrerPolicy:            "no-referrer",
		CrossOriginResourcePolicy: "same-origin",
		ContentSecurityPolicy:     "default-src 'none'; frame-ancestors 'none'",
	}))

	if err := handlers.Router(server, app); err != nil {
		return nil, log.Err("failed to initialize handlers", err)
	}

	return &AppServer{FiberApp: server, log: log}, nil
}

func fiberConfig(cfg config.Config) fiber.Config {
	development := cfg.Environment == "development"

	return fiber.Config{
		ServerHeader:          "LessonFolders/" + cfg.GeneralVersion,
		AppName:               "lesson_folders_server",
		BodyLimit:             bodyLimit,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: !development,
		EnablePrintRoutes:     development,
	}
}

// corsConfig only allows credentials for an explicit origin list; fiber
// rejects credentials combined with a wildcard origin.
func corsConfig(allowOrigins string) cors.Config {
	if allowOrigins == "" {
		allowOrigins = "*"
	}

	return cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + middleware.TraceIDHeader,
		AllowCredentials: allowOrigins != "*",
		ExposeHeaders:    middleware.TraceIDHeader,
		MaxAge:           300,
	}
}

// errorHandler renders errors that escape the handlers, such as unknown routes
// or oversized bodies, in the same envelope the folder routes use.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiberErr.Message,
			"kind":  kindForStatus(fiberErr.Code),
		})
	}

	folderErr := types.AsFolderError(err)
	return c.Status(folderErr.StatusCode()).JSON(fiber.Map{
		"error": folderErr.Message,
		"kind":  folderErr.Kind,
	})
}

func kindForStatus(status int) types.ErrorKind {
	switch {
	case status == fiber.StatusNotFound || status == fiber.StatusMethodNotAllowed:
		return types.KindNotFound
	case status == fiber.StatusForbidden:
		return types.KindForbidden
	case status >= 400 && status < 500:
		return types.KindValidationFailed
	default:
		return types.KindTransientStoreFailure
	}
}

func (s *AppServer) Listen(port int) error {
	log := s.log.Function("Listen")

	if port == 0 {
		return log.Error("Fatal error: invalid port", "port", port)
	}

	log.Info("Starting server", "port", port)
	return s.FiberApp.Listen(fmt.Sprintf(":%d", port))
}
