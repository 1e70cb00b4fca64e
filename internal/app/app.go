package app

import (
	"lessonfolders/config"
	"lessonfolders/internal/controllers"
	"lessonfolders/internal/database"
	"lessonfolders/internal/events"
	"lessonfolders/internal/handlers/middleware"
	"lessonfolders/internal/logger"
	"lessonfolders/internal/repositories"
	"lessonfolders/internal/services"
)

type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	EventBus    *events.EventBus
	Config      config.Config
	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	if config.DatabaseDriver == database.DriverSQLite {
		if err := db.MigrateModels(); err != nil {
			return &App{}, log.Err("failed to migrate sqlite database", err)
		}
	}

	return NewWithDB(config, db)
}

// NewWithDB wires everything downstream of an already opened database.
func NewWithDB(config config.Config, db database.DB) (*App, error) {
	log := logger.New("app").Function("NewWithDB")

	eventBus := events.New(db.Cache.Events)
	repos := repositories.New(db, config)
	services := services.New(db, repos)
	controllers := controllers.New(services, repos, eventBus, db)
	middleware := middleware.New(db, config, repos)

	app := &App{
		Database:    db,
		Middleware:  middleware,
		EventBus:    eventBus,
		Config:      config,
		Services:    services,
		Repos:       repos,
		Controllers: controllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	if err := eventBus.Subscribe(events.FOLDERS_CHANNEL, app.invalidateFolderCache); err != nil {
		return &App{}, log.Err("failed to subscribe to folder events", err)
	}

	return app, nil
}

// invalidateFolderCache drops cached listings for the scopes a folder event names.
func (a *App) invalidateFolderCache(event events.Event) error {
	return a.Controllers.Folders.HandleFolderEvent(event)
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.EventBus,
		a.Services.Transaction,
		a.Services.Permission,
		a.Services.Ordering,
		a.Services.ScopeLock,
		a.Repos.Folder,
		a.Repos.FolderLessonMaterial,
		a.Repos.LessonMaterial,
		a.Repos.Directory,
		a.Controllers.Folders,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
