package controllers

import (
	"lessonfolders/internal/database"
	"lessonfolders/internal/events"
	"lessonfolders/internal/repositories"
	"lessonfolders/internal/services"

	foldersController "lessonfolders/internal/controllers/folders"
)

type Controllers struct {
	Folders foldersController.FoldersControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	eventBus *events.EventBus,
	db database.DB,
) Controllers {
	return Controllers{
		Folders: foldersController.New(repos, services, eventBus, db),
	}
}
