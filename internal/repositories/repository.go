package repositories

import (
	"time"

	"lessonfolders/config"
	"lessonfolders/internal/database"
)

type Repository struct {
	Folder               FolderRepository
	FolderLessonMaterial FolderLessonMaterialRepository
	LessonMaterial       LessonMaterialRepository
	Directory            DirectoryRepository
}

func New(db database.DB, config config.Config) Repository {
	return Repository{
		Folder: NewFolderRepository(
			db,
			time.Duration(config.FolderCacheTTLSeconds)*time.Second,
		),
		FolderLessonMaterial: NewFolderLessonMaterialRepository(),
		LessonMaterial:       NewLessonMaterialRepository(),
		Directory:            NewDirectoryRepository(db),
	}
}
