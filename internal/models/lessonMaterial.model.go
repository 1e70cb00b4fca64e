package models

import "github.com/google/uuid"

type LessonMaterialStatus string

const (
	LessonMaterialStatusActive  LessonMaterialStatus = "active"
	LessonMaterialStatusDeleted LessonMaterialStatus = "deleted"
)

// LessonMaterial is owned by the content pipeline. Only identity, status and
// ownership are read or written here.
type LessonMaterial struct {
	BaseUUIDModel
	Title           string               `gorm:"type:text"                       json:"title"`
	Status          LessonMaterialStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedByUserID uuid.UUID            `gorm:"type:uuid;not null;index"        json:"createdByUserId"`
}

type FolderLessonMaterial struct {
	BaseUUIDModel
	FolderID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_folder_lesson_material"       json:"folderId"`
	LessonMaterialID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_folder_lesson_material;index" json:"lessonMaterialId"`
	LessonMaterial   *LessonMaterial `gorm:"foreignKey:LessonMaterialID"                                      json:"lessonMaterial,omitempty"`
}
