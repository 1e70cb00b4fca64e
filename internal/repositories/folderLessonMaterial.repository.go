package repositories

import (
	"context"

	"lessonfolders/internal/logger"
	. "lessonfolders/internal/models"
	"lessonfolders/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FolderLessonMaterialRepository interface {
	Link(ctx context.Context, tx *gorm.DB, folderID, materialID uuid.UUID) (bool, error)
	Unlink(ctx context.Context, tx *gorm.DB, folderID, materialID uuid.UUID) error
	ListByFolder(ctx context.Context, tx *gorm.DB, folderID uuid.UUID) ([]*FolderLessonMaterial, error)
	ListActiveMaterials(ctx context.Context, tx *gorm.DB, folderID uuid.UUID) ([]*LessonMaterial, error)
	DeleteByFolder(ctx context.Context, tx *gorm.DB, folderID uuid.UUID) (int64, error)
	CountLinksExcluding(ctx context.Context, tx *gorm.DB, materialID, folderID uuid.UUID) (int64, error)
}

type folderLessonMaterialRepository struct {
	log logger.Logger
}

func NewFolderLessonMaterialRepository() FolderLessonMaterialRepository {
	return &folderLessonMaterialRepository{
		log: logger.New("folderLessonMaterialRepository"),
	}
}

// Link inserts the membership row and reports whether a new row was written.
func (r *folderLessonMaterialRepository) Link(
	ctx context.Context,
	tx *gorm.DB,
	folderID, materialID uuid.UUID,
) (bool, error) {
	log := r.log.Function("Link")

	link := &FolderLessonMaterial{FolderID: folderID, LessonMaterialID: materialID}
	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "folder_id"}, {Name: "lesson_material_id"}},
			DoNothing: true,
		}).
		Create(link)
	if result.Error != nil {
		return false, types.StoreFailure(log.Err(
			"failed to link lesson material",
			result.Error,
			"folderID", folderID,
			"materialID", materialID,
		))
	}

	return result.RowsAffected > 0, nil
}

func (r *folderLessonMaterialRepository) Unlink(
	ctx context.Context,
	tx *gorm.DB,
	folderID, materialID uuid.UUID,
) error {
	log := r.log.Function("Unlink")

	result := tx.WithContext(ctx).
		Where("folder_id = ? AND lesson_material_id = ?", folderID, materialID).
		Delete(&FolderLessonMaterial{})
	if result.Error != nil {
		return types.StoreFailure(log.Err(
			"failed to unlink lesson material",
			result.Error,
			"folderID", folderID,
			"materialID", materialID,
		))
	}
	if result.RowsAffected == 0 {
		return types.NotFound("folder lesson material", materialID.String())
	}

	return nil
}

func (r *folderLessonMaterialRepository) ListByFolder(
	ctx context.Context,
	tx *gorm.DB,
	folderID uuid.UUID,
) ([]*FolderLessonMaterial, error) {
	log := r.log.Function("ListByFolder")

	var links []*FolderLessonMaterial
	if err := tx.WithContext(ctx).
		Preload("LessonMaterial").
		Where("folder_id = ?", folderID).
		Order("created_at ASC").
		Find(&links).Error; err != nil {
		return nil, types.StoreFailure(
			log.Err("failed to list folder links", err, "folderID", folderID),
		)
	}

	return links, nil
}

func (r *folderLessonMaterialRepository) ListActiveMaterials(
	ctx context.Context,
	tx *gorm.DB,
	folderID uuid.UUID,
) ([]*LessonMaterial, error) {
	log := r.log.Function("ListActiveMaterials")

	var materials []*LessonMaterial
	if err := tx.WithContext(ctx).
		Joins("JOIN folder_lesson_materials ON folder_lesson_materials.lesson_material_id = lesson_materials.id").
		Where("folder_lesson_materials.folder_id = ? AND lesson_materials.status = ?",
			folderID, LessonMaterialStatusActive).
		Order("lesson_materials.title ASC").
		Find(&materials).Error; err != nil {
		return nil, types.StoreFailure(
			log.Err("failed to list folder materials", err, "folderID", folderID),
		)
	}

	return materials, nil
}

func (r *folderLessonMaterialRepository) DeleteByFolder(
	ctx context.Context,
	tx *gorm.DB,
	folderID uuid.UUID,
) (int64, error) {
	log := r.log.Function("DeleteByFolder")

	result := tx.WithContext(ctx).
		Where("folder_id = ?", folderID).
		Delete(&FolderLessonMaterial{})
	if result.Error != nil {
		return 0, types.StoreFailure(
			log.Err("failed to delete folder links", result.Error, "folderID", folderID),
		)
	}

	return result.RowsAffected, nil
}

// CountLinksExcluding counts links to the material from every folder other than folderID.
func (r *folderLessonMaterialRepository) CountLinksExcluding(
	ctx context.Context,
	tx *gorm.DB,
	materialID, folderID uuid.UUID,
) (int64, error) {
	log := r.log.Function("CountLinksExcluding")

	var count int64
	if err := tx.WithContext(ctx).
		Model(&FolderLessonMaterial{}).
		Where("lesson_material_id = ? AND folder_id <> ?", materialID, folderID).
		Count(&count).Error; err != nil {
		return 0, types.StoreFailure(log.Err(
			"failed to count material links",
			err,
			"materialID", materialID,
			"folderID", folderID,
		))
	}

	return count, nil
}
