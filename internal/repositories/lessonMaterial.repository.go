package repositories

import (
	"context"
	"errors"
	"time"

	"lessonfolders/internal/logger"
	. "lessonfolders/internal/models"
	"lessonfolders/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LessonMaterialRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*LessonMaterial, error)
	SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status LessonMaterialStatus) error
	DeleteActiveLinkedToFolder(ctx context.Context, tx *gorm.DB, folderID uuid.UUID) (int64, error)
}

type lessonMaterialRepository struct {
	log logger.Logger
}

func NewLessonMaterialRepository() LessonMaterialRepository {
	return &lessonMaterialRepository{
		log: logger.New("lessonMaterialRepository"),
	}
}

func (r *lessonMaterialRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*LessonMaterial, error) {
	log := r.log.Function("GetByID")

	var material LessonMaterial
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("lesson material", id.String())
		}
		return nil, types.StoreFailure(log.Err("failed to get lesson material", err, "materialID", id))
	}

	return &material, nil
}

func (r *lessonMaterialRepository) SetStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	status LessonMaterialStatus,
) error {
	log := r.log.Function("SetStatus")

	result := tx.WithContext(ctx).
		Model(&LessonMaterial{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return types.StoreFailure(
			log.Err("failed to set lesson material status", result.Error, "materialID", id),
		)
	}
	if result.RowsAffected == 0 {
		return types.NotFound("lesson material", id.String())
	}

	return nil
}

// DeleteActiveLinkedToFolder marks every active material linked to the folder as deleted.
func (r *lessonMaterialRepository) DeleteActiveLinkedToFolder(
	ctx context.Context,
	tx *gorm.DB,
	folderID uuid.UUID,
) (int64, error) {
	log := r.log.Function("DeleteActiveLinkedToFolder")

	linked := tx.Model(&FolderLessonMaterial{}).
		Select("lesson_material_id").
		Where("folder_id = ?", folderID)

	result := tx.WithContext(ctx).
		Model(&LessonMaterial{}).
		Where("status = ? AND id IN (?)", LessonMaterialStatusActive, linked).
		UpdateColumns(map[string]any{
			"status":     LessonMaterialStatusDeleted,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, types.StoreFailure(
			log.Err("failed to delete linked lesson materials", result.Error, "folderID", folderID),
		)
	}

	return result.RowsAffected, nil
}
