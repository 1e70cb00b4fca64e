package foldersController

import (
	"context"

	"lessonfolders/internal/events"
	. "lessonfolders/internal/models"
	"lessonfolders/internal/services"
	"lessonfolders/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (c *FoldersController) GetFolder(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
) (*Folder, error) {
	log := c.log.TraceFromContext(ctx).Function("GetFolder")

	_, folder, err := c.authorizeRead(ctx, actorID, folderID)
	if err != nil {
		return nil, fail(log, "failed to get folder", err, "folderID", folderID, "actorID", actorID)
	}

	return folder, nil
}

// ListFolders lists one scope in display order. Without a class the scope is
// the owner's personal scope, which defaults to the actor.
func (c *FoldersController) ListFolders(
	ctx context.Context,
	actorID uuid.UUID,
	request ListFoldersRequest,
) ([]*Folder, error) {
	log := c.log.TraceFromContext(ctx).Function("ListFolders")

	status := FolderStatusActive
	if request.Status != "" {
		parsed, ok := ParseFolderStatus(request.Status)
		if !ok {
			return nil, fail(log, "invalid status filter",
				types.Validation("status must be one of active, archived, deleted", nil),
				"status", request.Status)
		}
		status = parsed
	}

	actor, err := c.resolveActor(ctx, actorID)
	if err != nil {
		return nil, fail(log, "failed to resolve actor", err, "actorID", actorID)
	}

	var (
		scope     FolderScope
		classroom *Classroom
		enrolled  bool
	)
	switch {
	case request.ClassID != nil && *request.ClassID != uuid.Nil:
		scope = ClassScope(*request.ClassID)
		classroom, err = c.classrooms.GetClassroom(ctx, *request.ClassID)
		if err != nil {
			return nil, fail(log, "failed to load classroom", err, "classID", *request.ClassID)
		}
		enrolled, err = c.isEnrolled(ctx, actor, classroom)
		if err != nil {
			return nil, fail(log, "failed to check enrollment", err, "classID", *request.ClassID)
		}
	case request.OwnerID != nil && *request.OwnerID != uuid.Nil:
		scope = PersonalScope(*request.OwnerID)
	default:
		scope = PersonalScope(actor.UserID)
	}

	if !c.permissions.CanReadScope(scope, actor, classroom, enrolled) {
		return nil, fail(log, "list not permitted",
			types.Forbidden("you do not have permission to view these folders"),
			"scopeKey", scope.Key(), "actorID", actorID)
	}
	if !c.permissions.CanReadStatus(scope, status, actor, classroom) {
		return nil, fail(log, "status filter not permitted",
			types.Forbidden("you do not have permission to view "+string(status)+" folders"),
			"scopeKey", scope.Key(), "status", status, "actorID", actorID)
	}

	folders, err := c.folderRepo.ListByScope(ctx, c.db.SQLWithContext(ctx), scope.Key(), status)
	if err != nil {
		return nil, fail(log, "failed to list folders", err, "scopeKey", scope.Key())
	}

	return folders, nil
}

// LinkLessonMaterial files a material into an active folder. Linking a pair
// that already exists succeeds and reports false.
func (c *FoldersController) LinkLessonMaterial(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
	materialID uuid.UUID,
) (bool, error) {
	log := c.log.TraceFromContext(ctx).Function("LinkLessonMaterial")

	actor, folder, err := c.authorizeMutation(ctx, actorID, folderID, "add materials to")
	if err != nil {
		return false, fail(log, "link not permitted", err, "folderID", folderID, "actorID", actorID)
	}
	if err := requireActive(folder, "linked"); err != nil {
		return false, fail(log, "link rejected", err, "folderID", folderID)
	}

	var created bool
	err = c.withScopeLock(ctx, []string{folder.ScopeKey}, func(ctx context.Context, tx *gorm.DB) error {
		current, err := c.reloadInScope(ctx, tx, folder)
		if err != nil {
			return err
		}
		if err := requireActive(current, "linked"); err != nil {
			return err
		}

		material, err := c.materialRepo.GetByID(ctx, tx, materialID)
		if err != nil {
			return err
		}
		if material.Status != LessonMaterialStatusActive {
			return types.NotFound("lesson_material", materialID.String())
		}

		created, err = c.linkRepo.Link(ctx, tx, current.ID, material.ID)
		return err
	})
	if err != nil {
		return false, fail(log, "failed to link lesson material", err,
			"folderID", folderID, "materialID", materialID)
	}

	if created {
		log.Info("Lesson material linked", "folderID", folderID, "materialID", materialID)
		c.afterCommit(ctx, events.FOLDER_LINKED, actor, folder, folder.ScopeKey)
	}

	return created, nil
}

func (c *FoldersController) UnlinkLessonMaterial(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
	materialID uuid.UUID,
) error {
	log := c.log.TraceFromContext(ctx).Function("UnlinkLessonMaterial")

	actor, folder, err := c.authorizeMutation(ctx, actorID, folderID, "remove materials from")
	if err != nil {
		return fail(log, "unlink not permitted", err, "folderID", folderID, "actorID", actorID)
	}
	if folder.Status == FolderStatusDeleted {
		return fail(log, "unlink rejected", types.InvalidTransition("folder has been deleted"),
			"folderID", folderID)
	}

	err = c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return c.linkRepo.Unlink(ctx, tx, folderID, materialID)
	})
	if err != nil {
		return fail(log, "failed to unlink lesson material", err,
			"folderID", folderID, "materialID", materialID)
	}

	log.Info("Lesson material unlinked", "folderID", folderID, "materialID", materialID)
	c.afterCommit(ctx, events.FOLDER_UNLINKED, actor, folder, folder.ScopeKey)

	return nil
}

func (c *FoldersController) ListFolderMaterials(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
) ([]*LessonMaterial, error) {
	log := c.log.TraceFromContext(ctx).Function("ListFolderMaterials")

	_, folder, err := c.authorizeRead(ctx, actorID, folderID)
	if err != nil {
		return nil, fail(log, "failed to load folder", err, "folderID", folderID, "actorID", actorID)
	}

	materials, err := c.linkRepo.ListActiveMaterials(ctx, c.db.SQLWithContext(ctx), folder.ID)
	if err != nil {
		return nil, fail(log, "failed to list folder materials", err, "folderID", folderID)
	}

	return materials, nil
}

func (c *FoldersController) authorizeRead(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
) (services.Actor, *Folder, error) {
	actor, err := c.resolveActor(ctx, actorID)
	if err != nil {
		return services.Actor{}, nil, err
	}

	folder, classroom, err := c.loadFolder(ctx, folderID)
	if err != nil {
		return services.Actor{}, nil, err
	}

	enrolled, err := c.isEnrolled(ctx, actor, classroom)
	if err != nil {
		return services.Actor{}, nil, err
	}

	if !c.permissions.CanReadScope(folder.Scope(), actor, classroom, enrolled) {
		return services.Actor{}, nil, c.permissions.Deny("view", folderID, actor)
	}
	if !c.permissions.CanReadStatus(folder.Scope(), folder.Status, actor, classroom) {
		return services.Actor{}, nil, types.NotFound("folder", folderID.String())
	}

	return actor, folder, nil
}

// isEnrolled is only consulted for students of an existing class.
func (c *FoldersController) isEnrolled(
	ctx context.Context,
	actor services.Actor,
	classroom *Classroom,
) (bool, error) {
	if classroom == nil || !actor.Roles.Has(types.RoleStudent) {
		return false, nil
	}
	return c.enrollments.IsEnrolled(ctx, actor.UserID, classroom.ID)
}
