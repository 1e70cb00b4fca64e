package foldersController

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lessonfolders/internal/constants"
	"lessonfolders/internal/database"
	"lessonfolders/internal/events"
	"lessonfolders/internal/logger"
	. "lessonfolders/internal/models"
	"lessonfolders/internal/repositories"
	"lessonfolders/internal/services"
	"lessonfolders/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var validate = validator.New()

type CreateFolderRequest struct {
	Name    string     `json:"name"              validate:"required,max=100"`
	ClassID *uuid.UUID `json:"classId,omitempty"`
}

type RenameFolderRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type MoveFolderRequest struct {
	ClassID *uuid.UUID `json:"classId,omitempty"`
}

type ReorderFolderRequest struct {
	Order *int `json:"order" validate:"required,min=0"`
}

type BulkDeleteFoldersRequest struct {
	FolderIDs []uuid.UUID `json:"folderIds,omitempty" validate:"max=500"`
}

type ListFoldersRequest struct {
	ClassID *uuid.UUID
	OwnerID *uuid.UUID
	Status  string
}

// EventPublisher is satisfied by *events.EventBus.
type EventPublisher interface {
	Publish(channel events.Channel, event events.Event) error
}

type FoldersControllerInterface interface {
	CreateFolder(ctx context.Context, actorID uuid.UUID, request *CreateFolderRequest) (*Folder, error)
	RenameFolder(
		ctx context.Context,
		actorID uuid.UUID,
		folderID uuid.UUID,
		request *RenameFolderRequest,
	) (*Folder, error)
	MoveFolder(
		ctx context.Context,
		actorID uuid.UUID,
		folderID uuid.UUID,
		request *MoveFolderRequest,
	) (*Folder, error)
	ReorderFolder(
		ctx context.Context,
		actorID uuid.UUID,
		folderID uuid.UUID,
		request *ReorderFolderRequest,
	) error
	ArchiveFolder(ctx context.Context, actorID uuid.UUID, folderID uuid.UUID) error
	RestoreFolder(ctx context.Context, actorID uuid.UUID, folderID uuid.UUID) (*Folder, error)
	DeleteFolder(ctx context.Context, actorID uuid.UUID, folderID uuid.UUID) (bool, error)
	BulkDeletePersonalFolders(
		ctx context.Context,
		actorID uuid.UUID,
		request *BulkDeleteFoldersRequest,
	) (bool, error)
	GetFolder(ctx context.Context, actorID uuid.UUID, folderID uuid.UUID) (*Folder, error)
	ListFolders(ctx context.Context, actorID uuid.UUID, request ListFoldersRequest) ([]*Folder, error)
	LinkLessonMaterial(ctx context.Context, actorID, folderID, materialID uuid.UUID) (bool, error)
	UnlinkLessonMaterial(ctx context.Context, actorID, folderID, materialID uuid.UUID) error
	ListFolderMaterials(
		ctx context.Context,
		actorID uuid.UUID,
		folderID uuid.UUID,
	) ([]*LessonMaterial, error)
	HandleFolderEvent(event events.Event) error
}

type FoldersController struct {
	folderRepo   repositories.FolderRepository
	linkRepo     repositories.FolderLessonMaterialRepository
	materialRepo repositories.LessonMaterialRepository
	users        repositories.UserDirectory
	roles        repositories.RoleOracle
	classrooms   repositories.ClassroomDirectory
	enrollments  repositories.EnrollmentOracle
	transaction  *services.TransactionService
	permissions  *services.PermissionService
	ordering     *services.OrderingService
	scopeLocks   *services.ScopeLockService
	events       EventPublisher
	db           database.DB
	log          logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus EventPublisher,
	db database.DB,
) *FoldersController {
	return &FoldersController{
		folderRepo:   repos.Folder,
		linkRepo:     repos.FolderLessonMaterial,
		materialRepo: repos.LessonMaterial,
		users:        repos.Directory,
		roles:        repos.Directory,
		classrooms:   repos.Directory,
		enrollments:  repos.Directory,
		transaction:  services.Transaction,
		permissions:  services.Permission,
		ordering:     services.Ordering,
		scopeLocks:   services.ScopeLock,
		events:       eventBus,
		db:           db,
		log:          logger.New("foldersController"),
	}
}

func (c *FoldersController) CreateFolder(
	ctx context.Context,
	actorID uuid.UUID,
	request *CreateFolderRequest,
) (*Folder, error) {
	log := c.log.TraceFromContext(ctx).Function("CreateFolder")

	name, err := normalizeName(request.Name)
	if err != nil {
		return nil, fail(log, "invalid folder name", err, "actorID", actorID)
	}

	actor, err := c.resolveActor(ctx, actorID)
	if err != nil {
		return nil, fail(log, "failed to resolve actor", err, "actorID", actorID)
	}

	scope, err := c.resolveTargetScope(ctx, actor, request.ClassID, false)
	if err != nil {
		return nil, fail(log, "failed to resolve target scope", err, "actorID", actorID)
	}

	folder := &Folder{Name: name, Status: FolderStatusActive}
	folder.SetScope(scope)

	err = c.withScopeLock(ctx, []string{scope.Key()}, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.ensureNameAvailable(ctx, tx, scope.Key(), name, nil); err != nil {
			return err
		}

		order, err := c.ordering.NextOrder(ctx, tx, scope.Key())
		if err != nil {
			return err
		}
		folder.Order = order

		return c.folderRepo.Create(ctx, tx, folder)
	})
	if err != nil {
		return nil, fail(log, "failed to create folder", err, "actorID", actorID, "scopeKey", scope.Key())
	}

	log.Info("Folder created", "folderID", folder.ID, "scopeKey", folder.ScopeKey, "order", folder.Order)
	c.afterCommit(ctx, events.FOLDER_CREATED, actor, folder, folder.ScopeKey)

	return folder, nil
}

func (c *FoldersController) RenameFolder(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
	request *RenameFolderRequest,
) (*Folder, error) {
	log := c.log.TraceFromContext(ctx).Function("RenameFolder")

	name, err := normalizeName(request.Name)
	if err != nil {
		return nil, fail(log, "invalid folder name", err, "folderID", folderID)
	}

	actor, folder, err := c.authorizeMutation(ctx, actorID, folderID, "rename")
	if err != nil {
		return nil, fail(log, "rename not permitted", err, "folderID", folderID, "actorID", actorID)
	}
	if folder.Status == FolderStatusDeleted {
		return nil, fail(log, "rename rejected", types.InvalidTransition("folder has been deleted"),
			"folderID", folderID)
	}

	var renamed *Folder
	err = c.withScopeLock(ctx, []string{folder.ScopeKey}, func(ctx context.Context, tx *gorm.DB) error {
		current, err := c.reloadInScope(ctx, tx, folder)
		if err != nil {
			return err
		}
		if current.Status == FolderStatusDeleted {
			return types.InvalidTransition("folder has been deleted")
		}

		if err := c.ensureNameAvailable(ctx, tx, current.ScopeKey, name, &current.ID); err != nil {
			return err
		}

		current.Name = name
		if err := c.folderRepo.Update(ctx, tx, current); err != nil {
			return err
		}
		renamed = current
		return nil
	})
	if err != nil {
		return nil, fail(log, "failed to rename folder", err, "folderID", folderID)
	}

	log.Info("Folder renamed", "folderID", folderID)
	c.afterCommit(ctx, events.FOLDER_RENAMED, actor, renamed, renamed.ScopeKey)

	return renamed, nil
}

// MoveFolder re-homes a folder into the requested class, or into the actor's
// personal scope when no class is given or the actor may not target it.
// A folder that changes scope is appended at the end of the target scope.
func (c *FoldersController) MoveFolder(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
	request *MoveFolderRequest,
) (*Folder, error) {
	log := c.log.TraceFromContext(ctx).Function("MoveFolder")

	actor, folder, err := c.authorizeMutation(ctx, actorID, folderID, "move")
	if err != nil {
		return nil, fail(log, "move not permitted", err, "folderID", folderID, "actorID", actorID)
	}
	if err := requireActive(folder, "moved"); err != nil {
		return nil, fail(log, "move rejected", err, "folderID", folderID)
	}

	target, err := c.resolveTargetScope(ctx, actor, request.ClassID, true)
	if err != nil {
		return nil, fail(log, "failed to resolve target scope", err, "folderID", folderID)
	}
	sourceKey := folder.ScopeKey
	targetKey := target.Key()

	var moved *Folder
	err = c.withScopeLock(ctx, []string{sourceKey, targetKey}, func(ctx context.Context, tx *gorm.DB) error {
		current, err := c.reloadInScope(ctx, tx, folder)
		if err != nil {
			return err
		}
		if err := requireActive(current, "moved"); err != nil {
			return err
		}

		if err := c.ensureNameAvailable(ctx, tx, targetKey, current.Name, &current.ID); err != nil {
			return err
		}

		if targetKey != sourceKey {
			order, err := c.ordering.NextOrder(ctx, tx, targetKey)
			if err != nil {
				return err
			}
			current.Order = order
		}
		current.SetScope(target)

		if err := c.folderRepo.Update(ctx, tx, current); err != nil {
			return err
		}
		moved = current
		return nil
	})
	if err != nil {
		return nil, fail(log, "failed to move folder", err, "folderID", folderID, "targetScope", targetKey)
	}

	log.Info("Folder moved", "folderID", folderID, "from", sourceKey, "to", targetKey, "order", moved.Order)
	c.afterCommit(ctx, events.FOLDER_MOVED, actor, moved, sourceKey, targetKey)

	return moved, nil
}

func (c *FoldersController) ReorderFolder(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
	request *ReorderFolderRequest,
) error {
	log := c.log.TraceFromContext(ctx).Function("ReorderFolder")

	if err := validate.Struct(request); err != nil {
		return fail(log, "invalid reorder request",
			types.Validation("order must be a non-negative integer", err), "folderID", folderID)
	}
	newOrder := *request.Order

	actor, folder, err := c.authorizeMutation(ctx, actorID, folderID, "reorder")
	if err != nil {
		return fail(log, "reorder not permitted", err, "folderID", folderID, "actorID", actorID)
	}
	if err := requireActive(folder, "reordered"); err != nil {
		return fail(log, "reorder rejected", err, "folderID", folderID)
	}

	var changes []services.OrderChange
	err = c.withScopeLock(ctx, []string{folder.ScopeKey}, func(ctx context.Context, tx *gorm.DB) error {
		current, err := c.reloadInScope(ctx, tx, folder)
		if err != nil {
			return err
		}
		if err := requireActive(current, "reordered"); err != nil {
			return err
		}

		changes, err = c.ordering.Reorder(ctx, tx, current.ScopeKey, current.ID, newOrder)
		return err
	})
	if err != nil {
		return fail(log, "failed to reorder folder", err, "folderID", folderID, "newOrder", newOrder)
	}

	if len(changes) == 0 {
		return nil
	}

	log.Info("Folder reordered", "folderID", folderID, "shifted", len(changes)-1)
	for _, change := range changes {
		if change.FolderID == folder.ID {
			folder.Order = change.To
		}
	}
	c.afterCommit(ctx, events.FOLDER_REORDERED, actor, folder, folder.ScopeKey)

	return nil
}

// ArchiveFolder closes an active folder. Every active material linked to it is
// deleted in the same transaction and stays deleted if the folder is restored.
func (c *FoldersController) ArchiveFolder(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
) error {
	log := c.log.TraceFromContext(ctx).Function("ArchiveFolder")

	actor, err := c.resolveActor(ctx, actorID)
	if err != nil {
		return fail(log, "failed to resolve actor", err, "actorID", actorID)
	}

	folder, classroom, err := c.loadFolder(ctx, folderID)
	if err != nil {
		return fail(log, "failed to load folder", err, "folderID", folderID)
	}

	if !c.permissions.CanArchive(folder, actor, classroom) {
		return fail(log, "archive not permitted", c.permissions.Deny("archive", folderID, actor),
			"folderID", folderID, "actorID", actorID)
	}
	if err := archivable(folder); err != nil {
		return fail(log, "archive rejected", err, "folderID", folderID, "status", folder.Status)
	}

	var materialsDeleted int64
	err = c.withScopeLock(ctx, []string{folder.ScopeKey}, func(ctx context.Context, tx *gorm.DB) error {
		current, err := c.reloadInScope(ctx, tx, folder)
		if err != nil {
			return err
		}
		if err := archivable(current); err != nil {
			return err
		}

		current.Status = FolderStatusArchived
		if err := c.folderRepo.Update(ctx, tx, current); err != nil {
			return err
		}

		materialsDeleted, err = c.materialRepo.DeleteActiveLinkedToFolder(ctx, tx, current.ID)
		if err != nil {
			return err
		}
		folder = current
		return nil
	})
	if err != nil {
		return fail(log, "failed to archive folder", err, "folderID", folderID)
	}

	log.Info("Folder archived", "folderID", folderID, "materialsDeleted", materialsDeleted)
	c.afterCommit(ctx, events.FOLDER_ARCHIVED, actor, folder, folder.ScopeKey)

	return nil
}

// RestoreFolder re-activates an archived folder at the end of its scope. It
// fails with a conflict if an active folder took its name in the meantime.
func (c *FoldersController) RestoreFolder(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
) (*Folder, error) {
	log := c.log.TraceFromContext(ctx).Function("RestoreFolder")

	actor, folder, err := c.authorizeMutation(ctx, actorID, folderID, "restore")
	if err != nil {
		return nil, fail(log, "restore not permitted", err, "folderID", folderID, "actorID", actorID)
	}
	if err := restorable(folder); err != nil {
		return nil, fail(log, "restore rejected", err, "folderID", folderID, "status", folder.Status)
	}

	var restored *Folder
	err = c.withScopeLock(ctx, []string{folder.ScopeKey}, func(ctx context.Context, tx *gorm.DB) error {
		current, err := c.reloadInScope(ctx, tx, folder)
		if err != nil {
			return err
		}
		if err := restorable(current); err != nil {
			return err
		}

		if err := c.ensureNameAvailable(ctx, tx, current.ScopeKey, current.Name, &current.ID); err != nil {
			return err
		}

		order, err := c.ordering.NextOrder(ctx, tx, current.ScopeKey)
		if err != nil {
			return err
		}

		current.Order = order
		current.Status = FolderStatusActive
		if err := c.folderRepo.Update(ctx, tx, current); err != nil {
			return err
		}
		restored = current
		return nil
	})
	if err != nil {
		return nil, fail(log, "failed to restore folder", err, "folderID", folderID)
	}

	log.Info("Folder restored", "folderID", folderID, "order", restored.Order)
	c.afterCommit(ctx, events.FOLDER_RESTORED, actor, restored, restored.ScopeKey)

	return restored, nil
}

// DeleteFolder permanently closes an archived folder and runs the link cascade.
// Unlike the bulk path, deleting an already deleted folder is an error.
func (c *FoldersController) DeleteFolder(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
) (bool, error) {
	log := c.log.TraceFromContext(ctx).Function("DeleteFolder")

	actor, folder, err := c.authorizeMutation(ctx, actorID, folderID, "delete")
	if err != nil {
		return false, fail(log, "delete not permitted", err, "folderID", folderID, "actorID", actorID)
	}
	if err := deletable(folder); err != nil {
		return false, fail(log, "delete rejected", err, "folderID", folderID, "status", folder.Status)
	}

	err = c.withScopeLock(ctx, []string{folder.ScopeKey}, func(ctx context.Context, tx *gorm.DB) error {
		current, err := c.reloadInScope(ctx, tx, folder)
		if err != nil {
			return err
		}
		if err := deletable(current); err != nil {
			return err
		}
		if err := c.deleteCascade(ctx, tx, current); err != nil {
			return err
		}
		folder = current
		return nil
	})
	if err != nil {
		return false, fail(log, "failed to delete folder", err, "folderID", folderID)
	}

	log.Info("Folder deleted", "folderID", folderID, "ownerType", folder.OwnerType)
	c.afterCommit(ctx, events.FOLDER_DELETED, actor, folder, folder.ScopeKey)

	return true, nil
}

// BulkDeletePersonalFolders deletes the actor's archived personal folders, or
// exactly the listed ones. Listed folders must all be personal; already deleted
// folders are skipped and an active one fails the whole batch.
func (c *FoldersController) BulkDeletePersonalFolders(
	ctx context.Context,
	actorID uuid.UUID,
	request *BulkDeleteFoldersRequest,
) (bool, error) {
	log := c.log.TraceFromContext(ctx).Function("BulkDeletePersonalFolders")

	if request == nil {
		request = &BulkDeleteFoldersRequest{}
	}

	ids, err := uniqueFolderIDs(request.FolderIDs)
	if err != nil {
		return false, fail(log, "invalid folder ids", err, "actorID", actorID)
	}

	actor, err := c.resolveActor(ctx, actorID)
	if err != nil {
		return false, fail(log, "failed to resolve actor", err, "actorID", actorID)
	}

	scopeKeys := []string{PersonalScopeKey(actor.UserID)}
	if len(ids) > 0 {
		folders, err := c.folderRepo.GetByIDs(ctx, c.db.SQLWithContext(ctx), ids)
		if err != nil {
			return false, fail(log, "failed to load folders", err, "count", len(ids))
		}
		if err := c.authorizeBulk(ids, folders, actor); err != nil {
			return false, fail(log, "bulk delete rejected", err, "actorID", actorID)
		}

		scopeKeys = scopeKeys[:0]
		for _, folder := range folders {
			scopeKeys = append(scopeKeys, folder.ScopeKey)
		}
	}

	var deleted []*Folder
	err = c.withScopeLock(ctx, scopeKeys, func(ctx context.Context, tx *gorm.DB) error {
		var (
			targets []*Folder
			err     error
		)
		if len(ids) == 0 {
			targets, err = c.folderRepo.ListArchivedPersonal(ctx, tx, actor.UserID)
		} else {
			targets, err = c.folderRepo.GetByIDs(ctx, tx, ids)
			if err == nil {
				err = c.authorizeBulk(ids, targets, actor)
			}
		}
		if err != nil {
			return err
		}

		for _, folder := range targets {
			switch folder.Status {
			case FolderStatusDeleted:
				continue
			case FolderStatusActive:
				return types.InvalidTransition(
					fmt.Sprintf("folder %q must be archived before it can be deleted", folder.Name),
				)
			}

			if err := c.deleteCascade(ctx, tx, folder); err != nil {
				return err
			}
			deleted = append(deleted, folder)
		}
		return nil
	})
	if err != nil {
		return false, fail(log, "failed to bulk delete folders", err, "actorID", actorID)
	}

	log.Info("Personal folders deleted", "actorID", actorID, "requested", len(ids), "deleted", len(deleted))
	for _, folder := range deleted {
		c.afterCommit(ctx, events.FOLDER_DELETED, actor, folder, folder.ScopeKey)
	}

	return true, nil
}

func (c *FoldersController) authorizeBulk(ids []uuid.UUID, folders []*Folder, actor services.Actor) error {
	byID := make(map[uuid.UUID]*Folder, len(folders))
	for _, folder := range folders {
		byID[folder.ID] = folder
	}

	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return types.NotFound("folder", id.String())
		}
	}

	for _, id := range ids {
		if !byID[id].IsPersonal() {
			return types.Validation("bulk delete only accepts personal folders", nil)
		}
	}

	for _, id := range ids {
		if !c.permissions.CanMutate(byID[id], actor, nil) {
			return c.permissions.Deny("delete", id, actor)
		}
	}

	return nil
}

// deleteCascade removes the folder's links and marks it deleted. For personal
// folders a material created by the owner is deleted once no other folder links it.
func (c *FoldersController) deleteCascade(ctx context.Context, tx *gorm.DB, folder *Folder) error {
	if folder.IsPersonal() {
		links, err := c.linkRepo.ListByFolder(ctx, tx, folder.ID)
		if err != nil {
			return err
		}

		for _, link := range links {
			material := link.LessonMaterial
			if material == nil || material.Status != LessonMaterialStatusActive {
				continue
			}
			if folder.UserID == nil || material.CreatedByUserID != *folder.UserID {
				continue
			}

			others, err := c.linkRepo.CountLinksExcluding(ctx, tx, material.ID, folder.ID)
			if err != nil {
				return err
			}
			if others > 0 {
				continue
			}

			if err := c.materialRepo.SetStatus(ctx, tx, material.ID, LessonMaterialStatusDeleted); err != nil {
				return err
			}
		}
	}

	if _, err := c.linkRepo.DeleteByFolder(ctx, tx, folder.ID); err != nil {
		return err
	}

	folder.Status = FolderStatusDeleted
	return c.folderRepo.Update(ctx, tx, folder)
}

func (c *FoldersController) resolveActor(ctx context.Context, actorID uuid.UUID) (services.Actor, error) {
	if actorID == uuid.Nil {
		return services.Actor{}, types.Validation("acting user id is required", nil)
	}

	user, err := c.users.GetUser(ctx, actorID)
	if err != nil {
		return services.Actor{}, err
	}

	roles, err := c.roles.RolesOf(ctx, actorID)
	if err != nil {
		return services.Actor{}, err
	}

	return services.Actor{UserID: user.ID, SchoolID: user.SchoolID, Roles: roles}, nil
}

// loadClassroom returns nil without error when the class does not exist.
func (c *FoldersController) loadClassroom(ctx context.Context, classID uuid.UUID) (*Classroom, error) {
	classroom, err := c.classrooms.GetClassroom(ctx, classID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return classroom, nil
}

func (c *FoldersController) loadFolder(ctx context.Context, folderID uuid.UUID) (*Folder, *Classroom, error) {
	folder, err := c.folderRepo.GetByID(ctx, c.db.SQLWithContext(ctx), folderID)
	if err != nil {
		return nil, nil, err
	}

	if !folder.IsClass() || folder.ClassID == nil {
		return folder, nil, nil
	}

	classroom, err := c.loadClassroom(ctx, *folder.ClassID)
	if err != nil {
		return nil, nil, err
	}
	return folder, classroom, nil
}

// authorizeMutation resolves the actor and the folder and checks CanMutate
// before any transaction is opened.
func (c *FoldersController) authorizeMutation(
	ctx context.Context,
	actorID uuid.UUID,
	folderID uuid.UUID,
	operation string,
) (services.Actor, *Folder, error) {
	actor, err := c.resolveActor(ctx, actorID)
	if err != nil {
		return services.Actor{}, nil, err
	}

	folder, classroom, err := c.loadFolder(ctx, folderID)
	if err != nil {
		return services.Actor{}, nil, err
	}

	if !c.permissions.CanMutate(folder, actor, classroom) {
		return services.Actor{}, nil, c.permissions.Deny(operation, folderID, actor)
	}

	return actor, folder, nil
}

// resolveTargetScope picks the scope a created or moved folder lands in. A class
// is used only when it exists and the actor may target it; otherwise the folder
// silently lands in the actor's personal scope.
func (c *FoldersController) resolveTargetScope(
	ctx context.Context,
	actor services.Actor,
	classID *uuid.UUID,
	forMove bool,
) (FolderScope, error) {
	if classID == nil || *classID == uuid.Nil {
		return PersonalScope(actor.UserID), nil
	}

	classroom, err := c.loadClassroom(ctx, *classID)
	if err != nil {
		return FolderScope{}, err
	}

	if c.permissions.CanTargetClass(actor, classroom, forMove) {
		return ClassScope(*classID), nil
	}

	c.log.TraceFromContext(ctx).Function("resolveTargetScope").Info(
		"Class target not permitted, using personal scope",
		"actorID", actor.UserID,
		"classID", *classID,
		"classExists", classroom != nil,
	)
	return PersonalScope(actor.UserID), nil
}

// withScopeLock runs fn in one transaction while holding every scope in keys.
func (c *FoldersController) withScopeLock(
	ctx context.Context,
	keys []string,
	fn func(context.Context, *gorm.DB) error,
) error {
	unlock, err := c.scopeLocks.Lock(ctx, keys...)
	if err != nil {
		return err
	}
	defer unlock()

	return c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.scopeLocks.LockInTransaction(ctx, tx, keys...); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

// reloadInScope re-reads the folder under the lock and rejects it if it left
// the scope the permission check ran against.
func (c *FoldersController) reloadInScope(ctx context.Context, tx *gorm.DB, folder *Folder) (*Folder, error) {
	current, err := c.folderRepo.GetByIDForUpdate(ctx, tx, folder.ID)
	if err != nil {
		return nil, err
	}
	if current.ScopeKey != folder.ScopeKey {
		return nil, types.Conflict("folder was moved by another request, retry", "folder", folder.ID.String())
	}
	return current, nil
}

func (c *FoldersController) ensureNameAvailable(
	ctx context.Context,
	tx *gorm.DB,
	scopeKey string,
	name string,
	excludeID *uuid.UUID,
) error {
	exists, err := c.folderRepo.ExistsActiveName(ctx, tx, scopeKey, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return types.Conflict(fmt.Sprintf("a folder named %q already exists", name), "folder", name)
	}
	return nil
}

func (c *FoldersController) afterCommit(
	ctx context.Context,
	eventType events.MessageType,
	actor services.Actor,
	folder *Folder,
	scopeKeys ...string,
) {
	log := c.log.TraceFromContext(ctx).Function("afterCommit")

	if err := c.folderRepo.ClearScopeCache(ctx, scopeKeys...); err != nil {
		log.Warn("Failed to clear folder cache", "folderID", folder.ID, "error", err)
	}

	if c.events == nil {
		return
	}

	userID := actor.UserID
	if err := c.events.Publish(events.FOLDERS_CHANNEL, events.Event{
		Type:   eventType,
		UserID: &userID,
		Data: map[string]any{
			"folderId":  folder.ID.String(),
			"scopeKeys": scopeKeys,
			"status":    string(folder.Status),
			"order":     folder.Order,
		},
	}); err != nil {
		log.Warn("Failed to publish folder event", "folderID", folder.ID, "type", eventType, "error", err)
	}
}

// HandleFolderEvent drops cached listings for the scopes named in a folder
// event published by another instance.
func (c *FoldersController) HandleFolderEvent(event events.Event) error {
	var scopeKeys []string
	switch keys := event.Data["scopeKeys"].(type) {
	case []string:
		scopeKeys = keys
	case []any:
		for _, key := range keys {
			if s, ok := key.(string); ok {
				scopeKeys = append(scopeKeys, s)
			}
		}
	}

	if len(scopeKeys) == 0 {
		return nil
	}

	return c.folderRepo.ClearScopeCache(context.Background(), scopeKeys...)
}

func normalizeName(raw string) (string, error) {
	request := RenameFolderRequest{Name: strings.TrimSpace(raw)}
	if err := validate.Struct(request); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 && validationErrs[0].Tag() == "max" {
			return "", types.Validation(
				fmt.Sprintf("folder name must be at most %d characters", FolderNameMaxLength),
				err,
			)
		}
		return "", types.Validation("folder name is required", err)
	}
	return request.Name, nil
}

func uniqueFolderIDs(ids []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, types.Validation("folder ids must be valid uuids", nil)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	if err := validate.Struct(BulkDeleteFoldersRequest{FolderIDs: unique}); err != nil {
		return nil, types.Validation(
			fmt.Sprintf("at most %d folders can be deleted at once", constants.MaxBulkDeleteFolderSize),
			err,
		)
	}
	return unique, nil
}

func requireActive(folder *Folder, participle string) error {
	if folder.Status != FolderStatusActive {
		return types.InvalidTransition("only active folders can be " + participle)
	}
	return nil
}

func archivable(folder *Folder) error {
	switch folder.Status {
	case FolderStatusActive:
		return nil
	case FolderStatusArchived:
		return types.Conflict("folder is already archived", "folder", folder.ID.String())
	default:
		return types.InvalidTransition("folder has been deleted")
	}
}

func restorable(folder *Folder) error {
	if folder.Status == FolderStatusArchived {
		return nil
	}
	if folder.Status == FolderStatusActive {
		return types.InvalidTransition("folder is not archived")
	}
	return types.InvalidTransition("folder has been deleted")
}

func deletable(folder *Folder) error {
	if folder.Status == FolderStatusArchived {
		return nil
	}
	if folder.Status == FolderStatusActive {
		return types.InvalidTransition("archive the folder before deleting it")
	}
	return types.InvalidTransition("folder is already deleted")
}

// fail logs err at a level matching its kind and returns it unchanged.
func fail(log logger.Logger, msg string, err error, args ...any) error {
	switch types.KindOf(err) {
	case types.KindTransientStoreFailure, types.KindIntegrityFault:
		return log.Err(msg, err, args...)
	default:
		log.Info(msg, append([]any{"reason", err.Error()}, args...)...)
		return err
	}
}
