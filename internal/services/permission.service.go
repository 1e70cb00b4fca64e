package services

import (
	"lessonfolders/internal/logger"
	. "lessonfolders/internal/models"
	"lessonfolders/internal/types"

	"github.com/google/uuid"
)

// Actor is the acting user as resolved from the directory for a single request.
type Actor struct {
	UserID   uuid.UUID
	SchoolID *uuid.UUID
	Roles    types.RoleSet
}

func (a Actor) IsSystemAdmin() bool {
	return a.Roles.Has(types.RoleSystemAdmin)
}

func (a Actor) isTeacherOf(classroom *Classroom) bool {
	return classroom != nil && classroom.TeacherID == a.UserID
}

func (a Actor) isSchoolAdminOf(classroom *Classroom) bool {
	return classroom != nil &&
		a.Roles.Has(types.RoleSchoolAdmin) &&
		a.SchoolID != nil &&
		*a.SchoolID == classroom.SchoolID
}

// PermissionService decides folder access. Every check is a pure predicate over
// data the caller has already fetched. classroom is nil for personal folders or
// when the class no longer exists.
type PermissionService struct {
	log logger.Logger
}

func NewPermissionService() *PermissionService {
	return &PermissionService{log: logger.New("PermissionService")}
}

// CanMutate covers rename, move, reorder, restore, delete and link changes.
func (s *PermissionService) CanMutate(folder *Folder, actor Actor, classroom *Classroom) bool {
	if actor.IsSystemAdmin() {
		return true
	}

	switch folder.OwnerType {
	case FolderOwnerPersonal:
		return folder.UserID != nil && *folder.UserID == actor.UserID
	case FolderOwnerClass:
		if classroom == nil || folder.ClassID == nil || classroom.ID != *folder.ClassID {
			return false
		}
		return actor.isTeacherOf(classroom) || actor.isSchoolAdminOf(classroom)
	default:
		return false
	}
}

// CanArchive extends CanMutate: the classroom's teacher holding Teacher or
// ContentModerator may archive.
func (s *PermissionService) CanArchive(folder *Folder, actor Actor, classroom *Classroom) bool {
	if s.CanMutate(folder, actor, classroom) {
		return true
	}

	return folder.IsClass() &&
		actor.isTeacherOf(classroom) &&
		actor.Roles.HasAny(types.RoleTeacher, types.RoleContentModerator)
}

// CanReadScope decides whether the actor may list or open folders in scope.
// enrolled reports the actor's membership in the scope's class.
func (s *PermissionService) CanReadScope(
	scope FolderScope,
	actor Actor,
	classroom *Classroom,
	enrolled bool,
) bool {
	if actor.IsSystemAdmin() {
		return true
	}

	switch scope.OwnerType {
	case FolderOwnerPersonal:
		return scope.UserID != nil && *scope.UserID == actor.UserID
	case FolderOwnerClass:
		if classroom == nil {
			return false
		}
		if actor.isTeacherOf(classroom) || actor.isSchoolAdminOf(classroom) {
			return true
		}
		return actor.Roles.Has(types.RoleStudent) && enrolled
	default:
		return false
	}
}

// CanReadStatus narrows CanReadScope by folder status. Archived and deleted
// folders are visible only to actors who may manage the scope.
func (s *PermissionService) CanReadStatus(
	scope FolderScope,
	status FolderStatus,
	actor Actor,
	classroom *Classroom,
) bool {
	if status == FolderStatusActive {
		return true
	}

	holder := &Folder{}
	holder.SetScope(scope)
	return s.CanMutate(holder, actor, classroom)
}

// CanTargetClass decides whether a create or move may land in the classroom.
// Moves also accept a SchoolAdmin of the classroom's school.
func (s *PermissionService) CanTargetClass(actor Actor, classroom *Classroom, forMove bool) bool {
	if classroom == nil {
		return false
	}
	if actor.isTeacherOf(classroom) {
		return true
	}
	return forMove && actor.isSchoolAdminOf(classroom)
}

func (s *PermissionService) Deny(operation string, folderID uuid.UUID, actor Actor) error {
	s.log.Function("Deny").Debug(
		"permission denied",
		"operation", operation,
		"folderID", folderID,
		"actorID", actor.UserID,
		"roles", actor.Roles.Strings(),
	)
	return types.Forbidden("you do not have permission to " + operation + " this folder")
}
