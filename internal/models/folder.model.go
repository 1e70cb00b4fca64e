package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const FolderNameMaxLength = 100

type FolderOwnerType string

const (
	FolderOwnerPersonal FolderOwnerType = "personal"
	FolderOwnerClass    FolderOwnerType = "class"
)

type FolderStatus string

const (
	FolderStatusActive   FolderStatus = "active"
	FolderStatusArchived FolderStatus = "archived"
	FolderStatusDeleted  FolderStatus = "deleted"
)

var ErrFolderOwnership = errors.New("folder must have exactly one of userId or classId matching its owner type")

func (s FolderStatus) IsValid() bool {
	switch s {
	case FolderStatusActive, FolderStatusArchived, FolderStatusDeleted:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Active -> Deleted is never allowed and Deleted is terminal.
func (s FolderStatus) CanTransitionTo(next FolderStatus) bool {
	switch s {
	case FolderStatusActive:
		return next == FolderStatusArchived
	case FolderStatusArchived:
		return next == FolderStatusActive || next == FolderStatusDeleted
	case FolderStatusDeleted:
		return false
	default:
		return false
	}
}

func ParseFolderStatus(value string) (FolderStatus, bool) {
	status := FolderStatus(strings.ToLower(strings.TrimSpace(value)))
	return status, status.IsValid()
}

type Folder struct {
	BaseUUIDModel
	Name      string          `gorm:"type:varchar(100);not null"                                  json:"name"`
	OwnerType FolderOwnerType `gorm:"type:varchar(16);not null"                                   json:"ownerType"`
	UserID    *uuid.UUID      `gorm:"type:uuid;index"                                             json:"userId,omitempty"`
	ClassID   *uuid.UUID      `gorm:"type:uuid;index"                                             json:"classId,omitempty"`
	ScopeKey  string          `gorm:"type:varchar(64);not null;index:idx_folders_scope_status"    json:"scopeKey"`
	Order     int             `gorm:"column:sort_order;not null;check:chk_folders_sort_order,sort_order >= 0" json:"order"`
	Status    FolderStatus    `gorm:"type:varchar(16);not null;index:idx_folders_scope_status"    json:"status"`
}

func PersonalScopeKey(userID uuid.UUID) string {
	return "user:" + userID.String()
}

func ClassScopeKey(classID uuid.UUID) string {
	return "class:" + classID.String()
}

// FolderScope identifies the ownership context a folder lives in.
type FolderScope struct {
	OwnerType FolderOwnerType
	UserID    *uuid.UUID
	ClassID   *uuid.UUID
}

func PersonalScope(userID uuid.UUID) FolderScope {
	return FolderScope{OwnerType: FolderOwnerPersonal, UserID: &userID}
}

func ClassScope(classID uuid.UUID) FolderScope {
	return FolderScope{OwnerType: FolderOwnerClass, ClassID: &classID}
}

func (s FolderScope) Key() string {
	switch s.OwnerType {
	case FolderOwnerPersonal:
		if s.UserID != nil {
			return PersonalScopeKey(*s.UserID)
		}
	case FolderOwnerClass:
		if s.ClassID != nil {
			return ClassScopeKey(*s.ClassID)
		}
	}
	return ""
}

func (f *Folder) Scope() FolderScope {
	return FolderScope{OwnerType: f.OwnerType, UserID: f.UserID, ClassID: f.ClassID}
}

func (f *Folder) SetScope(scope FolderScope) {
	f.OwnerType = scope.OwnerType
	f.UserID = scope.UserID
	f.ClassID = scope.ClassID
	f.ScopeKey = scope.Key()
}

func (f *Folder) IsPersonal() bool {
	return f.OwnerType == FolderOwnerPersonal
}

func (f *Folder) IsClass() bool {
	return f.OwnerType == FolderOwnerClass
}

// ValidateOwnership checks that exactly one owner id is set and that it matches OwnerType.
func (f *Folder) ValidateOwnership() error {
	switch f.OwnerType {
	case FolderOwnerPersonal:
		if f.UserID == nil || *f.UserID == uuid.Nil || f.ClassID != nil {
			return ErrFolderOwnership
		}
	case FolderOwnerClass:
		if f.ClassID == nil || *f.ClassID == uuid.Nil || f.UserID != nil {
			return ErrFolderOwnership
		}
	default:
		return ErrFolderOwnership
	}
	return nil
}

func (f *Folder) BeforeSave(tx *gorm.DB) error {
	if err := f.ValidateOwnership(); err != nil {
		return err
	}
	if !f.Status.IsValid() {
		return errors.New("invalid folder status: " + string(f.Status))
	}
	if f.Order < 0 {
		return errors.New("folder order must be non-negative")
	}
	f.ScopeKey = f.Scope().Key()
	return nil
}
