package repositories

import (
	"context"
	"errors"

	"lessonfolders/internal/constants"
	"lessonfolders/internal/database"
	"lessonfolders/internal/logger"
	. "lessonfolders/internal/models"
	"lessonfolders/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserDirectory resolves a user's school affiliation.
type UserDirectory interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*User, error)
}

// RoleOracle resolves the capability set held by a user.
type RoleOracle interface {
	RolesOf(ctx context.Context, userID uuid.UUID) (types.RoleSet, error)
}

// ClassroomDirectory resolves a classroom's teacher and school.
type ClassroomDirectory interface {
	GetClassroom(ctx context.Context, classID uuid.UUID) (*Classroom, error)
}

// EnrollmentOracle answers class membership questions on the read path.
type EnrollmentOracle interface {
	IsEnrolled(ctx context.Context, userID, classID uuid.UUID) (bool, error)
}

type DirectoryRepository interface {
	UserDirectory
	RoleOracle
	ClassroomDirectory
	EnrollmentOracle
}

type directoryRepository struct {
	db  database.DB
	log logger.Logger
}

func NewDirectoryRepository(db database.DB) DirectoryRepository {
	return &directoryRepository{
		db:  db,
		log: logger.New("directoryRepository"),
	}
}

func (r *directoryRepository) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	log := r.log.Function("GetUser")

	var cached User
	found, err := database.NewCacheBuilder(r.db.Cache.User, userID).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix).
		Get(&cached)
	if err == nil && found {
		return &cached, nil
	}

	var user User
	if err := r.db.SQLWithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("user", userID.String())
		}
		return nil, types.StoreFailure(log.Err("failed to get user", err, "userID", userID))
	}

	if err := database.NewCacheBuilder(r.db.Cache.User, userID).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix).
		WithStruct(user).
		WithTTL(constants.DirectoryCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache user", "userID", userID, "error", err)
	}

	return &user, nil
}

// RolesOf parses stored role names into a RoleSet. Unknown names are skipped with a warning.
func (r *directoryRepository) RolesOf(ctx context.Context, userID uuid.UUID) (types.RoleSet, error) {
	log := r.log.Function("RolesOf")

	var names []string
	found, err := database.NewCacheBuilder(r.db.Cache.User, userID).
		WithContext(ctx).
		WithHash(constants.UserRolesCachePrefix).
		Get(&names)
	if err != nil || !found {
		if err := r.db.SQLWithContext(ctx).
			Model(&UserRole{}).
			Where("user_id = ?", userID).
			Pluck("role", &names).Error; err != nil {
			return 0, types.StoreFailure(log.Err("failed to get user roles", err, "userID", userID))
		}

		if len(names) > 0 {
			if err := database.NewCacheBuilder(r.db.Cache.User, userID).
				WithContext(ctx).
				WithHash(constants.UserRolesCachePrefix).
				WithStruct(names).
				WithTTL(constants.DirectoryCacheExpiry).
				Set(); err != nil {
				log.Warn("failed to cache user roles", "userID", userID, "error", err)
			}
		}
	}

	var roles types.RoleSet
	for _, name := range names {
		role, ok := types.ParseRole(name)
		if !ok {
			log.Warn("ignoring unknown role", "userID", userID, "role", name)
			continue
		}
		roles = roles.With(role)
	}

	return roles, nil
}

func (r *directoryRepository) GetClassroom(
	ctx context.Context,
	classID uuid.UUID,
) (*Classroom, error) {
	log := r.log.Function("GetClassroom")

	var cached Classroom
	found, err := database.NewCacheBuilder(r.db.Cache.User, classID).
		WithContext(ctx).
		WithHash(constants.ClassroomCachePrefix).
		Get(&cached)
	if err == nil && found {
		return &cached, nil
	}

	var classroom Classroom
	if err := r.db.SQLWithContext(ctx).
		Where("id = ?", classID).
		First(&classroom).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("classroom", classID.String())
		}
		return nil, types.StoreFailure(log.Err("failed to get classroom", err, "classID", classID))
	}

	if err := database.NewCacheBuilder(r.db.Cache.User, classID).
		WithContext(ctx).
		WithHash(constants.ClassroomCachePrefix).
		WithStruct(classroom).
		WithTTL(constants.DirectoryCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache classroom", "classID", classID, "error", err)
	}

	return &classroom, nil
}

func (r *directoryRepository) IsEnrolled(
	ctx context.Context,
	userID, classID uuid.UUID,
) (bool, error) {
	log := r.log.Function("IsEnrolled")
	cacheKey := classID.String() + ":" + userID.String()

	var enrolled bool
	found, err := database.NewCacheBuilder(r.db.Cache.User, cacheKey).
		WithContext(ctx).
		WithHash(constants.EnrollmentCachePrefix).
		Get(&enrolled)
	if err == nil && found {
		return enrolled, nil
	}

	var count int64
	if err := r.db.SQLWithContext(ctx).
		Model(&ClassEnrollment{}).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Count(&count).Error; err != nil {
		return false, types.StoreFailure(
			log.Err("failed to check enrollment", err, "userID", userID, "classID", classID),
		)
	}
	enrolled = count > 0

	if err := database.NewCacheBuilder(r.db.Cache.User, cacheKey).
		WithContext(ctx).
		WithHash(constants.EnrollmentCachePrefix).
		WithStruct(enrolled).
		WithTTL(constants.DirectoryCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache enrollment", "userID", userID, "classID", classID, "error", err)
	}

	return enrolled, nil
}
