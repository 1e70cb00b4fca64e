package repositories

import (
	"context"
	"errors"
	"time"

	"lessonfolders/internal/constants"
	"lessonfolders/internal/database"
	"lessonfolders/internal/logger"
	. "lessonfolders/internal/models"
	"lessonfolders/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FolderRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Folder, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Folder, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*Folder, error)
	ListByScope(
		ctx context.Context,
		tx *gorm.DB,
		scopeKey string,
		status FolderStatus,
	) ([]*Folder, error)
	ListActiveByScope(ctx context.Context, tx *gorm.DB, scopeKey string) ([]*Folder, error)
	ListArchivedPersonal(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*Folder, error)
	ExistsActiveName(
		ctx context.Context,
		tx *gorm.DB,
		scopeKey string,
		name string,
		excludeID *uuid.UUID,
	) (bool, error)
	MaxActiveOrder(ctx context.Context, tx *gorm.DB, scopeKey string) (int, error)
	Create(ctx context.Context, tx *gorm.DB, folder *Folder) error
	Update(ctx context.Context, tx *gorm.DB, folder *Folder) error
	SetOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, order int) error
	ClearScopeCache(ctx context.Context, scopeKeys ...string) error
}

type folderRepository struct {
	cache database.DB
	ttl   time.Duration
	log   logger.Logger
}

func NewFolderRepository(cache database.DB, ttl time.Duration) FolderRepository {
	if ttl <= 0 {
		ttl = constants.DefaultFolderCacheTTL
	}
	return &folderRepository{
		cache: cache,
		ttl:   ttl,
		log:   logger.New("folderRepository"),
	}
}

func folderListCacheKey(scopeKey string, status FolderStatus) string {
	return scopeKey + ":" + string(status)
}

func (r *folderRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Folder, error) {
	return r.getByID(ctx, tx, id, false)
}

// GetByIDForUpdate re-reads a folder inside a transaction, row-locking it where the dialect supports it.
func (r *folderRepository) GetByIDForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Folder, error) {
	return r.getByID(ctx, tx, id, true)
}

func (r *folderRepository) getByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	forUpdate bool,
) (*Folder, error) {
	log := r.log.Function("GetByID")

	query := tx.WithContext(ctx)
	if forUpdate && tx.Dialector.Name() == database.DriverPostgres {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var folder Folder
	if err := query.Where("id = ?", id).First(&folder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("folder", id.String())
		}
		return nil, types.StoreFailure(log.Err("failed to get folder", err, "folderID", id))
	}

	return &folder, nil
}

func (r *folderRepository) GetByIDs(
	ctx context.Context,
	tx *gorm.DB,
	ids []uuid.UUID,
) ([]*Folder, error) {
	log := r.log.Function("GetByIDs")

	if len(ids) == 0 {
		return []*Folder{}, nil
	}

	var folders []*Folder
	if err := tx.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&folders).Error; err != nil {
		return nil, types.StoreFailure(log.Err("failed to get folders", err, "count", len(ids)))
	}

	return folders, nil
}

// folderListing is the cached form of one scope listing. Generation is the
// scope's generation when the rows were read; a listing from an older
// generation is treated as a miss.
type folderListing struct {
	Generation string    `json:"generation"`
	Folders    []*Folder `json:"folders"`
}

func (l folderListing) freshFor(generation string) bool {
	return l.Generation == generation
}

// ListByScope returns a scope's folders with the given status ordered for display.
// Results are cached per scope and status until the scope is next mutated.
func (r *folderRepository) ListByScope(
	ctx context.Context,
	tx *gorm.DB,
	scopeKey string,
	status FolderStatus,
) ([]*Folder, error) {
	log := r.log.Function("ListByScope")
	cacheKey := folderListCacheKey(scopeKey, status)

	generation := r.scopeGeneration(ctx, scopeKey)

	var cached folderListing
	found, err := database.NewCacheBuilder(r.cache.Cache.General, cacheKey).
		WithContext(ctx).
		WithHash(constants.FolderListCachePrefix).
		Get(&cached)
	if err == nil && found && cached.freshFor(generation) {
		log.Debug("folder listing found in cache", "scopeKey", scopeKey, "status", status)
		return cached.Folders, nil
	}

	var folders []*Folder
	if err := tx.WithContext(ctx).
		Where("scope_key = ? AND status = ?", scopeKey, status).
		Order("sort_order ASC").
		Order("name ASC").
		Find(&folders).Error; err != nil {
		return nil, types.StoreFailure(
			log.Err("failed to list folders", err, "scopeKey", scopeKey, "status", status),
		)
	}

	// Stamped with the generation read before the query, so a listing that
	// raced a mutation is rejected on its next read.
	if err := database.NewCacheBuilder(r.cache.Cache.General, cacheKey).
		WithContext(ctx).
		WithHash(constants.FolderListCachePrefix).
		WithStruct(folderListing{Generation: generation, Folders: folders}).
		WithTTL(r.ttl).
		Set(); err != nil {
		log.Warn("failed to cache folder listing", "scopeKey", scopeKey, "error", err)
	}

	return folders, nil
}

func (r *folderRepository) scopeGeneration(ctx context.Context, scopeKey string) string {
	var generation string
	_, err := database.NewCacheBuilder(r.cache.Cache.General, scopeKey).
		WithContext(ctx).
		WithHash(constants.FolderGenerationCachePrefix).
		Get(&generation)
	if err != nil {
		r.log.Function("scopeGeneration").Warn("failed to read scope generation",
			"scopeKey", scopeKey, "error", err)
	}
	return generation
}

// ListActiveByScope reads the sibling snapshot straight from the store. Callers
// hold the scope lock, so the cache is bypassed.
func (r *folderRepository) ListActiveByScope(
	ctx context.Context,
	tx *gorm.DB,
	scopeKey string,
) ([]*Folder, error) {
	log := r.log.Function("ListActiveByScope")

	var folders []*Folder
	if err := tx.WithContext(ctx).
		Where("scope_key = ? AND status = ?", scopeKey, FolderStatusActive).
		Order("sort_order ASC").
		Find(&folders).Error; err != nil {
		return nil, types.StoreFailure(
			log.Err("failed to list active folders", err, "scopeKey", scopeKey),
		)
	}

	return folders, nil
}

func (r *folderRepository) ListArchivedPersonal(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
) ([]*Folder, error) {
	log := r.log.Function("ListArchivedPersonal")

	var folders []*Folder
	if err := tx.WithContext(ctx).
		Where("scope_key = ? AND owner_type = ? AND status = ?",
			PersonalScopeKey(userID), FolderOwnerPersonal, FolderStatusArchived).
		Order("updated_at ASC").
		Find(&folders).Error; err != nil {
		return nil, types.StoreFailure(
			log.Err("failed to list archived personal folders", err, "userID", userID),
		)
	}

	return folders, nil
}

func (r *folderRepository) ExistsActiveName(
	ctx context.Context,
	tx *gorm.DB,
	scopeKey string,
	name string,
	excludeID *uuid.UUID,
) (bool, error) {
	log := r.log.Function("ExistsActiveName")

	query := tx.WithContext(ctx).
		Model(&Folder{}).
		Where("scope_key = ? AND status = ? AND name = ?", scopeKey, FolderStatusActive, name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, types.StoreFailure(
			log.Err("failed to check folder name", err, "scopeKey", scopeKey),
		)
	}

	return count > 0, nil
}

// MaxActiveOrder returns the highest order among active folders in the scope, or -1 when it is empty.
func (r *folderRepository) MaxActiveOrder(
	ctx context.Context,
	tx *gorm.DB,
	scopeKey string,
) (int, error) {
	log := r.log.Function("MaxActiveOrder")

	var maxOrder int
	if err := tx.WithContext(ctx).
		Model(&Folder{}).
		Select("COALESCE(MAX(sort_order), -1)").
		Where("scope_key = ? AND status = ?", scopeKey, FolderStatusActive).
		Scan(&maxOrder).Error; err != nil {
		return 0, types.StoreFailure(
			log.Err("failed to read max folder order", err, "scopeKey", scopeKey),
		)
	}

	return maxOrder, nil
}

func (r *folderRepository) Create(ctx context.Context, tx *gorm.DB, folder *Folder) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(folder).Error; err != nil {
		if errors.Is(err, ErrFolderOwnership) {
			return types.Validation(err.Error(), err)
		}
		return types.StoreFailure(
			log.Err("failed to create folder", err, "scopeKey", folder.ScopeKey),
		)
	}

	return nil
}

func (r *folderRepository) Update(ctx context.Context, tx *gorm.DB, folder *Folder) error {
	log := r.log.Function("Update")

	if err := tx.WithContext(ctx).Save(folder).Error; err != nil {
		if errors.Is(err, ErrFolderOwnership) {
			return types.Validation(err.Error(), err)
		}
		return types.StoreFailure(
			log.Err("failed to update folder", err, "folderID", folder.ID),
		)
	}

	return nil
}

// SetOrder writes a single order value without touching hooks or updated_at.
func (r *folderRepository) SetOrder(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	order int,
) error {
	log := r.log.Function("SetOrder")

	result := tx.WithContext(ctx).
		Model(&Folder{}).
		Where("id = ?", id).
		UpdateColumn("sort_order", order)
	if result.Error != nil {
		return types.StoreFailure(
			log.Err("failed to set folder order", result.Error, "folderID", id, "order", order),
		)
	}
	if result.RowsAffected == 0 {
		return types.NotFound("folder", id.String())
	}

	return nil
}

// ClearScopeCache starts a new generation for each scope and drops its listings.
// The generation is bumped first so a listing read before the mutation can
// never be served again, even if it is written back after the delete.
func (r *folderRepository) ClearScopeCache(ctx context.Context, scopeKeys ...string) error {
	log := r.log.Function("ClearScopeCache")

	if len(scopeKeys) == 0 {
		return nil
	}

	keys := make([]string, 0, len(scopeKeys)*3)
	for _, scopeKey := range scopeKeys {
		if err := database.NewCacheBuilder(r.cache.Cache.General, scopeKey).
			WithContext(ctx).
			WithHash(constants.FolderGenerationCachePrefix).
			WithStruct(uuid.NewString()).
			WithTTL(2 * r.ttl).
			Set(); err != nil {
			log.Warn("failed to bump scope generation", "scopeKey", scopeKey, "error", err)
			return err
		}

		for _, status := range []FolderStatus{FolderStatusActive, FolderStatusArchived, FolderStatusDeleted} {
			keys = append(keys, folderListCacheKey(scopeKey, status))
		}
	}

	if err := database.NewCacheBuilder(r.cache.Cache.General, keys).
		WithContext(ctx).
		WithHash(constants.FolderListCachePrefix).
		Delete(); err != nil {
		log.Warn("failed to clear folder listing cache", "scopeKeys", scopeKeys, "error", err)
		return err
	}

	log.Debug("cleared folder listing cache", "scopeKeys", scopeKeys)
	return nil
}
