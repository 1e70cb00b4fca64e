package database

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"lessonfolders/internal/logger"
	"lessonfolders/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := NewSQLite(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.MigrateModels())
	return db
}

func TestCacheConstants(t *testing.T) {
	assert.Equal(t, 0, GENERAL_CACHE_INDEX)
	assert.Equal(t, 1, USER_CACHE_INDEX)
	assert.Equal(t, 2, EVENTS_CACHE_INDEX)
}

func TestDB_StructCreation(t *testing.T) {
	log := logger.New("test")

	db := &DB{
		log: log,
	}

	assert.NotNil(t, db)
	assert.Equal(t, log, db.log)
	assert.Nil(t, db.SQL)
	assert.NoError(t, db.Close())
}

func TestCacheClientForIndex(t *testing.T) {
	_, name, ok := cacheClientForIndex(USER_CACHE_INDEX, Cache{})
	assert.True(t, ok)
	assert.Equal(t, "User", name)

	_, _, ok = cacheClientForIndex(42, Cache{})
	assert.False(t, ok)
}

func TestMigrateModels_ActiveOrderIsUniquePerScope(t *testing.T) {
	db := newTestDB(t)
	userID := uuid.New()

	first := &models.Folder{Name: "Math", Status: models.FolderStatusActive, Order: 0}
	first.SetScope(models.PersonalScope(userID))
	require.NoError(t, db.SQL.Create(first).Error)

	clash := &models.Folder{Name: "Science", Status: models.FolderStatusActive, Order: 0}
	clash.SetScope(models.PersonalScope(userID))
	assert.Error(t, db.SQL.Create(clash).Error)

	archived := &models.Folder{Name: "Old", Status: models.FolderStatusArchived, Order: 0}
	archived.SetScope(models.PersonalScope(userID))
	assert.NoError(t, db.SQL.Create(archived).Error)

	otherScope := &models.Folder{Name: "Math", Status: models.FolderStatusActive, Order: 0}
	otherScope.SetScope(models.PersonalScope(uuid.New()))
	assert.NoError(t, db.SQL.Create(otherScope).Error)
}

func TestMigrateModels_ActiveNameIsUniquePerScope(t *testing.T) {
	db := newTestDB(t)
	classID := uuid.New()

	first := &models.Folder{Name: "Unit 1", Status: models.FolderStatusActive, Order: 0}
	first.SetScope(models.ClassScope(classID))
	require.NoError(t, db.SQL.Create(first).Error)

	clash := &models.Folder{Name: "Unit 1", Status: models.FolderStatusActive, Order: 1}
	clash.SetScope(models.ClassScope(classID))
	assert.Error(t, db.SQL.Create(clash).Error)
}

func TestCacheBuilder_NilClient(t *testing.T) {
	builder := NewCacheBuilder(nil, uuid.New()).WithHash("folders").WithTTL(time.Minute)

	var result []string
	found, err := builder.Get(&result)
	assert.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, builder.WithStruct([]string{"a"}).Set())
	assert.NoError(t, builder.Delete())
}

func TestCacheBuilder_Keys(t *testing.T) {
	builder := NewCacheBuilder(nil, "user:abc").WithHash("folders")
	assert.Equal(t, "folders:user:abc", builder.Key())

	multi := NewCacheBuilder(nil, []string{"a", "b"}).WithHash("folders")
	assert.Equal(t, []string{"folders:a", "folders:b"}, multi.Keys())
	assert.NoError(t, multi.Delete())

	assert.Error(t, NewCacheBuilder(nil, "").Delete())
	assert.Error(t, NewCacheBuilder(nil, "k").Set())
}

func TestCacheBuilder_MarshalErrorSurfaces(t *testing.T) {
	builder := NewCacheBuilder(nil, "k").WithStruct(make(chan int))
	assert.Error(t, builder.Set())

	_, err := builder.Get(&struct{}{})
	assert.Error(t, err)
}

func TestCacheBuilder_TimeoutContextRespectsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	builder := NewCacheBuilder(nil, "k").WithContext(ctx).WithTimeout(time.Minute)
	timeoutCtx, done := builder.createTimeoutContext()
	defer done()

	deadline, ok := timeoutCtx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}
