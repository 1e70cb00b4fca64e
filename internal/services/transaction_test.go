package services

import (
	"context"
	"errors"
	"testing"

	"lessonfolders/internal/database"
	"lessonfolders/internal/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestTransactionService_Execute_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	service := NewTransactionService(database.DB{SQL: gormDB})

	called := false
	err := service.Execute(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
		called = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Execute_RollbackOnError(t *testing.T) {
	gormDB, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	service := NewTransactionService(database.DB{SQL: gormDB})

	expectedError := types.Conflict("name already exists", "folder", "f-1")
	err := service.Execute(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
		return expectedError
	})

	assert.Same(t, expectedError, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Execute_CommitFailureIsStoreFailure(t *testing.T) {
	gormDB, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset by peer"))

	service := NewTransactionService(database.DB{SQL: gormDB})

	err := service.Execute(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
		return nil
	})

	assert.ErrorIs(t, err, types.ErrTransientStore)
	assert.Equal(t, "store operation failed", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Execute_RollbackFailureIsStoreFailure(t *testing.T) {
	gormDB, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(errors.New("rollback failed"))

	service := NewTransactionService(database.DB{SQL: gormDB})

	err := service.Execute(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
		return types.InvalidTransition("archive first")
	})

	assert.ErrorIs(t, err, types.ErrTransientStore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Execute_BeginFailure(t *testing.T) {
	gormDB, mock := setupMockDB(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	service := NewTransactionService(database.DB{SQL: gormDB})

	called := false
	err := service.Execute(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, types.ErrTransientStore)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Execute_PanicRecovery(t *testing.T) {
	gormDB, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	service := NewTransactionService(database.DB{SQL: gormDB})

	err := service.Execute(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
		panic("test panic")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "panic during transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Execute_NestedCallJoinsOuterTransaction(t *testing.T) {
	gormDB, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	service := NewTransactionService(database.DB{SQL: gormDB})

	var outer, inner *gorm.DB
	err := service.Execute(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
		outer = tx
		return service.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
			inner = tx
			return nil
		})
	})

	assert.NoError(t, err)
	assert.Same(t, outer, inner)
	assert.NoError(t, mock.ExpectationsWereMet())
}
