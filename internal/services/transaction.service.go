package services

import (
	"context"
	"fmt"

	appcontext "lessonfolders/internal/context"
	"lessonfolders/internal/database"
	"lessonfolders/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// TransactionService runs a unit of work inside one database transaction.
type TransactionService struct {
	db  database.DB
	log logger.Logger
}

func NewTransactionService(db database.DB) *TransactionService {
	return &TransactionService{
		db:  db,
		log: logger.New("TransactionService"),
	}
}

// Execute runs fn inside a transaction. fn's error rolls everything back and is
// returned unchanged. Begin, commit and rollback failures surface as store failures.
// Panics are converted to errors unless the rollback itself fails. A call made
// with a context that already carries a transaction joins it.
func (ts *TransactionService) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) (err error) {
	log := ts.log.Function("Execute")

	if tx, ok := appcontext.GetTransaction(ctx); ok {
		return fn(ctx, tx)
	}

	tx := ts.db.SQLWithContext(ctx).Begin()
	if tx.Error != nil {
		return types.StoreFailure(log.Err("failed to begin transaction", tx.Error))
	}

	defer func() {
		if r := recover(); r != nil {
			panicErr := log.ErrMsg("panic during transaction: " + fmt.Sprintf("%v", r))

			if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
				log.Er("CRITICAL: failed to rollback after panic", rollbackErr, "panic", r)
				panic(
					fmt.Sprintf(
						"transaction rollback failed: %v (original panic: %v)",
						rollbackErr,
						r,
					),
				)
			}

			log.Info("transaction rolled back successfully after panic")
			err = panicErr
		}
	}()

	if err = fn(appcontext.WithTransaction(ctx, tx), tx); err != nil {
		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			log.Er("CRITICAL: failed to rollback after function error", rollbackErr, "originalError", err)
			return types.StoreFailure(rollbackErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return types.StoreFailure(log.Err("failed to commit transaction", err))
	}

	return nil
}
