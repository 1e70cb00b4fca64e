package context

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type contextKey string

const (
	TRANSACTION_KEY contextKey = "transaction"
	USER_ID_KEY     contextKey = "userID"
)

// GetTransaction retrieves a transaction from the context
func GetTransaction(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(TRANSACTION_KEY).(*gorm.DB)
	return tx, ok && tx != nil
}

// WithTransaction adds a transaction to the context
func WithTransaction(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, TRANSACTION_KEY, tx)
}

// WithUserID records the authenticated user for the request.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, USER_ID_KEY, userID)
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(USER_ID_KEY).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}
