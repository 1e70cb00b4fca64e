package context

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := GetTransaction(ctx)
	assert.False(t, ok)

	tx := &gorm.DB{}
	got, ok := GetTransaction(WithTransaction(ctx, tx))
	assert.True(t, ok)
	assert.Same(t, tx, got)

	_, ok = GetTransaction(WithTransaction(ctx, nil))
	assert.False(t, ok)
}

func TestUserIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := GetUserID(ctx)
	assert.False(t, ok)

	_, ok = GetUserID(WithUserID(ctx, uuid.Nil))
	assert.False(t, ok)

	userID := uuid.New()
	got, ok := GetUserID(WithUserID(ctx, userID))
	assert.True(t, ok)
	assert.Equal(t, userID, got)
}
