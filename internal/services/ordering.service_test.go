package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"lessonfolders/config"
	"lessonfolders/internal/database"
	"lessonfolders/internal/models"
	"lessonfolders/internal/repositories"
	"lessonfolders/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func siblingsAt(orders ...int) []*models.Folder {
	folders := make([]*models.Folder, 0, len(orders))
	for i, order := range orders {
		folder := &models.Folder{Name: fmt.Sprintf("F%d", i), Order: order, Status: models.FolderStatusActive}
		folder.ID = uuid.New()
		folders = append(folders, folder)
	}
	return folders
}

// applyPlan replays changes on a copy of the orders and fails if any write
// leaves two siblings on the same order.
func applyPlan(t *testing.T, siblings []*models.Folder, changes []OrderChange) map[uuid.UUID]int {
	t.Helper()
	orders := make(map[uuid.UUID]int, len(siblings))
	for _, sibling := range siblings {
		orders[sibling.ID] = sibling.Order
	}

	for i, change := range changes {
		require.Equal(t, orders[change.FolderID], change.From, "step %d starts from the current order", i)
		require.GreaterOrEqual(t, change.To, 0, "step %d writes a negative order", i)
		orders[change.FolderID] = change.To

		seen := make(map[int]bool, len(orders))
		for _, order := range orders {
			require.False(t, seen[order], "step %d produced duplicate order %d", i, order)
			seen[order] = true
		}
	}
	return orders
}

func TestPlanReorder_MoveUpShiftsWindow(t *testing.T) {
	siblings := siblingsAt(0, 1, 2, 3, 4)
	moving := siblings[3]

	changes, err := PlanReorder(siblings, moving.ID, 1)
	require.NoError(t, err)

	orders := applyPlan(t, siblings, changes)
	assert.Equal(t, 0, orders[siblings[0].ID])
	assert.Equal(t, 2, orders[siblings[1].ID])
	assert.Equal(t, 3, orders[siblings[2].ID])
	assert.Equal(t, 1, orders[moving.ID])
	assert.Equal(t, 4, orders[siblings[4].ID])
	assert.Len(t, changes, 4)
}

func TestPlanReorder_MoveDownShiftsWindow(t *testing.T) {
	siblings := siblingsAt(0, 1, 2, 3, 4)
	moving := siblings[1]

	changes, err := PlanReorder(siblings, moving.ID, 3)
	require.NoError(t, err)

	orders := applyPlan(t, siblings, changes)
	assert.Equal(t, 0, orders[siblings[0].ID])
	assert.Equal(t, 3, orders[moving.ID])
	assert.Equal(t, 1, orders[siblings[2].ID])
	assert.Equal(t, 2, orders[siblings[3].ID])
	assert.Equal(t, 4, orders[siblings[4].ID])
}

func TestPlanReorder_NoOp(t *testing.T) {
	siblings := siblingsAt(0, 1, 2)

	changes, err := PlanReorder(siblings, siblings[1].ID, 1)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestPlanReorder_BeyondMaximumLeavesGap(t *testing.T) {
	siblings := siblingsAt(0, 1, 2)
	moving := siblings[0]

	changes, err := PlanReorder(siblings, moving.ID, 10)
	require.NoError(t, err)

	orders := applyPlan(t, siblings, changes)
	assert.Equal(t, 10, orders[moving.ID])
	assert.Equal(t, 0, orders[siblings[1].ID])
	assert.Equal(t, 1, orders[siblings[2].ID])
}

func TestPlanReorder_SparseOrders(t *testing.T) {
	siblings := siblingsAt(0, 3, 7, 8)
	moving := siblings[3]

	changes, err := PlanReorder(siblings, moving.ID, 2)
	require.NoError(t, err)

	orders := applyPlan(t, siblings, changes)
	assert.Equal(t, 0, orders[siblings[0].ID])
	assert.Equal(t, 4, orders[siblings[1].ID])
	assert.Equal(t, 8, orders[siblings[2].ID])
	assert.Equal(t, 2, orders[moving.ID])
}

func TestPlanReorder_Faults(t *testing.T) {
	t.Run("duplicate orders", func(t *testing.T) {
		siblings := siblingsAt(0, 1, 1)
		_, err := PlanReorder(siblings, siblings[0].ID, 2)
		assert.ErrorIs(t, err, types.ErrIntegrity)
	})

	t.Run("folder missing from snapshot", func(t *testing.T) {
		_, err := PlanReorder(siblingsAt(0, 1), uuid.New(), 0)
		assert.ErrorIs(t, err, types.ErrIntegrity)
	})

	t.Run("negative order", func(t *testing.T) {
		siblings := siblingsAt(0, 1)
		_, err := PlanReorder(siblings, siblings[0].ID, -1)
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

// Every target position for every folder keeps the window property: exactly the
// siblings between the old and new positions move by one.
func TestPlanReorder_WindowPropertyExhaustive(t *testing.T) {
	for size := 1; size <= 5; size++ {
		orders := make([]int, size)
		for i := range orders {
			orders[i] = i
		}
		for from := 0; from < size; from++ {
			for to := 0; to <= size+1; to++ {
				siblings := siblingsAt(orders...)
				moving := siblings[from]

				changes, err := PlanReorder(siblings, moving.ID, to)
				require.NoError(t, err)
				result := applyPlan(t, siblings, changes)

				assert.Equal(t, to, result[moving.ID])
				for _, sibling := range siblings {
					if sibling.ID == moving.ID {
						continue
					}
					o := sibling.Order
					switch {
					case to < from && o >= to && o < from:
						assert.Equal(t, o+1, result[sibling.ID])
					case to > from && o > from && o <= to:
						assert.Equal(t, o-1, result[sibling.ID])
					default:
						assert.Equal(t, o, result[sibling.ID])
					}
				}
			}
		}
	}
}

func setupServiceTestDB(t *testing.T) (database.DB, repositories.Repository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.NewSQLite(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.MigrateModels())
	return db, repositories.New(db, config.Config{})
}

func TestOrderingService_ReorderPersistsUnderUniqueIndex(t *testing.T) {
	db, repos := setupServiceTestDB(t)
	ctx := context.Background()
	ordering := NewOrderingService(repos.Folder)
	transactions := NewTransactionService(db)
	scope := models.PersonalScope(uuid.New())

	var folders []*models.Folder
	for i, name := range []string{"A", "B", "C", "D"} {
		folder := &models.Folder{Name: name, Order: i, Status: models.FolderStatusActive}
		folder.SetScope(scope)
		require.NoError(t, db.SQL.Create(folder).Error)
		folders = append(folders, folder)
	}

	next, err := ordering.NextOrder(ctx, db.SQL, scope.Key())
	require.NoError(t, err)
	assert.Equal(t, 4, next)

	err = transactions.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		_, err := ordering.Reorder(ctx, tx, scope.Key(), folders[3].ID, 0)
		return err
	})
	require.NoError(t, err)

	stored, err := repos.Folder.ListActiveByScope(ctx, db.SQL, scope.Key())
	require.NoError(t, err)
	names := make([]string, 0, len(stored))
	sort.Slice(stored, func(i, j int) bool { return stored[i].Order < stored[j].Order })
	for _, folder := range stored {
		names = append(names, fmt.Sprintf("%s:%d", folder.Name, folder.Order))
	}
	assert.Equal(t, []string{"D:0", "A:1", "B:2", "C:3"}, names)
}

func TestOrderingService_ReorderSatisfiesOrderCheckConstraint(t *testing.T) {
	db, repos := setupServiceTestDB(t)
	ctx := context.Background()
	ordering := NewOrderingService(repos.Folder)
	transactions := NewTransactionService(db)
	scope := models.PersonalScope(uuid.New())

	math := &models.Folder{Name: "Math", Order: 0, Status: models.FolderStatusActive}
	math.SetScope(scope)
	require.NoError(t, db.SQL.Create(math).Error)
	science := &models.Folder{Name: "Science", Order: 1, Status: models.FolderStatusActive}
	science.SetScope(scope)
	require.NoError(t, db.SQL.Create(science).Error)

	err := repos.Folder.SetOrder(ctx, db.SQL, math.ID, -1)
	require.ErrorIs(t, err, types.ErrTransientStore, "schema rejects negative orders")

	var changes []OrderChange
	err = transactions.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		changes, err = ordering.Reorder(ctx, tx, scope.Key(), science.ID, 0)
		return err
	})
	require.NoError(t, err)
	require.NotEmpty(t, changes)
	for _, change := range changes {
		assert.GreaterOrEqual(t, change.To, 0)
	}

	var reloaded []models.Folder
	require.NoError(t, db.SQL.Order("sort_order").Find(&reloaded).Error)
	require.Len(t, reloaded, 2)
	assert.Equal(t, "Science", reloaded[0].Name)
	assert.Equal(t, 0, reloaded[0].Order)
	assert.Equal(t, "Math", reloaded[1].Name)
	assert.Equal(t, 1, reloaded[1].Order)
}

func TestOrderingService_NextOrderEmptyScope(t *testing.T) {
	db, repos := setupServiceTestDB(t)
	ordering := NewOrderingService(repos.Folder)

	next, err := ordering.NextOrder(context.Background(), db.SQL, models.ClassScopeKey(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, 0, next)
}
