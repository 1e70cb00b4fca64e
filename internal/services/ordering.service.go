package services

import (
	"context"
	"fmt"
	"sort"

	"lessonfolders/internal/logger"
	. "lessonfolders/internal/models"
	"lessonfolders/internal/repositories"
	"lessonfolders/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderChange is one single-row order write.
type OrderChange struct {
	FolderID uuid.UUID `json:"folderId"`
	From     int       `json:"from"`
	To       int       `json:"to"`
}

// OrderingService keeps active folders of one scope at distinct order values.
// Callers hold the scope lock for the duration of the transaction.
type OrderingService struct {
	folderRepo repositories.FolderRepository
	log        logger.Logger
}

func NewOrderingService(folderRepo repositories.FolderRepository) *OrderingService {
	return &OrderingService{
		folderRepo: folderRepo,
		log:        logger.New("OrderingService"),
	}
}

// NextOrder returns max(order)+1 over the scope's active folders, or 0 when there are none.
func (s *OrderingService) NextOrder(ctx context.Context, tx *gorm.DB, scopeKey string) (int, error) {
	maxOrder, err := s.folderRepo.MaxActiveOrder(ctx, tx, scopeKey)
	if err != nil {
		return 0, err
	}
	return maxOrder + 1, nil
}

// Reorder moves folderID to newOrder within scopeKey and returns the writes it applied.
func (s *OrderingService) Reorder(
	ctx context.Context,
	tx *gorm.DB,
	scopeKey string,
	folderID uuid.UUID,
	newOrder int,
) ([]OrderChange, error) {
	log := s.log.Function("Reorder")

	siblings, err := s.folderRepo.ListActiveByScope(ctx, tx, scopeKey)
	if err != nil {
		return nil, err
	}

	changes, err := PlanReorder(siblings, folderID, newOrder)
	if err != nil {
		if types.KindOf(err) == types.KindIntegrityFault {
			log.Er("sibling order snapshot is inconsistent", err,
				"scopeKey", scopeKey, "folderID", folderID)
		}
		return nil, err
	}

	for _, change := range changes {
		if err := s.folderRepo.SetOrder(ctx, tx, change.FolderID, change.To); err != nil {
			return nil, err
		}
	}

	log.Debug("folder reordered", "scopeKey", scopeKey, "folderID", folderID,
		"newOrder", newOrder, "writes", len(changes))
	return changes, nil
}

// PlanReorder computes the writes that move folderID to newOrder among siblings.
//
// Moving up (newOrder < order) shifts siblings in [newOrder, order) by +1; moving
// down shifts siblings in (order, newOrder] by -1. The folder is first parked one
// past the highest order in play, which keeps every write non-negative, and the
// window is walked so that no two active siblings share an order after any
// single write. newOrder beyond the current maximum is accepted and leaves a gap.
func PlanReorder(siblings []*Folder, folderID uuid.UUID, newOrder int) ([]OrderChange, error) {
	if newOrder < 0 {
		return nil, types.Validation("order must be a non-negative integer", nil)
	}

	seen := make(map[int]uuid.UUID, len(siblings))
	var target *Folder
	parked := newOrder
	for _, sibling := range siblings {
		parked = max(parked, sibling.Order)
		if other, ok := seen[sibling.Order]; ok {
			return nil, types.Integrity(fmt.Sprintf(
				"folders %s and %s share order %d", other, sibling.ID, sibling.Order,
			))
		}
		seen[sibling.Order] = sibling.ID
		if sibling.ID == folderID {
			target = sibling
		}
	}

	if target == nil {
		return nil, types.Integrity("folder " + folderID.String() + " is missing from its scope snapshot")
	}

	current := target.Order
	if newOrder == current {
		return nil, nil
	}

	var window []*Folder
	for _, sibling := range siblings {
		if sibling.ID == folderID {
			continue
		}
		if newOrder < current && sibling.Order >= newOrder && sibling.Order < current {
			window = append(window, sibling)
		}
		if newOrder > current && sibling.Order > current && sibling.Order <= newOrder {
			window = append(window, sibling)
		}
	}

	delta := -1
	if newOrder < current {
		delta = 1
		sort.Slice(window, func(i, j int) bool { return window[i].Order > window[j].Order })
	} else {
		sort.Slice(window, func(i, j int) bool { return window[i].Order < window[j].Order })
	}

	parked++

	changes := make([]OrderChange, 0, len(window)+2)
	changes = append(changes, OrderChange{FolderID: folderID, From: current, To: parked})
	for _, sibling := range window {
		changes = append(changes, OrderChange{
			FolderID: sibling.ID,
			From:     sibling.Order,
			To:       sibling.Order + delta,
		})
	}
	changes = append(changes, OrderChange{FolderID: folderID, From: parked, To: newOrder})

	return changes, nil
}
