package service

import (
	"context"

	"stockroom/internal/apierror"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"gorm.io/gorm"
)

// AdjustRequest describes one quantity change. Delta > 0 restocks, Delta < 0 consumes.
type AdjustRequest struct {
	ItemID   uint
	Delta    int
	Type     string // model.Movement*
	Reason   string
	RefTable string
	RefID    uint
}

// AdjustResult carries the quantity before and after the change.
type AdjustResult struct {
	Before int
	After  int
}

// InventoryLedger is the only writer of inventory quantities. It keeps every
// quantity non-negative, also under concurrent consumers, and journals each
// change as a StockMovement. It does not write audit entries.
type InventoryLedger interface {
	// Adjust must run inside the caller's transaction (tx may be nil in unit tests).
	Adjust(ctx context.Context, tx *gorm.DB, req AdjustRequest) (AdjustResult, error)
	// CheckAvailable is a read-only guard. It returns the item when quantity
	// units can be consumed right now.
	CheckAvailable(ctx context.Context, itemID uint, quantity int) (*model.InventoryItem, error)
}

type inventoryLedger struct {
	items     repository.InventoryRepository
	movements repository.StockMovementRepository
}

func NewInventoryLedger(items repository.InventoryRepository, movements repository.StockMovementRepository) InventoryLedger {
	return &inventoryLedger{items: items, movements: movements}
}

func (l *inventoryLedger) Adjust(ctx context.Context, tx *gorm.DB, req AdjustRequest) (AdjustResult, error) {
	if req.Delta == 0 {
		return AdjustResult{}, apierror.Validation("quantity change must not be zero")
	}
	consuming := req.Delta < 0

	item, err := l.items.FindByIDTx(ctx, tx, req.ItemID)
	if err != nil {
		return AdjustResult{}, storeErr(err, "inventory item %d", req.ItemID)
	}
	if consuming && !item.IsActive {
		return AdjustResult{}, apierror.NotFound("inventory item %d not found", req.ItemID)
	}

	// The conditional update is the authority: a concurrent consumer that got
	// there first makes it match zero rows.
	rows, err := l.items.AdjustQuantityTx(ctx, tx, req.ItemID, req.Delta, consuming)
	if err != nil {
		return AdjustResult{}, storeErr(err, "inventory item %d", req.ItemID)
	}
	if rows == 0 {
		current, err := l.items.FindByIDTx(ctx, tx, req.ItemID)
		if err != nil {
			return AdjustResult{}, storeErr(err, "inventory item %d", req.ItemID)
		}
		if consuming && !current.IsActive {
			return AdjustResult{}, apierror.NotFound("inventory item %d not found", req.ItemID)
		}
		return AdjustResult{}, apierror.InsufficientStock(
			"insufficient stock for %s: available %d, requested %d", current.Name, current.Quantity, -req.Delta)
	}

	after, err := l.items.FindByIDTx(ctx, tx, req.ItemID)
	if err != nil {
		return AdjustResult{}, storeErr(err, "inventory item %d", req.ItemID)
	}
	res := AdjustResult{Before: after.Quantity - req.Delta, After: after.Quantity}

	movement := &model.StockMovement{
		InventoryID:    req.ItemID,
		Type:           req.Type,
		Delta:          req.Delta,
		QuantityBefore: res.Before,
		QuantityAfter:  res.After,
		Reason:         req.Reason,
	}
	if req.RefTable != "" {
		table := req.RefTable
		movement.ReferenceTable = &table
	}
	if req.RefID != 0 {
		id := req.RefID
		movement.ReferenceID = &id
	}
	if err := l.movements.CreateTx(ctx, tx, movement); err != nil {
		return AdjustResult{}, storeErr(err, "stock movement")
	}
	return res, nil
}

func (l *inventoryLedger) CheckAvailable(ctx context.Context, itemID uint, quantity int) (*model.InventoryItem, error) {
	item, err := l.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, storeErr(err, "inventory item %d", itemID)
	}
	if !item.IsActive {
		return nil, apierror.NotFound("inventory item %d not found", itemID)
	}
	if item.Quantity < quantity {
		return nil, apierror.InsufficientStock(
			"insufficient stock for %s: available %d, requested %d", item.Name, item.Quantity, quantity)
	}
	return item, nil
}
