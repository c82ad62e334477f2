package repository

import (
	"context"
	"time"

	"stockroom/internal/dto"
	"stockroom/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository defines the data access contract for inventory items.
// Services depend on this interface, not on the concrete GORM implementation.
type InventoryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, item *model.InventoryItem) error
	FindByID(ctx context.Context, id uint) (*model.InventoryItem, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*model.InventoryItem, error)
	// FindByIDForUpdateTx locks the item row for the rest of tx.
	FindByIDForUpdateTx(ctx context.Context, tx *gorm.DB, id uint) (*model.InventoryItem, error)
	FindBySKU(ctx context.Context, sku string) (*model.InventoryItem, error)
	List(ctx context.Context, filter dto.InventoryFilter) ([]model.InventoryItem, int64, error)
	// Update writes every column except quantity, which only the ledger changes.
	Update(ctx context.Context, tx *gorm.DB, item *model.InventoryItem) error
	SoftDelete(ctx context.Context, id uint) error

	// AdjustQuantityTx applies quantity += delta only when the result stays
	// non-negative (and, when requireActive is set, the item is active).
	// It reports the number of rows changed: 0 means the guard rejected it.
	AdjustQuantityTx(ctx context.Context, tx *gorm.DB, id uint, delta int, requireActive bool) (int64, error)

	ReplaceVendorPricesTx(ctx context.Context, tx *gorm.DB, itemID uint, prices []model.VendorPrice) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) DB() *gorm.DB { return r.db }

func (r *inventoryRepo) Create(ctx context.Context, tx *gorm.DB, item *model.InventoryItem) error {
	return conn(ctx, r.db, tx).Omit("Category", "VendorPrices").Create(item).Error
}

func (r *inventoryRepo) FindByID(ctx context.Context, id uint) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("VendorPrices.Vendor").
		First(&item, id).Error
	return &item, err
}

func (r *inventoryRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := conn(ctx, r.db, tx).First(&item, id).Error
	return &item, err
}

func (r *inventoryRepo) FindByIDForUpdateTx(ctx context.Context, tx *gorm.DB, id uint) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := conn(ctx, r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, id).Error
	return &item, err
}

func (r *inventoryRepo) FindBySKU(ctx context.Context, sku string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&item).Error
	return &item, err
}

func (r *inventoryRepo) List(ctx context.Context, filter dto.InventoryFilter) ([]model.InventoryItem, int64, error) {
	var items []model.InventoryItem
	var total int64

	q := r.db.WithContext(ctx).Model(&model.InventoryItem{})

	switch filter.Active {
	case "false":
		q = q.Where("is_active = false")
	case "all":
	default:
		q = q.Where("is_active = true")
	}

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("(LOWER(name) LIKE LOWER(?) OR LOWER(sku) LIKE LOWER(?))", like, like)
	}
	if filter.CategoryID != 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	switch filter.Status {
	case "low_stock":
		q = q.Where("quantity <= min_stock_level")
	case "out_of_stock":
		q = q.Where("quantity = 0")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := page(filter.Page, filter.Limit, 20, 100)
	err := q.Preload("Category").Preload("VendorPrices.Vendor").
		Order("name ASC").Limit(limit).Offset(offset).Find(&items).Error
	return items, total, err
}

func (r *inventoryRepo) Update(ctx context.Context, tx *gorm.DB, item *model.InventoryItem) error {
	return conn(ctx, r.db, tx).Omit("Quantity", "Category", "VendorPrices", "CreatedAt").Save(item).Error
}

func (r *inventoryRepo) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.InventoryItem{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()}).Error
}

func (r *inventoryRepo) AdjustQuantityTx(ctx context.Context, tx *gorm.DB, id uint, delta int, requireActive bool) (int64, error) {
	q := conn(ctx, r.db, tx).Model(&model.InventoryItem{}).Where("id = ?", id)
	if requireActive {
		q = q.Where("is_active = true")
	}
	if delta < 0 {
		q = q.Where("quantity + ? >= 0", delta)
	}
	res := q.Updates(map[string]interface{}{
		"quantity":   gorm.Expr("quantity + ?", delta),
		"updated_at": time.Now(),
	})
	return res.RowsAffected, res.Error
}

func (r *inventoryRepo) ReplaceVendorPricesTx(ctx context.Context, tx *gorm.DB, itemID uint, prices []model.VendorPrice) error {
	db := conn(ctx, r.db, tx)
	if err := db.Where("inventory_id = ?", itemID).Delete(&model.VendorPrice{}).Error; err != nil {
		return err
	}
	if len(prices) == 0 {
		return nil
	}
	for i := range prices {
		prices[i].InventoryID = itemID
	}
	return db.Omit("Vendor", "Inventory").Create(&prices).Error
}
