package repository

import (
	"context"

	"stockroom/internal/dto"
	"stockroom/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseOrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, po *model.PurchaseOrder) error
	FindByID(ctx context.Context, id uint) (*model.PurchaseOrder, error)
	// FindByIDForUpdateTx locks the purchase order row for the rest of tx.
	FindByIDForUpdateTx(ctx context.Context, tx *gorm.DB, id uint) (*model.PurchaseOrder, error)
	ReferenceExists(ctx context.Context, ref string, excludeID uint) (bool, error)
	List(ctx context.Context, filter dto.PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error)
	// UpdateTx writes the header columns only; items are left untouched.
	UpdateTx(ctx context.Context, tx *gorm.DB, po *model.PurchaseOrder) error
	ReplaceItemsTx(ctx context.Context, tx *gorm.DB, poID uint, items []model.PurchaseOrderItem) error
	SetReceivedQuantityTx(ctx context.Context, tx *gorm.DB, itemID uint, qty int) error
	DeleteTx(ctx context.Context, tx *gorm.DB, id uint) error
	DB() *gorm.DB
}

type purchaseOrderRepo struct{ db *gorm.DB }

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

func (r *purchaseOrderRepo) DB() *gorm.DB { return r.db }

func (r *purchaseOrderRepo) Create(ctx context.Context, tx *gorm.DB, po *model.PurchaseOrder) error {
	return conn(ctx, r.db, tx).Omit("Vendor", "Items.Inventory").Create(po).Error
}

func (r *purchaseOrderRepo) FindByID(ctx context.Context, id uint) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Inventory").
		First(&po, id).Error
	return &po, err
}

func (r *purchaseOrderRepo) FindByIDForUpdateTx(ctx context.Context, tx *gorm.DB, id uint) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := conn(ctx, r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&po, id).Error
	if err != nil {
		return &po, err
	}
	err = conn(ctx, r.db, tx).Where("purchase_order_id = ?", id).Order("id ASC").Find(&po.Items).Error
	return &po, err
}

func (r *purchaseOrderRepo) ReferenceExists(ctx context.Context, ref string, excludeID uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).Where("reference_number = ?", ref)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *purchaseOrderRepo) List(ctx context.Context, filter dto.PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error) {
	var orders []model.PurchaseOrder
	var total int64

	q := r.db.WithContext(ctx).Model(&model.PurchaseOrder{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.VendorID != 0 {
		q = q.Where("vendor_id = ?", filter.VendorID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := page(filter.Page, filter.Limit, 20, 100)
	err := q.Preload("Vendor").Preload("Items.Inventory").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error
	return orders, total, err
}

func (r *purchaseOrderRepo) UpdateTx(ctx context.Context, tx *gorm.DB, po *model.PurchaseOrder) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Save(po).Error
}

func (r *purchaseOrderRepo) ReplaceItemsTx(ctx context.Context, tx *gorm.DB, poID uint, items []model.PurchaseOrderItem) error {
	db := conn(ctx, r.db, tx)
	if err := db.Where("purchase_order_id = ?", poID).Delete(&model.PurchaseOrderItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].PurchaseOrderID = poID
	}
	return db.Omit("Inventory").Create(&items).Error
}

func (r *purchaseOrderRepo) SetReceivedQuantityTx(ctx context.Context, tx *gorm.DB, itemID uint, qty int) error {
	return conn(ctx, r.db, tx).Model(&model.PurchaseOrderItem{}).
		Where("id = ?", itemID).
		Update("received_quantity", qty).Error
}

func (r *purchaseOrderRepo) DeleteTx(ctx context.Context, tx *gorm.DB, id uint) error {
	db := conn(ctx, r.db, tx)
	if err := db.Where("purchase_order_id = ?", id).Delete(&model.PurchaseOrderItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.PurchaseOrder{}, id).Error
}
