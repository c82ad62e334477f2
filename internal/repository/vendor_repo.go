package repository

import (
	"context"

	"stockroom/internal/model"

	"gorm.io/gorm"
)

type VendorRepository interface {
	Create(ctx context.Context, v *model.Vendor) error
	FindByID(ctx context.Context, id uint) (*model.Vendor, error)
	List(ctx context.Context, includeInactive bool) ([]model.Vendor, error)
	Update(ctx context.Context, v *model.Vendor) error
	Delete(ctx context.Context, id uint) error
	Deactivate(ctx context.Context, id uint) error
	CountPurchaseOrders(ctx context.Context, id uint) (int64, error)
	ListPrices(ctx context.Context, vendorID uint) ([]model.VendorPrice, error)
}

type vendorRepo struct{ db *gorm.DB }

func NewVendorRepository(db *gorm.DB) VendorRepository { return &vendorRepo{db: db} }

func (r *vendorRepo) Create(ctx context.Context, v *model.Vendor) error {
	return r.db.WithContext(ctx).Omit("Prices").Create(v).Error
}

func (r *vendorRepo) FindByID(ctx context.Context, id uint) (*model.Vendor, error) {
	var v model.Vendor
	err := r.db.WithContext(ctx).First(&v, id).Error
	return &v, err
}

func (r *vendorRepo) List(ctx context.Context, includeInactive bool) ([]model.Vendor, error) {
	var vendors []model.Vendor
	q := r.db.WithContext(ctx)
	if !includeInactive {
		q = q.Where("is_active = true")
	}
	err := q.Order("name ASC").Find(&vendors).Error
	return vendors, err
}

func (r *vendorRepo) Update(ctx context.Context, v *model.Vendor) error {
	return r.db.WithContext(ctx).Omit("Prices").Save(v).Error
}

// Delete removes the vendor and its price list in one transaction.
func (r *vendorRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vendor_id = ?", id).Delete(&model.VendorPrice{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Vendor{}, id).Error
	})
}

func (r *vendorRepo) Deactivate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Vendor{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *vendorRepo) CountPurchaseOrders(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).Where("vendor_id = ?", id).Count(&n).Error
	return n, err
}

func (r *vendorRepo) ListPrices(ctx context.Context, vendorID uint) ([]model.VendorPrice, error) {
	var prices []model.VendorPrice
	err := r.db.WithContext(ctx).Preload("Inventory").
		Where("vendor_id = ?", vendorID).
		Find(&prices).Error
	return prices, err
}
