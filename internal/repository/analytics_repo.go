package repository

import (
	"context"

	"stockroom/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CategoryValueRow is one line of the inventory valuation grouped by category.
type CategoryValueRow struct {
	CategoryID   *uint
	CategoryName *string
	ItemCount    int64
	Value        decimal.Decimal
}

// SystemCounts holds the headline counters of the admin dashboard.
type SystemCounts struct {
	Users              int64
	Categories         int64
	ActiveProducts     int64
	Orders             int64
	Vendors            int64
	OpenPurchaseOrders int64
	LowStock           int64
}

type AnalyticsRepository interface {
	LowStockItems(ctx context.Context) ([]model.InventoryItem, error)
	ValueByCategory(ctx context.Context) ([]CategoryValueRow, error)
	Counts(ctx context.Context) (SystemCounts, error)
	RecentOrders(ctx context.Context, limit int) ([]model.Order, error)
	ActiveItems(ctx context.Context) ([]model.InventoryItem, error)
}

type analyticsRepo struct{ db *gorm.DB }

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository { return &analyticsRepo{db: db} }

func (r *analyticsRepo) LowStockItems(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).Preload("Category").
		Where("is_active = true AND quantity <= min_stock_level").
		Order("quantity ASC, name ASC").
		Find(&items).Error
	return items, err
}

func (r *analyticsRepo) ValueByCategory(ctx context.Context) ([]CategoryValueRow, error) {
	var rows []CategoryValueRow
	err := r.db.WithContext(ctx).
		Table("inventory_items AS i").
		Select("i.category_id, c.name AS category_name, COUNT(*) AS item_count, COALESCE(SUM(i.quantity * i.price), 0) AS value").
		Joins("LEFT JOIN categories c ON c.id = i.category_id").
		Where("i.is_active = true").
		Group("i.category_id, c.name").
		Order("c.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepo) Counts(ctx context.Context) (SystemCounts, error) {
	var c SystemCounts
	db := r.db.WithContext(ctx)
	steps := []struct {
		query *gorm.DB
		dst   *int64
	}{
		{db.Model(&model.User{}), &c.Users},
		{db.Model(&model.Category{}), &c.Categories},
		{db.Model(&model.InventoryItem{}).Where("is_active = true"), &c.ActiveProducts},
		{db.Model(&model.Order{}), &c.Orders},
		{db.Model(&model.Vendor{}).Where("is_active = true"), &c.Vendors},
		{db.Model(&model.PurchaseOrder{}).Where("status IN ?", []string{model.POStatusDraft, model.POStatusSubmitted, model.POStatusApproved}), &c.OpenPurchaseOrders},
		{db.Model(&model.InventoryItem{}).Where("is_active = true AND quantity <= min_stock_level"), &c.LowStock},
	}
	for _, s := range steps {
		if err := s.query.Count(s.dst).Error; err != nil {
			return c, err
		}
	}
	return c, nil
}

func (r *analyticsRepo) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *analyticsRepo) ActiveItems(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).Preload("Category").
		Where("is_active = true").
		Order("name ASC").
		Find(&items).Error
	return items, err
}
