package repository

import (
	"context"

	"stockroom/internal/dto"
	"stockroom/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	// Update writes the order header; items are never modified after creation.
	Update(ctx context.Context, o *model.Order) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return conn(ctx, r.db, tx).Omit("Items.Inventory").Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items.Inventory").First(&o, id).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := page(filter.Page, filter.Limit, 20, 100)
	err := q.Preload("Items.Inventory").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) Update(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(o).Error
}
