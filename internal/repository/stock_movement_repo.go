package repository

import (
	"context"

	"stockroom/internal/dto"
	"stockroom/internal/model"

	"gorm.io/gorm"
)

type StockMovementRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, m *model.StockMovement) error
	List(ctx context.Context, filter dto.MovementFilter) ([]model.StockMovement, int64, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(ctx context.Context, tx *gorm.DB, m *model.StockMovement) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *stockMovementRepo) List(ctx context.Context, filter dto.MovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{})
	if filter.InventoryID != 0 {
		q = q.Where("inventory_id = ?", filter.InventoryID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := page(filter.Page, filter.Limit, 50, 500)
	var movements []model.StockMovement
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}
