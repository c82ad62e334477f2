package repository

import (
	"context"

	"stockroom/internal/model"

	"gorm.io/gorm"
)

// CategoryWithCount is a category plus the number of items assigned to it.
type CategoryWithCount struct {
	model.Category
	ProductCount int64
}

type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	FindByID(ctx context.Context, id uint) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	List(ctx context.Context) ([]CategoryWithCount, error)
	Update(ctx context.Context, c *model.Category) error
	CountActiveItems(ctx context.Context, id uint) (int64, error)
	// DetachItemsTx clears category_id on every item still pointing at id.
	DetachItemsTx(ctx context.Context, tx *gorm.DB, id uint) error
	DeleteTx(ctx context.Context, tx *gorm.DB, id uint) error
	DB() *gorm.DB
}

type categoryRepo struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) CategoryRepository { return &categoryRepo{db: db} }

func (r *categoryRepo) DB() *gorm.DB { return r.db }

func (r *categoryRepo) Create(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoryRepo) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *categoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&c).Error
	return &c, err
}

func (r *categoryRepo) List(ctx context.Context) ([]CategoryWithCount, error) {
	var rows []CategoryWithCount
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Select("categories.*, (SELECT COUNT(*) FROM inventory_items i WHERE i.category_id = categories.id AND i.is_active = true) AS product_count").
		Order("categories.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *categoryRepo) Update(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Omit("Items").Save(c).Error
}

func (r *categoryRepo) CountActiveItems(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Where("category_id = ? AND is_active = true", id).
		Count(&n).Error
	return n, err
}

func (r *categoryRepo) DetachItemsTx(ctx context.Context, tx *gorm.DB, id uint) error {
	return conn(ctx, r.db, tx).Model(&model.InventoryItem{}).
		Where("category_id = ?", id).
		Update("category_id", nil).Error
}

func (r *categoryRepo) DeleteTx(ctx context.Context, tx *gorm.DB, id uint) error {
	return conn(ctx, r.db, tx).Delete(&model.Category{}, id).Error
}
