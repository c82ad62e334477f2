package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StockStatusInactive   = "Inactive"
	StockStatusOutOfStock = "Out of Stock"
	StockStatusLowStock   = "Low Stock"
	StockStatusInStock    = "In Stock"
)

// InventoryItem is a stocked product. Quantity is never negative; every change
// goes through the inventory ledger.
type InventoryItem struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"type:varchar(200);index;not null"`
	CategoryID  *uint           `gorm:"index"`
	Quantity    int             `gorm:"not null;default:0"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description *string
	SKU         *string `gorm:"column:sku;type:varchar(100);uniqueIndex"`
	// UnitOfMeasure and UnitsPerPackage are conversion metadata only.
	UnitOfMeasure   string `gorm:"type:varchar(20);not null;default:'unit'"`
	UnitsPerPackage int    `gorm:"not null;default:1"`
	MinStockLevel   int    `gorm:"not null;default:5"`
	IsActive        bool   `gorm:"not null;default:true;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Category     *Category     `gorm:"foreignKey:CategoryID"`
	VendorPrices []VendorPrice `gorm:"foreignKey:InventoryID"`
}

// Status is derived, never stored.
func (i *InventoryItem) Status() string {
	switch {
	case !i.IsActive:
		return StockStatusInactive
	case i.Quantity == 0:
		return StockStatusOutOfStock
	case i.Quantity <= i.MinStockLevel:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}
