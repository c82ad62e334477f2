package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vendor is a supplier purchase orders are placed with.
type Vendor struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"type:varchar(200);not null"`
	ContactPerson *string
	Email         *string
	Phone         *string
	Address       *string
	IsActive      bool `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Prices []VendorPrice `gorm:"foreignKey:VendorID"`
}

// VendorPrice links an inventory item to a vendor with the vendor's unit price.
type VendorPrice struct {
	ID          uint            `gorm:"primaryKey"`
	InventoryID uint            `gorm:"not null;uniqueIndex:idx_vendor_price_pair"`
	VendorID    uint            `gorm:"not null;uniqueIndex:idx_vendor_price_pair;index"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2)"`
	IsPreferred bool            `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Vendor    *Vendor        `gorm:"foreignKey:VendorID"`
	Inventory *InventoryItem `gorm:"foreignKey:InventoryID"`
}
