package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const OrderStatusPending = "pending"

// Order is a sales order. Stock is decremented when it is created.
type Order struct {
	ID            uint   `gorm:"primaryKey"`
	CustomerName  string `gorm:"type:varchar(200);not null"`
	CustomerEmail *string
	CustomerPhone *string
	// Status is free-form; "pending" on creation.
	Status    string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem snapshots the unit price at order time.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey"`
	OrderID     uint            `gorm:"not null;index"`
	InventoryID uint            `gorm:"not null;index"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Inventory *InventoryItem `gorm:"foreignKey:InventoryID"`
}
