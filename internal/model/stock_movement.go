package model

import "time"

const (
	MovementSale             = "sale"
	MovementPurchaseReceipt  = "purchase_receipt"
	MovementManualAdjustment = "manual_adjustment"
)

// StockMovement records every quantity change applied to an inventory item.
// It is written in the same transaction as the change itself.
type StockMovement struct {
	ID             uint   `gorm:"primaryKey"`
	InventoryID    uint   `gorm:"not null;index"`
	Type           string `gorm:"type:varchar(30);not null"`
	Delta          int    `gorm:"not null"` // positive = in, negative = out
	QuantityBefore int    `gorm:"not null"`
	QuantityAfter  int    `gorm:"not null"`
	Reason         string
	ReferenceTable *string `gorm:"type:varchar(50)"`
	ReferenceID    *uint
	CreatedAt      time.Time
}
