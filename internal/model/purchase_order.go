package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	POStatusDraft     = "draft"
	POStatusSubmitted = "submitted"
	POStatusApproved  = "approved"
	POStatusReceived  = "received"
	POStatusCanceled  = "canceled"
)

// ValidPOStatus reports whether s is one of the five lifecycle states.
func ValidPOStatus(s string) bool {
	switch s {
	case POStatusDraft, POStatusSubmitted, POStatusApproved, POStatusReceived, POStatusCanceled:
		return true
	}
	return false
}

// POEditable reports whether a purchase order in status s may still be edited
// or deleted.
func POEditable(s string) bool {
	return s == POStatusDraft || s == POStatusSubmitted
}

// POTerminal reports whether s is a final state.
func POTerminal(s string) bool {
	return s == POStatusReceived || s == POStatusCanceled
}

// PurchaseOrder is an order placed with a vendor. Total always equals the sum
// of its items' TotalPrice.
type PurchaseOrder struct {
	ID                   uint            `gorm:"primaryKey"`
	VendorID             uint            `gorm:"not null;index"`
	ReferenceNumber      string          `gorm:"type:varchar(100);uniqueIndex;not null"`
	Status               string          `gorm:"type:varchar(20);not null;default:'draft';index"`
	Total                decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Notes                *string
	CreatedBy            *uint `gorm:"index"`
	ExpectedDeliveryDate *time.Time
	ReceivedDate         *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Vendor *Vendor             `gorm:"foreignKey:VendorID"`
	Items  []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
}

// PurchaseOrderItem is one line of a purchase order.
type PurchaseOrderItem struct {
	ID               uint            `gorm:"primaryKey"`
	PurchaseOrderID  uint            `gorm:"not null;index"`
	InventoryID      uint            `gorm:"not null;index"`
	Quantity         int             `gorm:"not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ReceivedQuantity int             `gorm:"not null;default:0"`

	Inventory *InventoryItem `gorm:"foreignKey:InventoryID"`
}
