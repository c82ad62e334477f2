package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PurchaseOrderItemInput struct {
	InventoryID uint            `json:"inventory_id" validate:"required"`
	Quantity    int             `json:"quantity"     validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"   validate:"min=0"`
}

// CreatePurchaseOrderRequest carries no total: it is always computed from the items.
type CreatePurchaseOrderRequest struct {
	VendorID             uint                     `json:"vendor_id"              validate:"required"`
	ReferenceNumber      string                   `json:"reference_number"       validate:"omitempty,max=100"`
	Status               string                   `json:"status"`
	Notes                *string                  `json:"notes"`
	ExpectedDeliveryDate *time.Time               `json:"expected_delivery_date"`
	Items                []PurchaseOrderItemInput `json:"items"                  validate:"required,min=1,dive"`
}

type UpdatePurchaseOrderRequest struct {
	VendorID             *uint                     `json:"vendor_id"`
	ReferenceNumber      *string                   `json:"reference_number"       validate:"omitempty,min=1,max=100"`
	Notes                *string                   `json:"notes"`
	ExpectedDeliveryDate *time.Time                `json:"expected_delivery_date"`
	Items                *[]PurchaseOrderItemInput `json:"items"`
}

type SetPurchaseOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ReceiveItemInput struct {
	ID               uint `json:"id"`
	ReceivedQuantity int  `json:"received_quantity"`
}

type ReceivePurchaseOrderRequest struct {
	Items []ReceiveItemInput `json:"items"`
}

type PurchaseOrderFilter struct {
	Status   string `form:"status"`
	VendorID uint   `form:"vendor_id"`
	Page     int    `form:"page,default=1"      validate:"min=1"`
	Limit    int    `form:"per_page,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PurchaseOrderItemResponse struct {
	ID               uint            `json:"id"`
	InventoryID      uint            `json:"inventory_id"`
	ItemName         string          `json:"item_name,omitempty"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	ReceivedQuantity int             `json:"received_quantity"`
}

type PurchaseOrderResponse struct {
	ID                   uint                        `json:"id"`
	VendorID             uint                        `json:"vendor_id"`
	VendorName           string                      `json:"vendor_name,omitempty"`
	ReferenceNumber      string                      `json:"reference_number"`
	Status               string                      `json:"status"`
	Total                decimal.Decimal             `json:"total"`
	Notes                *string                     `json:"notes"`
	CreatedBy            *uint                       `json:"created_by"`
	ExpectedDeliveryDate *time.Time                  `json:"expected_delivery_date"`
	ReceivedDate         *time.Time                  `json:"received_date"`
	Items                []PurchaseOrderItemResponse `json:"items"`
	CreatedAt            time.Time                   `json:"created_at"`
	UpdatedAt            time.Time                   `json:"updated_at"`
}

type PurchaseOrderListResponse struct {
	Data       []PurchaseOrderResponse `json:"data"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"per_page"`
	TotalPages int                     `json:"total_pages"`
}
