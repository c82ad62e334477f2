package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type VendorPriceInput struct {
	VendorID    uint            `json:"vendor_id"    validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"   validate:"min=0"`
	IsPreferred bool            `json:"is_preferred"`
}

type CreateInventoryItemRequest struct {
	Name            string             `json:"name"              validate:"required,min=1,max=200"`
	CategoryID      *uint              `json:"category_id"`
	Quantity        int                `json:"quantity"          validate:"min=0"`
	Price           decimal.Decimal    `json:"price"             validate:"min=0"`
	Description     *string            `json:"description"`
	SKU             *string            `json:"sku"               validate:"omitempty,max=100"`
	UnitOfMeasure   string             `json:"unit_of_measure"   validate:"omitempty,max=20"`
	UnitsPerPackage int                `json:"units_per_package" validate:"omitempty,min=1"`
	MinStockLevel   *int               `json:"min_stock_level"   validate:"omitempty,min=0"`
	Vendors         []VendorPriceInput `json:"vendors"           validate:"dive"`
}

type UpdateInventoryItemRequest struct {
	Name            *string             `json:"name"              validate:"omitempty,min=1,max=200"`
	CategoryID      *uint               `json:"category_id"`
	Quantity        *int                `json:"quantity"          validate:"omitempty,min=0"`
	Price           *decimal.Decimal    `json:"price"`
	Description     *string             `json:"description"`
	SKU             *string             `json:"sku"               validate:"omitempty,max=100"`
	UnitOfMeasure   *string             `json:"unit_of_measure"   validate:"omitempty,max=20"`
	UnitsPerPackage *int                `json:"units_per_package" validate:"omitempty,min=1"`
	MinStockLevel   *int                `json:"min_stock_level"   validate:"omitempty,min=0"`
	IsActive        *bool               `json:"is_active"`
	Vendors         *[]VendorPriceInput `json:"vendors"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type InventoryFilter struct {
	Search     string `form:"search"`
	CategoryID uint   `form:"category_id"`
	// Status: "low_stock" | "out_of_stock" | "" (any)
	Status string `form:"status"`
	// Active: "false" = inactive only, "all" = everything, default active only
	Active string `form:"active"`
	Page   int    `form:"page,default=1"      validate:"min=1"`
	Limit  int    `form:"per_page,default=20" validate:"min=1,max=100"`
}

type MovementFilter struct {
	InventoryID uint
	Type        string `form:"type"`
	Page        int    `form:"page,default=1"      validate:"min=1"`
	Limit       int    `form:"per_page,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VendorPriceResponse struct {
	VendorID    uint            `json:"vendor_id"`
	VendorName  string          `json:"vendor_name,omitempty"`
	InventoryID uint            `json:"inventory_id"`
	ItemName    string          `json:"item_name,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	IsPreferred bool            `json:"is_preferred"`
}

type InventoryItemResponse struct {
	ID              uint                  `json:"id"`
	Name            string                `json:"name"`
	CategoryID      *uint                 `json:"category_id"`
	CategoryName    *string               `json:"category_name"`
	Quantity        int                   `json:"quantity"`
	Price           decimal.Decimal       `json:"price"`
	Description     *string               `json:"description"`
	SKU             *string               `json:"sku"`
	UnitOfMeasure   string                `json:"unit_of_measure"`
	UnitsPerPackage int                   `json:"units_per_package"`
	MinStockLevel   int                   `json:"min_stock_level"`
	IsActive        bool                  `json:"is_active"`
	Status          string                `json:"status"`
	TotalValue      decimal.Decimal       `json:"total_value"`
	Vendors         []VendorPriceResponse `json:"vendors"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type InventoryListResponse struct {
	Data       []InventoryItemResponse `json:"data"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"per_page"`
	TotalPages int                     `json:"total_pages"`
}

type StockMovementResponse struct {
	ID             uint      `json:"id"`
	InventoryID    uint      `json:"inventory_id"`
	Type           string    `json:"type"`
	Delta          int       `json:"delta"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	Reason         string    `json:"reason"`
	ReferenceTable *string   `json:"reference_table"`
	ReferenceID    *uint     `json:"reference_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type StockMovementListResponse struct {
	Data       []StockMovementResponse `json:"data"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"per_page"`
	TotalPages int                     `json:"total_pages"`
}
