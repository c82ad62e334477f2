package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItemInput struct {
	InventoryID uint `json:"inventory_id" validate:"required"`
	Quantity    int  `json:"quantity"     validate:"required,gt=0"`
	// Price overrides the item's current price when set (staff/admin only).
	Price *decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	CustomerName  string           `json:"customer_name"  validate:"required,min=1,max=200"`
	CustomerEmail *string          `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone *string          `json:"customer_phone"`
	Status        string           `json:"status"         validate:"omitempty,max=20"`
	Items         []OrderItemInput `json:"items"          validate:"required,min=1,dive"`
}

// UpdateOrderRequest never touches items or stock.
type UpdateOrderRequest struct {
	CustomerName  *string `json:"customer_name"  validate:"omitempty,min=1,max=200"`
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone *string `json:"customer_phone"`
	Status        *string `json:"status"         validate:"omitempty,min=1,max=20"`
}

type OrderFilter struct {
	Status string `form:"status"`
	Page   int    `form:"page,default=1"      validate:"min=1"`
	Limit  int    `form:"per_page,default=20" validate:"min=1,max=100"`
}

type OrderItemResponse struct {
	ID          uint            `json:"id"`
	InventoryID uint            `json:"inventory_id"`
	ItemName    string          `json:"item_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type OrderResponse struct {
	ID            uint                `json:"id"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail *string             `json:"customer_email"`
	CustomerPhone *string             `json:"customer_phone"`
	Status        string              `json:"status"`
	Total         decimal.Decimal     `json:"total"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type OrderListResponse struct {
	Data       []OrderResponse `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
}
