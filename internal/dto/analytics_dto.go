package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type LowStockItem struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	SKU           *string `json:"sku"`
	Quantity      int     `json:"quantity"`
	MinStockLevel int     `json:"min_stock_level"`
	CategoryName  *string `json:"category_name"`
}

type CategoryValue struct {
	CategoryID   *uint           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	ItemCount    int64           `json:"item_count"`
	Value        decimal.Decimal `json:"value"`
}

type InventoryValueResponse struct {
	TotalValue decimal.Decimal `json:"total_value"`
	ByCategory []CategoryValue `json:"by_category"`
}

type RecentOrder struct {
	ID           uint            `json:"id"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

type SystemStatsResponse struct {
	TotalUsers          int64           `json:"total_users"`
	TotalCategories     int64           `json:"total_categories"`
	ActiveProducts      int64           `json:"active_products"`
	TotalOrders         int64           `json:"total_orders"`
	TotalVendors        int64           `json:"total_vendors"`
	OpenPurchaseOrders  int64           `json:"open_purchase_orders"`
	LowStockCount       int64           `json:"low_stock_count"`
	TotalInventoryValue decimal.Decimal `json:"total_inventory_value"`
	RecentOrders        []RecentOrder   `json:"recent_orders"`
}
