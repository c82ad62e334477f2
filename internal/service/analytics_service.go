package service

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"stockroom/internal/dto"
	"stockroom/internal/infra"
	"stockroom/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const inventoryValueCacheKey = "analytics:inventory_value"

// AnalyticsService serves read-only dashboards. Nothing here writes business data.
type AnalyticsService interface {
	LowStock(ctx context.Context) ([]dto.LowStockItem, error)
	InventoryValue(ctx context.Context) (*dto.InventoryValueResponse, error)
	SystemStats(ctx context.Context) (*dto.SystemStatsResponse, error)
	ExportInventory(ctx context.Context, w io.Writer) error
}

type analyticsService struct {
	repo repository.AnalyticsRepository
	rdb  *redis.Client
	ttl  time.Duration
}

// NewAnalyticsService caches the inventory valuation in Redis for ttl.
// rdb may be nil, in which case every call hits the database.
func NewAnalyticsService(repo repository.AnalyticsRepository, rdb *redis.Client, ttl time.Duration) AnalyticsService {
	return &analyticsService{repo: repo, rdb: rdb, ttl: ttl}
}

func (s *analyticsService) LowStock(ctx context.Context) ([]dto.LowStockItem, error) {
	items, err := s.repo.LowStockItems(ctx)
	if err != nil {
		return nil, storeErr(err, "low stock items")
	}
	out := make([]dto.LowStockItem, 0, len(items))
	for _, it := range items {
		row := dto.LowStockItem{
			ID:            it.ID,
			Name:          it.Name,
			SKU:           it.SKU,
			Quantity:      it.Quantity,
			MinStockLevel: it.MinStockLevel,
		}
		if it.Category != nil {
			name := it.Category.Name
			row.CategoryName = &name
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *analyticsService) InventoryValue(ctx context.Context) (*dto.InventoryValueResponse, error) {
	if cached := s.cachedValue(ctx); cached != nil {
		return cached, nil
	}

	rows, err := s.repo.ValueByCategory(ctx)
	if err != nil {
		return nil, storeErr(err, "inventory value")
	}
	resp := &dto.InventoryValueResponse{TotalValue: decimal.Zero, ByCategory: make([]dto.CategoryValue, 0, len(rows))}
	for _, r := range rows {
		name := "Uncategorized"
		if r.CategoryName != nil {
			name = *r.CategoryName
		}
		resp.ByCategory = append(resp.ByCategory, dto.CategoryValue{
			CategoryID:   r.CategoryID,
			CategoryName: name,
			ItemCount:    r.ItemCount,
			Value:        r.Value,
		})
		resp.TotalValue = resp.TotalValue.Add(r.Value)
	}

	s.storeValue(resp)
	return resp, nil
}

func (s *analyticsService) cachedValue(ctx context.Context) *dto.InventoryValueResponse {
	if s.rdb == nil || s.ttl <= 0 {
		return nil
	}
	b, err := s.rdb.Get(ctx, inventoryValueCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Msg("analytics: cache read failed")
		}
		return nil
	}
	var resp dto.InventoryValueResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil
	}
	return &resp
}

// storeValue populates the cache, best effort.
func (s *analyticsService) storeValue(resp *dto.InventoryValueResponse) {
	if s.rdb == nil || s.ttl <= 0 {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.rdb.Set(context.Background(), inventoryValueCacheKey, b, s.ttl).Err(); err != nil {
		log.Debug().Err(err).Msg("analytics: cache write failed")
	}
}

func (s *analyticsService) SystemStats(ctx context.Context) (*dto.SystemStatsResponse, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, storeErr(err, "system counts")
	}
	value, err := s.InventoryValue(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.RecentOrders(ctx, 5)
	if err != nil {
		return nil, storeErr(err, "recent orders")
	}

	resp := &dto.SystemStatsResponse{
		TotalUsers:          counts.Users,
		TotalCategories:     counts.Categories,
		ActiveProducts:      counts.ActiveProducts,
		TotalOrders:         counts.Orders,
		TotalVendors:        counts.Vendors,
		OpenPurchaseOrders:  counts.OpenPurchaseOrders,
		LowStockCount:       counts.LowStock,
		TotalInventoryValue: value.TotalValue,
		RecentOrders:        make([]dto.RecentOrder, 0, len(orders)),
	}
	for _, o := range orders {
		resp.RecentOrders = append(resp.RecentOrders, dto.RecentOrder{
			ID:           o.ID,
			CustomerName: o.CustomerName,
			Total:        o.Total,
			Status:       o.Status,
			CreatedAt:    o.CreatedAt,
		})
	}
	return resp, nil
}

func (s *analyticsService) ExportInventory(ctx context.Context, w io.Writer) error {
	items, err := s.repo.ActiveItems(ctx)
	if err != nil {
		return storeErr(err, "inventory items")
	}
	return infra.WriteInventoryXLSX(w, items)
}
