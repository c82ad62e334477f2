package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"stockroom/internal/apierror"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubAnalyticsRepo struct {
	values []repository.CategoryValueRow
	counts repository.SystemCounts
	orders []model.Order
	items  []model.InventoryItem
	calls  int
	err    error
}

var _ repository.AnalyticsRepository = (*stubAnalyticsRepo)(nil)

func (r *stubAnalyticsRepo) LowStockItems(context.Context) ([]model.InventoryItem, error) {
	return r.items, r.err
}

func (r *stubAnalyticsRepo) ValueByCategory(context.Context) ([]repository.CategoryValueRow, error) {
	r.calls++
	return r.values, r.err
}

func (r *stubAnalyticsRepo) Counts(context.Context) (repository.SystemCounts, error) {
	return r.counts, r.err
}

func (r *stubAnalyticsRepo) RecentOrders(_ context.Context, limit int) ([]model.Order, error) {
	if len(r.orders) > limit {
		return r.orders[:limit], r.err
	}
	return r.orders, r.err
}

func (r *stubAnalyticsRepo) ActiveItems(context.Context) ([]model.InventoryItem, error) {
	return r.items, r.err
}

func TestInventoryValue_GroupsAndTotals(t *testing.T) {
	tools := "Tools"
	catID := uint(4)
	repo := &stubAnalyticsRepo{values: []repository.CategoryValueRow{
		{CategoryID: &catID, CategoryName: &tools, ItemCount: 3, Value: dec("150.50")},
		{ItemCount: 1, Value: dec("9.50")},
	}}
	svc := NewAnalyticsService(repo, nil, time.Minute)

	resp, err := svc.InventoryValue(context.Background())
	require.NoError(t, err)

	assert.True(t, resp.TotalValue.Equal(dec("160")))
	require.Len(t, resp.ByCategory, 2)
	assert.Equal(t, "Tools", resp.ByCategory[0].CategoryName)
	assert.Equal(t, "Uncategorized", resp.ByCategory[1].CategoryName)
	assert.Nil(t, resp.ByCategory[1].CategoryID)

	// Without Redis every call reaches the store.
	_, err = svc.InventoryValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestSystemStats(t *testing.T) {
	repo := &stubAnalyticsRepo{
		counts: repository.SystemCounts{Users: 3, ActiveProducts: 12, OpenPurchaseOrders: 2, LowStock: 1},
		values: []repository.CategoryValueRow{{ItemCount: 12, Value: dec("480")}},
	}
	for i := 1; i <= 7; i++ {
		repo.orders = append(repo.orders, model.Order{ID: uint(i), CustomerName: "c", Total: dec("1")})
	}
	svc := NewAnalyticsService(repo, nil, 0)

	stats, err := svc.SystemStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(12), stats.ActiveProducts)
	assert.Equal(t, int64(2), stats.OpenPurchaseOrders)
	assert.True(t, stats.TotalInventoryValue.Equal(dec("480")))
	assert.Len(t, stats.RecentOrders, 5)
}

func TestAnalytics_StoreFailure(t *testing.T) {
	svc := NewAnalyticsService(&stubAnalyticsRepo{err: errStoreDown}, nil, 0)

	_, err := svc.LowStock(context.Background())
	assert.True(t, apierror.Is(err, apierror.KindPersistence))
}

func TestExportInventory_WritesWorkbook(t *testing.T) {
	sku := "MUG-1"
	repo := &stubAnalyticsRepo{items: []model.InventoryItem{
		{ID: 1, Name: "Mug", SKU: &sku, Quantity: 4, MinStockLevel: 5, Price: dec("2.50"), IsActive: true},
		{ID: 2, Name: "Plate", Quantity: 0, Price: dec("3"), IsActive: true},
	}}
	svc := NewAnalyticsService(repo, nil, 0)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportInventory(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Inventory")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "MUG-1", rows[1][1])
	assert.Equal(t, model.StockStatusLowStock, rows[1][9])
	assert.Equal(t, model.StockStatusOutOfStock, rows[2][9])
}
