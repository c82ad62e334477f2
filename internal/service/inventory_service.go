package service

import (
	"context"
	"strings"

	"stockroom/internal/apierror"
	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const tableInventoryItems = "inventory_items"

// InventoryService manages the item catalogue. Quantity changes made here are
// routed through the ledger as manual adjustments.
type InventoryService interface {
	List(ctx context.Context, filter dto.InventoryFilter) (*dto.InventoryListResponse, error)
	Get(ctx context.Context, id uint) (*dto.InventoryItemResponse, error)
	Create(ctx context.Context, actor Actor, req dto.CreateInventoryItemRequest) (*dto.InventoryItemResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.UpdateInventoryItemRequest) (*dto.InventoryItemResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uint) error
	Movements(ctx context.Context, id uint, filter dto.MovementFilter) (*dto.StockMovementListResponse, error)
}

type inventoryService struct {
	repo       repository.InventoryRepository
	categories repository.CategoryRepository
	vendors    repository.VendorRepository
	movements  repository.StockMovementRepository
	ledger     InventoryLedger
	audit      AuditRecorder
}

func NewInventoryService(
	repo repository.InventoryRepository,
	categories repository.CategoryRepository,
	vendors repository.VendorRepository,
	movements repository.StockMovementRepository,
	ledger InventoryLedger,
	audit AuditRecorder,
) InventoryService {
	return &inventoryService{
		repo:       repo,
		categories: categories,
		vendors:    vendors,
		movements:  movements,
		ledger:     ledger,
		audit:      audit,
	}
}

func (s *inventoryService) List(ctx context.Context, filter dto.InventoryFilter) (*dto.InventoryListResponse, error) {
	switch filter.Status {
	case "", "low_stock", "out_of_stock":
	default:
		return nil, apierror.Validation("invalid status filter %q", filter.Status)
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit, 20, 100)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "inventory items")
	}
	data := make([]dto.InventoryItemResponse, 0, len(items))
	for i := range items {
		data = append(data, *inventoryItemToResponse(&items[i]))
	}
	return &dto.InventoryListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

func (s *inventoryService) Get(ctx context.Context, id uint) (*dto.InventoryItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "inventory item %d", id)
	}
	return inventoryItemToResponse(item), nil
}

func (s *inventoryService) Create(ctx context.Context, actor Actor, req dto.CreateInventoryItemRequest) (*dto.InventoryItemResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("name is required")
	}
	if req.Quantity < 0 {
		return nil, apierror.Validation("quantity must not be negative")
	}
	if req.Price.IsNegative() {
		return nil, apierror.Validation("price must not be negative")
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	sku, err := s.checkSKU(ctx, req.SKU, 0)
	if err != nil {
		return nil, err
	}
	prices, err := s.buildVendorPrices(ctx, req.Vendors)
	if err != nil {
		return nil, err
	}

	item := &model.InventoryItem{
		Name:            name,
		CategoryID:      req.CategoryID,
		Price:           req.Price,
		Description:     req.Description,
		SKU:             sku,
		UnitOfMeasure:   req.UnitOfMeasure,
		UnitsPerPackage: req.UnitsPerPackage,
		MinStockLevel:   5,
		IsActive:        true,
	}
	if item.UnitOfMeasure == "" {
		item.UnitOfMeasure = "unit"
	}
	if item.UnitsPerPackage <= 0 {
		item.UnitsPerPackage = 1
	}
	if req.MinStockLevel != nil {
		item.MinStockLevel = *req.MinStockLevel
	}

	// Opening stock is booked through the ledger like any other change.
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, item); err != nil {
			return err
		}
		if len(prices) > 0 {
			if err := s.repo.ReplaceVendorPricesTx(ctx, tx, item.ID, prices); err != nil {
				return err
			}
		}
		if req.Quantity > 0 {
			if _, err := s.ledger.Adjust(ctx, tx, AdjustRequest{
				ItemID: item.ID,
				Delta:  req.Quantity,
				Type:   model.MovementManualAdjustment,
				Reason: "opening stock",
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "inventory item %s", name)
	}

	resp, err := s.Get(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditCreate, Table: tableInventoryItems, RecordID: item.ID, New: resp,
	})
	return resp, nil
}

// setQuantityTx books the difference between want and the locked stored
// quantity, so sales committed since the item was first read are kept.
func (s *inventoryService) setQuantityTx(ctx context.Context, tx *gorm.DB, id uint, want *int) error {
	if want == nil {
		return nil
	}
	current, err := s.repo.FindByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		return err
	}
	delta := *want - current.Quantity
	if delta == 0 {
		return nil
	}
	_, err = s.ledger.Adjust(ctx, tx, AdjustRequest{
		ItemID: id,
		Delta:  delta,
		Type:   model.MovementManualAdjustment,
		Reason: "manual quantity edit",
	})
	return err
}

func (s *inventoryService) Update(ctx context.Context, actor Actor, id uint, req dto.UpdateInventoryItemRequest) (*dto.InventoryItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "inventory item %d", id)
	}
	before := inventoryItemToResponse(item)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apierror.Validation("name must not be empty")
		}
		item.Name = name
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		item.CategoryID = req.CategoryID
		item.Category = nil
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apierror.Validation("price must not be negative")
		}
		item.Price = *req.Price
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.SKU != nil {
		sku, err := s.checkSKU(ctx, req.SKU, id)
		if err != nil {
			return nil, err
		}
		item.SKU = sku
	}
	if req.UnitOfMeasure != nil && *req.UnitOfMeasure != "" {
		item.UnitOfMeasure = *req.UnitOfMeasure
	}
	if req.UnitsPerPackage != nil {
		if *req.UnitsPerPackage < 1 {
			return nil, apierror.Validation("units_per_package must be at least 1")
		}
		item.UnitsPerPackage = *req.UnitsPerPackage
	}
	if req.MinStockLevel != nil {
		if *req.MinStockLevel < 0 {
			return nil, apierror.Validation("min_stock_level must not be negative")
		}
		item.MinStockLevel = *req.MinStockLevel
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return nil, apierror.Validation("quantity must not be negative")
	}
	var prices []model.VendorPrice
	if req.Vendors != nil {
		if prices, err = s.buildVendorPrices(ctx, *req.Vendors); err != nil {
			return nil, err
		}
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.setQuantityTx(ctx, tx, id, req.Quantity); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		if req.Vendors != nil {
			return s.repo.ReplaceVendorPricesTx(ctx, tx, id, prices)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "inventory item %d", id)
	}

	after, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditUpdate, Table: tableInventoryItems, RecordID: id, Old: before, New: after,
	})
	return after, nil
}

// Deactivate soft-deletes an item; its history and order lines keep pointing at it.
func (s *inventoryService) Deactivate(ctx context.Context, actor Actor, id uint) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeErr(err, "inventory item %d", id)
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return storeErr(err, "inventory item %d", id)
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditDelete, Table: tableInventoryItems, RecordID: id,
		Old: inventoryItemToResponse(item),
		New: map[string]bool{"is_active": false},
	})
	return nil
}

func (s *inventoryService) Movements(ctx context.Context, id uint, filter dto.MovementFilter) (*dto.StockMovementListResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, storeErr(err, "inventory item %d", id)
	}
	filter.InventoryID = id
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit, 50, 500)
	movements, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "stock movements")
	}
	data := make([]dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		data = append(data, dto.StockMovementResponse{
			ID:             m.ID,
			InventoryID:    m.InventoryID,
			Type:           m.Type,
			Delta:          m.Delta,
			QuantityBefore: m.QuantityBefore,
			QuantityAfter:  m.QuantityAfter,
			Reason:         m.Reason,
			ReferenceTable: m.ReferenceTable,
			ReferenceID:    m.ReferenceID,
			CreatedAt:      m.CreatedAt,
		})
	}
	return &dto.StockMovementListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

func (s *inventoryService) checkCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *id); err != nil {
		if isNotFound(err) {
			return apierror.Validation("category %d not found", *id)
		}
		return storeErr(err, "category %d", *id)
	}
	return nil
}

// checkSKU trims the SKU and rejects one already used by another item.
// An empty SKU clears it.
func (s *inventoryService) checkSKU(ctx context.Context, sku *string, selfID uint) (*string, error) {
	if sku == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*sku)
	if v == "" {
		return nil, nil
	}
	existing, err := s.repo.FindBySKU(ctx, v)
	if err != nil && !isNotFound(err) {
		return nil, storeErr(err, "inventory item with sku %s", v)
	}
	if err == nil && existing.ID != selfID {
		return nil, apierror.Conflict("sku %s already exists", v)
	}
	return &v, nil
}

func (s *inventoryService) buildVendorPrices(ctx context.Context, in []dto.VendorPriceInput) ([]model.VendorPrice, error) {
	prices := make([]model.VendorPrice, 0, len(in))
	seen := make(map[uint]bool, len(in))
	for _, v := range in {
		if seen[v.VendorID] {
			return nil, apierror.Validation("vendor %d listed twice", v.VendorID)
		}
		seen[v.VendorID] = true
		if v.UnitPrice.IsNegative() {
			return nil, apierror.Validation("vendor %d: unit price must not be negative", v.VendorID)
		}
		if _, err := s.vendors.FindByID(ctx, v.VendorID); err != nil {
			if isNotFound(err) {
				return nil, apierror.Validation("vendor %d not found", v.VendorID)
			}
			return nil, storeErr(err, "vendor %d", v.VendorID)
		}
		prices = append(prices, model.VendorPrice{
			VendorID:    v.VendorID,
			UnitPrice:   v.UnitPrice,
			IsPreferred: v.IsPreferred,
		})
	}
	return prices, nil
}

func inventoryItemToResponse(item *model.InventoryItem) *dto.InventoryItemResponse {
	resp := &dto.InventoryItemResponse{
		ID:              item.ID,
		Name:            item.Name,
		CategoryID:      item.CategoryID,
		Quantity:        item.Quantity,
		Price:           item.Price,
		Description:     item.Description,
		SKU:             item.SKU,
		UnitOfMeasure:   item.UnitOfMeasure,
		UnitsPerPackage: item.UnitsPerPackage,
		MinStockLevel:   item.MinStockLevel,
		IsActive:        item.IsActive,
		Status:          item.Status(),
		TotalValue:      item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		Vendors:         make([]dto.VendorPriceResponse, 0, len(item.VendorPrices)),
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
	if item.Category != nil {
		name := item.Category.Name
		resp.CategoryName = &name
	}
	for _, vp := range item.VendorPrices {
		r := dto.VendorPriceResponse{
			VendorID:    vp.VendorID,
			InventoryID: item.ID,
			UnitPrice:   vp.UnitPrice,
			IsPreferred: vp.IsPreferred,
		}
		if vp.Vendor != nil {
			r.VendorName = vp.Vendor.Name
		}
		resp.Vendors = append(resp.Vendors, r)
	}
	return resp
}
