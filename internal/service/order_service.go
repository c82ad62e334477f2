package service

import (
	"context"
	"fmt"
	"strings"

	"stockroom/internal/apierror"
	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const tableOrders = "orders"

// OrderService handles sales orders. Creating an order consumes stock;
// updating or canceling one never gives stock back.
type OrderService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, id uint) (*dto.OrderResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.UpdateOrderRequest) (*dto.OrderResponse, error)
}

type orderService struct {
	repo   repository.OrderRepository
	items  repository.InventoryRepository
	ledger InventoryLedger
	audit  AuditRecorder
}

func NewOrderService(
	repo repository.OrderRepository,
	items repository.InventoryRepository,
	ledger InventoryLedger,
	audit AuditRecorder,
) OrderService {
	return &orderService{repo: repo, items: items, ledger: ledger, audit: audit}
}

// ── Create ───────────────────────────────────────────────────────────────────
// Every line is resolved and checked before anything is written:
//   1. item exists and is active, quantity > 0, price resolved
//   2. total stock per item (lines summed) is available
//   3. TX: create order + items, consume stock per line through the ledger
//   4. one audit entry for the order

type orderLine struct {
	inventoryID uint
	quantity    int
	unitPrice   decimal.Decimal
	total       decimal.Decimal
}

func (s *orderService) Create(ctx context.Context, actor Actor, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, apierror.Validation("customer_name is required")
	}
	if len(req.Items) == 0 {
		return nil, apierror.Validation("an order needs at least one item")
	}
	canOverridePrice := actor.hasRole(model.RoleAdmin, model.RoleStaff)

	lines := make([]orderLine, 0, len(req.Items))
	needed := make(map[uint]int)
	var itemOrder []uint // first-seen order, so checks run deterministically
	total := decimal.Zero

	for i, in := range req.Items {
		if in.Quantity <= 0 {
			return nil, apierror.Validation("item %d: quantity must be greater than zero", i+1)
		}
		item, err := s.items.FindByID(ctx, in.InventoryID)
		if err != nil && !isNotFound(err) {
			return nil, storeErr(err, "inventory item %d", in.InventoryID)
		}
		if err != nil || !item.IsActive {
			return nil, apierror.Validation("item %d: invalid inventory item %d", i+1, in.InventoryID)
		}

		price := item.Price
		if in.Price != nil && canOverridePrice {
			if in.Price.IsNegative() {
				return nil, apierror.Validation("item %d: price must not be negative", i+1)
			}
			price = *in.Price
		}
		lineTotal := price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		total = total.Add(lineTotal)

		if _, seen := needed[item.ID]; !seen {
			itemOrder = append(itemOrder, item.ID)
		}
		needed[item.ID] += in.Quantity
		lines = append(lines, orderLine{
			inventoryID: item.ID,
			quantity:    in.Quantity,
			unitPrice:   price,
			total:       lineTotal,
		})
	}

	for _, id := range itemOrder {
		if _, err := s.ledger.CheckAvailable(ctx, id, needed[id]); err != nil {
			return nil, err
		}
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = model.OrderStatusPending
	}
	o := &model.Order{
		CustomerName:  name,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Status:        status,
		Total:         total,
	}
	for _, l := range lines {
		o.Items = append(o.Items, model.OrderItem{
			InventoryID: l.inventoryID,
			Quantity:    l.quantity,
			UnitPrice:   l.unitPrice,
			TotalPrice:  l.total,
		})
	}

	// The ledger re-checks inside the TX; a concurrent sale that drained the
	// stock since the pre-check rolls the whole order back.
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, o); err != nil {
			return err
		}
		for _, l := range lines {
			if _, err := s.ledger.Adjust(ctx, tx, AdjustRequest{
				ItemID:   l.inventoryID,
				Delta:    -l.quantity,
				Type:     model.MovementSale,
				Reason:   fmt.Sprintf("sales order %d", o.ID),
				RefTable: tableOrders,
				RefID:    o.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "order")
	}

	resp, err := s.Get(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditCreate, Table: tableOrders, RecordID: o.ID, New: resp,
	})
	return resp, nil
}

// ── Read ─────────────────────────────────────────────────────────────────────

func (s *orderService) Get(ctx context.Context, id uint) (*dto.OrderResponse, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order %d", id)
	}
	return orderToResponse(o), nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit, 20, 100)
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	data := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		data = append(data, *orderToResponse(&orders[i]))
	}
	return &dto.OrderListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// ── Update ───────────────────────────────────────────────────────────────────

func (s *orderService) Update(ctx context.Context, actor Actor, id uint, req dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order %d", id)
	}
	before := orderToResponse(o)

	if req.CustomerName != nil {
		name := strings.TrimSpace(*req.CustomerName)
		if name == "" {
			return nil, apierror.Validation("customer_name must not be empty")
		}
		o.CustomerName = name
	}
	if req.CustomerEmail != nil {
		o.CustomerEmail = req.CustomerEmail
	}
	if req.CustomerPhone != nil {
		o.CustomerPhone = req.CustomerPhone
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if status == "" {
			return nil, apierror.Validation("status must not be empty")
		}
		o.Status = status
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, storeErr(err, "order %d", id)
	}
	after := orderToResponse(o)
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditUpdate, Table: tableOrders, RecordID: id, Old: before, New: after,
	})
	return after, nil
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:            o.ID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,
		Status:        o.Status,
		Total:         o.Total,
		Items:         make([]dto.OrderItemResponse, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, it := range o.Items {
		item := dto.OrderItemResponse{
			ID:          it.ID,
			InventoryID: it.InventoryID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		}
		if it.Inventory != nil {
			item.ItemName = it.Inventory.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
