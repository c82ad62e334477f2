package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockroom/internal/apierror"
	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"
	"stockroom/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const tablePurchaseOrders = "purchase_orders"

// ReferenceGenerator issues unique purchase order reference numbers.
type ReferenceGenerator interface {
	NewReference() string
}

// PurchaseOrderService owns the purchase order lifecycle:
//
//	draft → submitted → approved → received
//	   └──────────┴───────────┴──→ canceled
//
// Only draft and submitted orders can be edited or deleted. received is
// reached through Receive, never through SetStatus.
type PurchaseOrderService interface {
	Create(ctx context.Context, actor Actor, req dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error)
	Get(ctx context.Context, id uint) (*dto.PurchaseOrderResponse, error)
	// Model returns the order with vendor and items loaded, for rendering.
	Model(ctx context.Context, id uint) (*model.PurchaseOrder, error)
	List(ctx context.Context, filter dto.PurchaseOrderFilter) (*dto.PurchaseOrderListResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.UpdatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error)
	SetStatus(ctx context.Context, actor Actor, id uint, status string) (*dto.PurchaseOrderResponse, error)
	Receive(ctx context.Context, actor Actor, id uint, req dto.ReceivePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type purchaseOrderService struct {
	repo       repository.PurchaseOrderRepository
	vendors    repository.VendorRepository
	items      repository.InventoryRepository
	ledger     InventoryLedger
	audit      AuditRecorder
	refs       ReferenceGenerator
	dispatcher *worker.Dispatcher
	now        func() time.Time
}

func NewPurchaseOrderService(
	repo repository.PurchaseOrderRepository,
	vendors repository.VendorRepository,
	items repository.InventoryRepository,
	ledger InventoryLedger,
	audit AuditRecorder,
	refs ReferenceGenerator,
	dispatcher *worker.Dispatcher,
) PurchaseOrderService {
	return &purchaseOrderService{
		repo:       repo,
		vendors:    vendors,
		items:      items,
		ledger:     ledger,
		audit:      audit,
		refs:       refs,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// ── Create ───────────────────────────────────────────────────────────────────

func (s *purchaseOrderService) Create(ctx context.Context, actor Actor, req dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if err := requireRole(actor, model.RoleAdmin, model.RoleStaff); err != nil {
		return nil, err
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = model.POStatusDraft
	}
	if status != model.POStatusDraft {
		return nil, apierror.Validation("a purchase order must be created as draft, got %q", status)
	}

	if _, err := s.resolveVendor(ctx, req.VendorID); err != nil {
		return nil, err
	}
	items, total, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	ref := strings.TrimSpace(req.ReferenceNumber)
	if ref == "" {
		ref = s.refs.NewReference()
	} else if err := s.ensureReferenceFree(ctx, ref, 0); err != nil {
		return nil, err
	}

	po := &model.PurchaseOrder{
		VendorID:             req.VendorID,
		ReferenceNumber:      ref,
		Status:               status,
		Total:                total,
		Notes:                req.Notes,
		CreatedBy:            actor.userRef(),
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Items:                items,
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.Create(ctx, tx, po)
	})
	if err != nil {
		return nil, storeErr(err, "purchase order %s", ref)
	}

	resp, err := s.Get(ctx, po.ID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditCreate, Table: tablePurchaseOrders, RecordID: po.ID, New: resp,
	})
	return resp, nil
}

// buildItems validates every line and computes line totals and the order total.
func (s *purchaseOrderService) buildItems(ctx context.Context, in []dto.PurchaseOrderItemInput) ([]model.PurchaseOrderItem, decimal.Decimal, error) {
	if len(in) == 0 {
		return nil, decimal.Zero, apierror.Validation("a purchase order needs at least one item")
	}
	items := make([]model.PurchaseOrderItem, 0, len(in))
	total := decimal.Zero
	for i, line := range in {
		if line.Quantity <= 0 {
			return nil, decimal.Zero, apierror.Validation("item %d: quantity must be greater than zero", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return nil, decimal.Zero, apierror.Validation("item %d: unit price must not be negative", i+1)
		}
		if _, err := s.items.FindByID(ctx, line.InventoryID); err != nil {
			if isNotFound(err) {
				return nil, decimal.Zero, apierror.Validation("item %d: inventory item %d not found", i+1, line.InventoryID)
			}
			return nil, decimal.Zero, storeErr(err, "inventory item %d", line.InventoryID)
		}
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		items = append(items, model.PurchaseOrderItem{
			InventoryID: line.InventoryID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  lineTotal,
		})
	}
	return items, total, nil
}

func (s *purchaseOrderService) resolveVendor(ctx context.Context, id uint) (*model.Vendor, error) {
	if id == 0 {
		return nil, apierror.Validation("vendor_id is required")
	}
	v, err := s.vendors.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.Validation("vendor %d not found", id)
		}
		return nil, storeErr(err, "vendor %d", id)
	}
	return v, nil
}

func (s *purchaseOrderService) ensureReferenceFree(ctx context.Context, ref string, excludeID uint) error {
	exists, err := s.repo.ReferenceExists(ctx, ref, excludeID)
	if err != nil {
		return storeErr(err, "purchase order %s", ref)
	}
	if exists {
		return apierror.Conflict("reference number %s is already used", ref)
	}
	return nil
}

// ── Read ─────────────────────────────────────────────────────────────────────

func (s *purchaseOrderService) Model(ctx context.Context, id uint) (*model.PurchaseOrder, error) {
	po, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "purchase order %d", id)
	}
	return po, nil
}

func (s *purchaseOrderService) Get(ctx context.Context, id uint) (*dto.PurchaseOrderResponse, error) {
	po, err := s.Model(ctx, id)
	if err != nil {
		return nil, err
	}
	return purchaseOrderToResponse(po), nil
}

func (s *purchaseOrderService) List(ctx context.Context, filter dto.PurchaseOrderFilter) (*dto.PurchaseOrderListResponse, error) {
	if filter.Status != "" && !model.ValidPOStatus(filter.Status) {
		return nil, apierror.Validation("invalid status %q", filter.Status)
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit, 20, 100)
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "purchase orders")
	}
	data := make([]dto.PurchaseOrderResponse, 0, len(orders))
	for i := range orders {
		data = append(data, *purchaseOrderToResponse(&orders[i]))
	}
	return &dto.PurchaseOrderListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// ── Update ───────────────────────────────────────────────────────────────────

func (s *purchaseOrderService) Update(ctx context.Context, actor Actor, id uint, req dto.UpdatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if err := requireRole(actor, model.RoleAdmin, model.RoleStaff); err != nil {
		return nil, err
	}

	// Resolve everything the edit references before touching the order.
	if req.VendorID != nil {
		if _, err := s.resolveVendor(ctx, *req.VendorID); err != nil {
			return nil, err
		}
	}
	var ref string
	if req.ReferenceNumber != nil {
		ref = strings.TrimSpace(*req.ReferenceNumber)
		if ref == "" {
			return nil, apierror.Validation("reference number must not be empty")
		}
		if err := s.ensureReferenceFree(ctx, ref, id); err != nil {
			return nil, err
		}
	}
	var items []model.PurchaseOrderItem
	var total decimal.Decimal
	if req.Items != nil {
		var err error
		if items, total, err = s.buildItems(ctx, *req.Items); err != nil {
			return nil, err
		}
	}

	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		po, err := s.repo.FindByIDForUpdateTx(ctx, tx, id)
		if err != nil {
			return storeErr(err, "purchase order %d", id)
		}
		if !model.POEditable(po.Status) {
			return apierror.InvalidState("purchase order %s is %s; only draft or submitted orders can be edited", po.ReferenceNumber, po.Status)
		}
		if req.VendorID != nil {
			po.VendorID = *req.VendorID
		}
		if req.ReferenceNumber != nil {
			po.ReferenceNumber = ref
		}
		if req.Notes != nil {
			po.Notes = req.Notes
		}
		if req.ExpectedDeliveryDate != nil {
			po.ExpectedDeliveryDate = req.ExpectedDeliveryDate
		}
		if req.Items != nil {
			if err := s.repo.ReplaceItemsTx(ctx, tx, po.ID, items); err != nil {
				return err
			}
			po.Total = total
		}
		po.Items = nil
		return s.repo.UpdateTx(ctx, tx, po)
	})
	if err != nil {
		return nil, storeErr(err, "purchase order %d", id)
	}

	after, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditUpdate, Table: tablePurchaseOrders, RecordID: id, Old: before, New: after,
	})
	return after, nil
}

// ── Status ───────────────────────────────────────────────────────────────────

func (s *purchaseOrderService) SetStatus(ctx context.Context, actor Actor, id uint, status string) (*dto.PurchaseOrderResponse, error) {
	if err := requireRole(actor, model.RoleAdmin, model.RoleStaff); err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)
	if !model.ValidPOStatus(status) {
		return nil, apierror.Validation("invalid status %q", status)
	}
	if status == model.POStatusReceived {
		return nil, apierror.InvalidState("purchase orders are marked received through the receive operation")
	}

	var previous string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		po, err := s.repo.FindByIDForUpdateTx(ctx, tx, id)
		if err != nil {
			return storeErr(err, "purchase order %d", id)
		}
		if model.POTerminal(po.Status) {
			return apierror.InvalidState("purchase order %s is %s and can no longer change status", po.ReferenceNumber, po.Status)
		}
		previous = po.Status
		po.Status = status
		po.Items = nil
		return s.repo.UpdateTx(ctx, tx, po)
	})
	if err != nil {
		return nil, storeErr(err, "purchase order %d", id)
	}

	resp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditUpdateStatus, Table: tablePurchaseOrders, RecordID: id,
		Old: map[string]string{"status": previous},
		New: map[string]string{"status": status},
	})
	if status == model.POStatusSubmitted && previous != model.POStatusSubmitted {
		s.notifyVendor(ctx, resp)
	}
	return resp, nil
}

// notifyVendor queues the purchase order email. Failures are logged only.
func (s *purchaseOrderService) notifyVendor(ctx context.Context, po *dto.PurchaseOrderResponse) {
	if s.dispatcher == nil {
		return
	}
	v, err := s.vendors.FindByID(ctx, po.VendorID)
	if err != nil || v.Email == nil || *v.Email == "" {
		return
	}
	payload := worker.PurchaseOrderEmailPayload{PurchaseOrderID: po.ID, ToEmail: *v.Email}
	if err := s.dispatcher.EnqueuePurchaseOrderEmail(context.WithoutCancel(ctx), payload); err != nil {
		log.Warn().Err(err).Uint("purchase_order_id", po.ID).Msg("purchase_order: failed to enqueue vendor email")
	}
}

// ── Receive ──────────────────────────────────────────────────────────────────

type receipt struct {
	poItemID    uint
	inventoryID uint
	quantity    int
	result      AdjustResult
}

// Receive records delivered quantities and restocks inventory. It is legal on
// approved orders and again on received ones; each call re-applies its
// quantities to inventory while received_quantity is overwritten.
func (s *purchaseOrderService) Receive(ctx context.Context, actor Actor, id uint, req dto.ReceivePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if err := requireRole(actor, model.RoleAdmin, model.RoleStaff); err != nil {
		return nil, err
	}

	var (
		receipts []receipt
		previous string
		ref      string
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		po, err := s.repo.FindByIDForUpdateTx(ctx, tx, id)
		if err != nil {
			return storeErr(err, "purchase order %d", id)
		}
		if po.Status != model.POStatusApproved && po.Status != model.POStatusReceived {
			return apierror.InvalidState("purchase order %s is %s; only approved orders can be received", po.ReferenceNumber, po.Status)
		}
		previous, ref = po.Status, po.ReferenceNumber

		receipts = validReceipts(po.Items, req.Items)
		if len(receipts) == 0 {
			return apierror.Validation("no valid items to receive")
		}

		for i := range receipts {
			r := &receipts[i]
			if err := s.repo.SetReceivedQuantityTx(ctx, tx, r.poItemID, r.quantity); err != nil {
				return err
			}
			r.result, err = s.ledger.Adjust(ctx, tx, AdjustRequest{
				ItemID:   r.inventoryID,
				Delta:    r.quantity,
				Type:     model.MovementPurchaseReceipt,
				Reason:   fmt.Sprintf("received on purchase order %s", po.ReferenceNumber),
				RefTable: tablePurchaseOrders,
				RefID:    po.ID,
			})
			if err != nil {
				return err
			}
		}

		now := s.now()
		po.Status = model.POStatusReceived
		po.ReceivedDate = &now
		po.Items = nil
		return s.repo.UpdateTx(ctx, tx, po)
	})
	if err != nil {
		return nil, storeErr(err, "purchase order %d", id)
	}

	for _, r := range receipts {
		s.audit.Record(ctx, AuditEntry{
			Actor: actor, Action: model.AuditReceive, Table: "inventory_items", RecordID: r.inventoryID,
			Old: map[string]interface{}{"quantity": r.result.Before},
			New: map[string]interface{}{
				"quantity":          r.result.After,
				"received":          r.quantity,
				"purchase_order_id": id,
				"reference_number":  ref,
			},
		})
	}

	resp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditReceive, Table: tablePurchaseOrders, RecordID: id,
		Old: map[string]string{"status": previous},
		New: resp,
	})
	return resp, nil
}

// validReceipts keeps entries that name an item of this order with a positive
// quantity. A repeated item id keeps its last quantity.
func validReceipts(items []model.PurchaseOrderItem, in []dto.ReceiveItemInput) []receipt {
	byID := make(map[uint]model.PurchaseOrderItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	index := make(map[uint]int)
	var out []receipt
	for _, e := range in {
		it, ok := byID[e.ID]
		if !ok || e.ReceivedQuantity <= 0 {
			continue
		}
		if i, seen := index[e.ID]; seen {
			out[i].quantity = e.ReceivedQuantity
			continue
		}
		index[e.ID] = len(out)
		out = append(out, receipt{poItemID: it.ID, inventoryID: it.InventoryID, quantity: e.ReceivedQuantity})
	}
	return out
}

// ── Delete ───────────────────────────────────────────────────────────────────

func (s *purchaseOrderService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireRole(actor, model.RoleAdmin, model.RoleStaff); err != nil {
		return err
	}
	before, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		po, err := s.repo.FindByIDForUpdateTx(ctx, tx, id)
		if err != nil {
			return storeErr(err, "purchase order %d", id)
		}
		if !model.POEditable(po.Status) {
			return apierror.InvalidState("purchase order %s is %s; only draft or submitted orders can be deleted", po.ReferenceNumber, po.Status)
		}
		return s.repo.DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return storeErr(err, "purchase order %d", id)
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditDelete, Table: tablePurchaseOrders, RecordID: id, Old: before,
	})
	return nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func purchaseOrderToResponse(po *model.PurchaseOrder) *dto.PurchaseOrderResponse {
	resp := &dto.PurchaseOrderResponse{
		ID:                   po.ID,
		VendorID:             po.VendorID,
		ReferenceNumber:      po.ReferenceNumber,
		Status:               po.Status,
		Total:                po.Total,
		Notes:                po.Notes,
		CreatedBy:            po.CreatedBy,
		ExpectedDeliveryDate: po.ExpectedDeliveryDate,
		ReceivedDate:         po.ReceivedDate,
		Items:                make([]dto.PurchaseOrderItemResponse, 0, len(po.Items)),
		CreatedAt:            po.CreatedAt,
		UpdatedAt:            po.UpdatedAt,
	}
	if po.Vendor != nil {
		resp.VendorName = po.Vendor.Name
	}
	for _, it := range po.Items {
		item := dto.PurchaseOrderItemResponse{
			ID:               it.ID,
			InventoryID:      it.InventoryID,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			TotalPrice:       it.TotalPrice,
			ReceivedQuantity: it.ReceivedQuantity,
		}
		if it.Inventory != nil {
			item.ItemName = it.Inventory.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
