package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"gorm.io/gorm"
)

// In-memory repositories. Every stub hands out copies so services see the
// same isolation they get from the database.

var errStoreDown = errors.New("connection refused")

// ── Inventory ────────────────────────────────────────────────────────────────

type stubInventoryRepo struct {
	mu     sync.Mutex
	items  map[uint]*model.InventoryItem
	prices map[uint][]model.VendorPrice
	nextID uint
}

var _ repository.InventoryRepository = (*stubInventoryRepo)(nil)

func newStubInventoryRepo() *stubInventoryRepo {
	return &stubInventoryRepo{
		items:  make(map[uint]*model.InventoryItem),
		prices: make(map[uint][]model.VendorPrice),
	}
}

// seed stores an active item and returns its id.
func (r *stubInventoryRepo) seed(name string, qty int, price string) uint {
	item := &model.InventoryItem{
		Name:          name,
		Quantity:      qty,
		Price:         dec(price),
		MinStockLevel: 5,
		IsActive:      true,
	}
	_ = r.Create(context.Background(), nil, item)
	return item.ID
}

func (r *stubInventoryRepo) quantity(id uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Quantity
}

func (r *stubInventoryRepo) Create(_ context.Context, _ *gorm.DB, item *model.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	item.CreatedAt = time.Now()
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *stubInventoryRepo) FindByID(_ context.Context, id uint) (*model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *item
	cp.VendorPrices = append([]model.VendorPrice(nil), r.prices[id]...)
	return &cp, nil
}

func (r *stubInventoryRepo) FindByIDTx(ctx context.Context, _ *gorm.DB, id uint) (*model.InventoryItem, error) {
	return r.FindByID(ctx, id)
}

func (r *stubInventoryRepo) FindByIDForUpdateTx(ctx context.Context, _ *gorm.DB, id uint) (*model.InventoryItem, error) {
	return r.FindByID(ctx, id)
}

func (r *stubInventoryRepo) FindBySKU(_ context.Context, sku string) (*model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.SKU != nil && *item.SKU == sku {
			cp := *item
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInventoryRepo) List(_ context.Context, filter dto.InventoryFilter) ([]model.InventoryItem, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryItem
	for _, item := range r.items {
		if !item.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubInventoryRepo) Update(_ context.Context, _ *gorm.DB, item *model.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[item.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	qty := stored.Quantity
	*stored = *item
	stored.Quantity = qty
	stored.VendorPrices = nil
	return nil
}

func (r *stubInventoryRepo) SoftDelete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.IsActive = false
	return nil
}

func (r *stubInventoryRepo) AdjustQuantityTx(_ context.Context, _ *gorm.DB, id uint, delta int, requireActive bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return 0, nil
	}
	if item.Quantity+delta < 0 || (requireActive && !item.IsActive) {
		return 0, nil
	}
	item.Quantity += delta
	return 1, nil
}

func (r *stubInventoryRepo) ReplaceVendorPricesTx(_ context.Context, _ *gorm.DB, itemID uint, prices []model.VendorPrice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.VendorPrice, len(prices))
	for i, p := range prices {
		p.InventoryID = itemID
		out[i] = p
	}
	r.prices[itemID] = out
	return nil
}

func (r *stubInventoryRepo) DB() *gorm.DB { return nil }

// ── Stock movements ──────────────────────────────────────────────────────────

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement
	failWith  error
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

func (r *stubMovementRepo) CreateTx(_ context.Context, _ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	m.ID = uint(len(r.movements) + 1)
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, filter dto.MovementFilter) ([]model.StockMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.InventoryID == filter.InventoryID {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubMovementRepo) forItem(id uint) []model.StockMovement {
	out, _, _ := r.List(context.Background(), dto.MovementFilter{InventoryID: id})
	return out
}

// ── Vendors ──────────────────────────────────────────────────────────────────

type stubVendorRepo struct {
	vendors  map[uint]*model.Vendor
	poCounts map[uint]int64
	prices   map[uint][]model.VendorPrice
	nextID   uint
}

var _ repository.VendorRepository = (*stubVendorRepo)(nil)

func newStubVendorRepo() *stubVendorRepo {
	return &stubVendorRepo{
		vendors:  make(map[uint]*model.Vendor),
		poCounts: make(map[uint]int64),
		prices:   make(map[uint][]model.VendorPrice),
	}
}

func (r *stubVendorRepo) seed(name, email string) uint {
	v := &model.Vendor{Name: name, IsActive: true}
	if email != "" {
		v.Email = &email
	}
	_ = r.Create(context.Background(), v)
	return v.ID
}

func (r *stubVendorRepo) Create(_ context.Context, v *model.Vendor) error {
	r.nextID++
	v.ID = r.nextID
	cp := *v
	r.vendors[v.ID] = &cp
	return nil
}

func (r *stubVendorRepo) FindByID(_ context.Context, id uint) (*model.Vendor, error) {
	v, ok := r.vendors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *stubVendorRepo) List(_ context.Context, includeInactive bool) ([]model.Vendor, error) {
	var out []model.Vendor
	for _, v := range r.vendors {
		if v.IsActive || includeInactive {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubVendorRepo) Update(_ context.Context, v *model.Vendor) error {
	if _, ok := r.vendors[v.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *v
	r.vendors[v.ID] = &cp
	return nil
}

func (r *stubVendorRepo) Delete(_ context.Context, id uint) error {
	delete(r.vendors, id)
	delete(r.prices, id)
	return nil
}

func (r *stubVendorRepo) Deactivate(_ context.Context, id uint) error {
	v, ok := r.vendors[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.IsActive = false
	return nil
}

func (r *stubVendorRepo) CountPurchaseOrders(_ context.Context, id uint) (int64, error) {
	return r.poCounts[id], nil
}

func (r *stubVendorRepo) ListPrices(_ context.Context, vendorID uint) ([]model.VendorPrice, error) {
	return r.prices[vendorID], nil
}

// ── Categories ───────────────────────────────────────────────────────────────

type stubCategoryRepo struct {
	categories map[uint]*model.Category
	active     map[uint]int64
	detached   []uint
	nextID     uint
}

var _ repository.CategoryRepository = (*stubCategoryRepo)(nil)

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{
		categories: make(map[uint]*model.Category),
		active:     make(map[uint]int64),
	}
}

func (r *stubCategoryRepo) Create(_ context.Context, c *model.Category) error {
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id uint) (*model.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCategoryRepo) FindByName(_ context.Context, name string) (*model.Category, error) {
	for _, c := range r.categories {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCategoryRepo) List(_ context.Context) ([]repository.CategoryWithCount, error) {
	var out []repository.CategoryWithCount
	for _, c := range r.categories {
		out = append(out, repository.CategoryWithCount{Category: *c, ProductCount: r.active[c.ID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubCategoryRepo) Update(_ context.Context, c *model.Category) error {
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *stubCategoryRepo) CountActiveItems(_ context.Context, id uint) (int64, error) {
	return r.active[id], nil
}

func (r *stubCategoryRepo) DetachItemsTx(_ context.Context, _ *gorm.DB, id uint) error {
	r.detached = append(r.detached, id)
	return nil
}

func (r *stubCategoryRepo) DeleteTx(_ context.Context, _ *gorm.DB, id uint) error {
	delete(r.categories, id)
	return nil
}

func (r *stubCategoryRepo) DB() *gorm.DB { return nil }

// ── Purchase orders ──────────────────────────────────────────────────────────

type stubPurchaseOrderRepo struct {
	orders     map[uint]*model.PurchaseOrder
	nextID     uint
	nextItemID uint
}

var _ repository.PurchaseOrderRepository = (*stubPurchaseOrderRepo)(nil)

func newStubPurchaseOrderRepo() *stubPurchaseOrderRepo {
	return &stubPurchaseOrderRepo{orders: make(map[uint]*model.PurchaseOrder)}
}

func copyPO(po *model.PurchaseOrder) *model.PurchaseOrder {
	cp := *po
	cp.Items = append([]model.PurchaseOrderItem(nil), po.Items...)
	return &cp
}

func (r *stubPurchaseOrderRepo) Create(_ context.Context, _ *gorm.DB, po *model.PurchaseOrder) error {
	for _, existing := range r.orders {
		if existing.ReferenceNumber == po.ReferenceNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	po.ID = r.nextID
	for i := range po.Items {
		r.nextItemID++
		po.Items[i].ID = r.nextItemID
		po.Items[i].PurchaseOrderID = po.ID
	}
	r.orders[po.ID] = copyPO(po)
	return nil
}

func (r *stubPurchaseOrderRepo) FindByID(_ context.Context, id uint) (*model.PurchaseOrder, error) {
	po, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyPO(po), nil
}

func (r *stubPurchaseOrderRepo) FindByIDForUpdateTx(ctx context.Context, _ *gorm.DB, id uint) (*model.PurchaseOrder, error) {
	return r.FindByID(ctx, id)
}

func (r *stubPurchaseOrderRepo) ReferenceExists(_ context.Context, ref string, excludeID uint) (bool, error) {
	for _, po := range r.orders {
		if po.ReferenceNumber == ref && po.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubPurchaseOrderRepo) List(_ context.Context, filter dto.PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error) {
	var out []model.PurchaseOrder
	for _, po := range r.orders {
		if filter.Status != "" && po.Status != filter.Status {
			continue
		}
		out = append(out, *copyPO(po))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubPurchaseOrderRepo) UpdateTx(_ context.Context, _ *gorm.DB, po *model.PurchaseOrder) error {
	stored, ok := r.orders[po.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	items := stored.Items
	*stored = *po
	stored.Items = items
	return nil
}

func (r *stubPurchaseOrderRepo) ReplaceItemsTx(_ context.Context, _ *gorm.DB, poID uint, items []model.PurchaseOrderItem) error {
	stored, ok := r.orders[poID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Items = nil
	for _, it := range items {
		r.nextItemID++
		it.ID = r.nextItemID
		it.PurchaseOrderID = poID
		stored.Items = append(stored.Items, it)
	}
	return nil
}

func (r *stubPurchaseOrderRepo) SetReceivedQuantityTx(_ context.Context, _ *gorm.DB, itemID uint, qty int) error {
	for _, po := range r.orders {
		for i := range po.Items {
			if po.Items[i].ID == itemID {
				po.Items[i].ReceivedQuantity = qty
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubPurchaseOrderRepo) DeleteTx(_ context.Context, _ *gorm.DB, id uint) error {
	delete(r.orders, id)
	return nil
}

func (r *stubPurchaseOrderRepo) DB() *gorm.DB { return nil }

// setStatus forces a status, bypassing the service.
func (r *stubPurchaseOrderRepo) setStatus(id uint, status string) {
	r.orders[id].Status = status
}

// ── Sales orders ─────────────────────────────────────────────────────────────

type stubOrderRepo struct {
	orders map[uint]*model.Order
	nextID uint
}

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uint]*model.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, _ *gorm.DB, o *model.Order) error {
	r.nextID++
	o.ID = r.nextID
	for i := range o.Items {
		o.Items[i].ID = uint(i + 1)
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	r.orders[o.ID] = &cp
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uint) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (r *stubOrderRepo) List(_ context.Context, _ dto.OrderFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) Update(_ context.Context, o *model.Order) error {
	stored, ok := r.orders[o.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	items := stored.Items
	*stored = *o
	stored.Items = items
	return nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

// ── Users ────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uint]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username || strings.EqualFold(u.Email, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uint) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, id uint, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uint) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = false
	return nil
}

// ── Audit ────────────────────────────────────────────────────────────────────

// spyRecorder captures entries instead of persisting them.
type spyRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (s *spyRecorder) Record(_ context.Context, e AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *spyRecorder) byAction(action string) []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AuditEntry
	for _, e := range s.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type stubAuditRepo struct {
	mu       sync.Mutex
	logs     []model.AuditLog
	failWith error
}

var _ repository.AuditRepository = (*stubAuditRepo)(nil)

func (r *stubAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	entry.ID = uint(len(r.logs) + 1)
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *stubAuditRepo) List(_ context.Context, _ dto.AuditLogFilter) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AuditLog(nil), r.logs...), int64(len(r.logs)), nil
}

func (r *stubAuditRepo) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []model.AuditLog
	var n int64
	for _, l := range r.logs {
		if l.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, l)
	}
	r.logs = kept
	return n, nil
}

// ── References ───────────────────────────────────────────────────────────────

type seqReferences struct{ n int }

func (s *seqReferences) NewReference() string {
	s.n++
	return fmt.Sprintf("PO-TEST-%03d", s.n)
}
