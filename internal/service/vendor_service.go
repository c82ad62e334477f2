package service

import (
	"context"
	"strings"

	"stockroom/internal/apierror"
	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"
)

const tableVendors = "vendors"

// VendorService manages suppliers. Vendors referenced by purchase orders are
// deactivated instead of deleted.
type VendorService interface {
	List(ctx context.Context, includeInactive bool) ([]dto.VendorResponse, error)
	Get(ctx context.Context, id uint) (*dto.VendorResponse, error)
	Create(ctx context.Context, actor Actor, req dto.CreateVendorRequest) (*dto.VendorResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.UpdateVendorRequest) (*dto.VendorResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) (*dto.VendorDeleteResponse, error)
}

type vendorService struct {
	repo  repository.VendorRepository
	audit AuditRecorder
}

func NewVendorService(repo repository.VendorRepository, audit AuditRecorder) VendorService {
	return &vendorService{repo: repo, audit: audit}
}

func (s *vendorService) List(ctx context.Context, includeInactive bool) ([]dto.VendorResponse, error) {
	vendors, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, storeErr(err, "vendors")
	}
	out := make([]dto.VendorResponse, 0, len(vendors))
	for i := range vendors {
		out = append(out, *vendorToResponse(&vendors[i], nil))
	}
	return out, nil
}

func (s *vendorService) Get(ctx context.Context, id uint) (*dto.VendorResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "vendor %d", id)
	}
	prices, err := s.repo.ListPrices(ctx, id)
	if err != nil {
		return nil, storeErr(err, "vendor %d prices", id)
	}
	return vendorToResponse(v, prices), nil
}

func (s *vendorService) Create(ctx context.Context, actor Actor, req dto.CreateVendorRequest) (*dto.VendorResponse, error) {
	if err := requireRole(actor, model.RoleAdmin, model.RoleStaff); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("name is required")
	}
	v := &model.Vendor{
		Name:          name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, storeErr(err, "vendor %s", name)
	}
	resp := vendorToResponse(v, nil)
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditCreate, Table: tableVendors, RecordID: v.ID, New: resp,
	})
	return resp, nil
}

func (s *vendorService) Update(ctx context.Context, actor Actor, id uint, req dto.UpdateVendorRequest) (*dto.VendorResponse, error) {
	if err := requireRole(actor, model.RoleAdmin, model.RoleStaff); err != nil {
		return nil, err
	}
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "vendor %d", id)
	}
	before := vendorToResponse(v, nil)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apierror.Validation("name must not be empty")
		}
		v.Name = name
	}
	if req.ContactPerson != nil {
		v.ContactPerson = req.ContactPerson
	}
	if req.Email != nil {
		v.Email = req.Email
	}
	if req.Phone != nil {
		v.Phone = req.Phone
	}
	if req.Address != nil {
		v.Address = req.Address
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, storeErr(err, "vendor %d", id)
	}
	after := vendorToResponse(v, nil)
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditUpdate, Table: tableVendors, RecordID: id, Old: before, New: after,
	})
	return after, nil
}

func (s *vendorService) Delete(ctx context.Context, actor Actor, id uint) (*dto.VendorDeleteResponse, error) {
	if err := requireRole(actor, model.RoleAdmin, model.RoleStaff); err != nil {
		return nil, err
	}
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "vendor %d", id)
	}
	history, err := s.repo.CountPurchaseOrders(ctx, id)
	if err != nil {
		return nil, storeErr(err, "vendor %d", id)
	}

	resp := &dto.VendorDeleteResponse{ID: id}
	if history > 0 {
		if err := s.repo.Deactivate(ctx, id); err != nil {
			return nil, storeErr(err, "vendor %d", id)
		}
		resp.Deactivated = true
	} else if err := s.repo.Delete(ctx, id); err != nil {
		return nil, storeErr(err, "vendor %d", id)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditDelete, Table: tableVendors, RecordID: id,
		Old: vendorToResponse(v, nil),
		New: resp,
	})
	return resp, nil
}

func vendorToResponse(v *model.Vendor, prices []model.VendorPrice) *dto.VendorResponse {
	resp := &dto.VendorResponse{
		ID:            v.ID,
		Name:          v.Name,
		ContactPerson: v.ContactPerson,
		Email:         v.Email,
		Phone:         v.Phone,
		Address:       v.Address,
		IsActive:      v.IsActive,
		CreatedAt:     v.CreatedAt,
	}
	for _, p := range prices {
		r := dto.VendorPriceResponse{
			VendorID:    v.ID,
			VendorName:  v.Name,
			InventoryID: p.InventoryID,
			UnitPrice:   p.UnitPrice,
			IsPreferred: p.IsPreferred,
		}
		if p.Inventory != nil {
			r.ItemName = p.Inventory.Name
		}
		resp.Prices = append(resp.Prices, r)
	}
	return resp
}
