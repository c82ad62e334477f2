package service

import (
	"context"
	"strings"

	"stockroom/internal/apierror"
	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"gorm.io/gorm"
)

const tableCategories = "categories"

// CategoryService defines business operations for item categories.
type CategoryService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	List(ctx context.Context) ([]dto.CategoryResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error)
	// Delete refuses while the category still holds active items.
	Delete(ctx context.Context, actor Actor, id uint) error
}

type categoryService struct {
	repo  repository.CategoryRepository
	audit AuditRecorder
}

func NewCategoryService(repo repository.CategoryRepository, audit AuditRecorder) CategoryService {
	return &categoryService{repo: repo, audit: audit}
}

func mapCategory(c model.Category, count int64) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		ProductCount: count,
	}
}

func (s *categoryService) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil && !isNotFound(err) {
		return storeErr(err, "category %s", name)
	}
	if err == nil && existing.ID != selfID {
		return apierror.Conflict("category %s already exists", name)
	}
	return nil
}

func (s *categoryService) Create(ctx context.Context, actor Actor, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("name is required")
	}
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	c := &model.Category{Name: name, Description: req.Description}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, storeErr(err, "category %s", name)
	}
	resp := mapCategory(*c, 0)
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditCreate, Table: tableCategories, RecordID: c.ID, New: resp,
	})
	return &resp, nil
}

func (s *categoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr(err, "categories")
	}
	result := make([]dto.CategoryResponse, 0, len(rows))
	for _, r := range rows {
		result = append(result, mapCategory(r.Category, r.ProductCount))
	}
	return result, nil
}

func (s *categoryService) Update(ctx context.Context, actor Actor, id uint, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "category %d", id)
	}
	before := mapCategory(*c, 0)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apierror.Validation("name must not be empty")
		}
		if !strings.EqualFold(name, c.Name) {
			if err := s.ensureNameFree(ctx, name, id); err != nil {
				return nil, err
			}
		}
		c.Name = name
	}
	if req.Description != nil {
		c.Description = req.Description
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, storeErr(err, "category %d", id)
	}
	count, err := s.repo.CountActiveItems(ctx, id)
	if err != nil {
		return nil, storeErr(err, "category %d", id)
	}
	after := mapCategory(*c, count)
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditUpdate, Table: tableCategories, RecordID: id, Old: before, New: after,
	})
	return &after, nil
}

func (s *categoryService) Delete(ctx context.Context, actor Actor, id uint) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeErr(err, "category %d", id)
	}
	count, err := s.repo.CountActiveItems(ctx, id)
	if err != nil {
		return storeErr(err, "category %d", id)
	}
	if count > 0 {
		return apierror.Conflict("category %s still holds %d active items", c.Name, count)
	}

	// Inactive items keep existing without a category.
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.DetachItemsTx(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return storeErr(err, "category %d", id)
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditDelete, Table: tableCategories, RecordID: id, Old: mapCategory(*c, 0),
	})
	return nil
}
