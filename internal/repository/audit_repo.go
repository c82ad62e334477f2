package repository

import (
	"context"
	"time"

	"stockroom/internal/dto"
	"stockroom/internal/model"

	"gorm.io/gorm"
)

// AuditRepository only appends and reads. DeleteBefore is the admin purge path.
type AuditRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter dto.AuditLogFilter) ([]model.AuditLog, int64, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Create(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepo) List(ctx context.Context, filter dto.AuditLogFilter) ([]model.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if filter.TableName != "" {
		q = q.Where("table_name = ?", filter.TableName)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := page(filter.Page, filter.Limit, 50, 200)
	var logs []model.AuditLog
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, total, err
}

func (r *auditRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", before).Delete(&model.AuditLog{})
	return res.RowsAffected, res.Error
}
