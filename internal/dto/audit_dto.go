package dto

import (
	"time"

	"stockroom/internal/model"
)

type AuditLogFilter struct {
	TableName string `form:"table_name"`
	Action    string `form:"action"`
	UserID    uint   `form:"user_id"`
	Page      int    `form:"page,default=1"      validate:"min=1"`
	Limit     int    `form:"per_page,default=50" validate:"min=1,max=200"`
}

type PurgeAuditLogsRequest struct {
	Before time.Time `form:"before" time_format:"2006-01-02" binding:"required"`
}

type AuditLogListResponse struct {
	Data       []model.AuditLog `json:"data"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
}

type PurgeAuditLogsResponse struct {
	Deleted int64 `json:"deleted"`
}
