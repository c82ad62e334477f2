package handler

import (
	"net/http"

	"stockroom/internal/dto"
	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct{ svc service.AuditService }

func NewAuditHandler(svc service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// List godoc
// @Summary Browse the audit trail
// @Tags admin
// @Produce json
// @Param table_name query string false "Table name"
// @Param action query string false "Action"
// @Param user_id query int false "Actor"
// @Success 200 {object} dto.AuditLogListResponse
// @Router /api/admin/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	var filter dto.AuditLogFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Purge deletes entries older than ?before=YYYY-MM-DD.
func (h *AuditHandler) Purge(c *gin.Context) {
	var req dto.PurgeAuditLogsRequest
	if !bindQuery(c, &req) {
		return
	}
	resp, err := h.svc.Purge(c.Request.Context(), actorFrom(c), req.Before)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
