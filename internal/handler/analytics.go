package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AnalyticsHandler struct{ svc service.AnalyticsService }

func NewAnalyticsHandler(svc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) LowStock(c *gin.Context) {
	resp, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) InventoryValue(c *gin.Context) {
	resp, err := h.svc.InventoryValue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportInventory godoc
// @Summary Download active inventory as an Excel workbook
// @Tags analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /api/analytics/inventory-export [get]
func (h *AnalyticsHandler) ExportInventory(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.ExportInventory(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	name := fmt.Sprintf("inventory_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *AnalyticsHandler) SystemStats(c *gin.Context) {
	resp, err := h.svc.SystemStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
