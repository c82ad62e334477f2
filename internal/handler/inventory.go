package handler

import (
	"net/http"

	"stockroom/internal/dto"
	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// List godoc
// @Summary List inventory items
// @Tags inventory
// @Produce json
// @Param search query string false "Name or SKU"
// @Param category_id query int false "Category"
// @Param status query string false "low_stock | out_of_stock"
// @Success 200 {object} dto.InventoryListResponse
// @Router /api/inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	var filter dto.InventoryFilter
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

func (h *InventoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) Create(c *gin.Context) {
	var req dto.CreateInventoryItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateInventoryItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete deactivates the item; its history stays intact.
func (h *InventoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item deactivated"})
}

// Movements godoc
// @Summary Stock movement journal of one item
// @Tags inventory
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} dto.StockMovementListResponse
// @Router /api/inventory/{id}/movements [get]
func (h *InventoryHandler) Movements(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var filter dto.MovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Movements(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
