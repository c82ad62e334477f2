package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"stockroom/internal/dto"
	"stockroom/internal/infra"
	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
)

type PurchaseOrdersHandler struct {
	svc         service.PurchaseOrderService
	companyName string
}

func NewPurchaseOrdersHandler(svc service.PurchaseOrderService, companyName string) *PurchaseOrdersHandler {
	return &PurchaseOrdersHandler{svc: svc, companyName: companyName}
}

func (h *PurchaseOrdersHandler) List(c *gin.Context) {
	var filter dto.PurchaseOrderFilter
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

// Create godoc
// @Summary Create a draft purchase order
// @Tags purchase-orders
// @Accept json
// @Produce json
// @Param body body dto.CreatePurchaseOrderRequest true "Purchase order"
// @Success 201 {object} dto.PurchaseOrderResponse
// @Failure 409 {object} apierror.APIError "reference number taken"
// @Router /api/purchase-orders [post]
func (h *PurchaseOrdersHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
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

func (h *PurchaseOrdersHandler) Get(c *gin.Context) {
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

func (h *PurchaseOrdersHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePurchaseOrderRequest
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

func (h *PurchaseOrdersHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetStatus godoc
// @Summary Move a purchase order to draft, submitted, approved or canceled
// @Tags purchase-orders
// @Accept json
// @Produce json
// @Param id path int true "Purchase order ID"
// @Param body body dto.SetPurchaseOrderStatusRequest true "Target status"
// @Success 200 {object} dto.PurchaseOrderResponse
// @Failure 400 {object} apierror.APIError "invalid transition"
// @Router /api/purchase-orders/{id}/status [put]
func (h *PurchaseOrdersHandler) SetStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetPurchaseOrderStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetStatus(c.Request.Context(), actorFrom(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Receive godoc
// @Summary Record received quantities and add them to stock
// @Tags purchase-orders
// @Accept json
// @Produce json
// @Param id path int true "Purchase order ID"
// @Param body body dto.ReceivePurchaseOrderRequest true "Received lines"
// @Success 200 {object} dto.PurchaseOrderResponse
// @Router /api/purchase-orders/{id}/receive [post]
func (h *PurchaseOrdersHandler) Receive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ReceivePurchaseOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Receive(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF streams the purchase order document.
func (h *PurchaseOrdersHandler) PDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	po, err := h.svc.Model(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := infra.WritePurchaseOrderPDF(&buf, po, h.companyName); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, po.ReferenceNumber))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
