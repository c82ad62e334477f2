package handler

import (
	"net/http"
	"strconv"

	"stockroom/internal/dto"
	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
)

type VendorsHandler struct{ svc service.VendorService }

func NewVendorsHandler(svc service.VendorService) *VendorsHandler {
	return &VendorsHandler{svc: svc}
}

func (h *VendorsHandler) List(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
	resp, err := h.svc.List(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VendorsHandler) Get(c *gin.Context) {
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

func (h *VendorsHandler) Create(c *gin.Context) {
	var req dto.CreateVendorRequest
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

func (h *VendorsHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateVendorRequest
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

// Delete godoc
// @Summary Delete a vendor, or deactivate it when purchase orders reference it
// @Tags vendors
// @Produce json
// @Param id path int true "Vendor ID"
// @Success 200 {object} dto.VendorDeleteResponse
// @Router /api/vendors/{id} [delete]
func (h *VendorsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Delete(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
