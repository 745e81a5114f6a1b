package handlers

import (
	"github.com/gin-gonic/gin"

	"uniworld/internal/core/apperror"
	"uniworld/internal/domain"
	"uniworld/internal/domain/catalogs/product"
	"uniworld/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product catalog.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// List handles GET /catalog/products.
func (h *ProductHandler) List(c *gin.Context) {
	filter := h.ListFilter(c)

	var (
		result domain.ListResult[*product.Product]
		err    error
	)
	if c.Query("lowStock") == "true" {
		result, err = h.service.FindLowStock(c.Request.Context(), filter)
	} else {
		result, err = h.service.List(c.Request.Context(), filter)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromProducts(result.Items)))
}

// Create handles POST /catalog/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid amount").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID.String())
}

// Get handles GET /catalog/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

// Update handles PUT /catalog/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(p); err != nil {
		h.Error(c, apperror.NewValidation("invalid amount").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

// Delete handles DELETE /catalog/products/:id (soft delete).
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
