package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"uniworld/internal/core/apperror"
	appctx "uniworld/internal/core/context"
	"uniworld/internal/core/id"
	"uniworld/internal/domain"
	"uniworld/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// GetUserID extracts the acting user from request context.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return appctx.GetActorID(c.Request.Context())
}

// PathID parses the :id path parameter.
func (h *BaseHandler) PathID(c *gin.Context) (id.ID, bool) {
	return h.PathIDParam(c, "id")
}

// PathIDParam parses a named UUID path parameter.
func (h *BaseHandler) PathIDParam(c *gin.Context, name string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").WithDetail(name, c.Param(name)))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseID parses a UUID from a request body field.
func (h *BaseHandler) ParseID(c *gin.Context, value string) (id.ID, bool) {
	parsed, err := id.Parse(value)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").WithDetail("id", value))
		return id.Nil(), false
	}
	return parsed, true
}

// ListFilter builds a standard list filter from query parameters.
func (h *BaseHandler) ListFilter(c *gin.Context) domain.ListFilter {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.OrderBy = c.Query("orderBy")
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	return filter
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, id string) {
	c.JSON(http.StatusCreated, dto.IDResponse{ID: id})
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
