// Package http provides HTTP handlers for customer management operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/orders/internal/customer/http/dto"
	customerUseCase "github.com/allisson/orders/internal/customer/usecase"
	"github.com/allisson/orders/internal/httputil"
	customValidation "github.com/allisson/orders/internal/validation"
)

// CustomerHandler handles HTTP requests for customer management operations.
type CustomerHandler struct {
	customerUseCase customerUseCase.CustomerUseCase
	logger          *slog.Logger
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(useCase customerUseCase.CustomerUseCase, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerUseCase: useCase,
		logger:          logger,
	}
}

// CreateHandler registers a customer.
// POST /v1/customers
func (h *CustomerHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	customer, err := h.customerUseCase.CreateCustomer(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCustomerToResponse(customer))
}

// GetHandler retrieves a customer by id.
// GET /v1/customers/:id
func (h *CustomerHandler) GetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid customer id: %w", err), h.logger)
		return
	}

	customer, err := h.customerUseCase.GetCustomer(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCustomerToResponse(customer))
}

// ListHandler retrieves customers with pagination.
// GET /v1/customers?offset=0&limit=50
func (h *CustomerHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	customers, err := h.customerUseCase.ListCustomers(c.Request.Context(), limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCustomersToListResponse(customers))
}

// UpdateHandler applies a partial customer update.
// PATCH /v1/customers/:id
func (h *CustomerHandler) UpdateHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid customer id: %w", err), h.logger)
		return
	}

	var req dto.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	customer, err := h.customerUseCase.UpdateCustomer(c.Request.Context(), id, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCustomerToResponse(customer))
}

// DeleteHandler soft deletes a customer.
// DELETE /v1/customers/:id
func (h *CustomerHandler) DeleteHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid customer id: %w", err), h.logger)
		return
	}

	if err := h.customerUseCase.DeleteCustomer(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
