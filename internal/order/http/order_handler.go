// Package http provides HTTP handlers for order lifecycle operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/orders/internal/httputil"
	orderDomain "github.com/allisson/orders/internal/order/domain"
	"github.com/allisson/orders/internal/order/http/dto"
	orderRepository "github.com/allisson/orders/internal/order/repository"
	orderUseCase "github.com/allisson/orders/internal/order/usecase"
	customValidation "github.com/allisson/orders/internal/validation"
)

// IdempotencyKeyHeader carries the client-supplied deduplication key.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler handles HTTP requests for order lifecycle operations.
type OrderHandler struct {
	orderUseCase orderUseCase.OrderUseCase
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(useCase orderUseCase.OrderUseCase, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderUseCase: useCase,
		logger:       logger,
	}
}

// CreateHandler creates an order, reserving stock atomically.
// POST /v1/orders with an Idempotency-Key header.
// Replays carrying a known key return the original order with the same status.
func (h *OrderHandler) CreateHandler(c *gin.Context) {
	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
	if idempotencyKey == "" {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("%s header is required", IdempotencyKeyHeader),
			h.logger,
		)
		return
	}
	if err := customValidation.NoWhitespace.Validate(idempotencyKey); err != nil {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("%s header is invalid: %w", IdempotencyKeyHeader, err),
			h.logger,
		)
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	order, err := h.orderUseCase.CreateOrder(c.Request.Context(), req.ToInput(idempotencyKey))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapOrderToResponse(order))
}

// GetHandler retrieves an order with its items and status history.
// GET /v1/orders/:id
func (h *OrderHandler) GetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid order id: %w", err), h.logger)
		return
	}

	order, err := h.orderUseCase.GetOrder(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToResponse(order))
}

// GetByNumberHandler retrieves an order by its human-readable number.
// GET /v1/orders/number/:orderNumber
func (h *OrderHandler) GetByNumberHandler(c *gin.Context) {
	orderNumber := c.Param("orderNumber")
	if orderNumber == "" {
		httputil.HandleBadRequestGin(c, fmt.Errorf("order number is required"), h.logger)
		return
	}

	order, err := h.orderUseCase.GetOrderByNumber(c.Request.Context(), orderNumber)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToResponse(order))
}

// ListHandler retrieves orders with pagination and optional filters.
// GET /v1/orders?offset=0&limit=50&status=PENDING&customer_id=...
func (h *OrderHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter := orderRepository.ListFilter{Limit: limit, Offset: offset}

	if statusStr := c.Query("status"); statusStr != "" {
		status := orderDomain.OrderStatus(statusStr)
		if !status.IsValid() {
			httputil.HandleValidationErrorGin(c, fmt.Errorf("unknown order status: %s", statusStr), h.logger)
			return
		}
		filter.Status = &status
	}

	if customerIDStr := c.Query("customer_id"); customerIDStr != "" {
		customerID, err := uuid.Parse(customerIDStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid customer_id: %w", err), h.logger)
			return
		}
		filter.CustomerID = &customerID
	}

	orders, err := h.orderUseCase.ListOrders(c.Request.Context(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrdersToListResponse(orders))
}

// UpdateStatusHandler applies a state machine transition.
// PUT /v1/orders/:id/status
func (h *OrderHandler) UpdateStatusHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid order id: %w", err), h.logger)
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	order, err := h.orderUseCase.UpdateStatus(c.Request.Context(), id, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToResponse(order))
}

// CancelHandler cancels an order, releasing its reserved stock.
// POST /v1/orders/:id/cancel
func (h *OrderHandler) CancelHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid order id: %w", err), h.logger)
		return
	}

	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	order, err := h.orderUseCase.CancelOrder(c.Request.Context(), id, req.Actor, req.Note)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToResponse(order))
}

// UpdateItemsHandler replaces the line items of a pending order.
// PUT /v1/orders/:id/items
func (h *OrderHandler) UpdateItemsHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid order id: %w", err), h.logger)
		return
	}

	var req dto.UpdateItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	order, err := h.orderUseCase.UpdateItems(c.Request.Context(), id, req.ToInputs())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToResponse(order))
}
