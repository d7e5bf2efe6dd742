package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	catalogDomain "github.com/allisson/orders/internal/catalog/domain"
	orderDomain "github.com/allisson/orders/internal/order/domain"
	"github.com/allisson/orders/internal/order/http/dto"
	orderRepository "github.com/allisson/orders/internal/order/repository"
	orderUseCase "github.com/allisson/orders/internal/order/usecase"
)

// MockOrderUseCase is a mock implementation of orderUseCase.OrderUseCase.
type MockOrderUseCase struct {
	mock.Mock
}

func (m *MockOrderUseCase) CreateOrder(ctx context.Context, input orderUseCase.CreateOrderInput) (*orderDomain.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderDomain.Order), args.Error(1)
}

func (m *MockOrderUseCase) GetOrder(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderDomain.Order), args.Error(1)
}

func (m *MockOrderUseCase) GetOrderByNumber(ctx context.Context, orderNumber string) (*orderDomain.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderDomain.Order), args.Error(1)
}

func (m *MockOrderUseCase) ListOrders(ctx context.Context, filter orderRepository.ListFilter) ([]*orderDomain.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*orderDomain.Order), args.Error(1)
}

func (m *MockOrderUseCase) UpdateStatus(ctx context.Context, id uuid.UUID, input orderUseCase.UpdateStatusInput) (*orderDomain.Order, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderDomain.Order), args.Error(1)
}

func (m *MockOrderUseCase) CancelOrder(ctx context.Context, id uuid.UUID, actor, note string) (*orderDomain.Order, error) {
	args := m.Called(ctx, id, actor, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderDomain.Order), args.Error(1)
}

func (m *MockOrderUseCase) UpdateItems(ctx context.Context, id uuid.UUID, items []orderUseCase.CreateOrderItemInput) (*orderDomain.Order, error) {
	args := m.Called(ctx, id, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderDomain.Order), args.Error(1)
}

func (m *MockOrderUseCase) ClearExpiredIdempotencyKeys(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// setupTestHandler creates a test handler with a mocked use case.
func setupTestHandler(t *testing.T) (*OrderHandler, *MockOrderUseCase) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockUseCase := &MockOrderUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrderHandler(mockUseCase, logger), mockUseCase
}

// createTestContext builds a gin test context with an optional JSON body.
func createTestContext(method, target string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func testOrder() *orderDomain.Order {
	now := time.Now().UTC()
	orderID := uuid.Must(uuid.NewV7())
	previous := orderDomain.OrderStatusPending
	return &orderDomain.Order{
		ID:          orderID,
		OrderNumber: "ORD-20250101-AB12CD",
		CustomerID:  uuid.Must(uuid.NewV7()),
		Status:      orderDomain.OrderStatusConfirmed,
		TotalCents:  3000,
		Items: []*orderDomain.OrderItem{
			{
				ID:             uuid.Must(uuid.NewV7()),
				OrderID:        orderID,
				ProductID:      uuid.Must(uuid.NewV7()),
				Quantity:       2,
				UnitPriceCents: 1500,
				SubtotalCents:  3000,
			},
		},
		History: []*orderDomain.StatusHistory{
			{OrderID: orderID, NewStatus: orderDomain.OrderStatusPending, Actor: "system", CreatedAt: now},
			{OrderID: orderID, PreviousStatus: &previous, NewStatus: orderDomain.OrderStatusConfirmed, Actor: "admin", CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderHandler_CreateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		order := testOrder()

		request := dto.CreateOrderRequest{
			CustomerID: order.CustomerID,
			Items: []dto.OrderItemRequest{
				{ProductID: order.Items[0].ProductID, Quantity: 2},
			},
		}

		mockUseCase.On("CreateOrder", mock.Anything, mock.MatchedBy(func(input orderUseCase.CreateOrderInput) bool {
			return input.IdempotencyKey == "req-0001" && input.CustomerID == order.CustomerID
		})).Return(order, nil)

		c, w := createTestContext(http.MethodPost, "/v1/orders", request)
		c.Request.Header.Set(IdempotencyKeyHeader, "req-0001")

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.OrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, order.OrderNumber, response.OrderNumber)
		assert.Equal(t, int64(3000), response.TotalCents)
		assert.Len(t, response.Items, 1)
	})

	t.Run("MissingIdempotencyKeyHeader", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/orders", dto.CreateOrderRequest{})

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("WhitespaceIdempotencyKey", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/orders", dto.CreateOrderRequest{})
		c.Request.Header.Set(IdempotencyKeyHeader, "req-0001 ")

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewReader([]byte("{not json")))
		c.Request.Header.Set(IdempotencyKeyHeader, "req-0001")

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("EmptyItems", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		request := dto.CreateOrderRequest{CustomerID: uuid.Must(uuid.NewV7())}
		c, w := createTestContext(http.MethodPost, "/v1/orders", request)
		c.Request.Header.Set(IdempotencyKeyHeader, "req-0001")

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("InsufficientStock", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		productID := uuid.Must(uuid.NewV7())
		request := dto.CreateOrderRequest{
			CustomerID: uuid.Must(uuid.NewV7()),
			Items:      []dto.OrderItemRequest{{ProductID: productID, Quantity: 5}},
		}

		mockUseCase.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, &catalogDomain.InsufficientStockError{
			ProductID: productID,
			SKU:       "SKU-0001",
			Requested: 5,
			Available: 2,
		})

		c, w := createTestContext(http.MethodPost, "/v1/orders", request)
		c.Request.Header.Set(IdempotencyKeyHeader, "req-0001")

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "insufficient stock")
	})
}

func TestOrderHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		order := testOrder()

		mockUseCase.On("GetOrder", mock.Anything, order.ID).Return(order, nil)

		c, w := createTestContext(http.MethodGet, "/v1/orders/"+order.ID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: order.ID.String()}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.OrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.History, 2)
		assert.Nil(t, response.History[0].PreviousStatus)
		require.NotNil(t, response.History[1].PreviousStatus)
		assert.Equal(t, "PENDING", *response.History[1].PreviousStatus)
	})

	t.Run("InvalidID", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/orders/not-a-uuid", nil)
		c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		id := uuid.Must(uuid.NewV7())

		mockUseCase.On("GetOrder", mock.Anything, id).Return(nil, orderDomain.ErrOrderNotFound)

		c, w := createTestContext(http.MethodGet, "/v1/orders/"+id.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderHandler_GetByNumberHandler(t *testing.T) {
	handler, mockUseCase := setupTestHandler(t)
	order := testOrder()

	mockUseCase.On("GetOrderByNumber", mock.Anything, order.OrderNumber).Return(order, nil)

	c, w := createTestContext(http.MethodGet, "/v1/orders/number/"+order.OrderNumber, nil)
	c.Params = gin.Params{{Key: "orderNumber", Value: order.OrderNumber}}

	handler.GetByNumberHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderHandler_ListHandler(t *testing.T) {
	t.Run("WithFilters", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		order := testOrder()

		mockUseCase.On("ListOrders", mock.Anything, mock.MatchedBy(func(filter orderRepository.ListFilter) bool {
			return filter.Status != nil && *filter.Status == orderDomain.OrderStatusConfirmed &&
				filter.CustomerID != nil && *filter.CustomerID == order.CustomerID &&
				filter.Limit == 10 && filter.Offset == 0
		})).Return([]*orderDomain.Order{order}, nil)

		target := "/v1/orders?limit=10&status=CONFIRMED&customer_id=" + order.CustomerID.String()
		c, w := createTestContext(http.MethodGet, target, nil)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListOrdersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 1, response.Count)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/orders?status=TELEPORTED", nil)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestOrderHandler_UpdateStatusHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		order := testOrder()

		request := dto.UpdateStatusRequest{Status: "CONFIRMED", Actor: "admin"}
		mockUseCase.On("UpdateStatus", mock.Anything, order.ID, orderUseCase.UpdateStatusInput{
			Status: orderDomain.OrderStatusConfirmed,
			Actor:  "admin",
		}).Return(order, nil)

		c, w := createTestContext(http.MethodPut, "/v1/orders/"+order.ID.String()+"/status", request)
		c.Params = gin.Params{{Key: "id", Value: order.ID.String()}}

		handler.UpdateStatusHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("InvalidTransition", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		id := uuid.Must(uuid.NewV7())

		request := dto.UpdateStatusRequest{Status: "SHIPPED", Actor: "admin"}
		mockUseCase.On("UpdateStatus", mock.Anything, id, mock.Anything).Return(nil, &orderDomain.InvalidTransitionError{
			Current:   orderDomain.OrderStatusPending,
			Requested: orderDomain.OrderStatusShipped,
		})

		c, w := createTestContext(http.MethodPut, "/v1/orders/"+id.String()+"/status", request)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.UpdateStatusHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "PENDING")
	})

	t.Run("MissingActor", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		id := uuid.Must(uuid.NewV7())

		request := dto.UpdateStatusRequest{Status: "CONFIRMED"}
		c, w := createTestContext(http.MethodPut, "/v1/orders/"+id.String()+"/status", request)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.UpdateStatusHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderHandler_CancelHandler(t *testing.T) {
	handler, mockUseCase := setupTestHandler(t)
	order := testOrder()
	order.Status = orderDomain.OrderStatusCancelled

	request := dto.CancelOrderRequest{Actor: "customer", Note: "changed my mind"}
	mockUseCase.On("CancelOrder", mock.Anything, order.ID, "customer", "changed my mind").Return(order, nil)

	c, w := createTestContext(http.MethodPost, "/v1/orders/"+order.ID.String()+"/cancel", request)
	c.Params = gin.Params{{Key: "id", Value: order.ID.String()}}

	handler.CancelHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "CANCELLED", response.Status)
}

func TestOrderHandler_UpdateItemsHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		order := testOrder()

		request := dto.UpdateItemsRequest{
			Items: []dto.OrderItemRequest{{ProductID: order.Items[0].ProductID, Quantity: 3}},
		}
		mockUseCase.On("UpdateItems", mock.Anything, order.ID, mock.Anything).Return(order, nil)

		c, w := createTestContext(http.MethodPut, "/v1/orders/"+order.ID.String()+"/items", request)
		c.Params = gin.Params{{Key: "id", Value: order.ID.String()}}

		handler.UpdateItemsHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("OrderLocked", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		id := uuid.Must(uuid.NewV7())

		request := dto.UpdateItemsRequest{
			Items: []dto.OrderItemRequest{{ProductID: uuid.Must(uuid.NewV7()), Quantity: 1}},
		}
		mockUseCase.On("UpdateItems", mock.Anything, id, mock.Anything).Return(nil, orderDomain.ErrOrderLocked)

		c, w := createTestContext(http.MethodPut, "/v1/orders/"+id.String()+"/items", request)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.UpdateItemsHandler(c)

		assert.Equal(t, http.StatusLocked, w.Code)
	})
}
