package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogDomain "github.com/allisson/orders/internal/catalog/domain"
	apperrors "github.com/allisson/orders/internal/errors"
	orderDomain "github.com/allisson/orders/internal/order/domain"
)

func setupGinContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return response
}

func TestHandleErrorGin(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "NotFound",
			err:        orderDomain.ErrOrderNotFound,
			wantStatus: http.StatusNotFound,
			wantError:  "not_found",
		},
		{
			name: "InsufficientStockIsConflict",
			err: &catalogDomain.InsufficientStockError{
				ProductID: uuid.Must(uuid.NewV7()),
				SKU:       "SKU-0001",
				Requested: 5,
				Available: 2,
			},
			wantStatus: http.StatusConflict,
			wantError:  "conflict",
		},
		{
			name:       "DuplicateIdempotencyKeyIsConflict",
			err:        orderDomain.ErrDuplicateIdempotencyKey,
			wantStatus: http.StatusConflict,
			wantError:  "conflict",
		},
		{
			name: "InvalidTransitionIsInvalidInput",
			err: &orderDomain.InvalidTransitionError{
				Current:   orderDomain.OrderStatusDelivered,
				Requested: orderDomain.OrderStatusCancelled,
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "invalid_input",
		},
		{
			name:       "LockedOrderItems",
			err:        orderDomain.ErrOrderLocked,
			wantStatus: http.StatusLocked,
			wantError:  "locked",
		},
		{
			name:       "Unavailable",
			err:        apperrors.ErrUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "unavailable",
		},
		{
			name:       "UnknownErrorIsInternal",
			err:        apperrors.New("database exploded"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, recorder := setupGinContext()

			HandleErrorGin(c, tt.err, nil)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			response := decodeError(t, recorder)
			assert.Equal(t, tt.wantError, response.Error)
		})
	}
}

func TestHandleErrorGin_InternalErrorHidesDetails(t *testing.T) {
	c, recorder := setupGinContext()

	HandleErrorGin(c, apperrors.New("password=hunter2 leaked"), nil)

	response := decodeError(t, recorder)
	assert.NotContains(t, response.Message, "hunter2")
}

func TestHandleBadRequestGin(t *testing.T) {
	c, recorder := setupGinContext()

	HandleBadRequestGin(c, apperrors.New("invalid json"), nil)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	response := decodeError(t, recorder)
	assert.Equal(t, "bad_request", response.Error)
}

func TestHandleValidationErrorGin(t *testing.T) {
	c, recorder := setupGinContext()

	HandleValidationErrorGin(c, apperrors.New("quantity: must be no less than 1"), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	response := decodeError(t, recorder)
	assert.Equal(t, "validation_error", response.Error)
}
