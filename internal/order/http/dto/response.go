package dto

import (
	"time"

	orderDomain "github.com/allisson/orders/internal/order/domain"
)

// OrderItemResponse represents a line item in API responses.
type OrderItemResponse struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

// StatusHistoryResponse represents a status transition in API responses.
type StatusHistoryResponse struct {
	PreviousStatus *string   `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Actor          string    `json:"actor"`
	Note           string    `json:"note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID          string                  `json:"id"`
	OrderNumber string                  `json:"order_number"`
	CustomerID  string                  `json:"customer_id"`
	Status      string                  `json:"status"`
	TotalCents  int64                   `json:"total_cents"`
	Notes       string                  `json:"notes,omitempty"`
	Items       []OrderItemResponse     `json:"items"`
	History     []StatusHistoryResponse `json:"history,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// ListOrdersResponse represents a paginated order list.
type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
	Count  int             `json:"count"`
}

// MapOrderToResponse converts a domain order to an API response.
func MapOrderToResponse(order *orderDomain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:             item.ID.String(),
			ProductID:      item.ProductID.String(),
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			SubtotalCents:  item.SubtotalCents,
		})
	}

	history := make([]StatusHistoryResponse, 0, len(order.History))
	for _, entry := range order.History {
		var previous *string
		if entry.PreviousStatus != nil {
			value := string(*entry.PreviousStatus)
			previous = &value
		}
		history = append(history, StatusHistoryResponse{
			PreviousStatus: previous,
			NewStatus:      string(entry.NewStatus),
			Actor:          entry.Actor,
			Note:           entry.Note,
			CreatedAt:      entry.CreatedAt,
		})
	}

	return OrderResponse{
		ID:          order.ID.String(),
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID.String(),
		Status:      string(order.Status),
		TotalCents:  order.TotalCents,
		Notes:       order.Notes,
		Items:       items,
		History:     history,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

// MapOrdersToListResponse converts domain orders to a list response. Item and
// history details are omitted from list views.
func MapOrdersToListResponse(orders []*orderDomain.Order) ListOrdersResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		response := MapOrderToResponse(order)
		response.History = nil
		responses = append(responses, response)
	}
	return ListOrdersResponse{Orders: responses, Count: len(responses)}
}
