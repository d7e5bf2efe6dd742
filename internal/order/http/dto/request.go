// Package dto provides data transfer objects for order HTTP request and
// response handling.
package dto

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	orderDomain "github.com/allisson/orders/internal/order/domain"
	orderUseCase "github.com/allisson/orders/internal/order/usecase"
)

// OrderItemRequest is one requested line item.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

// Validate checks if the order item request is valid.
func (r OrderItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.By(requiredUUID)),
		validation.Field(&r.Quantity, validation.Required, validation.Min(int64(1))),
	)
}

// CreateOrderRequest contains the parameters for creating an order. The
// idempotency key comes from the Idempotency-Key header, not the body.
type CreateOrderRequest struct {
	CustomerID uuid.UUID          `json:"customer_id"`
	Notes      string             `json:"notes"`
	Items      []OrderItemRequest `json:"items"`
}

// Validate checks if the create order request is valid.
func (r *CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CustomerID, validation.By(requiredUUID)),
		validation.Field(&r.Items, validation.Required, validation.Length(1, 0)),
	)
}

// ToInput converts the request to a use case input.
func (r *CreateOrderRequest) ToInput(idempotencyKey string) orderUseCase.CreateOrderInput {
	items := make([]orderUseCase.CreateOrderItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, orderUseCase.CreateOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return orderUseCase.CreateOrderInput{
		CustomerID:     r.CustomerID,
		IdempotencyKey: idempotencyKey,
		Notes:          r.Notes,
		Items:          items,
	}
}

// UpdateStatusRequest contains the parameters for a status transition.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
	Note   string `json:"note"`
}

// Validate checks if the update status request is valid.
func (r *UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Status, validation.Required),
		validation.Field(&r.Actor, validation.Required),
	)
}

// ToInput converts the request to a use case input.
func (r *UpdateStatusRequest) ToInput() orderUseCase.UpdateStatusInput {
	return orderUseCase.UpdateStatusInput{
		Status: orderDomain.OrderStatus(r.Status),
		Actor:  r.Actor,
		Note:   r.Note,
	}
}

// CancelOrderRequest contains the parameters for cancelling an order.
type CancelOrderRequest struct {
	Actor string `json:"actor"`
	Note  string `json:"note"`
}

// Validate checks if the cancel order request is valid.
func (r *CancelOrderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Actor, validation.Required),
	)
}

// UpdateItemsRequest contains the replacement line items for a pending order.
type UpdateItemsRequest struct {
	Items []OrderItemRequest `json:"items"`
}

// Validate checks if the update items request is valid.
func (r *UpdateItemsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Items, validation.Required, validation.Length(1, 0)),
	)
}

// ToInputs converts the request items to use case inputs.
func (r *UpdateItemsRequest) ToInputs() []orderUseCase.CreateOrderItemInput {
	items := make([]orderUseCase.CreateOrderItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, orderUseCase.CreateOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return items
}

// requiredUUID rejects the zero UUID.
func requiredUUID(value any) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return validation.NewError("validation_required_uuid", "must be a valid uuid")
	}
	return nil
}
