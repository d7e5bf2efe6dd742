package domain

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPicked    OrderStatus = "PICKED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// validTransitions is the single adjacency table consulted for every status
// change. Adding a status requires one edit here, not a search through the
// codebase. No edge ever moves backward; DELIVERED and CANCELLED are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPicked, OrderStatusCancelled},
	OrderStatusPicked:    {OrderStatusShipped},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// IsValid reports whether s is one of the known order statuses.
func (s OrderStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves this status.
func (s OrderStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo reports whether the edge s -> target exists in the
// adjacency table. Re-requesting the current status is rejected: "transition
// to X" is not a silent no-op.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range validTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// ValidateTransition returns nil when the transition is legal, or an
// *InvalidTransitionError describing the rejected edge.
func ValidateTransition(current, requested OrderStatus) error {
	if current.CanTransitionTo(requested) {
		return nil
	}
	return &InvalidTransitionError{Current: current, Requested: requested}
}
