package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/orders/internal/errors"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		current   OrderStatus
		requested OrderStatus
		allowed   bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusConfirmed, OrderStatusPicked, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusShipped, false},
		{OrderStatusPicked, OrderStatusShipped, true},
		{OrderStatusPicked, OrderStatusCancelled, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		// No backward edges
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusPicked, false},
		// Re-requesting the current status is rejected
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusConfirmed, OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		got := tt.current.CanTransitionTo(tt.requested)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.current, tt.requested)
	}
}

func TestCanTransitionTo_TerminalStates(t *testing.T) {
	all := []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusPicked,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}

	for _, target := range all {
		assert.False(t, OrderStatusDelivered.CanTransitionTo(target), "DELIVERED -> %s", target)
		assert.False(t, OrderStatusCancelled.CanTransitionTo(target), "CANCELLED -> %s", target)
	}
}

func TestValidateTransition(t *testing.T) {
	t.Run("ValidTransitionReturnsNil", func(t *testing.T) {
		assert.NoError(t, ValidateTransition(OrderStatusPending, OrderStatusConfirmed))
	})

	t.Run("InvalidTransitionReturnsTypedError", func(t *testing.T) {
		err := ValidateTransition(OrderStatusPending, OrderStatusShipped)
		assert.Error(t, err)

		var transitionErr *InvalidTransitionError
		assert.True(t, apperrors.As(err, &transitionErr))
		assert.Equal(t, OrderStatusPending, transitionErr.Current)
		assert.Equal(t, OrderStatusShipped, transitionErr.Requested)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
	assert.False(t, OrderStatus("BOGUS").IsTerminal())
}

func TestIsValid(t *testing.T) {
	assert.True(t, OrderStatusPending.IsValid())
	assert.True(t, OrderStatusCancelled.IsValid())
	assert.False(t, OrderStatus("BOGUS").IsValid())
	assert.False(t, OrderStatus("").IsValid())
}
