package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Run("message and kind", func(t *testing.T) {
		err := NewError(ErrValidation, "Minimum withdrawal amount is %s", "0.001")

		assert.Equal(t, "Minimum withdrawal amount is 0.001", err.Error())
		assert.ErrorIs(t, err, ErrValidation)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("already processed is an invalid transition", func(t *testing.T) {
		err := NewError(ErrAlreadyProcessed, "Withdrawal already completed")

		assert.ErrorIs(t, err, ErrAlreadyProcessed)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("failed to create investment: %w", NewError(ErrInsufficientFunds, "Insufficient balance"))

		var svcErr *Error
		assert.True(t, errors.As(err, &svcErr))
		assert.Equal(t, "Insufficient balance", svcErr.Message)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})
}
