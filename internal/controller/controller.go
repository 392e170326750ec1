// Package controller holds the screen-facing state for each feature and the
// mutations screens invoke. Controllers are safe for concurrent use; State
// methods return copies.
package controller

import (
	"errors"

	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/logger"
)

// ErrInvalidTransition is returned when an event is not allowed in the
// current step of a flow. State is left untouched.
var ErrInvalidTransition = errors.New("invalid transition")

// messageFor turns an error into the text shown to the user.
func messageFor(err error) string {
	if v, ok := apperrors.IsValidation(err); ok {
		return v.Message
	}
	return err.Error()
}

// logListenerError records a failed snapshot delivery; the delivery is dropped.
func logListenerError(feature string, err error) {
	logger.Warn("listener delivery failed", "feature", feature, "error", err)
}
