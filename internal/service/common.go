package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks errors caused by the caller's input rather than
// the store.
var ErrInvalidInput = errors.New("invalid input")

func validateNonNegativeInt(name string, value int) error {
	if value < 0 {
		return fmt.Errorf("%w: %s must be >= 0", ErrInvalidInput, name)
	}
	return nil
}

func validatePositiveInt(name string, value int) error {
	if value <= 0 {
		return fmt.Errorf("%w: %s must be > 0", ErrInvalidInput, name)
	}
	return nil
}
