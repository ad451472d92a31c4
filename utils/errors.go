package utils

import "github.com/pkg/errors"

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected interface{}, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}

// NewShapeMismatchError is used when a buffer does not have the expected shape.
func NewShapeMismatchError(name string, expected, actual interface{}) error {
	return errors.Errorf("%s: expected shape %v but got %v", name, expected, actual)
}
