package services

import (
	"context"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func validatePage(skip, limit int) error {
	if skip < 0 || limit < 1 || limit > MaxLimit {
		return ErrInvalidPagination
	}
	return nil
}

// requiredText trims value and enforces a 1..255 character length.
func requiredText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", validationError(field + " is required")
	}
	if len([]rune(value)) > 255 {
		return "", validationError(field + " must be at most 255 characters")
	}
	return value, nil
}

// Nullable is an update to a column that accepts NULL. Set reports that the field was named in
// the request; a nil Value with Set clears the column.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Nullable carrying value.
func SetTo[T any](value T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &value}
}

// Null returns a Nullable that clears the column.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// NullableFrom builds a Nullable from a decoded pointer and its presence in the request.
func NullableFrom[T any](value *T, present bool) Nullable[T] {
	if !present {
		return Nullable[T]{}
	}
	return Nullable[T]{Set: true, Value: value}
}

// nullableValue returns the column value for a Set Nullable: the value itself, or nil for NULL.
func nullableValue[T any](n Nullable[T]) any {
	if n.Value == nil {
		return nil
	}
	return *n.Value
}
