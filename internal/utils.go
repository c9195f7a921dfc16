package internal

import (
	"context"
	"fmt"
)

// CtxKey is a type-safe context key. Two keys with the same name but different type parameters are
// distinct, so collisions between packages are impossible.
type CtxKey[T any] struct {
	name string
}

// NewCtxKey creates a new typed context key.
func NewCtxKey[T any](name string) CtxKey[T] {
	return CtxKey[T]{name: name}
}

// String implements fmt.Stringer for debugging.
func (k CtxKey[T]) String() string {
	return fmt.Sprintf("Key[%T](%s)", *new(T), k.name)
}

// SetCtxKey stores a value in the context under a typed key.
func SetCtxKey[T any](ctx context.Context, key CtxKey[T], value T) context.Context {
	return context.WithValue(ctx, key, value)
}

// GetCtxKey retrieves a value stored under a typed key.
func GetCtxKey[T any](ctx context.Context, key CtxKey[T]) (T, bool) {
	value, ok := ctx.Value(key).(T)
	return value, ok
}
