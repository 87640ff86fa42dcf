// Package pipeline runs independent steps in parallel within a stage while
// keeping stages sequential.
package pipeline

import (
	"context"
)

// Step is one operation applied to an item. Steps in the same stage run
// concurrently on the same item and must not write to the same fields.
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups steps that are safe to execute in parallel for a single item.
type Stage[T any] struct {
	name  string
	steps []Step[T]
}

// NewStage constructs a named Stage from the provided steps.
func NewStage[T any](name string, steps ...Step[T]) Stage[T] {
	return Stage[T]{name: name, steps: steps}
}
