package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Pipeline applies its stages to items in order.
type Pipeline[T any] struct {
	stages []Stage[T]
}

func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// Run applies every stage to item. All steps of a stage finish before the
// next stage starts. A failing step does not stop the other steps or later
// stages; all step errors are joined into the result.
func (p *Pipeline[T]) Run(ctx context.Context, item *T) error {
	var errs []error
	for _, stage := range p.stages {
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for i, step := range stage.steps {
			wg.Add(1)
			go func(i int, step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("stage %s step %d: %w", stage.name, i, err))
					mu.Unlock()
				}
			}(i, step)
		}
		wg.Wait()
	}
	return errors.Join(errs...)
}
