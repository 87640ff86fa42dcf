package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type item struct {
	mu      sync.Mutex
	Results map[string]any
}

func newItem() *item {
	return &item{Results: make(map[string]any)}
}

func (i *item) set(k string, v any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Results[k] = v
}

func stepSet(key string, val any) Step[item] {
	return func(_ context.Context, it *item) error {
		it.set(key, val)
		return nil
	}
}

func stepError(_ context.Context, _ *item) error {
	return errors.New("mock step failed")
}

func TestPipeline_Run(t *testing.T) {
	tests := []struct {
		name     string
		stages   []Stage[item]
		expected map[string]any
		wantErr  bool
	}{
		{
			name:     "single step",
			stages:   []Stage[item]{NewStage("one", stepSet("foo", "bar"))},
			expected: map[string]any{"foo": "bar"},
		},
		{
			name:     "two steps in one stage",
			stages:   []Stage[item]{NewStage("both", stepSet("x", 1), stepSet("y", 2))},
			expected: map[string]any{"x": 1, "y": 2},
		},
		{
			name: "sequential stages",
			stages: []Stage[item]{
				NewStage("first", stepSet("a", "first")),
				NewStage("second", func(_ context.Context, it *item) error {
					it.mu.Lock()
					defer it.mu.Unlock()
					it.Results["b"] = it.Results["a"].(string) + "-second"
					return nil
				}),
			},
			expected: map[string]any{"a": "first", "b": "first-second"},
		},
		{
			name: "step error does not break pipeline",
			stages: []Stage[item]{
				NewStage("fails", stepError, stepSet("sibling", true)),
				NewStage("after", stepSet("ok", true)),
			},
			expected: map[string]any{"sibling": true, "ok": true},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			it := newItem()
			err := NewPipeline(tt.stages...).Run(ctx, it)
			if tt.wantErr {
				assert.ErrorContains(t, err, "stage fails step 0: mock step failed")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, it.Results)
		})
	}
}
