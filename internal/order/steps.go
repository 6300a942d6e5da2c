package order

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
)

// Step is one unit of a submission that runs alongside the others.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pipeline runs steps concurrently. The first failing step cancels the rest.
type Pipeline struct {
	steps []Step
}

// NewPipeline returns a Pipeline over steps. It panics when steps is empty.
func NewPipeline(steps ...Step) *Pipeline {
	if len(steps) == 0 {
		panic("order.NewPipeline: no steps")
	}
	return &Pipeline{steps: steps}
}

// Run executes every step and returns per-step results in registration
// order, regardless of which goroutine finished first.
func (p *Pipeline) Run(ctx context.Context) ([]model.StepResult, error) {
	g, ctx := errgroup.WithContext(ctx)

	results := make([]model.StepResult, len(p.steps))
	var mu sync.Mutex

	record := func(i int, name string, fn func(context.Context) error) func() error {
		return func() error {
			start := time.Now()
			err := fn(ctx)
			durMS := time.Since(start).Milliseconds()

			st := "ok"
			detail := ""
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					st = "canceled"
				} else {
					st = "error"
					if kind := apperr.Kind(err); kind != "internal" {
						detail = kind
					}
				}
			}

			mu.Lock()
			results[i] = model.StepResult{
				Name:       name,
				Status:     st,
				DurationMS: durMS,
				Detail:     detail,
			}
			mu.Unlock()

			return err
		}
	}

	for i, s := range p.steps {
		g.Go(record(i, s.Name, s.Run))
	}

	err := g.Wait()
	return results, err
}
