package services

import (
	"context"

	"golang.org/x/exp/slog"
)

// compensations undoes completed steps of a multi-write operation when a
// later step fails. Inside a real transaction the undo writes are rolled
// back with everything else; without one they restore the previous state.
type compensations struct {
	steps []compensation
}

type compensation struct {
	name string
	fn   func(ctx context.Context) error
}

func (c *compensations) add(name string, fn func(ctx context.Context) error) {
	c.steps = append(c.steps, compensation{name: name, fn: fn})
}

// run executes the recorded steps in reverse order. Failures are logged.
func (c *compensations) run(ctx context.Context) {
	for i := len(c.steps) - 1; i >= 0; i-- {
		if err := c.steps[i].fn(ctx); err != nil {
			slog.Error("Compensation step failed", "step", c.steps[i].name, "error", err)
		}
	}
	c.steps = nil
}
