package ingest

import (
	"context"
	"time"

	"melodex/logger"
)

// compensator is an ordered stack of undo actions paired with the forward
// steps of an ingestion call. When a step fails, run unwinds everything done
// so far in reverse order. Undo failures are logged, never re-raised: the
// caller must see the original error, not a cleanup error.
type compensator struct {
	undos []compensation
}

type compensation struct {
	name string
	fn   func(ctx context.Context) error
}

// push registers an undo for a forward step that just succeeded.
func (c *compensator) push(name string, fn func(ctx context.Context) error) {
	c.undos = append(c.undos, compensation{name: name, fn: fn})
}

// run executes the registered undos in reverse order. The work is detached
// from the caller's context so compensating deletes complete even when the
// request deadline has already expired.
func (c *compensator) run(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for i := len(c.undos) - 1; i >= 0; i-- {
		step := c.undos[i]
		stepCtx, cancel := context.WithTimeout(base, 30*time.Second)
		if err := step.fn(stepCtx); err != nil {
			logger.Warn("compensation step failed",
				logger.String("step", step.name),
				logger.ErrorField(err))
		} else {
			logger.Info("compensation step completed", logger.String("step", step.name))
		}
		cancel()
	}
	c.undos = nil
}
