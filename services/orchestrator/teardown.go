package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// teardown stops and removes every created container in reverse creation
// order. Failures are logged and do not stop the remaining removals.
func (c *Controller) teardown(ctx context.Context) {
	c.transition(TearingDown, "")

	c.mu.Lock()
	handles := append(c.handles[:0:0], c.handles...)
	c.mu.Unlock()

	var errs error
	for i := len(handles) - 1; i >= 0; i-- {
		h := handles[i]
		if err := c.opts.Runtime.Stop(ctx, h); err != nil {
			c.log.Error(err, "Stop failed", "service", h.Service, "container", h.ContainerName)
			errs = multierr.Append(errs, err)
		}
		if err := c.opts.Runtime.Remove(ctx, h); err != nil {
			c.log.Error(err, "Remove failed", "service", h.Service, "container", h.ContainerName)
			errs = multierr.Append(errs, err)
			continue
		}
		c.log.Info("Service removed", "service", h.Service)
	}

	if errs != nil {
		c.log.Error(errs, "Teardown incomplete", "failures", len(multierr.Errors(errs)))
	}

	if c.opts.PurgeOnExit {
		if err := c.opts.Files.Purge(); err != nil {
			c.log.Error(fmt.Errorf("%w: %w", ErrPrepare, err), "Purge on exit failed", "root", c.opts.Config.ConfigRootDir)
		}
	}

	c.mu.Lock()
	c.handles = nil
	c.mu.Unlock()
	c.transition(Stopped, "")
}
