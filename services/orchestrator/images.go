package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ezenkico/meet-commander/models"
)

// ensureImages pulls or verifies every distinct image concurrently. The
// first failure cancels the rest.
func (c *Controller) ensureImages(ctx context.Context, specs []models.ServiceSpec) error {
	policy := c.opts.Config.PullPolicy
	g, gctx := errgroup.WithContext(ctx)
	if c.opts.PullConcurrency > 0 {
		g.SetLimit(c.opts.PullConcurrency)
	}

	seen := map[string]bool{}
	for _, spec := range specs {
		if spec.Image == "" {
			return fmt.Errorf("service %q has no image", spec.Name)
		}
		if seen[spec.Image] {
			continue
		}
		seen[spec.Image] = true

		g.Go(func() error {
			if err := c.opts.Runtime.EnsureImage(gctx, spec.Image, policy); err != nil {
				return fmt.Errorf("service %q: %w", spec.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
