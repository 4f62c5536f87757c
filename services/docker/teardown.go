package docker

import (
	"context"
	"fmt"

	"github.com/containerd/errdefs"
	"go.uber.org/multierr"

	"github.com/moby/moby/client"
)

// TeardownStack stops and removes every container labelled with the
// platform's stack, including ones left behind by earlier runs. It keeps
// going past failures and returns the number removed with all errors.
func (p *DockerPlatform) TeardownStack(ctx context.Context) (int, error) {
	f := make(client.Filters).
		Add("label", StackFilter(p.stack))

	containers, err := p.client.ContainerList(ctx, client.ContainerListOptions{
		All:     true,
		Filters: f,
	})
	if err != nil {
		return 0, fmt.Errorf("list stack containers (stack=%s): %w", p.stack, err)
	}

	var errs error
	removed := 0
	for _, c := range containers.Items {
		name := containerName(c.Names, c.ID)
		timeout := p.stopTimeout

		// Stop (best-effort) then remove
		_, _ = p.client.ContainerStop(ctx, c.ID, client.ContainerStopOptions{Timeout: &timeout})
		_, err := p.client.ContainerRemove(ctx, c.ID, client.ContainerRemoveOptions{
			Force:         true,
			RemoveVolumes: true,
		})
		if err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("remove container %q: %w", name, err))
			continue
		}
		p.log.Info("Removed container", "container", name, "service", c.Labels[LabelService])
		removed++
	}
	return removed, errs
}
