package docker

import (
	"context"
	"fmt"

	"github.com/containerd/errdefs"

	"github.com/moby/moby/client"

	"github.com/ezenkico/meet-commander/models"
)

// EnsureNetwork returns the bridge network with the given name, creating it
// when it does not exist. A concurrent creator is tolerated.
func (p *DockerPlatform) EnsureNetwork(ctx context.Context, name string) (models.NetworkHandle, error) {
	log := p.log.WithValues("network", name)

	existing, err := p.client.NetworkInspect(ctx, name, client.NetworkInspectOptions{})
	if err == nil {
		log.V(1).Info("Reusing network", "id", existing.Network.ID)
		return models.NetworkHandle{ID: existing.Network.ID, Name: name}, nil
	}
	if !errdefs.IsNotFound(err) {
		return models.NetworkHandle{}, fmt.Errorf("inspect network %q: %w", name, err)
	}

	created, err := p.client.NetworkCreate(ctx, name, client.NetworkCreateOptions{
		Driver: networkDriver,
		Labels: p.labels(""),
	})
	if err != nil {
		// Race-safe: re-inspect
		if again, ie := p.client.NetworkInspect(ctx, name, client.NetworkInspectOptions{}); ie == nil {
			return models.NetworkHandle{ID: again.Network.ID, Name: name}, nil
		}
		return models.NetworkHandle{}, fmt.Errorf("create network %q: %w", name, err)
	}
	for _, w := range created.Warning {
		log.Info("Network create warning", "warning", w)
	}
	log.Info("Created network", "id", created.ID)
	return models.NetworkHandle{ID: created.ID, Name: name, Created: true}, nil
}

// RemoveNetwork deletes the network; a missing network is not an error.
func (p *DockerPlatform) RemoveNetwork(ctx context.Context, name string) error {
	if _, err := p.client.NetworkRemove(ctx, name, client.NetworkRemoveOptions{}); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("remove network %q: %w", name, err)
	}
	p.log.Info("Removed network", "network", name)
	return nil
}
