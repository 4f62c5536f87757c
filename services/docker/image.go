package docker

import (
	"context"
	"fmt"

	"github.com/containerd/errdefs"

	"github.com/moby/moby/client"

	"github.com/ezenkico/meet-commander/models"
)

// EnsureImage makes ref available locally according to policy.
func (p *DockerPlatform) EnsureImage(ctx context.Context, ref string, policy models.PullPolicy) error {
	log := p.log.WithValues("image", ref, "policy", string(policy))

	switch policy {
	case models.PullNever, models.PullMissing:
		present, err := p.imagePresent(ctx, ref)
		if err != nil {
			return err
		}
		if present {
			log.V(1).Info("Image present")
			return nil
		}
		if policy == models.PullNever {
			return fmt.Errorf("image %q: %w", ref, ErrImageNotPresent)
		}
	case models.PullAlways, "":
	default:
		return fmt.Errorf("image %q: unknown pull policy %q", ref, policy)
	}

	log.Info("Pulling image")
	resp, err := p.client.ImagePull(ctx, ref, client.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %q: %w", ref, err)
	}
	defer resp.Close()

	if err := resp.Wait(ctx); err != nil {
		return fmt.Errorf("pull image %q: %w", ref, err)
	}
	log.Info("Pulled image")
	return nil
}

func (p *DockerPlatform) imagePresent(ctx context.Context, ref string) (bool, error) {
	_, err := p.client.ImageInspect(ctx, ref)
	if err == nil {
		return true, nil
	}
	if errdefs.IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("inspect image %q: %w", ref, err)
}
