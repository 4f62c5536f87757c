package docker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/containerd/errdefs"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"

	"github.com/ezenkico/meet-commander/models"
)

// RemoveIfPresent force-removes the named container with its anonymous
// volumes. It reports whether a container was removed.
func (p *DockerPlatform) RemoveIfPresent(ctx context.Context, name string) (bool, error) {
	if _, err := p.client.ContainerInspect(ctx, name, client.ContainerInspectOptions{}); err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("inspect container %q: %w", name, err)
	}

	_, err := p.client.ContainerRemove(ctx, name, client.ContainerRemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})
	if err != nil {
		// If it vanished between inspect and remove, ignore.
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove existing container %q: %w", name, err)
	}
	p.log.Info("Removed stale container", "container", name)
	return true, nil
}

// Create creates the container on the default network; Connect attaches it
// to the stack network afterwards.
func (p *DockerPlatform) Create(ctx context.Context, spec models.ServiceSpec) (models.RuntimeHandle, error) {
	exposed, portMap, err := portConfig(spec.Ports)
	if err != nil {
		return models.RuntimeHandle{}, fmt.Errorf("service %q: %w", spec.Name, err)
	}

	cCfg := &container.Config{
		Image:        spec.Image,
		Env:          spec.EnvList(),
		Labels:       p.labels(spec.Name),
		ExposedPorts: exposed,
	}

	hCfg := &container.HostConfig{
		Binds:        binds(spec.Volumes),
		PortBindings: portMap,
		RestartPolicy: container.RestartPolicy{
			Name: restartMode(spec.RestartPolicy.Name),
		},
	}
	if spec.RestartPolicy.Name == models.RestartPolicyOnFailure {
		hCfg.RestartPolicy.MaximumRetryCount = spec.RestartPolicy.MaximumRetryCount
	}

	created, err := p.client.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     cCfg,
		HostConfig: hCfg,
		Name:       spec.ContainerName,
		Image:      spec.Image,
	})
	if err != nil {
		return models.RuntimeHandle{}, fmt.Errorf("create container %q: %w", spec.ContainerName, err)
	}
	for _, w := range created.Warnings {
		p.log.Info("Container create warning", "container", spec.ContainerName, "warning", w)
	}

	p.log.Info("Created container", "service", spec.Name, "container", spec.ContainerName, "id", created.ID)
	return models.RuntimeHandle{
		ID:            created.ID,
		Service:       spec.Name,
		ContainerName: spec.ContainerName,
	}, nil
}

func (p *DockerPlatform) Connect(ctx context.Context, h models.RuntimeHandle, net models.NetworkHandle, aliases []string) error {
	target := net.ID
	if target == "" {
		target = net.Name
	}
	_, err := p.client.NetworkConnect(ctx, target, client.NetworkConnectOptions{
		Container: h.ID,
		EndpointConfig: &network.EndpointSettings{
			Aliases: cleanAliases(aliases),
		},
	})
	if err != nil {
		return fmt.Errorf("connect container %q to network %q: %w", h.ContainerName, net.Name, err)
	}
	p.log.V(1).Info("Connected container", "container", h.ContainerName, "network", net.Name, "aliases", aliases)
	return nil
}

func (p *DockerPlatform) Start(ctx context.Context, h models.RuntimeHandle) error {
	if _, err := p.client.ContainerStart(ctx, h.ID, client.ContainerStartOptions{}); err != nil {
		return fmt.Errorf("start container %q: %w", h.ContainerName, err)
	}
	p.log.Info("Started container", "service", h.Service, "container", h.ContainerName)
	return nil
}

// Wait returns once the container is no longer running. Cancelling ctx
// abandons the wait without touching the container.
func (p *DockerPlatform) Wait(ctx context.Context, h models.RuntimeHandle) (models.ExitStatus, error) {
	waitC := p.client.ContainerWait(ctx, h.ID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})

	select {
	case <-ctx.Done():
		return models.ExitStatus{}, ctx.Err()
	case err := <-waitC.Error:
		if ctx.Err() != nil {
			return models.ExitStatus{}, ctx.Err()
		}
		return models.ExitStatus{}, fmt.Errorf("wait container %q: %w", h.ContainerName, err)
	case res := <-waitC.Result:
		st := models.ExitStatus{StatusCode: res.StatusCode}
		if res.Error != nil {
			st.Error = res.Error.Message
		}
		return st, nil
	}
}

func (p *DockerPlatform) Stop(ctx context.Context, h models.RuntimeHandle) error {
	timeout := p.stopTimeout
	_, err := p.client.ContainerStop(ctx, h.ID, client.ContainerStopOptions{Timeout: &timeout})
	if err != nil && !errdefs.IsNotFound(err) && !errdefs.IsNotModified(err) {
		return fmt.Errorf("stop container %q: %w", h.ContainerName, err)
	}
	return nil
}

func (p *DockerPlatform) Remove(ctx context.Context, h models.RuntimeHandle) error {
	_, err := p.client.ContainerRemove(ctx, h.ID, client.ContainerRemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("remove container %q: %w", h.ContainerName, err)
	}
	p.log.Info("Removed container", "service", h.Service, "container", h.ContainerName)
	return nil
}

// Logs streams the container output until it exits or ctx is done.
func (p *DockerPlatform) Logs(ctx context.Context, h models.RuntimeHandle, stdout, stderr io.Writer) error {
	rc, err := p.client.ContainerLogs(ctx, h.ID, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Since:      "0",
	})
	if err != nil {
		return fmt.Errorf("logs container %q: %w", h.ContainerName, err)
	}
	defer rc.Close()

	if err := DemuxDockerLogs(stdout, stderr, rc); err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("stream logs for %q: %w", h.ContainerName, err)
	}
	return nil
}

func restartMode(name models.RestartPolicyName) container.RestartPolicyMode {
	switch name {
	case models.RestartPolicyAlways:
		return container.RestartPolicyAlways
	case models.RestartPolicyOnFailure:
		return container.RestartPolicyOnFailure
	case models.RestartPolicyUnlessStopped:
		return container.RestartPolicyUnlessStopped
	}
	return container.RestartPolicyDisabled
}
