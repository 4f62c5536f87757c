package docker

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/moby/moby/client"

	"github.com/ezenkico/meet-commander/interfaces"
)

var _ interfaces.Runtime = (*DockerPlatform)(nil)

// dockerAPI is the subset of the engine client the platform uses.
type dockerAPI interface {
	ServerVersion(ctx context.Context, options client.ServerVersionOptions) (client.ServerVersionResult, error)

	NetworkInspect(ctx context.Context, networkID string, options client.NetworkInspectOptions) (client.NetworkInspectResult, error)
	NetworkCreate(ctx context.Context, name string, options client.NetworkCreateOptions) (client.NetworkCreateResult, error)
	NetworkConnect(ctx context.Context, networkID string, options client.NetworkConnectOptions) (client.NetworkConnectResult, error)
	NetworkRemove(ctx context.Context, networkID string, options client.NetworkRemoveOptions) (client.NetworkRemoveResult, error)

	ImageInspect(ctx context.Context, imageID string, inspectOpts ...client.ImageInspectOption) (client.ImageInspectResult, error)
	ImagePull(ctx context.Context, refStr string, options client.ImagePullOptions) (client.ImagePullResponse, error)

	ContainerList(ctx context.Context, options client.ContainerListOptions) (client.ContainerListResult, error)
	ContainerInspect(ctx context.Context, containerID string, options client.ContainerInspectOptions) (client.ContainerInspectResult, error)
	ContainerCreate(ctx context.Context, options client.ContainerCreateOptions) (client.ContainerCreateResult, error)
	ContainerStart(ctx context.Context, containerID string, options client.ContainerStartOptions) (client.ContainerStartResult, error)
	ContainerStop(ctx context.Context, containerID string, options client.ContainerStopOptions) (client.ContainerStopResult, error)
	ContainerRemove(ctx context.Context, containerID string, options client.ContainerRemoveOptions) (client.ContainerRemoveResult, error)
	ContainerWait(ctx context.Context, containerID string, options client.ContainerWaitOptions) client.ContainerWaitResult
	ContainerLogs(ctx context.Context, containerID string, options client.ContainerLogsOptions) (client.ContainerLogsResult, error)

	Close() error
}

// DockerPlatform implements interfaces.Runtime for plain Docker (Engine API).
type DockerPlatform struct {
	client dockerAPI
	log    logr.Logger

	// stack labels every object this platform creates
	stack string
	run   uuid.UUID

	// stopTimeout is the grace period in seconds before the engine kills
	stopTimeout int
}

type Option func(*DockerPlatform)

func WithLogger(l logr.Logger) Option {
	return func(p *DockerPlatform) { p.log = l }
}

func WithStopTimeout(seconds int) Option {
	return func(p *DockerPlatform) { p.stopTimeout = seconds }
}

// NewDockerPlatform initializes the Docker platform using environment variables
// (e.g. DOCKER_HOST) and API version negotiation.
func NewDockerPlatform(stack string, run uuid.UUID, opts ...Option) (*DockerPlatform, error) {
	c, err := client.New(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return newPlatform(c, stack, run, opts...), nil
}

func newPlatform(api dockerAPI, stack string, run uuid.UUID, opts ...Option) *DockerPlatform {
	p := &DockerPlatform{
		client:      api,
		log:         logr.Discard(),
		stack:       stack,
		run:         run,
		stopTimeout: defaultStopTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *DockerPlatform) Close() error {
	return p.client.Close()
}

func (p *DockerPlatform) ServerVersion(ctx context.Context) (string, error) {
	v, err := p.client.ServerVersion(ctx, client.ServerVersionOptions{})
	if err != nil {
		return "", fmt.Errorf("server version: %w", err)
	}
	return fmt.Sprintf("%s (api %s)", v.Version, v.APIVersion), nil
}
