package interfaces

import (
	"context"
	"io"

	"github.com/ezenkico/meet-commander/models"
)

// Runtime is the container host as seen by the orchestration controller.
type Runtime interface {
	ServerVersion(ctx context.Context) (string, error)

	// EnsureNetwork returns the named bridge network, creating it if absent.
	EnsureNetwork(ctx context.Context, name string) (models.NetworkHandle, error)
	EnsureImage(ctx context.Context, ref string, policy models.PullPolicy) error

	// RemoveIfPresent force-removes a container by name; absence is not an error.
	RemoveIfPresent(ctx context.Context, containerName string) (bool, error)
	Create(ctx context.Context, spec models.ServiceSpec) (models.RuntimeHandle, error)
	Connect(ctx context.Context, h models.RuntimeHandle, network models.NetworkHandle, aliases []string) error
	Start(ctx context.Context, h models.RuntimeHandle) error

	// Wait blocks until the container stops or ctx is done.
	Wait(ctx context.Context, h models.RuntimeHandle) (models.ExitStatus, error)
	Stop(ctx context.Context, h models.RuntimeHandle) error
	Remove(ctx context.Context, h models.RuntimeHandle) error

	// Logs follows the container output until it stops or ctx is done.
	Logs(ctx context.Context, h models.RuntimeHandle, stdout, stderr io.Writer) error
}
