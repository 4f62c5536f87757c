// Package orchestrator sequences one run of the stack: prepare the config
// tree, ensure the network and images, start the services in order, wait on
// the anchor service and tear everything down again.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/ezenkico/meet-commander/interfaces"
	"github.com/ezenkico/meet-commander/models"
)

var (
	ErrPrepare      = errors.New("prepare config directories")
	ErrNetwork      = errors.New("ensure network")
	ErrImage        = errors.New("ensure images")
	ErrServiceStart = errors.New("start service")
)

// Files is the host directory tree the services mount.
type Files interface {
	Prepare() error
	Purge() error
}

type Options struct {
	Config  *models.Configuration
	Runtime interfaces.Runtime
	Files   Files
	Log     logr.Logger

	// PurgeOnExit empties the config root after teardown.
	PurgeOnExit bool

	// PrintSecrets logs the generated secrets once the stack is up.
	PrintSecrets bool

	// Stdout and Stderr receive the anchor's output while running; nil
	// disables streaming.
	Stdout io.Writer
	Stderr io.Writer

	// PullConcurrency bounds parallel image pulls. Zero pulls all at once.
	PullConcurrency int

	// OnTransition observes every state change; service is set for Starting.
	OnTransition func(state State, service string)
}

// Controller owns the runtime handles of one run.
type Controller struct {
	opts  Options
	log   logr.Logger
	state atomic.Int32

	mu      sync.Mutex
	handles []models.RuntimeHandle
}

func New(opts Options) (*Controller, error) {
	if opts.Config == nil {
		return nil, errors.New("orchestrator: configuration is required")
	}
	if opts.Runtime == nil {
		return nil, errors.New("orchestrator: runtime is required")
	}
	if opts.Files == nil {
		return nil, errors.New("orchestrator: files is required")
	}
	if _, err := opts.Config.Ordered(); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	if !slices.Contains(opts.Config.StartOrder, opts.Config.Anchor) {
		return nil, fmt.Errorf("orchestrator: anchor service %q is not in the start order", opts.Config.Anchor)
	}
	log := opts.Log
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Controller{opts: opts, log: log.WithName("orchestrator")}, nil
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

// Handles returns the runtime handles created so far, in creation order.
func (c *Controller) Handles() []models.RuntimeHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.RuntimeHandle(nil), c.handles...)
}

func (c *Controller) transition(s State, service string) {
	c.state.Store(int32(s))
	if service != "" {
		c.log.V(1).Info("State", "state", s.String(), "service", service)
	} else {
		c.log.V(1).Info("State", "state", s.String())
	}
	if c.opts.OnTransition != nil {
		c.opts.OnTransition(s, service)
	}
}

// Run executes one full run. It returns nil after a graceful stop, which is
// either ctx being cancelled or the anchor service exiting, and an error
// when setup fails. Containers created before a failure are removed.
func (c *Controller) Run(ctx context.Context) error {
	cfg := c.opts.Config
	rt := c.opts.Runtime

	// Host calls that create state must complete even if a signal arrives
	// mid-call, so that their result is known to teardown.
	hostCtx := context.WithoutCancel(ctx)

	c.transition(Preparing, "")
	c.logVersions(ctx)

	if cfg.PurgeConfig {
		c.log.Info("Purging existing config files", "root", cfg.ConfigRootDir)
		if err := c.opts.Files.Purge(); err != nil {
			return c.abort(fmt.Errorf("%w: %w", ErrPrepare, err), "operation", "purge", "root", cfg.ConfigRootDir)
		}
	}
	if err := c.opts.Files.Prepare(); err != nil {
		return c.abort(fmt.Errorf("%w: %w", ErrPrepare, err), "operation", "prepare", "root", cfg.ConfigRootDir)
	}

	network, err := rt.EnsureNetwork(hostCtx, cfg.NetworkName)
	if err != nil {
		return c.abort(fmt.Errorf("%w: %w", ErrNetwork, err), "operation", "ensure network", "network", cfg.NetworkName)
	}
	c.transition(NetworkReady, "")
	if ctx.Err() != nil {
		return c.interrupted()
	}

	specs, err := cfg.Ordered()
	if err != nil {
		return c.abort(err, "operation", "order services")
	}

	if err := c.ensureImages(ctx, specs); err != nil {
		if ctx.Err() != nil {
			return c.interrupted()
		}
		return c.abort(fmt.Errorf("%w: %w", ErrImage, err), "operation", "ensure images")
	}
	c.transition(ImagesVerified, "")

	var anchor *models.RuntimeHandle
	for _, spec := range specs {
		if ctx.Err() != nil {
			c.log.Info("Termination requested during startup")
			c.teardown(hostCtx)
			return nil
		}

		c.transition(Starting, spec.Name)
		h, err := c.startService(hostCtx, spec, network)
		if err != nil {
			c.log.Error(err, "Service failed to start", "service", spec.Name, "container", spec.ContainerName)
			c.teardown(hostCtx)
			return fmt.Errorf("%w %q: %w", ErrServiceStart, spec.Name, err)
		}
		if spec.Name == cfg.Anchor {
			anchor = &h
		}
	}

	c.transition(Running, "")
	c.log.Info("All services are up", "services", len(specs))
	if c.opts.PrintSecrets {
		c.logSecrets()
	}

	c.await(ctx, *anchor)

	c.teardown(hostCtx)
	return nil
}

// await blocks until the anchor exits or ctx is cancelled.
func (c *Controller) await(ctx context.Context, anchor models.RuntimeHandle) {
	waitCtx, stop := context.WithCancel(ctx)
	defer stop()

	var streaming sync.WaitGroup
	if c.opts.Stdout != nil {
		stderr := c.opts.Stderr
		if stderr == nil {
			stderr = c.opts.Stdout
		}
		streaming.Add(1)
		go func() {
			defer streaming.Done()
			if err := c.opts.Runtime.Logs(waitCtx, anchor, c.opts.Stdout, stderr); err != nil {
				c.log.Error(err, "Log streaming stopped", "service", anchor.Service)
			}
		}()
	}

	status, err := c.opts.Runtime.Wait(waitCtx, anchor)
	switch {
	case ctx.Err() != nil:
		c.log.Info("Termination signal received, tearing down")
	case err != nil:
		c.log.Error(err, "Cannot wait on anchor service anymore, tearing down", "service", anchor.Service)
	default:
		c.log.Info("Anchor service exited, tearing down",
			"service", anchor.Service, "exitCode", status.StatusCode, "error", status.Error)
	}

	stop()
	streaming.Wait()
}

func (c *Controller) startService(ctx context.Context, spec models.ServiceSpec, network models.NetworkHandle) (models.RuntimeHandle, error) {
	rt := c.opts.Runtime
	log := c.log.WithValues("service", spec.Name, "container", spec.ContainerName)

	if removed, err := rt.RemoveIfPresent(ctx, spec.ContainerName); err != nil {
		return models.RuntimeHandle{}, err
	} else if removed {
		log.Info("Removed container left by a previous run")
	}

	h, err := rt.Create(ctx, spec)
	if err != nil {
		return models.RuntimeHandle{}, err
	}
	c.mu.Lock()
	c.handles = append(c.handles, h)
	c.mu.Unlock()

	if err := rt.Connect(ctx, h, network, spec.NetworkAliases); err != nil {
		return h, err
	}
	if err := rt.Start(ctx, h); err != nil {
		return h, err
	}
	log.Info("Service running", "image", spec.Image, "aliases", spec.NetworkAliases)
	return h, nil
}

func (c *Controller) interrupted() error {
	c.log.Info("Termination requested before any container was created")
	c.transition(Stopped, "")
	return nil
}

// abort ends a run that failed before any container existed.
func (c *Controller) abort(err error, keysAndValues ...any) error {
	c.log.Error(err, "Setup failed", keysAndValues...)
	c.transition(Stopped, "")
	return err
}

func (c *Controller) logVersions(ctx context.Context) {
	v, err := c.opts.Runtime.ServerVersion(ctx)
	if err != nil {
		c.log.Error(err, "Cannot read container host version")
		v = "unknown"
	}
	c.log.Info("Starting stack", "stackVersion", c.opts.Config.StackVersion, "dockerVersion", v)
}

func (c *Controller) logSecrets() {
	s := c.opts.Config.Secrets
	c.log.Info("Generated secrets",
		"jicofoComponentSecret", s.JicofoComponentSecret,
		"jicofoAuthPassword", s.JicofoAuthPassword,
		"jvbAuthPassword", s.JVBAuthPassword,
		"jigasiXmppPassword", s.JigasiXMPPPassword,
		"jibriRecorderPassword", s.JibriRecorderPassword,
		"jibriXmppPassword", s.JibriXMPPPassword,
	)
}
