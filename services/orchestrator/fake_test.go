package orchestrator

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ezenkico/meet-commander/models"
)

// fakeRuntime records host calls as "Op subject" lines.
type fakeRuntime struct {
	mu    sync.Mutex
	trace []string

	// failures keyed by "Op subject", e.g. "Create media-relay"
	fail map[string]error

	present   map[string]bool
	waitBlock bool
	exit      models.ExitStatus
	logs      string
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{fail: map[string]error{}, present: map[string]bool{}}
}

func (f *fakeRuntime) record(op, subject string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := op + " " + subject
	f.trace = append(f.trace, call)
	return f.fail[call]
}

func (f *fakeRuntime) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

// Ops filters the trace to the given operations, keeping order.
func (f *fakeRuntime) Ops(ops ...string) []string {
	var out []string
	for _, call := range f.Trace() {
		for _, op := range ops {
			if strings.HasPrefix(call, op+" ") {
				out = append(out, call)
			}
		}
	}
	return out
}

func (f *fakeRuntime) ServerVersion(context.Context) (string, error) {
	return "28.1.0", f.record("ServerVersion", "-")
}

func (f *fakeRuntime) EnsureNetwork(_ context.Context, name string) (models.NetworkHandle, error) {
	if err := f.record("EnsureNetwork", name); err != nil {
		return models.NetworkHandle{}, err
	}
	return models.NetworkHandle{ID: "net-" + name, Name: name, Created: true}, nil
}

func (f *fakeRuntime) EnsureImage(_ context.Context, ref string, _ models.PullPolicy) error {
	return f.record("EnsureImage", ref)
}

func (f *fakeRuntime) RemoveIfPresent(_ context.Context, name string) (bool, error) {
	if err := f.record("RemoveIfPresent", name); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	was := f.present[name]
	delete(f.present, name)
	return was, nil
}

func (f *fakeRuntime) Create(_ context.Context, spec models.ServiceSpec) (models.RuntimeHandle, error) {
	if err := f.record("Create", spec.Name); err != nil {
		return models.RuntimeHandle{}, err
	}
	return models.RuntimeHandle{ID: "id-" + spec.Name, Service: spec.Name, ContainerName: spec.ContainerName}, nil
}

func (f *fakeRuntime) Connect(_ context.Context, h models.RuntimeHandle, network models.NetworkHandle, aliases []string) error {
	return f.record("Connect", fmt.Sprintf("%s %s %v", h.Service, network.Name, aliases))
}

func (f *fakeRuntime) Start(_ context.Context, h models.RuntimeHandle) error {
	return f.record("Start", h.Service)
}

func (f *fakeRuntime) Wait(ctx context.Context, h models.RuntimeHandle) (models.ExitStatus, error) {
	if err := f.record("Wait", h.Service); err != nil {
		return models.ExitStatus{}, err
	}
	if f.waitBlock {
		<-ctx.Done()
		return models.ExitStatus{}, ctx.Err()
	}
	return f.exit, nil
}

func (f *fakeRuntime) Stop(_ context.Context, h models.RuntimeHandle) error {
	return f.record("Stop", h.Service)
}

func (f *fakeRuntime) Remove(_ context.Context, h models.RuntimeHandle) error {
	return f.record("Remove", h.Service)
}

func (f *fakeRuntime) Logs(ctx context.Context, h models.RuntimeHandle, stdout, _ io.Writer) error {
	if err := f.record("Logs", h.Service); err != nil {
		return err
	}
	_, err := io.WriteString(stdout, f.logs)
	return err
}

type fakeFiles struct {
	mu         sync.Mutex
	calls      []string
	prepareErr error
	purgeErr   error
	rt         *fakeRuntime
}

func (f *fakeFiles) Prepare() error {
	f.note("Prepare")
	return f.prepareErr
}

func (f *fakeFiles) Purge() error {
	f.note("Purge")
	return f.purgeErr
}

// note records in the runtime trace too, so tests can order file and host calls.
func (f *fakeFiles) note(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
	if f.rt != nil {
		_ = f.rt.record(op, "files")
	}
}
