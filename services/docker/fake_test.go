package docker

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"iter"
	"strings"
	"sync"

	"github.com/containerd/errdefs"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/jsonstream"
	"github.com/moby/moby/client"
)

// fakeAPI records every call as "Method arg" and serves canned state.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	networks   map[string]string // name -> id
	containers map[string]string // name -> id
	images     map[string]bool
	listed     []container.Summary

	created  []client.ContainerCreateOptions
	connects []client.NetworkConnectOptions

	createNetworkErr error
	createErr        error
	pullErr          error
	removeErr        map[string]error

	waitResult container.WaitResponse
	waitErr    error
	waitBlock  bool

	logs []byte
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		networks:   map[string]string{},
		containers: map[string]string{},
		images:     map[string]bool{},
		removeErr:  map[string]error{},
	}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) ServerVersion(context.Context, client.ServerVersionOptions) (client.ServerVersionResult, error) {
	f.record("ServerVersion")
	return client.ServerVersionResult{Version: "28.1.0", APIVersion: "1.51"}, nil
}

func (f *fakeAPI) NetworkInspect(_ context.Context, name string, _ client.NetworkInspectOptions) (client.NetworkInspectResult, error) {
	f.record("NetworkInspect " + name)
	id, ok := f.networks[name]
	if !ok {
		return client.NetworkInspectResult{}, errdefs.ErrNotFound
	}
	res := client.NetworkInspectResult{}
	res.Network.ID = id
	res.Network.Name = name
	return res, nil
}

func (f *fakeAPI) NetworkCreate(_ context.Context, name string, _ client.NetworkCreateOptions) (client.NetworkCreateResult, error) {
	f.record("NetworkCreate " + name)
	if f.createNetworkErr != nil {
		return client.NetworkCreateResult{}, f.createNetworkErr
	}
	id := "net-" + name
	f.networks[name] = id
	return client.NetworkCreateResult{ID: id}, nil
}

func (f *fakeAPI) NetworkConnect(_ context.Context, networkID string, options client.NetworkConnectOptions) (client.NetworkConnectResult, error) {
	f.record("NetworkConnect " + networkID + " " + options.Container)
	f.connects = append(f.connects, options)
	return client.NetworkConnectResult{}, nil
}

func (f *fakeAPI) NetworkRemove(_ context.Context, networkID string, _ client.NetworkRemoveOptions) (client.NetworkRemoveResult, error) {
	f.record("NetworkRemove " + networkID)
	if _, ok := f.networks[networkID]; !ok {
		return client.NetworkRemoveResult{}, errdefs.ErrNotFound
	}
	delete(f.networks, networkID)
	return client.NetworkRemoveResult{}, nil
}

func (f *fakeAPI) ImageInspect(_ context.Context, ref string, _ ...client.ImageInspectOption) (client.ImageInspectResult, error) {
	f.record("ImageInspect " + ref)
	if !f.images[ref] {
		return client.ImageInspectResult{}, errdefs.ErrNotFound
	}
	return client.ImageInspectResult{}, nil
}

func (f *fakeAPI) ImagePull(_ context.Context, ref string, _ client.ImagePullOptions) (client.ImagePullResponse, error) {
	f.record("ImagePull " + ref)
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	f.mu.Lock()
	f.images[ref] = true
	f.mu.Unlock()
	return fakePull{ReadCloser: io.NopCloser(strings.NewReader(""))}, nil
}

func (f *fakeAPI) ContainerList(_ context.Context, options client.ContainerListOptions) (client.ContainerListResult, error) {
	var labels []string
	for v := range options.Filters["label"] {
		labels = append(labels, v)
	}
	f.record("ContainerList " + strings.Join(labels, ","))
	return client.ContainerListResult{Items: f.listed}, nil
}

func (f *fakeAPI) ContainerInspect(_ context.Context, name string, _ client.ContainerInspectOptions) (client.ContainerInspectResult, error) {
	f.record("ContainerInspect " + name)
	if _, ok := f.containers[name]; !ok {
		return client.ContainerInspectResult{}, errdefs.ErrNotFound
	}
	return client.ContainerInspectResult{}, nil
}

func (f *fakeAPI) ContainerCreate(_ context.Context, options client.ContainerCreateOptions) (client.ContainerCreateResult, error) {
	f.record("ContainerCreate " + options.Name)
	if f.createErr != nil {
		return client.ContainerCreateResult{}, f.createErr
	}
	if _, ok := f.containers[options.Name]; ok {
		return client.ContainerCreateResult{}, errdefs.ErrConflict
	}
	id := "id-" + options.Name
	f.containers[options.Name] = id
	f.created = append(f.created, options)
	return client.ContainerCreateResult{ID: id}, nil
}

func (f *fakeAPI) ContainerStart(_ context.Context, id string, _ client.ContainerStartOptions) (client.ContainerStartResult, error) {
	f.record("ContainerStart " + id)
	return client.ContainerStartResult{}, nil
}

func (f *fakeAPI) ContainerStop(_ context.Context, id string, _ client.ContainerStopOptions) (client.ContainerStopResult, error) {
	f.record("ContainerStop " + id)
	return client.ContainerStopResult{}, nil
}

func (f *fakeAPI) ContainerRemove(_ context.Context, id string, options client.ContainerRemoveOptions) (client.ContainerRemoveResult, error) {
	call := "ContainerRemove " + id
	if options.Force {
		call += " force"
	}
	if options.RemoveVolumes {
		call += " volumes"
	}
	f.record(call)
	if err := f.removeErr[id]; err != nil {
		return client.ContainerRemoveResult{}, err
	}
	for name, cid := range f.containers {
		if name == id || cid == id {
			delete(f.containers, name)
		}
	}
	return client.ContainerRemoveResult{}, nil
}

func (f *fakeAPI) ContainerWait(ctx context.Context, id string, _ client.ContainerWaitOptions) client.ContainerWaitResult {
	f.record("ContainerWait " + id)
	resC := make(chan container.WaitResponse, 1)
	errC := make(chan error, 1)
	switch {
	case f.waitBlock:
		go func() {
			<-ctx.Done()
			errC <- ctx.Err()
		}()
	case f.waitErr != nil:
		errC <- f.waitErr
	default:
		resC <- f.waitResult
	}
	return client.ContainerWaitResult{Result: resC, Error: errC}
}

func (f *fakeAPI) ContainerLogs(_ context.Context, id string, _ client.ContainerLogsOptions) (client.ContainerLogsResult, error) {
	f.record("ContainerLogs " + id)
	return io.NopCloser(bytes.NewReader(f.logs)), nil
}

func (f *fakeAPI) Close() error { return nil }

type fakePull struct {
	io.ReadCloser
}

func (fakePull) JSONMessages(context.Context) iter.Seq2[jsonstream.Message, error] {
	return func(func(jsonstream.Message, error) bool) {}
}

func (fakePull) Wait(context.Context) error { return nil }

// frame builds one multiplexed log frame.
func frame(stream byte, payload string) []byte {
	h := make([]byte, 8)
	h[0] = stream
	binary.BigEndian.PutUint32(h[4:], uint32(len(payload)))
	return append(h, payload...)
}

