package docker

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"

	"github.com/ezenkico/meet-commander/models"
)

var testRun = uuid.MustParse("6f1c1f5e-4b7a-4a55-9a53-2c3f0a3b9d10")

func newTestPlatform(api *fakeAPI) *DockerPlatform {
	return newPlatform(api, "meet.jitsi", testRun, WithStopTimeout(3))
}

func xmppSpec() models.ServiceSpec {
	return models.ServiceSpec{
		Name:          models.ServiceXMPP,
		ContainerName: "jitsi-xmpp",
		Image:         "jitsi/prosody:stable",
		Ports: []models.PortBinding{
			{ContainerPort: 5222, Protocol: models.ProtocolTCP},
		},
		Volumes: []models.VolumeMount{
			{HostPath: "/cfg/prosody/config", ContainerPath: "/config", Relabel: true},
		},
		NetworkAliases: []string{"xmpp.meet.jitsi"},
		Env:            map[string]string{"B": "2", "A": "1"},
		RestartPolicy:  models.RestartPolicy{Name: models.RestartPolicyOnFailure, MaximumRetryCount: 5},
	}
}

func TestServerVersion(t *testing.T) {
	p := newTestPlatform(newFakeAPI())
	v, err := p.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "28.1.0 (api 1.51)", v)
}

func TestEnsureNetworkIdempotent(t *testing.T) {
	api := newFakeAPI()
	p := newTestPlatform(api)
	ctx := context.Background()

	first, err := p.EnsureNetwork(ctx, "meet.jitsi")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "net-meet.jitsi", first.ID)

	second, err := p.EnsureNetwork(ctx, "meet.jitsi")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, []string{
		"NetworkInspect meet.jitsi",
		"NetworkCreate meet.jitsi",
		"NetworkInspect meet.jitsi",
	}, api.Calls())
}

func TestEnsureNetworkCreateFails(t *testing.T) {
	api := newFakeAPI()
	api.createNetworkErr = errors.New("address pool exhausted")
	p := newTestPlatform(api)

	_, err := p.EnsureNetwork(context.Background(), "meet.jitsi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `create network "meet.jitsi"`)
	assert.Contains(t, err.Error(), "address pool exhausted")
}

func TestRemoveNetwork(t *testing.T) {
	api := newFakeAPI()
	api.networks["meet.jitsi"] = "n1"
	p := newTestPlatform(api)

	require.NoError(t, p.RemoveNetwork(context.Background(), "meet.jitsi"))
	require.NoError(t, p.RemoveNetwork(context.Background(), "meet.jitsi"))
	assert.Empty(t, api.networks)
}

func TestEnsureImagePolicies(t *testing.T) {
	const ref = "jitsi/web:stable"
	tests := []struct {
		name      string
		policy    models.PullPolicy
		present   bool
		wantCalls []string
		wantErr   error
	}{
		{
			name:      "always pulls",
			policy:    models.PullAlways,
			present:   true,
			wantCalls: []string{"ImagePull " + ref},
		},
		{
			name:      "missing skips present image",
			policy:    models.PullMissing,
			present:   true,
			wantCalls: []string{"ImageInspect " + ref},
		},
		{
			name:      "missing pulls absent image",
			policy:    models.PullMissing,
			wantCalls: []string{"ImageInspect " + ref, "ImagePull " + ref},
		},
		{
			name:      "never accepts present image",
			policy:    models.PullNever,
			present:   true,
			wantCalls: []string{"ImageInspect " + ref},
		},
		{
			name:      "never fails on absent image",
			policy:    models.PullNever,
			wantCalls: []string{"ImageInspect " + ref},
			wantErr:   ErrImageNotPresent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.images[ref] = tt.present
			p := newTestPlatform(api)

			err := p.EnsureImage(context.Background(), ref, tt.policy)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, api.Calls())
		})
	}
}

func TestEnsureImagePullError(t *testing.T) {
	api := newFakeAPI()
	api.pullErr = errdefs.ErrNotFound
	p := newTestPlatform(api)

	err := p.EnsureImage(context.Background(), "jitsi/jvb:nope", models.PullAlways)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jitsi/jvb:nope")
}

func TestRemoveIfPresent(t *testing.T) {
	api := newFakeAPI()
	p := newTestPlatform(api)
	ctx := context.Background()

	removed, err := p.RemoveIfPresent(ctx, "jitsi-web")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []string{"ContainerInspect jitsi-web"}, api.Calls())

	api.containers["jitsi-web"] = "old"
	removed, err = p.RemoveIfPresent(ctx, "jitsi-web")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Contains(t, api.Calls(), "ContainerRemove jitsi-web force volumes")
	assert.NotContains(t, api.containers, "jitsi-web")
}

func TestRemoveThenCreate(t *testing.T) {
	api := newFakeAPI()
	api.containers["jitsi-xmpp"] = "stale"
	p := newTestPlatform(api)
	ctx := context.Background()

	_, err := p.Create(ctx, xmppSpec())
	require.Error(t, err, "name clash without prior removal")

	_, err = p.RemoveIfPresent(ctx, "jitsi-xmpp")
	require.NoError(t, err)
	h, err := p.Create(ctx, xmppSpec())
	require.NoError(t, err)
	assert.Equal(t, "id-jitsi-xmpp", h.ID)
}

func TestCreateContainerConfig(t *testing.T) {
	api := newFakeAPI()
	p := newTestPlatform(api)

	h, err := p.Create(context.Background(), xmppSpec())
	require.NoError(t, err)
	assert.Equal(t, models.RuntimeHandle{ID: "id-jitsi-xmpp", Service: "xmpp", ContainerName: "jitsi-xmpp"}, h)

	require.Len(t, api.created, 1)
	opts := api.created[0]
	assert.Equal(t, "jitsi-xmpp", opts.Name)
	assert.Nil(t, opts.NetworkingConfig)

	assert.Equal(t, "jitsi/prosody:stable", opts.Config.Image)
	assert.Equal(t, []string{"A=1", "B=2"}, opts.Config.Env)
	assert.Equal(t, map[string]string{
		LabelStack:   "meet.jitsi",
		LabelService: "xmpp",
		LabelRun:     testRun.String(),
	}, opts.Config.Labels)

	assert.Equal(t, []string{"/cfg/prosody/config:/config:rw,Z"}, opts.HostConfig.Binds)
	assert.Equal(t, container.RestartPolicyOnFailure, opts.HostConfig.RestartPolicy.Name)
	assert.Equal(t, 5, opts.HostConfig.RestartPolicy.MaximumRetryCount)

	port, ok := network.PortFrom(5222, network.IPProtocol("tcp"))
	require.True(t, ok)
	assert.Contains(t, opts.Config.ExposedPorts, port)
	require.Len(t, opts.HostConfig.PortBindings[port], 1)
	assert.Equal(t, "", opts.HostConfig.PortBindings[port][0].HostPort)
}

func TestCreateRetryCountOnlyForOnFailure(t *testing.T) {
	api := newFakeAPI()
	p := newTestPlatform(api)
	spec := xmppSpec()
	spec.RestartPolicy = models.RestartPolicy{Name: models.RestartPolicyUnlessStopped, MaximumRetryCount: 5}

	_, err := p.Create(context.Background(), spec)
	require.NoError(t, err)
	rp := api.created[0].HostConfig.RestartPolicy
	assert.Equal(t, container.RestartPolicyUnlessStopped, rp.Name)
	assert.Zero(t, rp.MaximumRetryCount)
}

func TestConnectAliases(t *testing.T) {
	api := newFakeAPI()
	p := newTestPlatform(api)
	h := models.RuntimeHandle{ID: "c1", ContainerName: "jitsi-web"}

	err := p.Connect(context.Background(), h, models.NetworkHandle{ID: "n1", Name: "meet.jitsi"}, []string{"meet.jitsi", " "})
	require.NoError(t, err)

	require.Len(t, api.connects, 1)
	assert.Equal(t, "c1", api.connects[0].Container)
	assert.Equal(t, []string{"meet.jitsi"}, api.connects[0].EndpointConfig.Aliases)
	assert.Equal(t, []string{"NetworkConnect n1 c1"}, api.Calls())
}

func TestWaitReportsExit(t *testing.T) {
	api := newFakeAPI()
	api.waitResult = container.WaitResponse{StatusCode: 137}
	p := newTestPlatform(api)

	st, err := p.Wait(context.Background(), models.RuntimeHandle{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, int64(137), st.StatusCode)
}

func TestWaitCancelled(t *testing.T) {
	api := newFakeAPI()
	api.waitBlock = true
	p := newTestPlatform(api)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Wait(ctx, models.RuntimeHandle{ID: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitError(t *testing.T) {
	api := newFakeAPI()
	api.waitErr = errors.New("connection reset")
	p := newTestPlatform(api)

	_, err := p.Wait(context.Background(), models.RuntimeHandle{ID: "x", ContainerName: "jitsi-xmpp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jitsi-xmpp")
}

func TestStopAndRemove(t *testing.T) {
	api := newFakeAPI()
	api.removeErr["gone"] = errdefs.ErrNotFound
	p := newTestPlatform(api)
	ctx := context.Background()

	require.NoError(t, p.Stop(ctx, models.RuntimeHandle{ID: "c1"}))
	require.NoError(t, p.Remove(ctx, models.RuntimeHandle{ID: "c1"}))
	require.NoError(t, p.Remove(ctx, models.RuntimeHandle{ID: "gone"}))
	assert.Equal(t, []string{
		"ContainerStop c1",
		"ContainerRemove c1 force volumes",
		"ContainerRemove gone force volumes",
	}, api.Calls())
}

func TestLogsDemux(t *testing.T) {
	api := newFakeAPI()
	api.logs = append(append(frame(1, "out\n"), frame(2, "err\n")...), frame(1, "more\n")...)
	p := newTestPlatform(api)

	var stdout, stderr bytes.Buffer
	require.NoError(t, p.Logs(context.Background(), models.RuntimeHandle{ID: "x"}, &stdout, &stderr))
	assert.Equal(t, "out\nmore\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestTeardownStack(t *testing.T) {
	api := newFakeAPI()
	api.listed = []container.Summary{
		{ID: "a", Names: []string{"/jitsi-web"}},
		{ID: "b", Names: []string{"/jitsi-jvb"}},
		{ID: "c", Names: []string{"/jitsi-xmpp"}},
	}
	api.removeErr["b"] = errors.New("device busy")
	p := newTestPlatform(api)

	removed, err := p.TeardownStack(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jitsi-jvb")
	assert.Equal(t, 2, removed)

	calls := api.Calls()
	assert.Equal(t, "ContainerList "+LabelStack+"=meet.jitsi", calls[0])
	assert.Contains(t, calls, "ContainerRemove c force volumes", "continues past failures")
}
