// Package config resolves the process environment into the stack's typed
// configuration: one ServiceSpec per service, with secrets injected.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/ezenkico/meet-commander/models"
)

var (
	ErrMissingVariable      = errors.New("required variable is not set")
	ErrInvalidPort          = errors.New("invalid port")
	ErrInvalidOrder         = errors.New("invalid start order")
	ErrInvalidRestartPolicy = errors.New("invalid restart policy")
	ErrInvalidPullPolicy    = errors.New("invalid pull policy")
	ErrInvalidBool          = errors.New("invalid boolean")
)

// Environment variable names read directly by the resolver.
const (
	EnvStackVersion      = "STACK_VERSION"
	EnvConfigRootDir     = "CONFIG_ROOT_DIR"
	EnvRestartPolicy     = "RESTART_POLICY"
	EnvNetworkName       = "DOCKER_NETWORK_NAME"
	EnvXMPPDomain        = "XMPP_DOMAIN"
	EnvXMPPServer        = "XMPP_SERVER"
	EnvHTTPPort          = "HTTP_PORT"
	EnvHTTPSPort         = "HTTPS_PORT"
	EnvJVBPort           = "JVB_PORT"
	EnvJVBTCPPort        = "JVB_TCP_PORT"
	EnvJVBTCPMappedPort  = "JVB_TCP_MAPPED_PORT"
	EnvEnableLetsEncrypt = "ENABLE_LETSENCRYPT"
	EnvStartOrder        = "START_ORDER"
	EnvPullPolicy        = "PULL_POLICY"
	EnvPurgeConfig       = "PURGE_CONFIG"
	EnvImagePrefix       = "IMAGE_PREFIX"
)

const defaultImagePrefix = "jitsi"

// Lookup reads one variable; ok is false when it is not set.
type Lookup func(key string) (value string, ok bool)

// Overlay returns a Lookup that consults overrides before base. Empty
// override values are ignored.
func Overlay(base Lookup, overrides map[string]string) Lookup {
	return func(key string) (string, bool) {
		if v, ok := overrides[key]; ok && v != "" {
			return v, true
		}
		return base(key)
	}
}

// MapLookup adapts a plain map, mostly for tests and dotenv content.
func MapLookup(m map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Resolve builds the configuration. It reads nothing but lookup and fails on
// the first pass with every missing or malformed required variable.
func Resolve(lookup Lookup, secrets models.Secrets) (*models.Configuration, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	r := &resolver{lookup: lookup}

	version := r.required(EnvStackVersion)
	network := r.required(EnvNetworkName)
	root := r.rootDir()
	httpPort := r.port(EnvHTTPPort)
	httpsPort := r.port(EnvHTTPSPort)
	jvbPort := r.port(EnvJVBPort)
	jvbTCPPort := r.port(EnvJVBTCPPort)
	jvbTCPMapped := r.port(EnvJVBTCPMappedPort)
	restart := r.restartPolicy()
	pull := r.pullPolicy()
	purge := r.boolean(EnvPurgeConfig, true)
	order := r.startOrder()

	if r.err != nil {
		return nil, r.err
	}

	prefix := r.optional(EnvImagePrefix)
	if prefix == "" {
		prefix = defaultImagePrefix
	}
	image := func(repo string) string {
		return strings.TrimSuffix(prefix, "/") + "/" + repo + ":" + version
	}
	mount := func(dir, target string) models.VolumeMount {
		return models.VolumeMount{
			HostPath:      filepath.Join(root, filepath.FromSlash(dir)),
			ContainerPath: target,
			Mode:          models.AccessModeReadWrite,
			Relabel:       true,
		}
	}

	xmpp := models.ServiceSpec{
		Name:          models.ServiceXMPP,
		ContainerName: xmppContainer,
		Image:         image(xmppImage),
		Volumes: []models.VolumeMount{
			mount(DirProsodyConfig, "/config"),
			mount(DirProsodyPlugin, "/prosody-plugins-custom"),
		},
		NetworkAliases: r.aliases(EnvXMPPServer),
		RestartPolicy:  restart,
		Env:            r.env(xmppEnvKeys),
	}
	for _, p := range xmppPorts {
		xmpp.Ports = append(xmpp.Ports, models.PortBinding{ContainerPort: p, Protocol: models.ProtocolTCP})
	}
	xmpp.Env["JICOFO_COMPONENT_SECRET"] = secrets.JicofoComponentSecret
	xmpp.Env["JICOFO_AUTH_PASSWORD"] = secrets.JicofoAuthPassword
	xmpp.Env["JVB_AUTH_PASSWORD"] = secrets.JVBAuthPassword
	xmpp.Env["JIGASI_XMPP_PASSWORD"] = secrets.JigasiXMPPPassword
	xmpp.Env["JIBRI_XMPP_PASSWORD"] = secrets.JibriXMPPPassword
	xmpp.Env["JIBRI_RECORDER_PASSWORD"] = secrets.JibriRecorderPassword

	focus := models.ServiceSpec{
		Name:          models.ServiceFocus,
		ContainerName: focusContainer,
		Image:         image(focusImage),
		Volumes:       []models.VolumeMount{mount(DirJicofo, "/config")},
		RestartPolicy: restart,
		Env:           r.env(focusEnvKeys),
	}
	focus.Env["JICOFO_COMPONENT_SECRET"] = secrets.JicofoComponentSecret
	focus.Env["JICOFO_AUTH_PASSWORD"] = secrets.JicofoAuthPassword

	mediaRelay := models.ServiceSpec{
		Name:          models.ServiceMediaRelay,
		ContainerName: mediaRelayContainer,
		Image:         image(mediaRelayImage),
		Ports: []models.PortBinding{
			{ContainerPort: jvbPort, Protocol: models.ProtocolUDP, HostPort: ptr(jvbPort)},
			{ContainerPort: jvbTCPPort, Protocol: models.ProtocolTCP, HostPort: ptr(jvbTCPMapped)},
		},
		Volumes:       []models.VolumeMount{mount(DirJVB, "/config")},
		RestartPolicy: restart,
		Env:           r.env(mediaRelayEnvKeys),
	}
	mediaRelay.Env["JVB_AUTH_PASSWORD"] = secrets.JVBAuthPassword

	web := models.ServiceSpec{
		Name:          models.ServiceWeb,
		ContainerName: webContainer,
		Image:         image(webImage),
		Ports: []models.PortBinding{
			{ContainerPort: 80, Protocol: models.ProtocolTCP, HostPort: ptr(httpPort)},
			{ContainerPort: 443, Protocol: models.ProtocolTCP, HostPort: ptr(httpsPort)},
		},
		Volumes: []models.VolumeMount{
			mount(DirWeb, "/config"),
			mount(DirLetsEncrypt, "/etc/letsencrypt"),
			mount(DirTranscripts, "/usr/share/jitsi-meet/transcripts"),
		},
		NetworkAliases: r.aliases(EnvXMPPDomain),
		RestartPolicy:  restart,
		Env:            r.env(webEnvKeys),
	}
	web.Env[EnvEnableLetsEncrypt] = letsEncryptFlag(r.optional(EnvEnableLetsEncrypt))
	web.Env["JIBRI_XMPP_PASSWORD"] = secrets.JibriXMPPPassword
	web.Env["JIBRI_RECORDER_PASSWORD"] = secrets.JibriRecorderPassword

	return &models.Configuration{
		StackVersion:  version,
		ConfigRootDir: root,
		NetworkName:   network,
		RestartPolicy: restart,
		PullPolicy:    pull,
		PurgeConfig:   purge,
		StartOrder:    order,
		Anchor:        models.ServiceXMPP,
		Services: map[string]models.ServiceSpec{
			xmpp.Name:       xmpp,
			focus.Name:      focus,
			mediaRelay.Name: mediaRelay,
			web.Name:        web,
		},
		Secrets: secrets,
	}, nil
}

// HostDirs lists every bind-mount source of the configuration, relative to
// its config root, in a stable order.
func HostDirs() []string {
	return []string{
		DirWeb,
		DirLetsEncrypt,
		DirTranscripts,
		DirProsodyConfig,
		DirProsodyPlugin,
		DirJicofo,
		DirJVB,
	}
}

type resolver struct {
	lookup Lookup
	err    error
}

func (r *resolver) fail(err error) {
	r.err = multierr.Append(r.err, err)
}

func (r *resolver) optional(key string) string {
	v, _ := r.lookup(key)
	return strings.TrimSpace(v)
}

func (r *resolver) required(key string) string {
	v := r.optional(key)
	if v == "" {
		r.fail(fmt.Errorf("%s: %w", key, ErrMissingVariable))
	}
	return v
}

func (r *resolver) port(key string) uint16 {
	v := r.required(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil || n == 0 {
		r.fail(fmt.Errorf("%s=%q: %w", key, v, ErrInvalidPort))
		return 0
	}
	return uint16(n)
}

func (r *resolver) rootDir() string {
	v := r.required(EnvConfigRootDir)
	if v == "" {
		return ""
	}
	abs, err := ExpandRoot(v)
	if err != nil {
		r.fail(fmt.Errorf("%s=%q: %w", EnvConfigRootDir, v, err))
		return ""
	}
	return abs
}

// ExpandRoot resolves a leading "~" and makes the path absolute.
func ExpandRoot(v string) (string, error) {
	if v == "~" || strings.HasPrefix(v, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand home: %w", err)
		}
		v = filepath.Join(home, strings.TrimPrefix(v, "~"))
	}
	return filepath.Abs(v)
}

func (r *resolver) restartPolicy() models.RestartPolicy {
	v := strings.ToLower(r.optional(EnvRestartPolicy))
	if v == "" {
		return models.RestartPolicy{Name: models.RestartPolicyNo}
	}
	name := models.RestartPolicyName(v)
	if !name.Valid() {
		r.fail(fmt.Errorf("%s=%q: %w", EnvRestartPolicy, v, ErrInvalidRestartPolicy))
		return models.RestartPolicy{}
	}
	p := models.RestartPolicy{Name: name}
	// The engine only accepts a retry count together with on-failure.
	if name == models.RestartPolicyOnFailure {
		p.MaximumRetryCount = defaultRetryCount
	}
	return p
}

func (r *resolver) pullPolicy() models.PullPolicy {
	v := strings.ToLower(r.optional(EnvPullPolicy))
	if v == "" {
		return models.PullAlways
	}
	p := models.PullPolicy(v)
	if !p.Valid() {
		r.fail(fmt.Errorf("%s=%q: %w", EnvPullPolicy, v, ErrInvalidPullPolicy))
	}
	return p
}

func (r *resolver) boolean(key string, def bool) bool {
	v := r.optional(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(fmt.Errorf("%s=%q: %w", key, v, ErrInvalidBool))
		return def
	}
	return b
}

func (r *resolver) startOrder() []string {
	v := r.optional(EnvStartOrder)
	if v == "" {
		return append([]string(nil), models.DefaultStartOrder...)
	}
	order, err := ParseStartOrder(v)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", EnvStartOrder, err))
	}
	return order
}

// ParseStartOrder parses a comma separated list that must name each of the
// four services exactly once.
func ParseStartOrder(v string) ([]string, error) {
	known := map[string]bool{}
	for _, name := range models.DefaultStartOrder {
		known[name] = false
	}
	var order []string
	for _, part := range strings.Split(v, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		seen, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown service %q: %w", name, ErrInvalidOrder)
		}
		if seen {
			return nil, fmt.Errorf("service %q listed twice: %w", name, ErrInvalidOrder)
		}
		known[name] = true
		order = append(order, name)
	}
	if len(order) != len(models.DefaultStartOrder) {
		return nil, fmt.Errorf("got %d services, want %d: %w", len(order), len(models.DefaultStartOrder), ErrInvalidOrder)
	}
	return order, nil
}

// aliases yields a one-element alias list, or none when the variable is unset.
func (r *resolver) aliases(key string) []string {
	if v := r.optional(key); v != "" {
		return []string{v}
	}
	return nil
}

func (r *resolver) env(keys []string) map[string]string {
	out := make(map[string]string, len(keys)+6)
	for _, k := range keys {
		if v, ok := r.lookup(k); ok {
			out[k] = v
		}
	}
	return out
}

func letsEncryptFlag(v string) string {
	if strings.EqualFold(v, "true") || v == "1" {
		return "1"
	}
	return ""
}

func ptr(p uint16) *uint16 { return &p }
