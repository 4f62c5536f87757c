package models

import (
	"slices"
	"strings"
)

// Logical service names. These are the keys of Configuration.Services.
const (
	ServiceXMPP       = "xmpp"
	ServiceFocus      = "focus"
	ServiceMediaRelay = "media-relay"
	ServiceWeb        = "web"
)

// DefaultStartOrder is the documented dependency order: focus and the media
// relay register with XMPP, and web expects the XMPP domain to resolve.
var DefaultStartOrder = []string{ServiceXMPP, ServiceFocus, ServiceMediaRelay, ServiceWeb}

// ServiceSpec describes one container of the stack. It is immutable once the
// configuration resolver has built it.
type ServiceSpec struct {
	// Logical name (xmpp, focus, ...)
	Name string `json:"name" yaml:"name"`

	// Container name on the host
	ContainerName string `json:"container_name" yaml:"container_name"`

	// Required
	Image string `json:"image" yaml:"image"`

	Ports   []PortBinding `json:"ports,omitempty" yaml:"ports,omitempty"`
	Volumes []VolumeMount `json:"volumes,omitempty" yaml:"volumes,omitempty"`

	// Hostnames other services use on the shared network. Empty for pure clients.
	NetworkAliases []string `json:"network_aliases,omitempty" yaml:"network_aliases,omitempty"`

	// Environment variables
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	RestartPolicy RestartPolicy `json:"restart_policy" yaml:"restart_policy"`
}

// EnvList returns the environment as sorted KEY=value pairs.
func (s ServiceSpec) EnvList() []string {
	out := make([]string, 0, len(s.Env))
	for k, v := range s.Env {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}

// Redacted returns a copy whose env values that match any of the given
// secrets are masked.
func (s ServiceSpec) Redacted(secrets Secrets) ServiceSpec {
	values := secrets.Values()
	env := make(map[string]string, len(s.Env))
	for k, v := range s.Env {
		if v != "" && slices.Contains(values, v) {
			v = strings.Repeat("*", 8)
		}
		env[k] = v
	}
	s.Env = env
	return s
}
