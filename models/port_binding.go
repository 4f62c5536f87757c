package models

import "fmt"

type Protocol string

const (
	ProtocolTCP Protocol = "tcp"
	ProtocolUDP Protocol = "udp"
)

// PortBinding publishes one container port on the host.
type PortBinding struct {
	ContainerPort uint16   `json:"container_port" yaml:"container_port"`
	Protocol      Protocol `json:"protocol" yaml:"protocol"`

	// HostPort nil lets the host pick an ephemeral port.
	HostPort *uint16 `json:"host_port,omitempty" yaml:"host_port,omitempty"`
}

func (p PortBinding) String() string {
	proto := p.Protocol
	if proto == "" {
		proto = ProtocolTCP
	}
	if p.HostPort == nil {
		return fmt.Sprintf("%d/%s", p.ContainerPort, proto)
	}
	return fmt.Sprintf("%d->%d/%s", *p.HostPort, p.ContainerPort, proto)
}
