package docker

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/moby/moby/api/types/network"

	"github.com/ezenkico/meet-commander/models"
)

// Labels set on every container and network of a stack.
const (
	LabelStack   = "meet-commander.stack"
	LabelService = "meet-commander.service"
	LabelRun     = "meet-commander.run"
)

const (
	defaultStopTimeout = 10
	networkDriver      = "bridge"
)

var ErrImageNotPresent = errors.New("image not present locally")

func (p *DockerPlatform) labels(service string) map[string]string {
	l := map[string]string{
		LabelStack: p.stack,
		LabelRun:   p.run.String(),
	}
	if service != "" {
		l[LabelService] = service
	}
	return l
}

// StackFilter selects objects labelled with the given stack.
func StackFilter(stack string) string {
	return LabelStack + "=" + stack
}

// portConfig converts a service's port bindings into the engine's exposed set and
// publish map. A binding without host port is published on an ephemeral port.
func portConfig(ports []models.PortBinding) (network.PortSet, network.PortMap, error) {
	exposed := network.PortSet{}
	portMap := network.PortMap{}

	for _, b := range ports {
		proto := b.Protocol
		if proto == "" {
			proto = models.ProtocolTCP
		}
		port, ok := network.PortFrom(b.ContainerPort, network.IPProtocol(proto))
		if !ok {
			return nil, nil, fmt.Errorf("invalid port %s", b)
		}
		exposed[port] = struct{}{}

		binding := network.PortBinding{}
		if b.HostPort != nil {
			binding.HostPort = fmt.Sprintf("%d", *b.HostPort)
		}
		portMap[port] = append(portMap[port], binding)
	}
	return exposed, portMap, nil
}

func binds(volumes []models.VolumeMount) []string {
	out := make([]string, 0, len(volumes))
	for _, v := range volumes {
		out = append(out, v.Bind())
	}
	return out
}

// cleanAliases drops blank aliases.
func cleanAliases(aliases []string) []string {
	var out []string
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func containerName(names []string, id string) string {
	if len(names) > 0 {
		return strings.TrimPrefix(names[0], "/")
	}
	return id
}

// DemuxDockerLogs splits the engine's multiplexed log stream into stdout and
// stderr. Each frame is an 8 byte header (stream type, 3 zero bytes, big
// endian size) followed by the payload.
func DemuxDockerLogs(dstOut, dstErr io.Writer, src io.Reader) error {
	r := bufio.NewReader(src)

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}

		streamType := header[0] // 1=stdout, 2=stderr
		size := binary.BigEndian.Uint32(header[4:8])

		if size == 0 {
			continue
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return err
		}

		w := dstOut
		if streamType == 2 {
			w = dstErr
		}
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write docker log payload: %w", err)
		}
	}
}
