package models

import "fmt"

// Configuration is built once at process entry and handed to the controller.
type Configuration struct {
	StackVersion  string        `yaml:"stack_version"`
	ConfigRootDir string        `yaml:"config_root_dir"`
	NetworkName   string        `yaml:"network_name"`
	RestartPolicy RestartPolicy `yaml:"restart_policy"`
	PullPolicy    PullPolicy    `yaml:"pull_policy"`
	PurgeConfig   bool          `yaml:"purge_config"`

	// Ordered logical service names; creation and start follow this order,
	// teardown the reverse.
	StartOrder []string `yaml:"start_order"`

	// Anchor is the service whose exit ends the run.
	Anchor string `yaml:"anchor"`

	Services map[string]ServiceSpec `yaml:"services"`
	Secrets  Secrets                `yaml:"-"`
}

// Ordered returns the service specs in start order.
func (c *Configuration) Ordered() ([]ServiceSpec, error) {
	out := make([]ServiceSpec, 0, len(c.StartOrder))
	for _, name := range c.StartOrder {
		spec, ok := c.Services[name]
		if !ok {
			return nil, fmt.Errorf("start order references unknown service %q", name)
		}
		out = append(out, spec)
	}
	return out, nil
}
