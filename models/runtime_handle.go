package models

// RuntimeHandle references a container created for a ServiceSpec.
type RuntimeHandle struct {
	ID            string
	Service       string
	ContainerName string
}

// NetworkHandle references the shared bridge network.
type NetworkHandle struct {
	ID   string
	Name string

	// Created is true when this call created the network.
	Created bool
}

// ExitStatus is the terminal state reported for a waited container.
type ExitStatus struct {
	StatusCode int64
	Error      string
}
