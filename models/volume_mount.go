package models

type AccessMode string

const (
	AccessModeReadWrite AccessMode = "rw"
	AccessModeReadOnly  AccessMode = "ro"
)

// VolumeMount binds a host directory into the container.
type VolumeMount struct {
	// Absolute path on the host, created by the filesystem preparer.
	HostPath string `json:"host_path" yaml:"host_path"`

	// Path inside the container where the directory is mounted
	ContainerPath string `json:"container_path" yaml:"container_path"`

	// Empty means read-write.
	Mode AccessMode `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Relabel asks the host to apply a private SELinux label (":Z").
	Relabel bool `json:"relabel,omitempty" yaml:"relabel,omitempty"`
}

// Bind renders the mount in the engine's "src:dst:opts" bind syntax.
func (v VolumeMount) Bind() string {
	mode := v.Mode
	if mode == "" {
		mode = AccessModeReadWrite
	}
	opts := string(mode)
	if v.Relabel {
		opts += ",Z"
	}
	return v.HostPath + ":" + v.ContainerPath + ":" + opts
}
