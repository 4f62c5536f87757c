package models

type RestartPolicyName string

const (
	RestartPolicyNo            RestartPolicyName = "no"
	RestartPolicyAlways        RestartPolicyName = "always"
	RestartPolicyOnFailure     RestartPolicyName = "on-failure"
	RestartPolicyUnlessStopped RestartPolicyName = "unless-stopped"
)

// RestartPolicy is applied by the container host, independent of the
// orchestrator's own supervision.
type RestartPolicy struct {
	Name              RestartPolicyName `json:"name" yaml:"name"`
	MaximumRetryCount int               `json:"maximum_retry_count,omitempty" yaml:"maximum_retry_count,omitempty"`
}

func (n RestartPolicyName) Valid() bool {
	switch n {
	case RestartPolicyNo, RestartPolicyAlways, RestartPolicyOnFailure, RestartPolicyUnlessStopped:
		return true
	}
	return false
}
