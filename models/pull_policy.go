package models

type PullPolicy string

const (
	PullAlways  PullPolicy = "always"  // pull every run
	PullMissing PullPolicy = "missing" // pull only when absent locally
	PullNever   PullPolicy = "never"   // must already be present
)

func (p PullPolicy) Valid() bool {
	switch p {
	case PullAlways, PullMissing, PullNever:
		return true
	}
	return false
}
