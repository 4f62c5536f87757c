package orchestrator

type State int32

const (
	Idle State = iota
	Preparing
	NetworkReady
	ImagesVerified
	Starting
	Running
	TearingDown
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Preparing:
		return "Preparing"
	case NetworkReady:
		return "NetworkReady"
	case ImagesVerified:
		return "ImagesVerified"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case TearingDown:
		return "TearingDown"
	case Stopped:
		return "Stopped"
	}
	return "Unknown"
}
