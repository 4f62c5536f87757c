package models

// Secrets are the shared inter-service credentials of one run. They live in
// memory only; every run generates a fresh set.
type Secrets struct {
	JicofoComponentSecret string
	JicofoAuthPassword    string
	JVBAuthPassword       string
	JigasiXMPPPassword    string
	JibriRecorderPassword string
	JibriXMPPPassword     string
}

// Values lists the six secrets in a fixed order.
func (s Secrets) Values() []string {
	return []string{
		s.JicofoComponentSecret,
		s.JicofoAuthPassword,
		s.JVBAuthPassword,
		s.JigasiXMPPPassword,
		s.JibriRecorderPassword,
		s.JibriXMPPPassword,
	}
}
