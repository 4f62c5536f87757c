// Package secret generates the shared credentials of a run.
package secret

import (
	"crypto/rand"
	"fmt"

	"github.com/ezenkico/meet-commander/models"
)

const (
	Alphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	DefaultLength = 32

	// Largest multiple of len(Alphabet) that fits in a byte; bytes at or above
	// it are rejected so every symbol stays equally likely.
	rejectAbove = 256 - 256%len(Alphabet)
)

// Generate returns length characters drawn uniformly from Alphabet using
// crypto/rand. It panics if the system random source is unavailable rather
// than degrade to a weaker source.
func Generate(length int) string {
	if length <= 0 {
		return ""
	}
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+8)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("secret: system random source unavailable: %v", err))
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out)
}

// NewSecrets draws the six credentials of a run, each independently.
func NewSecrets(gen func(length int) string) models.Secrets {
	if gen == nil {
		gen = Generate
	}
	return models.Secrets{
		JicofoComponentSecret: gen(DefaultLength),
		JicofoAuthPassword:    gen(DefaultLength),
		JVBAuthPassword:       gen(DefaultLength),
		JigasiXMPPPassword:    gen(DefaultLength),
		JibriRecorderPassword: gen(DefaultLength),
		JibriXMPPPassword:     gen(DefaultLength),
	}
}
