package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// LoadEnvFiles exports the variables of each dotenv file into the process
// environment. Variables that are already set keep their value.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %q: %w", p, err)
		}
	}
	return nil
}
