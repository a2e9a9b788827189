package env

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// DefaultFiles are tried when Load is called without arguments: the working
// directory first, then the repository root as seen from services/<name>/.
var DefaultFiles = []string{".env", "../../.env"}

// Load populates the process environment from .env files. Missing files are
// skipped and variables already set are never overwritten, so earlier files
// and the host environment take precedence. It returns the files loaded.
func Load(files ...string) []string {
	if len(files) == 0 {
		files = DefaultFiles
	}

	var loaded []string
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			continue
		}
		loaded = append(loaded, f)
	}

	slog.Debug("env_load_attempt_complete", "loaded", loaded)
	return loaded
}
