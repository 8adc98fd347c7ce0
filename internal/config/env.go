package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// SessionEnv names the environment variable holding the session id.
const SessionEnv = "SHELLFOLIO_SESSION"

// LoadEnv loads a .env file from the working directory if it exists.
func LoadEnv() {
	// Missing .env is the common case.
	_ = godotenv.Load()
}

// DefaultSession returns the session id from the environment, falling back to
// the parent process id so each terminal keeps its own history.
func DefaultSession() string {
	if v := strings.TrimSpace(os.Getenv(SessionEnv)); v != "" {
		return v
	}
	return "ppid-" + strconv.Itoa(os.Getppid())
}
