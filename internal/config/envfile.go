package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded when neither --env-file nor ENV_FILE is set.
const DefaultEnvFile = ".env"

// ResolveEnvFile picks the env file path: flag value, then ENV_FILE, then DefaultEnvFile.
func ResolveEnvFile(flagValue string) string {
	if path := strings.TrimSpace(flagValue); path != "" {
		return path
	}
	if path := strings.TrimSpace(os.Getenv("ENV_FILE")); path != "" {
		return path
	}
	return DefaultEnvFile
}

// LoadEnvFile exports the variables in path into the process environment.
// Variables that are already set keep their value. A missing file is not an
// error; loaded reports whether the file was read.
func LoadEnvFile(path string) (loaded bool, err error) {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("load env file %s: %w", path, err)
	}
	return true, nil
}
