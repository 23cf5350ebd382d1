package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from the first .env file found.
// A missing file is not an error; variables may be set by the environment.
func LoadEnv() error {
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
		"../../.env",
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			fmt.Fprintf(os.Stderr, "✅ Loaded environment variables from %s\n", envPath)
			break
		}
	}

	return nil
}

// CredentialStatus reports which provider kinds have a credential variable set.
// Values are never returned, only presence.
func CredentialStatus() map[string]bool {
	status := make(map[string]bool, len(ProviderCredentialEnv))
	for kind, names := range ProviderCredentialEnv {
		present := false
		for _, name := range names {
			if strings.TrimSpace(os.Getenv(name)) != "" {
				present = true
				break
			}
		}
		status[kind] = present
	}
	return status
}

// ConfiguredProviders lists provider kinds whose credentials are present, sorted.
func ConfiguredProviders() []string {
	var kinds []string
	for kind, ok := range CredentialStatus() {
		if ok {
			kinds = append(kinds, kind)
		}
	}
	sort.Strings(kinds)
	return kinds
}

// GetProjectRoot finds the project root directory by looking for go.mod
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find project root (go.mod not found)")
}

// InitializeConfig loads .env, reads settings from the environment and validates them.
// This is the main entry point for process configuration.
func InitializeConfig() (*Settings, error) {
	if err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	settings := LoadSettings()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	if kinds := ConfiguredProviders(); len(kinds) > 0 {
		fmt.Fprintf(os.Stderr, "✅ Provider credentials available: %s\n", strings.Join(kinds, ", "))
	} else {
		fmt.Fprintf(os.Stderr, "ℹ️  No provider credentials configured (transcription will fail at resolution)\n")
	}

	return settings, nil
}
