package cli

import (
	"os"
	"path/filepath"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// defaultCredentialsFile picks ~/.config/luminous/credentials.json (or the
// platform equivalent), falling back to the working directory when no config
// dir can be resolved.
func defaultCredentialsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "luminous-credentials.json"
	}
	return filepath.Join(dir, "luminous", "credentials.json")
}
