package config

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const secretFileName = ".octopanel_secret"

// LoadOrGenerateSecret returns the session signing key. The environment wins,
// then a persisted secret, then a freshly generated one that is written back.
func LoadOrGenerateSecret(configDir string) string {
	if env := os.Getenv(envPrefix + "_SECRET_KEY"); env != "" {
		return env
	}

	secretPath := filepath.Join(configDir, secretFileName)
	if data, err := os.ReadFile(secretPath); err == nil {
		if s := strings.TrimSpace(string(data)); s != "" {
			return s
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		slog.Error("could not generate secret", "error", err)
		return ""
	}
	secret := hex.EncodeToString(buf)

	if err := os.WriteFile(secretPath, []byte(secret), 0600); err != nil {
		slog.Warn("could not persist secret", "path", secretPath, "error", err)
	}
	return secret
}
