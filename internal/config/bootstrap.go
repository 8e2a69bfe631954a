package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	// Copy defaultPath -> userPath
	src, err := os.Open(defaultPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}

// LoadEnv reads .env files from the data dir and the working directory.
// Missing files are fine; the process environment always wins.
func LoadEnv(dataDir string) {
	for _, p := range []string{filepath.Join(dataDir, ".env"), ".env"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("env file not loaded", "path", p, "err", err)
		}
	}
}
