package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/alphamail/chatbot/pkg/log"
)

// GetRuntimePath returns the directory holding .env and the index database.
// Relative paths are resolved against the user's home directory.
func GetRuntimePath() string {
	path := os.Getenv("CHATBOT_RUNTIME_PATH")
	if path == "" {
		path = ".chatbot"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}

// EnvFilePath is where the install wizard writes and startup reads settings.
func EnvFilePath(runtimePath string) string {
	return filepath.Join(runtimePath, ".env")
}

// LoadEnv loads the runtime .env into the process environment. Variables
// already set win. A missing file is not an error.
func LoadEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := EnvFilePath(runtimePath)

	if _, err := os.Stat(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
