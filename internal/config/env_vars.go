package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	appNameVar            = "APP_NAME"
	apiBaseURLVar         = "API_BASE_URL"
	profileDirVar         = "PROFILE_DIR"
	revalidateIntervalVar = "REVALIDATE_INTERVAL"
	logLevelVar           = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Lunchvote Client")
}

// GetAPIBaseURL returns the base URL of the meal-review backend
// (e.g. "https://api.lunchvote.example").
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8080")
}

// GetProfileDir returns the directory holding the persisted credentials.
// An empty value is returned when no usable location exists, in which
// case credentials do not persist.
func (EnvVars) GetProfileDir() string {
	if dir := os.Getenv(profileDirVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lunchvote")
}

func (EnvVars) GetRevalidateInterval() time.Duration {
	raw := GetEnv(revalidateIntervalVar, "5m")
	interval, err := time.ParseDuration(raw)
	if err != nil || interval <= 0 {
		return 5 * time.Minute
	}
	return interval
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
