// Package config loads the dictation shell's runtime configuration from a
// .env file and the process environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultVersion is the client semver sent in the hello payload when
// CLIENT_VERSION is unset.
const DefaultVersion = "2.20.0"

const envPath = ".env"

// Config holds every knob the core consumes. It is intentionally a flat
// struct, mirroring the teacher's style of reading straight into fields
// rather than building a nested settings tree.
type Config struct {
	WSURI         string
	RecordHotkey  string
	AudioDeviceID int
	LogLevel      string
	Version       string
	IdleTimeout   int // seconds
	Incognito     bool
}

// Load reads .env (if present) and overlays environment variables, applying
// the same defaults as the original client.
func Load() Config {
	_ = godotenv.Overload(envPath)

	return Config{
		WSURI:         getEnv("WHISPER_WS_URI", "ws://localhost:9989/ws"),
		RecordHotkey:  getEnv("RECORD_HOTKEY", "ctrl+alt+w"),
		AudioDeviceID: getEnvInt("AUDIO_DEVICE_ID", 0),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		Version:       getEnv("CLIENT_VERSION", DefaultVersion),
		IdleTimeout:   getEnvInt("IDLE_TIMEOUT", 300),
	}
}

// EnvPath returns the path of the .env file backing this configuration.
func EnvPath() string { return envPath }

// Exists reports whether a .env file is already present, used to decide
// whether first-run setup should kick in.
func Exists() bool {
	_, err := os.Stat(envPath)
	return err == nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
