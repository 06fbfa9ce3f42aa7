package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the process reads from the environment. Load it
// after godotenv has had a chance to populate os.Environ from a .env file.
type Config struct {
	// Addr is the HTTP/WebSocket listen address.
	Addr string
	// AllowedOrigins is the browser origin allow-list; "*" allows all.
	AllowedOrigins []string
	// LogFile is the rolling log file path.
	LogFile string

	// Heartbeat timing, owned by the transport.
	PingInterval time.Duration
	PongTimeout  time.Duration

	// MoveInterval is the minimum spacing between accepted movement
	// updates per connection.
	MoveInterval time.Duration

	// Flood limiting per connection.
	MessagesPerSecond float64
	MessageBurst      int
}

// Load reads the configuration from environment variables, falling back to
// the defaults of the original deployment.
func Load() *Config {
	return &Config{
		Addr:              getEnv("LISTEN_ADDR", ":3000"),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "http://127.0.0.1:5500,http://localhost:5500,https://club-3d.vercel.app")),
		LogFile:           getEnv("LOG_FILE", "clubsync.log"),
		PingInterval:      getEnvDurationMs("PING_INTERVAL_MS", 25000),
		PongTimeout:       getEnvDurationMs("PONG_TIMEOUT_MS", 60000),
		MoveInterval:      getEnvDurationMs("MOVE_INTERVAL_MS", 16),
		MessagesPerSecond: getEnvFloat("MSGS_PER_SECOND", 100),
		MessageBurst:      getEnvInt("MSG_BURST", 200),
	}
}

// getEnv reads an environment variable and returns its value or a default value
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMs)) * time.Millisecond
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
