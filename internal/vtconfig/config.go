// Package vtconfig collects the process-wide tunables that are not CLI
// flags: log level/format, default ports, and the timing constants the
// supervisor and transports use.
package vtconfig

import (
	"os"
	"strconv"
	"time"
)

// Config holds knobs read once at process start, each backed by an
// environment variable with a documented default.
type Config struct {
	// LogLevel is a logrus level name (trace, debug, info, warn, error).
	LogLevel string `yaml:"logLevel,omitempty"`

	// LogFormat is "text" or "json". Defaults to "text" on a TTY, "json"
	// otherwise, unless explicitly overridden.
	LogFormat string `yaml:"logFormat,omitempty"`

	// DefaultContainerPort is the port an MCP server is told to listen on
	// inside the container when the caller does not specify one (SSE mode).
	DefaultContainerPort int `yaml:"defaultContainerPort,omitempty"`

	// HandshakeGap is the delay between synthesizing the initialize
	// request and the notifications/initialized notification on STDIO
	// transport startup.
	HandshakeGap time.Duration `yaml:"handshakeGap,omitempty"`

	// MonitorPollInterval bounds how often the exit monitor polls
	// container state. Must stay at or below 1s per the supervisor's
	// contract.
	MonitorPollInterval time.Duration `yaml:"monitorPollInterval,omitempty"`

	// ToContainerQueueSize bounds the STDIO transport's stdin queue depth
	// before POST handlers start blocking (backpressure).
	ToContainerQueueSize int `yaml:"toContainerQueueSize,omitempty"`

	// PortProbeAttempts bounds how many random ephemeral ports the port
	// allocator will try before giving up.
	PortProbeAttempts int `yaml:"portProbeAttempts,omitempty"`

	// Debug, when set via VIBETOOL_DEBUG, keeps the container around after
	// a foreground run's shutdown stops it, instead of removing it, for
	// post-mortem inspection. The rm command removes regardless.
	Debug bool `yaml:"debug,omitempty"`
}

// Load builds a Config from environment variables, applying defaults for
// anything unset. There is no on-disk file: this system has no persistent
// registry or interactive config surface to back one.
func Load() *Config {
	c := &Config{
		LogLevel:             envOr("VIBETOOL_LOG_LEVEL", "info"),
		LogFormat:             envOr("VIBETOOL_LOG_FORMAT", ""),
		DefaultContainerPort:  envIntOr("VIBETOOL_DEFAULT_CONTAINER_PORT", 8080),
		HandshakeGap:          envDurationOr("VIBETOOL_HANDSHAKE_GAP", 100*time.Millisecond),
		MonitorPollInterval:   envDurationOr("VIBETOOL_MONITOR_POLL_INTERVAL", 750*time.Millisecond),
		ToContainerQueueSize:  envIntOr("VIBETOOL_STDIN_QUEUE_SIZE", 64),
		PortProbeAttempts:     envIntOr("VIBETOOL_PORT_PROBE_ATTEMPTS", 10),
		Debug:                 os.Getenv("VIBETOOL_DEBUG") == "1" || os.Getenv("VIBETOOL_DEBUG") == "true",
	}
	return c
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
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

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
