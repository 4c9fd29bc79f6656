package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Duration wraps time.Duration so TOML duration strings like "30s" decode
// directly into config fields. go-toml/v2 decodes strings through
// encoding.TextUnmarshaler, which time.Duration does not implement.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the standard library representation
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Crawler     CrawlerConfig   `toml:"crawler"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

// CrawlerConfig bounds every crawl session. Threaded into each session at
// construction rather than read as ambient state.
type CrawlerConfig struct {
	MaxPages           int      `toml:"max_pages" validate:"min=1"`          // Visited-ledger cap per session
	NavigationTimeout  Duration `toml:"navigation_timeout" validate:"min=1"` // Per-page navigation deadline
	JavaScriptWaitTime Duration `toml:"javascript_wait_time"`                // Settle time after navigation for JS rendering
	UserAgent          string   `toml:"user_agent"`
	Headless           bool     `toml:"headless"`
	NoSandbox          bool     `toml:"no_sandbox"`
	DisableGPU         bool     `toml:"disable_gpu"`
}

// WebSocketConfig contains configuration for the client-facing channel
type WebSocketConfig struct {
	KeepaliveInterval Duration `toml:"keepalive_interval" validate:"min=1"` // Ping cadence; dead channels are torn down on write failure
	ReadBufferSize    int      `toml:"read_buffer_size"`
	WriteBufferSize   int      `toml:"write_buffer_size"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Crawler: CrawlerConfig{
			MaxPages:           1000,
			NavigationTimeout:  Duration(30 * time.Second),
			JavaScriptWaitTime: Duration(2 * time.Second),
			UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Headless:           true,
			NoSandbox:          false,
			DisableGPU:         true,
		},
		WebSocket: WebSocketConfig{
			KeepaliveInterval: Duration(30 * time.Second),
			ReadBufferSize:    1024,
			WriteBufferSize:   1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
// An empty path skips the file step so the binary runs with defaults.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks the configuration against its struct constraints
func (c *Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SIFTOR_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("SIFTOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SIFTOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if maxPages := os.Getenv("SIFTOR_MAX_PAGES"); maxPages != "" {
		if mp, err := strconv.Atoi(maxPages); err == nil {
			config.Crawler.MaxPages = mp
		}
	}
	if timeout := os.Getenv("SIFTOR_NAVIGATION_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Crawler.NavigationTimeout = Duration(d)
		}
	}
	if keepalive := os.Getenv("SIFTOR_KEEPALIVE_INTERVAL"); keepalive != "" {
		if d, err := time.ParseDuration(keepalive); err == nil {
			config.WebSocket.KeepaliveInterval = Duration(d)
		}
	}

	if level := os.Getenv("SIFTOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
