package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig represents server configuration
type ServerConfig struct {
	Address string `yaml:"address"`
	// AllowedOrigin pins browser websocket handshakes to one frontend
	// origin. Empty accepts any origin (development).
	AllowedOrigin string          `yaml:"allowed_origin"`
	TLS           TLSConfig       `yaml:"tls"`
	Database      DatabaseConfig  `yaml:"database"`
	Uploads       UploadsConfig   `yaml:"uploads"`
	Auth          AuthConfig      `yaml:"auth"`
	Heartbeat     HeartbeatConfig `yaml:"heartbeat"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// TLSConfig represents TLS settings
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DatabaseConfig represents database settings
type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite | mysql
	Path string `yaml:"path"` // file path for sqlite, DSN for mysql
}

// UploadsConfig represents attachment storage settings
type UploadsConfig struct {
	Dir         string `yaml:"dir"`
	MaxSizeKB   int    `yaml:"max_size_kb"`
	PublicRoute string `yaml:"public_route"`
}

// AuthConfig represents identity token settings
type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	TokenTTLHrs  int    `yaml:"token_ttl_hours"`
	CookieName   string `yaml:"cookie_name"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// HeartbeatConfig represents connection liveness probing settings.
// AckWaitMs must be strictly shorter than ProbeIntervalMs so a wait
// cycle always resolves before the next probe fires.
type HeartbeatConfig struct {
	ProbeIntervalMs int `yaml:"probe_interval_ms"`
	AckWaitMs       int `yaml:"ack_wait_ms"`
	WriteWaitMs     int `yaml:"write_wait_ms"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProbeInterval returns the heartbeat probe interval as a duration
func (h HeartbeatConfig) ProbeInterval() time.Duration {
	return time.Duration(h.ProbeIntervalMs) * time.Millisecond
}

// AckWait returns the heartbeat ack wait bound as a duration
func (h HeartbeatConfig) AckWait() time.Duration {
	return time.Duration(h.AckWaitMs) * time.Millisecond
}

// WriteWait returns the transport write deadline as a duration
func (h HeartbeatConfig) WriteWait() time.Duration {
	return time.Duration(h.WriteWaitMs) * time.Millisecond
}

// TokenTTL returns the identity token lifetime as a duration
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHrs) * time.Hour
}

// DefaultConfig returns default configuration
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Address: ":9000",
		TLS: TLSConfig{
			Enabled: false,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: "./chat.db",
		},
		Uploads: UploadsConfig{
			Dir:         "./uploads",
			MaxSizeKB:   10240,
			PublicRoute: "/uploads",
		},
		Auth: AuthConfig{
			JWTSecret:   "",
			TokenTTLHrs: 24,
			CookieName:  "token",
		},
		Heartbeat: HeartbeatConfig{
			ProbeIntervalMs: 5000,
			AckWaitMs:       1000,
			WriteWaitMs:     10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from file, .env and environment variables
func LoadConfig(configPath string) (*ServerConfig, error) {
	config := DefaultConfig()

	// Load .env into the process environment if present
	_ = godotenv.Load()

	// Load from file if provided
	if configPath != "" {
		if err := loadFromFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	applyEnvOverrides(config)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(path string, config *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, config)
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(config *ServerConfig) {
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		config.Address = addr
	}

	if origin := os.Getenv("ALLOWED_ORIGIN"); origin != "" {
		config.AllowedOrigin = origin
	}

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}

	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		config.Database.Path = dbPath
	}

	if dir := os.Getenv("UPLOADS_DIR"); dir != "" {
		config.Uploads.Dir = dir
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		config.Logging.Format = logFormat
	}

	if tlsEnabled := os.Getenv("TLS_ENABLED"); tlsEnabled != "" {
		config.TLS.Enabled = tlsEnabled == "true"
	}

	if certFile := os.Getenv("TLS_CERT_FILE"); certFile != "" {
		config.TLS.CertFile = certFile
	}

	if keyFile := os.Getenv("TLS_KEY_FILE"); keyFile != "" {
		config.TLS.KeyFile = keyFile
	}

	if interval := os.Getenv("HEARTBEAT_PROBE_INTERVAL_MS"); interval != "" {
		if val, err := strconv.Atoi(interval); err == nil {
			config.Heartbeat.ProbeIntervalMs = val
		}
	}

	if wait := os.Getenv("HEARTBEAT_ACK_WAIT_MS"); wait != "" {
		if val, err := strconv.Atoi(wait); err == nil {
			config.Heartbeat.AckWaitMs = val
		}
	}
}

// Validate validates the configuration
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret must be set (JWT_SECRET)")
	}

	if c.Auth.TokenTTLHrs < 1 {
		return fmt.Errorf("auth token_ttl_hours must be at least 1")
	}

	switch c.Database.Type {
	case "sqlite", "mysql", "":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads dir cannot be empty")
	}

	if c.Heartbeat.ProbeIntervalMs <= 0 || c.Heartbeat.AckWaitMs <= 0 {
		return fmt.Errorf("heartbeat intervals must be positive")
	}

	if c.Heartbeat.AckWaitMs >= c.Heartbeat.ProbeIntervalMs {
		return fmt.Errorf("heartbeat ack_wait_ms (%d) must be shorter than probe_interval_ms (%d)",
			c.Heartbeat.AckWaitMs, c.Heartbeat.ProbeIntervalMs)
	}

	if c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert/key files not provided")
		}

		if _, err := os.Stat(c.TLS.CertFile); err != nil {
			return fmt.Errorf("certificate file not found: %w", err)
		}

		if _, err := os.Stat(c.TLS.KeyFile); err != nil {
			return fmt.Errorf("key file not found: %w", err)
		}
	}

	if !isValidLogLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	valid := []string{"debug", "info", "warn", "error"}
	level = strings.ToLower(level)
	for _, v := range valid {
		if level == v {
			return true
		}
	}
	return false
}

// GetUploadsDir returns the absolute uploads directory path
func (c *ServerConfig) GetUploadsDir() string {
	if filepath.IsAbs(c.Uploads.Dir) {
		return c.Uploads.Dir
	}
	abs, err := filepath.Abs(c.Uploads.Dir)
	if err != nil {
		return c.Uploads.Dir
	}
	return abs
}

// String returns a string representation of the configuration (for logging)
func (c *ServerConfig) String() string {
	return fmt.Sprintf("Config{Address: %s, DB: %s/%s, TLS: %v, LogLevel: %s}",
		c.Address, c.Database.Type, c.Database.Path, c.TLS.Enabled, c.Logging.Level)
}
