package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
)

// DefaultLockAfterSeconds is the idle timeout written on first unlock.
const DefaultLockAfterSeconds = 300

// Config holds application configuration. Fields where zero is a valid
// setting are pointers so that an explicit zero survives the merge with
// the defaults.
type Config struct {
	AWSRegion         string `json:"aws_region" env:"HOVERPAD_AWS_REGION"`
	TableName         string `json:"table_name" env:"HOVERPAD_TABLE_NAME"`
	UserID            string `json:"user_id" env:"HOVERPAD_USER_ID"`
	SyncEnabled       *bool  `json:"sync_enabled" env:"HOVERPAD_SYNC_ENABLED"`
	PadPath           string `json:"pad_path" env:"HOVERPAD_PAD_PATH"`
	SessionPath       string `json:"session_path" env:"HOVERPAD_SESSION_PATH"`
	SessionSecretName string `json:"session_secret_name,omitempty" env:"HOVERPAD_SESSION_SECRET_NAME"` // empty seals the session with a machine key
	LockAfterSeconds  *int64 `json:"lock_after_seconds" env:"HOVERPAD_LOCK_AFTER_SECONDS"`
	LogPath           string `json:"log_path" env:"HOVERPAD_LOG_PATH"`
	LogLevel          string `json:"log_level" env:"HOVERPAD_LOG_LEVEL"`
	Auth              Auth   `json:"auth" envPrefix:"HOVERPAD_AUTH_"`
	ConfigPath        string `json:"-" env:"HOVERPAD_CONFIG"`
}

// Auth configures the account link.
type Auth struct {
	TokenURL     string        `json:"token_url" env:"TOKEN_URL"`
	KeysURL      string        `json:"keys_url" env:"KEYS_URL"`
	ClientID     string        `json:"client_id" env:"CLIENT_ID"`
	ClientSecret string        `json:"client_secret,omitempty" env:"CLIENT_SECRET"`
	Timeout      time.Duration `json:"timeout" env:"TIMEOUT"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	dir := defaultDir()
	return &Config{
		AWSRegion:        "us-west-2",
		TableName:        "hoverpad_pads",
		UserID:           "default",
		PadPath:          filepath.Join(dir, "pad.json"),
		SessionPath:      filepath.Join(dir, "session.json"),
		SyncEnabled:      boolPtr(false),
		LockAfterSeconds: int64Ptr(DefaultLockAfterSeconds),
		LogPath:          filepath.Join(dir, "hoverpad.log"),
		LogLevel:         "info",
		Auth: Auth{
			Timeout: 15 * time.Second,
		},
		ConfigPath: filepath.Join(dir, "config.json"),
	}
}

func boolPtr(b bool) *bool    { return &b }
func int64Ptr(n int64) *int64 { return &n }

func defaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".hoverpad")
}

// LoadConfig builds the configuration. HOVERPAD_* environment variables win
// over the JSON file, which wins over the defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	defaults := DefaultConfig()
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = defaults.ConfigPath
	}

	file, err := readFile(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	// WithoutDereference keeps a set pointer even when it points at zero.
	if file != nil {
		if err := mergo.Merge(cfg, file, mergo.WithoutDereference); err != nil {
			return nil, fmt.Errorf("failed to merge config file: %w", err)
		}
	}
	if err := mergo.Merge(cfg, defaults, mergo.WithoutDereference); err != nil {
		return nil, fmt.Errorf("failed to merge defaults: %w", err)
	}

	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	file := &Config{}
	if err := json.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return file, nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig() error {
	dir := filepath.Dir(c.ConfigPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.ConfigPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// LockAfter returns the idle timeout in seconds. Zero means no timeout.
func (c *Config) LockAfter() int64 {
	if c.LockAfterSeconds == nil {
		return DefaultLockAfterSeconds
	}
	return *c.LockAfterSeconds
}

// SetLockAfter records the idle timeout.
func (c *Config) SetLockAfter(seconds int64) {
	c.LockAfterSeconds = int64Ptr(seconds)
}

// Sync reports whether remote sync is enabled.
func (c *Config) Sync() bool {
	return c.SyncEnabled != nil && *c.SyncEnabled
}

// AuthConfigured reports whether the account link endpoints are set.
func (c *Config) AuthConfigured() bool {
	return c.Auth.TokenURL != "" && c.Auth.KeysURL != "" && c.Auth.ClientID != ""
}
