package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage selects the kv backend holding the vault document
type Storage struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite, postgres or memory
	Path   string `yaml:"path" json:"path"`     // SQLite database file
	DSN    string `yaml:"dsn" json:"dsn"`       // Postgres connection string
}

// Encryption controls sealing of the vault document
type Encryption struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Server holds vault-server settings
type Server struct {
	Addr string `yaml:"addr" json:"addr"`
	// Token, when set, must be sent as a Bearer token to /api/v1
	Token string `yaml:"token,omitempty" json:"-"`
}

// S3 locates the bucket used by the s3 backup driver
type S3 struct {
	Bucket   string `yaml:"bucket" json:"bucket"`
	Prefix   string `yaml:"prefix" json:"prefix"`
	Region   string `yaml:"region" json:"region"`
	Endpoint string `yaml:"endpoint" json:"endpoint"` // optional, for S3-compatible stores
}

// Backup selects where snapshots go
type Backup struct {
	Driver string `yaml:"driver" json:"driver"` // fs or s3
	Dir    string `yaml:"dir" json:"dir"`
	S3     S3     `yaml:"s3" json:"s3"`
}

// Config holds user preferences
type Config struct {
	Editor        string `yaml:"editor" json:"editor"`                 // Default editor command
	ConfirmDelete bool   `yaml:"confirm_delete" json:"confirm_delete"` // Require confirmation for delete

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging

	Storage       Storage       `yaml:"storage" json:"storage"`
	WatchInterval time.Duration `yaml:"watch_interval" json:"watch_interval"` // Poll period for inbox keys
	Encryption    Encryption    `yaml:"encryption" json:"encryption"`
	Server        Server        `yaml:"server" json:"server"`
	Backup        Backup        `yaml:"backup" json:"backup"`
}

// Dir returns ~/.ironvault, or the IRONVAULT_HOME override
func Dir() (string, error) {
	if dir := os.Getenv("IRONVAULT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ironvault"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir, _ := Dir()
	var logPath, dbPath, backupDir string
	if dir != "" {
		logPath = filepath.Join(dir, "logs", "ironvault.log")
		dbPath = filepath.Join(dir, "vault.db")
		backupDir = filepath.Join(dir, "backups")
	}

	return &Config{
		Editor:        getEnv("EDITOR", "vim"),
		ConfirmDelete: true,
		LogLevel:      "INFO",
		LogFile:       logPath,
		Storage:       Storage{Driver: "sqlite", Path: dbPath},
		WatchInterval: time.Second,
		Server:        Server{Addr: ":8080"},
		Backup:        Backup{Driver: "fs", Dir: backupDir},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// applyEnv lets IRONVAULT_* variables win over the file
func (c *Config) applyEnv() error {
	c.LogLevel = getEnv("IRONVAULT_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("IRONVAULT_LOG_FILE", c.LogFile)
	if v := os.Getenv("IRONVAULT_LOG_CONSOLE"); v != "" {
		c.LogConsole = v == "true"
	}
	c.Storage.Driver = getEnv("IRONVAULT_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Path = getEnv("IRONVAULT_STORAGE_PATH", c.Storage.Path)
	c.Storage.DSN = getEnv("IRONVAULT_DATABASE_URL", c.Storage.DSN)
	if v := os.Getenv("IRONVAULT_ENCRYPTION"); v != "" {
		c.Encryption.Enabled = v == "true"
	}
	c.Server.Addr = getEnv("IRONVAULT_SERVER_ADDR", c.Server.Addr)
	c.Server.Token = getEnv("IRONVAULT_API_TOKEN", c.Server.Token)
	c.Backup.Driver = getEnv("IRONVAULT_BACKUP_DRIVER", c.Backup.Driver)
	c.Backup.S3.Bucket = getEnv("IRONVAULT_BACKUP_BUCKET", c.Backup.S3.Bucket)
	if v := os.Getenv("IRONVAULT_WATCH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid IRONVAULT_WATCH_INTERVAL: %w", err)
		}
		c.WatchInterval = d
	}
	return nil
}

// Validate rejects settings the rest of the program cannot act on
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Backup.Driver {
	case "fs", "s3":
	default:
		return fmt.Errorf("unknown backup driver %q", c.Backup.Driver)
	}
	if c.Backup.Driver == "s3" && c.Backup.S3.Bucket == "" {
		return fmt.Errorf("backup.s3.bucket is required for the s3 driver")
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch_interval must be positive")
	}
	return nil
}

// Path returns the location of config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads config from ~/.ironvault/config.yaml
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile loads config from path; a missing file yields the defaults
func LoadFile(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves config to ~/.ironvault/config.yaml
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(configPath)
}

// SaveFile writes config to path, creating its directory
func (c *Config) SaveFile(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
