package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNoCredentials is returned when no login has been stored
var ErrNoCredentials = errors.New("not logged in")

// LocalConfig holds configuration read from ~/.pokerlog/config.yaml
type LocalConfig struct {
	Daemon  DaemonConfig  `yaml:"daemon"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Client  ClientConfig  `yaml:"client"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// StorageConfig selects the record store
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path,omitempty"` // sqlite
	URL    string `yaml:"url,omitempty"`  // postgres
}

// EventsConfig holds the record event broker settings
type EventsConfig struct {
	AMQPURL string `yaml:"amqp_url,omitempty"`
}

// ClientConfig holds CLI settings for talking to the daemon
type ClientConfig struct {
	ServerURL      string `yaml:"server_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Credentials is the stored login of the CLI
type Credentials struct {
	ServerURL string `yaml:"server_url"`
	Email     string `yaml:"email"`
	Token     string `yaml:"token"`
}

// PokerlogDir returns the path to ~/.pokerlog
func PokerlogDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".pokerlog"), nil
}

// EnsurePokerlogDir creates ~/.pokerlog and subdirectories if they don't exist
func EnsurePokerlogDir() (string, error) {
	dir, err := PokerlogDir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs", "data"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7477,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
		},
		Client: ClientConfig{
			ServerURL:      "http://127.0.0.1:7477",
			TimeoutSeconds: 15,
		},
	}
}

// LoadLocalConfig loads configuration from ~/.pokerlog/config.yaml
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := PokerlogDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, "config.yaml")

	// If config doesn't exist, return defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultLocalConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultLocalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// SaveLocalConfig saves configuration to ~/.pokerlog/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsurePokerlogDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func credentialsPath() (string, error) {
	dir, err := PokerlogDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.yaml"), nil
}

// LoadCredentials loads the stored login from ~/.pokerlog/credentials.yaml
func LoadCredentials() (*Credentials, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.Token == "" {
		return nil, ErrNoCredentials
	}
	return &creds, nil
}

// SaveCredentials writes the login to ~/.pokerlog/credentials.yaml
func SaveCredentials(creds *Credentials) error {
	if _, err := EnsurePokerlogDir(); err != nil {
		return err
	}
	path, err := credentialsPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// ClearCredentials removes the stored login. A missing file is not an error.
func ClearCredentials() error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
