// Package config provides configuration management for the eduVPN client.
// It handles loading, saving, and validating application settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/samermassoud/eduvpn-client/common"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config
// directory. Components receive the values they need at construction
// time; nothing reads this object through a global.
type Config struct {
	// ServerListURL is the discovery feed for institute access servers.
	ServerListURL string `yaml:"server_list_url"`
	// OrganizationListURL is the discovery feed for secure internet organizations.
	OrganizationListURL string `yaml:"organization_list_url"`
	// RequestTimeout bounds each remote discovery fetch.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// PreferredLocales is the ranked locale preference list used to
	// resolve localized system messages, most preferred first.
	PreferredLocales []string `yaml:"preferred_locales"`
	// ForceTCP requests TCP-only profiles when connecting.
	ForceTCP bool `yaml:"force_tcp"`
	// UseBundledDiscovery enables the bundled fallback snapshot tier.
	UseBundledDiscovery bool `yaml:"use_bundled_discovery"`
	// ShowNotifications enables desktop notifications for new messages.
	ShowNotifications bool `yaml:"show_notifications"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ServerListURL:       common.DefaultServerListURL,
		OrganizationListURL: common.DefaultOrganizationListURL,
		RequestTimeout:      common.RequestTimeout,
		PreferredLocales:    []string{"en-US", "en"},
		ForceTCP:            false,
		UseBundledDiscovery: true,
		ShowNotifications:   true,
	}
}

// Load loads the configuration from the config file.
// If the file doesn't exist, it creates one with default values.
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	if !common.FileExists(path) {
		cfg := Default()
		if err := cfg.SaveTo(path); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening configuration: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	var config Config
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// applyDefaults fills in zero values with safe defaults.
func (c *Config) applyDefaults() {
	if c.ServerListURL == "" {
		c.ServerListURL = common.DefaultServerListURL
	}
	if c.OrganizationListURL == "" {
		c.OrganizationListURL = common.DefaultOrganizationListURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = common.RequestTimeout
	}
	if len(c.PreferredLocales) == 0 {
		c.PreferredLocales = []string{"en-US", "en"}
	}
}

// Save saves the configuration to the default config file.
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to an explicit path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error serializing configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("error saving configuration: %w", err)
	}

	return nil
}

func getConfigPath() (string, error) {
	configDir, err := common.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, common.ConfigFileName), nil
}
