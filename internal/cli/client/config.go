package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// GlobalConfig is the per-user connection settings stored in config.json.
type GlobalConfig struct {
	APIToken string `json:"api_token,omitempty"`
	APIURL   string `json:"api_url"`
	Intent   string `json:"default_intent,omitempty"`
}

var (
	getConfigDirFunc  = defaultGetConfigDir
	getConfigPathFunc = defaultGetConfigPath
)

func defaultGetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "studyrag"), nil
}

func defaultGetConfigPath() (string, error) {
	configDir, err := getConfigDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetConfigDir returns the platform-specific configuration directory
func GetConfigDir() (string, error) {
	return getConfigDirFunc()
}

// GetConfigPath returns the full path to the config.json file
func GetConfigPath() (string, error) {
	return getConfigPathFunc()
}

// LoadGlobalConfig reads config.json. A missing file yields a nil config
// and no error.
func LoadGlobalConfig() (*GlobalConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config GlobalConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveGlobalConfig writes the config to config.json with 0600 permissions
func SaveGlobalConfig(config *GlobalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DeleteGlobalConfig removes the config.json file
func DeleteGlobalConfig() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}

	return nil
}

// ConfigSource reports where the connection settings came from.
type ConfigSource string

const (
	SourceFlag         ConfigSource = "flag"
	SourceEnv          ConfigSource = "env"
	SourceGlobalConfig ConfigSource = "global_config"
	SourceDefault      ConfigSource = "default"
)

// Connection is a resolved server address and token.
type Connection struct {
	APIURL      string
	APIToken    string
	URLSource   ConfigSource
	TokenSource ConfigSource
}

// ResolveConnection applies the flag -> env -> global config -> default
// cascade to the URL and token independently.
func ResolveConnection(flagURL, flagToken string) (*Connection, error) {
	conn := &Connection{URLSource: SourceDefault, TokenSource: SourceDefault}

	switch {
	case flagURL != "":
		conn.APIURL, conn.URLSource = flagURL, SourceFlag
	case os.Getenv(envAPIURL) != "":
		conn.APIURL, conn.URLSource = os.Getenv(envAPIURL), SourceEnv
	}
	switch {
	case flagToken != "":
		conn.APIToken, conn.TokenSource = flagToken, SourceFlag
	case os.Getenv(envAPIToken) != "":
		conn.APIToken, conn.TokenSource = os.Getenv(envAPIToken), SourceEnv
	}

	if conn.URLSource == SourceDefault || conn.TokenSource == SourceDefault {
		global, err := LoadGlobalConfig()
		if err != nil {
			return nil, err
		}
		if global != nil {
			if conn.URLSource == SourceDefault && global.APIURL != "" {
				conn.APIURL, conn.URLSource = global.APIURL, SourceGlobalConfig
			}
			if conn.TokenSource == SourceDefault && global.APIToken != "" {
				conn.APIToken, conn.TokenSource = global.APIToken, SourceGlobalConfig
			}
		}
	}

	if conn.APIURL == "" {
		conn.APIURL = defaultAPIURL
	}
	return conn, nil
}

// DefaultIntent returns the intent from the global config, if any.
func DefaultIntent() string {
	global, err := LoadGlobalConfig()
	if err != nil || global == nil {
		return ""
	}
	return global.Intent
}
