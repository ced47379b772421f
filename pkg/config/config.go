/*
Package config manages TOML config for bardbook.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bastiangx/bardbook/internal/utils"
	"github.com/charmbracelet/log"
)

// EnvAPIKey overrides server.api_key when set.
const EnvAPIKey = "BLINGUS_API_KEY"

// Config holds the entire config structure
type Config struct {
	Search    SearchConfig    `toml:"search"`
	Highlight HighlightConfig `toml:"highlight"`
	Observer  ObserverConfig  `toml:"observer"`
	Server    ServerConfig    `toml:"server"`
	CLI       CliConfig       `toml:"cli"`
}

// SearchConfig holds matching options.
type SearchConfig struct {
	FuzzyThreshold int  `toml:"fuzzy_threshold"`
	DefaultFuzzy   bool `toml:"default_fuzzy"`
}

// HighlightConfig describes the marker element.
type HighlightConfig struct {
	Tag   string `toml:"tag"`
	Class string `toml:"class"`
	Style string `toml:"style"`
}

// ObserverConfig holds result observer options.
type ObserverConfig struct {
	ArenaSize int `toml:"arena_size"`
}

// ServerConfig has the save/load endpoint options.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	Backend        string   `toml:"backend"`
	DataDir        string   `toml:"data_dir"`
	APIKey         string   `toml:"api_key"`
	AllowedOrigins []string `toml:"allowed_origins"`
	MaxBodyBytes   int      `toml:"max_body_bytes"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int  `toml:"default_limit"`
	Color        bool `toml:"color"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/bardbook
// 2. ~/Library/Application Support/bardbook (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", utils.AppName)
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", utils.AppName)
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/bardbook/config.toml
// 3. Builtin defaults
// The environment override is applied to whichever config wins.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	config, path := loadWithPriority(customConfigPath)
	config.ApplyEnv()
	config.Normalize()
	return config, path, nil
}

func loadWithPriority(customConfigPath string) (*Config, string) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), ""
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), ""
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			FuzzyThreshold: 2,
			DefaultFuzzy:   true,
		},
		Highlight: HighlightConfig{
			Tag:   "mark",
			Style: "background: #ffeb3b; color: #000; padding: 2px 4px; border-radius: 3px; font-weight: bold;",
		},
		Observer: ObserverConfig{
			ArenaSize: 4096,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			Backend:        "file",
			DataDir:        "data",
			AllowedOrigins: []string{"http://localhost", "http://127.0.0.1"},
			MaxBodyBytes:   10 << 20,
		},
		CLI: CliConfig{
			DefaultLimit: 24,
			Color:        true,
		},
	}
}

// ApplyEnv copies overrides from the environment.
func (c *Config) ApplyEnv() {
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.Server.APIKey = key
	}
}

// Normalize replaces out-of-range values with defaults, logging each fix.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Search.FuzzyThreshold < 0 {
		log.Warnf("search.fuzzy_threshold %d is negative, using 0", c.Search.FuzzyThreshold)
		c.Search.FuzzyThreshold = 0
	}
	if c.Observer.ArenaSize <= 0 {
		log.Warnf("observer.arena_size %d is invalid, using %d", c.Observer.ArenaSize, def.Observer.ArenaSize)
		c.Observer.ArenaSize = def.Observer.ArenaSize
	}
	if c.Server.Backend != "file" && c.Server.Backend != "sqlite" {
		log.Warnf("server.backend %q is unknown, using %q", c.Server.Backend, def.Server.Backend)
		c.Server.Backend = def.Server.Backend
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = def.Server.MaxBodyBytes
	}
	if c.CLI.DefaultLimit <= 0 {
		c.CLI.DefaultLimit = def.CLI.DefaultLimit
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file, salvaging valid sections when the
// file as a whole does not decode.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse reads each known section field by field.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "highlight"); ok {
		extractHighlightConfig(section, &config.Highlight)
	}
	if section, ok := utils.ExtractSection(tempConfig, "observer"); ok {
		if val, ok := utils.ExtractInt64(section, "arena_size"); ok {
			config.Observer.ArenaSize = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractInt64(data, "fuzzy_threshold"); ok {
		search.FuzzyThreshold = val
	}
	if val, ok := utils.ExtractBool(data, "default_fuzzy"); ok {
		search.DefaultFuzzy = val
	}
}

func extractHighlightConfig(data map[string]any, hl *HighlightConfig) {
	if val, ok := utils.ExtractString(data, "tag"); ok {
		hl.Tag = val
	}
	if val, ok := utils.ExtractString(data, "class"); ok {
		hl.Class = val
	}
	if val, ok := utils.ExtractString(data, "style"); ok {
		hl.Style = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractString(data, "addr"); ok {
		server.Addr = val
	}
	if val, ok := utils.ExtractString(data, "backend"); ok {
		server.Backend = val
	}
	if val, ok := utils.ExtractString(data, "data_dir"); ok {
		server.DataDir = val
	}
	if val, ok := utils.ExtractString(data, "api_key"); ok {
		server.APIKey = val
	}
	if val, ok := utils.ExtractStringSlice(data, "allowed_origins"); ok {
		server.AllowedOrigins = val
	}
	if val, ok := utils.ExtractInt64(data, "max_body_bytes"); ok {
		server.MaxBodyBytes = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractBool(data, "color"); ok {
		cli.Color = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the search settings and saves to file
func (c *Config) Update(configPath string, fuzzyThreshold *int, defaultFuzzy *bool) error {
	if fuzzyThreshold != nil {
		if *fuzzyThreshold < 0 {
			return fmt.Errorf("fuzzy_threshold must not be negative, got %d", *fuzzyThreshold)
		}
		c.Search.FuzzyThreshold = *fuzzyThreshold
	}
	if defaultFuzzy != nil {
		c.Search.DefaultFuzzy = *defaultFuzzy
	}
	return SaveConfig(c, configPath)
}
