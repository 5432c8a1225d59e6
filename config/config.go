package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DefaultFormat string `yaml:"default_format,omitempty"`

	// Top-level config sections
	GitHub *GitHubConfig `yaml:"github,omitempty"`
	Mongo  *MongoConfig  `yaml:"mongo,omitempty"`
	Redis  *RedisConfig  `yaml:"redis,omitempty"`
	HTTP   *HTTPConfig   `yaml:"http,omitempty"`
}

// GitHubConfig points the client at an API installation. All fields are
// optional; empty values mean github.com.
type GitHubConfig struct {
	RESTURL    string `yaml:"rest_url,omitempty"`
	UploadURL  string `yaml:"upload_url,omitempty"`
	GraphQLURL string `yaml:"graphql_url,omitempty"`
	PageSize   *int   `yaml:"page_size,omitempty"`
}

// MongoConfig configures snapshot persistence.
type MongoConfig struct {
	URI      string `yaml:"uri,omitempty"`
	Database string `yaml:"database,omitempty"`
}

// RedisConfig configures the tree-listing cache. An empty Addr disables
// caching entirely.
type RedisConfig struct {
	Addr     string        `yaml:"addr,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

const (
	defaultMongoURI      = "mongodb://localhost:27017"
	defaultMongoDatabase = "repoatlas"
	defaultListen        = ":8080"
)

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".repoatlas"
	}
	return filepath.Join(configDir, "repoatlas")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".repoatlas.yaml"
}

// Load loads the configuration from disk.
// It first loads the global config from the XDG config directory, then
// merges any local .repoatlas.yaml config on top (local values take
// precedence).
func Load() (*Config, error) {
	cfg := &Config{
		DefaultFormat: "table",
	}

	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}
		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}
		cfg = mergeConfig(cfg, &localCfg)
	}

	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "table"
	}

	return cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{}

	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	} else {
		result.DefaultFormat = global.DefaultFormat
	}

	result.GitHub = mergeGitHub(global.GitHub, local.GitHub)
	result.Mongo = mergeMongo(global.Mongo, local.Mongo)
	result.Redis = mergeRedis(global.Redis, local.Redis)
	result.HTTP = mergeHTTP(global.HTTP, local.HTTP)

	return result
}

func mergeGitHub(global, local *GitHubConfig) *GitHubConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &GitHubConfig{}

	if global != nil {
		*result = *global
	}
	if local != nil {
		if local.RESTURL != "" {
			result.RESTURL = local.RESTURL
		}
		if local.UploadURL != "" {
			result.UploadURL = local.UploadURL
		}
		if local.GraphQLURL != "" {
			result.GraphQLURL = local.GraphQLURL
		}
		if local.PageSize != nil {
			result.PageSize = local.PageSize
		}
	}
	return result
}

func mergeMongo(global, local *MongoConfig) *MongoConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &MongoConfig{}

	if global != nil {
		*result = *global
	}
	if local != nil {
		if local.URI != "" {
			result.URI = local.URI
		}
		if local.Database != "" {
			result.Database = local.Database
		}
	}
	return result
}

func mergeRedis(global, local *RedisConfig) *RedisConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &RedisConfig{}

	if global != nil {
		*result = *global
	}
	if local != nil {
		if local.Addr != "" {
			result.Addr = local.Addr
		}
		if local.Password != "" {
			result.Password = local.Password
		}
		if local.DB != 0 {
			result.DB = local.DB
		}
		if local.TTL != 0 {
			result.TTL = local.TTL
		}
	}
	return result
}

func mergeHTTP(global, local *HTTPConfig) *HTTPConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &HTTPConfig{}

	if global != nil {
		*result = *global
	}
	if local != nil && local.Listen != "" {
		result.Listen = local.Listen
	}
	return result
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configDir := DefaultConfigDir()

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
// Following 12-factor app best practices, tokens are only read from the environment.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// MongoURI returns the configured Mongo URI, or the local default.
func (c *Config) MongoURI() string {
	if c.Mongo != nil && c.Mongo.URI != "" {
		return c.Mongo.URI
	}
	return defaultMongoURI
}

// MongoDatabase returns the configured database name, or the default.
func (c *Config) MongoDatabase() string {
	if c.Mongo != nil && c.Mongo.Database != "" {
		return c.Mongo.Database
	}
	return defaultMongoDatabase
}

// Listen returns the configured HTTP listen address, or the default.
func (c *Config) Listen() string {
	if c.HTTP != nil && c.HTTP.Listen != "" {
		return c.HTTP.Listen
	}
	return defaultListen
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# repoatlas configuration file

# Output format: table or json
default_format: table

# Snapshot storage (optional; defaults to a local MongoDB)
# mongo:
#   uri: mongodb://localhost:27017
#   database: repoatlas

# Tree-listing cache (optional; omit to run without Redis)
# redis:
#   addr: localhost:6379
#   ttl: 168h

# API server
# http:
#   listen: :8080

# GitHub Enterprise endpoints (optional; omit for github.com)
# github:
#   rest_url: https://github.example.com/api/v3/
#   graphql_url: https://github.example.com/api/graphql
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
