package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestMergeLocalWins(t *testing.T) {
	size := 50
	global := &Config{
		DefaultFormat: "table",
		Mongo:         &MongoConfig{URI: "mongodb://global:27017", Database: "atlas"},
		GitHub:        &GitHubConfig{PageSize: &size},
	}
	local := &Config{
		DefaultFormat: "json",
		Mongo:         &MongoConfig{URI: "mongodb://local:27017"},
	}

	merged := mergeConfig(global, local)

	if merged.DefaultFormat != "json" {
		t.Errorf("DefaultFormat = %q, want local json", merged.DefaultFormat)
	}
	if merged.Mongo.URI != "mongodb://local:27017" {
		t.Errorf("Mongo.URI = %q, want local value", merged.Mongo.URI)
	}
	if merged.Mongo.Database != "atlas" {
		t.Errorf("unset local fields must keep the global value, got %q", merged.Mongo.Database)
	}
	if merged.GitHub == nil || merged.GitHub.PageSize == nil || *merged.GitHub.PageSize != 50 {
		t.Errorf("GitHub section must survive when local omits it: %+v", merged.GitHub)
	}
}

func TestParseYAML(t *testing.T) {
	raw := `
default_format: json
mongo:
  uri: mongodb://db:27017
  database: atlas
redis:
  addr: cache:6379
  ttl: 24h
http:
  listen: ":9090"
`
	var cfg Config
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if cfg.Redis.Addr != "cache:6379" || cfg.Redis.TTL != 24*time.Hour {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Listen() != ":9090" {
		t.Errorf("Listen() = %q", cfg.Listen())
	}
	if cfg.MongoDatabase() != "atlas" {
		t.Errorf("MongoDatabase() = %q", cfg.MongoDatabase())
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	if cfg.MongoURI() != "mongodb://localhost:27017" {
		t.Errorf("MongoURI() = %q", cfg.MongoURI())
	}
	if cfg.MongoDatabase() != "repoatlas" {
		t.Errorf("MongoDatabase() = %q", cfg.MongoDatabase())
	}
	if cfg.Listen() != ":8080" {
		t.Errorf("Listen() = %q", cfg.Listen())
	}
}

func TestGetGitHubToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	cfg := &Config{}
	if got := cfg.GetGitHubToken(); got != "ghp_test" {
		t.Errorf("GetGitHubToken() = %q", got)
	}
}
