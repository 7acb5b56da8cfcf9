// Package config loads the application configuration: compiled-in defaults,
// then an optional TOML file, then DOCFOUNDRY_ environment overrides, each
// layer winning over the previous one.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/docfoundry/docfoundry/core"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// DOCFOUNDRY_SERVER_LISTEN maps to server.listen.
const EnvPrefix = "DOCFOUNDRY_"

// Config is the full application configuration.
type Config struct {
	Pipeline struct {
		Domains     []string      `koanf:"domains"`
		GracePeriod time.Duration `koanf:"grace_period"`
		DataDir     string        `koanf:"data_dir"`
		SessionDSN  string        `koanf:"session_dsn"`
	} `koanf:"pipeline"`

	Inference struct {
		Backend     string        `koanf:"backend"`
		URL         string        `koanf:"url"`
		Model       string        `koanf:"model"`
		Timeout     time.Duration `koanf:"timeout"`
		Temperature float64       `koanf:"temperature"`
	} `koanf:"inference"`

	Server struct {
		Listen string `koanf:"listen"`
	} `koanf:"server"`

	Logging struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"logging"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"pipeline.domains":      []string{"mechanical", "electrical", "programming"},
		"pipeline.grace_period": time.Duration(0),
		"pipeline.data_dir":     "data",
		"pipeline.session_dsn":  "",
		"inference.backend":     "ollama",
		"inference.url":         "http://localhost:11434",
		"inference.model":       "llama3.2",
		"inference.timeout":     60 * time.Second,
		"inference.temperature": 0.7,
		"server.listen":         ":8080",
		"logging.level":         "info",
		"logging.format":        "text",
	}
}

// Load builds the configuration. An explicit configPath must exist; with an
// empty path the default locations are tried and silently skipped when
// absent.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	} else {
		for _, path := range []string{"./docfoundry.toml", "$HOME/.docfoundry.toml"} {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Key names contain underscores (data_dir, grace_period), so a blind
	// underscore-to-dot replacement would mangle them. Map each variable
	// onto the known key set instead; unknown variables are ignored.
	envKeys := make(map[string]string, len(defaults()))
	for key := range defaults() {
		envKeys[EnvPrefix+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Domains converts the configured domain names to tags.
func (c *Config) Domains() []core.DomainTag {
	tags := make([]core.DomainTag, 0, len(c.Pipeline.Domains))
	for _, d := range c.Pipeline.Domains {
		tags = append(tags, core.DomainTag(strings.ToLower(strings.TrimSpace(d))))
	}
	return tags
}

// Validate rejects configurations the pipeline cannot run with.
func Validate(cfg *Config) error {
	if len(cfg.Pipeline.Domains) == 0 {
		return fmt.Errorf("at least one analysis domain is required")
	}
	switch cfg.Inference.Backend {
	case "ollama", "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown inference backend %q", cfg.Inference.Backend)
	}
	if cfg.Inference.Timeout <= 0 {
		return fmt.Errorf("inference timeout must be positive")
	}
	if cfg.Pipeline.DataDir == "" {
		return fmt.Errorf("data dir is required")
	}
	if cfg.Server.Listen == "" {
		return fmt.Errorf("server listen address is required")
	}
	return nil
}
