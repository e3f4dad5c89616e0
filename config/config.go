package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/prodsched/core/metrics"
	"github.com/kilianp07/prodsched/core/runlog"
	"github.com/kilianp07/prodsched/core/scheduler"
	"github.com/kilianp07/prodsched/infra/mqtt"
)

// EnvPrefix is the prefix of environment overrides. Nested keys are
// separated by a double underscore, e.g. PS_SCHEDULER__FILLING_END.
const EnvPrefix = "PS_"

type Config struct {
	Scheduler scheduler.Config `json:"scheduler"`
	Store     StoreConfig      `json:"store"`
	Metrics   metrics.Config   `json:"metrics"`
	RunLog    runlog.Config    `json:"runlog"`
	MQTT      mqtt.Config      `json:"mqtt"`
	Sentry    SentryConfig     `json:"sentry"`
	HTTP      HTTPConfig       `json:"http"`
}

// StoreConfig selects where master data and orders are read from.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the sqlite database file.
	Path string `json:"path"`
	// Dataset seeds the store on start: a JSON/YAML file, "demo" or empty.
	Dataset string `json:"dataset"`
}

// HTTPConfig configures the API server of the serve command.
type HTTPConfig struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "prodsched.db"
	}
}

func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "memory", "sqlite":
		return nil
	default:
		return fmt.Errorf("store: unknown backend %s", c.Backend)
	}
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// SetDefaults fills unset fields of every section.
func (c *Config) SetDefaults() {
	c.Scheduler.SetDefaults()
	c.Store.SetDefaults()
	c.RunLog.SetDefaults()
	c.HTTP.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.RunLog.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker is required when enabled")
	}
	return nil
}

// Load reads path, applies PS_ environment overrides, then defaults.
// An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
