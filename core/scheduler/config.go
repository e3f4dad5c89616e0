package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/prodsched/core/timeutil"
)

// SequencePolicy selects how orders are ordered before placement.
type SequencePolicy string

const (
	// SequenceByQuantity processes the smallest batches first.
	SequenceByQuantity SequencePolicy = "quantity"
	// SequenceByPriority processes high before medium before low, smallest
	// batch first within a priority.
	SequenceByPriority SequencePolicy = "priority"
)

// DependencyMode selects how strictly filling steps wait for preparation.
type DependencyMode string

const (
	// DependencyLoose requires any preparation assignment for the order.
	DependencyLoose DependencyMode = "loose"
	// DependencyStrict requires every earlier preparation step of the order
	// to be staffed.
	DependencyStrict DependencyMode = "strict"
)

// ClockMode selects how many timelines each pass keeps.
type ClockMode string

const (
	// ClockShared keeps one clock for all areas of a kind.
	ClockShared ClockMode = "shared"
	// ClockPerArea keeps one clock per production area.
	ClockPerArea ClockMode = "per_area"
)

// Stage is an optional post-processing stage of a run.
type Stage string

const (
	StageRecommend Stage = "recommend"
	StagePersist   Stage = "persist"
	StageAlerts    Stage = "alerts"
	StageNotify    Stage = "notify"
)

// Thresholds tune the recommendation generator.
type Thresholds struct {
	LowUtilization  float64 `json:"low_utilization" yaml:"low_utilization"`
	HighUtilization float64 `json:"high_utilization" yaml:"high_utilization"`
	LongTaskMinutes float64 `json:"long_task_minutes" yaml:"long_task_minutes"`
}

// Config defines planning parameters loaded from configuration.
type Config struct {
	// PreparationStart and FillingEnd are the "HH:MM" anchors used when no
	// production area carries its own.
	PreparationStart string         `json:"preparation_start" yaml:"preparation_start"`
	FillingEnd       string         `json:"filling_end" yaml:"filling_end"`
	Sequencing       SequencePolicy `json:"sequencing" yaml:"sequencing"`
	Dependency       DependencyMode `json:"dependency" yaml:"dependency"`
	Clock            ClockMode      `json:"clock" yaml:"clock"`
	Stages           []Stage        `json:"stages" yaml:"stages"`
	Thresholds       Thresholds     `json:"thresholds" yaml:"thresholds"`
}

// DefaultConfig returns the configuration used by the reference behaviour.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.PreparationStart == "" {
		c.PreparationStart = "06:00"
	}
	if c.FillingEnd == "" {
		c.FillingEnd = "17:00"
	}
	if c.Sequencing == "" {
		c.Sequencing = SequenceByQuantity
	}
	if c.Dependency == "" {
		c.Dependency = DependencyLoose
	}
	if c.Clock == "" {
		c.Clock = ClockShared
	}
	if c.Stages == nil {
		c.Stages = []Stage{StageRecommend, StagePersist, StageAlerts}
	}
	if c.Thresholds.LowUtilization == 0 {
		c.Thresholds.LowUtilization = 0.70
	}
	if c.Thresholds.HighUtilization == 0 {
		c.Thresholds.HighUtilization = 0.95
	}
	if c.Thresholds.LongTaskMinutes == 0 {
		c.Thresholds.LongTaskMinutes = 240
	}
}

// Validate checks enumerations and anchors.
func (c Config) Validate() error {
	if _, err := timeutil.ParseHHMM(c.PreparationStart); err != nil {
		return fmt.Errorf("preparation_start: %w", err)
	}
	if _, err := timeutil.ParseHHMM(c.FillingEnd); err != nil {
		return fmt.Errorf("filling_end: %w", err)
	}
	switch c.Sequencing {
	case SequenceByQuantity, SequenceByPriority:
	default:
		return fmt.Errorf("unknown sequencing policy %q", c.Sequencing)
	}
	switch c.Dependency {
	case DependencyLoose, DependencyStrict:
	default:
		return fmt.Errorf("unknown dependency mode %q", c.Dependency)
	}
	switch c.Clock {
	case ClockShared, ClockPerArea:
	default:
		return fmt.Errorf("unknown clock mode %q", c.Clock)
	}
	for _, s := range c.Stages {
		switch s {
		case StageRecommend, StagePersist, StageAlerts, StageNotify:
		default:
			return fmt.Errorf("unknown stage %q", s)
		}
	}
	if c.Thresholds.LowUtilization > c.Thresholds.HighUtilization {
		return fmt.Errorf("low_utilization above high_utilization")
	}
	return nil
}

// Enabled reports whether stage s is configured.
func (c Config) Enabled(s Stage) bool {
	for _, st := range c.Stages {
		if st == s {
			return true
		}
	}
	return false
}

// LoadConfig loads a Config from a JSON or YAML file and applies defaults.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg Config
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return Config{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err != nil {
		return Config{}, err
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}

// DecodeConfig reads a Config in the given format from r and applies
// defaults.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
