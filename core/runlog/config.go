package runlog

import "fmt"

// Config defines settings for run log storage and rotation.
type Config struct {
	// Backend selects the store type: "jsonl", "rotating" or "sqlite".
	// Empty disables the run log.
	Backend string `json:"backend" yaml:"backend"`
	// Path is the file location of the store.
	Path string `json:"path" yaml:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults applies sane defaults for enabled backends.
func (c *Config) SetDefaults() {
	if c.Backend != "" && c.Path == "" {
		c.Path = "schedule-runs.log"
	}
	if c.Backend == "rotating" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "jsonl", "rotating", "sqlite":
	default:
		return fmt.Errorf("runlog: unknown backend %s", c.Backend)
	}
	return nil
}

// Open returns the store selected by c, or nil when the run log is disabled.
func Open(c Config) (Store, error) {
	switch c.Backend {
	case "":
		return nil, nil
	case "jsonl":
		return NewJSONLStore(c.Path)
	case "rotating":
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(c.Path)
	default:
		return nil, fmt.Errorf("runlog: unknown backend %s", c.Backend)
	}
}
