// Package config loads this module's tuning knobs (VFS, wire codec and
// maintenance sweep) from a YAML file using gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable this module exposes. Fields the YAML file
// leaves unset keep their Default() values in Load, the same
// sensible-default pattern as storage.DefaultStorageConfig.
type Config struct {
	// VFS tunes the in-memory VFS registry.
	VFS VFSConfig `yaml:"vfs"`

	// Wire tunes the message codec's buffer behavior.
	Wire WireConfig `yaml:"wire"`

	// Maintenance tunes the background sweep job.
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// VFSConfig holds the in-memory VFS knobs. They are loaded and defaulted
// here but not applied to a Root: vfs.NewRoot takes only a logger, so a
// Root always uses the vfs.MaxFiles and vfs.DefaultPageSize constants.
type VFSConfig struct {
	// DefaultPageSize mirrors vfs.DefaultPageSize.
	DefaultPageSize int `yaml:"default_page_size"`

	// MaxFiles mirrors vfs.MaxFiles, the cap on how many Content entries a
	// Root registers.
	MaxFiles int `yaml:"max_files"`

	// Verbose is a logging switch; no Root reads it.
	Verbose bool `yaml:"verbose"`
}

// WireConfig holds the message codec's buffer sizing knobs. They are
// loaded and defaulted here but not applied: wire.NewMessage takes no
// parameters, so a Message always uses the wire.BufWords and
// wire.MaxWords constants.
type WireConfig struct {
	// BufWords mirrors wire.BufWords, the inline static body buffer size
	// in words.
	BufWords int `yaml:"buf_words"`

	// MaxWords mirrors wire.MaxWords, the largest body HeaderRecvDone
	// accepts.
	MaxWords uint32 `yaml:"max_words"`
}

// MaintenanceConfig tunes the cron-scheduled sweep job.
type MaintenanceConfig struct {
	// Schedule is a standard cron expression (seconds field included,
	// matching robfig/cron's WithSeconds parser). Empty disables the
	// cron trigger in favor of Interval.
	Schedule string `yaml:"schedule"`

	// Interval runs the sweep on a fixed period instead of a cron
	// schedule. Zero disables interval-based scheduling.
	Interval time.Duration `yaml:"interval"`
}

// Default returns a Config with the same defaults vfs.NewRoot and
// wire.NewMessage apply when unconfigured.
func Default() Config {
	return Config{
		VFS: VFSConfig{
			DefaultPageSize: 4096,
			MaxFiles:        64,
		},
		Wire: WireConfig{
			BufWords: 128,
			MaxWords: 1 << 24,
		},
		Maintenance: MaintenanceConfig{
			Schedule: "0 */5 * * * *",
			Interval: 0,
		},
	}
}

// Load reads and parses a YAML config file at path, filling any zero
// field left unset with Default()'s value.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
