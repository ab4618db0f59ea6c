// Package config holds run configuration, its validation and the optional
// TOML file supplying defaults for both tools.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Unset keys stay nil so
// built-in defaults apply.
type FileConfig struct {
	Pulse  PulseFile  `toml:"pulse"`
	Stats  StatsFile  `toml:"stats"`
	Driver DriverFile `toml:"driver"`
	Log    LogFile    `toml:"log"`
}

// PulseFile maps midipulse settings.
type PulseFile struct {
	Dest        *string  `toml:"dest"`
	Channel     *int     `toml:"channel"`
	Note        *int     `toml:"note"`
	Velocity    *int     `toml:"velocity"`
	IntervalMs  *float64 `toml:"interval-ms"`
	Gate        *float64 `toml:"gate"`
	Count       *int64   `toml:"count"`
	ReportEvery *int     `toml:"report-every"`
	Verbose     *bool    `toml:"verbose"`
	Output      *string  `toml:"output"`
}

// StatsFile maps midistats settings.
type StatsFile struct {
	Dest        *string `toml:"dest"`
	Channel     *int    `toml:"channel"`
	Count       *int64  `toml:"count"`
	ReportEvery *int    `toml:"report-every"`
	Output      *string `toml:"output"`
}

// DriverFile selects and tunes the MIDI backend.
type DriverFile struct {
	Backend    *string `toml:"backend"`
	Baud       *int    `toml:"baud"`
	ClientName *string `toml:"client-name"`
}

// LogFile configures diagnostics logging.
type LogFile struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	return cfg, nil
}
