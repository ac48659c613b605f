// Package config handles c0c.toml compiler configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"c0c/pkg/utils"
)

// FileName is the configuration file looked up next to the input.
const FileName = "c0c.toml"

// Config represents a c0c.toml file.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Output OutputConfig `toml:"output"`

	// Dir is the directory the file was loaded from; empty for defaults.
	Dir string `toml:"-"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"` // empty means stderr
}

// OutputConfig selects the files written next to the compiled artifact.
type OutputConfig struct {
	DebugInfo bool `toml:"debug_info"`
	Listing   bool `toml:"listing"`
}

func Default() *Config {
	return &Config{}
}

// Parse decodes configuration text. Keys the schema does not know are
// an error so typos do not silently fall back to defaults.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if cfg.Log.Verbosity < 0 {
		return nil, fmt.Errorf("log.verbosity must not be negative, got %d", cfg.Log.Verbosity)
	}
	return cfg, nil
}

// Load parses the configuration file at path. A relative log file is
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	fullPath, dir, err := utils.GetPathInfo(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	cfg.Dir = dir
	if cfg.Log.File != "" && !filepath.IsAbs(cfg.Log.File) {
		cfg.Log.File = filepath.Join(dir, cfg.Log.File)
	}
	return cfg, nil
}

// FindForInput loads the c0c.toml sitting next to inputPath, or returns
// the defaults when there is none.
func FindForInput(inputPath string) (*Config, error) {
	_, dir, err := utils.GetPathInfo(inputPath)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(path)
}
