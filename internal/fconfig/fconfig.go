// Package fconfig loads fiuctl's optional JSONC configuration file,
// layering global, project, and CLI-override sources. It never configures
// the in-process registry: fiu has no persisted state.
package fconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Config holds fiuctl's defaults.
type Config struct {
	FIFOBasename string `json:"fifo_basename,omitempty"` //nolint:tagliatelle
	HistoryFile  string `json:"history_file,omitempty"`  //nolint:tagliatelle
}

// ConfigFileName is the project-level config file, looked for in the
// working directory.
const ConfigFileName = ".fiu.json"

// ErrConfigFileNotFound is returned when an explicit config path does not
// exist.
var ErrConfigFileNotFound = errors.New("fconfig: config file not found")

// DefaultConfig returns fiuctl's built-in defaults.
func DefaultConfig() Config {
	return Config{
		FIFOBasename: "/tmp/fiu-ctrl",
		HistoryFile:  "~/.cache/fiu/history",
	}
}

// Load layers DefaultConfig, the global user config, the project config (or
// an explicit configPath override), and finally cliOverride (highest
// precedence; zero fields in cliOverride are ignored).
func Load(workDir, configPath string, cliOverride Config, env []string) (Config, error) {
	cfg := DefaultConfig()

	globalCfg, err := loadOptional(globalConfigPath(env))
	if err != nil {
		return Config{}, err
	}

	cfg = merge(cfg, globalCfg)

	var projectCfg Config

	if configPath != "" {
		path := configPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		projectCfg, err = loadRequired(path)
	} else {
		projectCfg, err = loadOptional(filepath.Join(workDir, ConfigFileName))
	}

	if err != nil {
		return Config{}, err
	}

	cfg = merge(cfg, projectCfg)
	cfg = merge(cfg, cliOverride)

	return cfg, nil
}

func globalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "fiu", "config.json")
		}
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fiu", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "fiu", "config.json")
}

func loadOptional(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}

		return Config{}, fmt.Errorf("fconfig: reading %s: %w", path, err)
	}

	return parse(path, data)
}

func loadRequired(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}

		return Config{}, fmt.Errorf("fconfig: reading %s: %w", path, err)
	}

	return parse(path, data)
}

func parse(path string, data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("fconfig: %s: invalid JSONC: %w", path, err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("fconfig: %s: invalid JSON: %w", path, err)
	}

	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.FIFOBasename != "" {
		base.FIFOBasename = overlay.FIFOBasename
	}

	if overlay.HistoryFile != "" {
		base.HistoryFile = overlay.HistoryFile
	}

	return base
}
