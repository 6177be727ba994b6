package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tailscale/hujson"
)

// Config holds the resolved dsctl configuration.
type Config struct {
	// Stores maps short names to store specs, e.g. "corpus": "dir:/data/corpus".
	// Commands accept either a name from this map or a literal spec.
	Stores map[string]string `json:"stores"`

	// HistoryFile is where the shell persists its readline history.
	// Defaults to a file in the user's cache directory.
	HistoryFile string `json:"history_file,omitempty"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".dsctl.json"

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Stores: map[string]string{}}
}

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/dsctl/config.json if set, otherwise
// ~/.config/dsctl/config.json. Returns empty if neither is determinable.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "dsctl", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "dsctl", "config.json")
	}

	return ""
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/dsctl/config.json or ~/.config/dsctl/config.json)
// 3. Project config at workDir/.dsctl.json (if it exists)
// 4. Explicit config file via configPath (if non-empty)
//
// Store maps merge entry-by-entry, so a project file can add stores without
// repeating the global ones.
func LoadConfig(workDir, configPath string, env map[string]string) (Config, error) {
	cfg := DefaultConfig()

	if globalPath := getGlobalConfigPath(env); globalPath != "" {
		loaded, err := mergeConfigFile(&cfg, globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = globalPath
		}
	}

	projectPath := filepath.Join(workDir, ConfigFileName)

	loaded, err := mergeConfigFile(&cfg, projectPath, false)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg.Sources.Project = projectPath
	}

	if configPath != "" {
		// An explicitly named config file must exist.
		if _, err := mergeConfigFile(&cfg, configPath, true); err != nil {
			return Config{}, err
		}

		cfg.Sources.Project = configPath
	}

	return cfg, nil
}

// mergeConfigFile reads path and merges it into cfg. Returns whether the
// file was loaded. A missing file is only an error when required is set.
func mergeConfigFile(cfg *Config, path string, required bool) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return false, nil
		}

		return false, fmt.Errorf("read config %s: %w", path, err)
	}

	// Config files are HuJSON: comments and trailing commas are fine.
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return false, fmt.Errorf("parse config %s: %w", path, err)
	}

	var file Config
	if err := json.Unmarshal(standardized, &file); err != nil {
		return false, fmt.Errorf("parse config %s: %w", path, err)
	}

	for name, spec := range file.Stores {
		cfg.Stores[name] = spec
	}

	if file.HistoryFile != "" {
		cfg.HistoryFile = file.HistoryFile
	}

	return true, nil
}

// StoreNames returns the configured store names, sorted.
func (c Config) StoreNames() []string {
	names := make([]string, 0, len(c.Stores))
	for name := range c.Stores {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
