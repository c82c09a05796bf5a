// Package workspace locates a project root and its cache directory, and
// loads the optional config file that overrides the defaults.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const cacheDirName = ".metis"

// FindRoot locates the project root by walking up from the current
// working directory looking for a `.git` directory. If none is found,
// the current working directory itself is used.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("workspace: get working directory: %w", err)
	}
	return FindRootFrom(cwd)
}

// FindRootFrom runs the same walk-up-for-.git search starting from an
// explicit directory, for callers (and tests) that don't want to depend
// on the process's current working directory.
func FindRootFrom(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("workspace: resolve %s: %w", start, err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}

// CacheDir returns the path to the workspace's cache directory.
func CacheDir(root string) string {
	return filepath.Join(root, cacheDirName)
}

// Config is the optional `.metis/config.yaml` override file. Every field
// is optional; zero values mean "use the built-in default".
type Config struct {
	CacheDir      string   `yaml:"cache_dir,omitempty"`
	ExtraSkipDirs []string `yaml:"extra_skip_dirs,omitempty"`
}

// ConfigPath returns the path to the config file inside a cache directory.
func ConfigPath(cacheDir string) string {
	return filepath.Join(cacheDir, "config.yaml")
}

// LoadConfig reads a workspace's config override file. A missing file
// yields a zero-value Config, not an error.
func LoadConfig(cacheDir string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(cacheDir))
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("workspace: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("workspace: parse config: %w", err)
	}
	return &cfg, nil
}

// ResolveCacheDir applies a config override to the default cache
// directory, if one is set.
func ResolveCacheDir(root string, cfg *Config) string {
	if cfg != nil && cfg.CacheDir != "" {
		if filepath.IsAbs(cfg.CacheDir) {
			return cfg.CacheDir
		}
		return filepath.Join(root, cfg.CacheDir)
	}
	return CacheDir(root)
}

// EnsureCacheDir creates the cache directory if it doesn't already exist.
func EnsureCacheDir(cacheDir string) error {
	return os.MkdirAll(cacheDir, 0o755)
}
