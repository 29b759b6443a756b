// Package config holds the project configuration, loaded from flags, an
// optional .ktxref.yaml file, and the environment via viper.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/viper"
)

// Default directory names never descended into during discovery.
var defaultSkipDirs = []string{"build", "target", "out", ".gradle", ".idea"}

// Config drives the indexer and its collaborators.
type Config struct {
	// Root is the project root to index.
	Root string `mapstructure:"root"`

	// SkipDirs are directory names skipped during discovery.
	SkipDirs []string `mapstructure:"skip_dirs"`

	// IgnorePatterns are extra glob patterns (relative, slash-separated)
	// excluded from indexing.
	IgnorePatterns []string `mapstructure:"ignore_patterns"`

	// Workers is the extraction pool size; 0 means one per CPU.
	Workers int `mapstructure:"workers"`

	// Gradle toggles the dependency_tree tool.
	Gradle bool `mapstructure:"gradle"`
}

// Default returns a configuration with sensible defaults for a root.
func Default(root string) *Config {
	return &Config{
		Root:     root,
		SkipDirs: defaultSkipDirs,
		Workers:  runtime.NumCPU(),
		Gradle:   true,
	}
}

// Load builds the configuration from viper state (flags, config file, env),
// filling defaults for anything unset.
func Load() (*Config, error) {
	root := viper.GetString("project")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}

	cfg := Default(root)
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if cfg.Root == "" {
		cfg.Root = root
	}
	if len(cfg.SkipDirs) == 0 {
		cfg.SkipDirs = defaultSkipDirs
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	return cfg, cfg.Validate()
}

// Validate checks that the root exists and is a directory.
func (c *Config) Validate() error {
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("project root %s: %w", c.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project root %s is not a directory", c.Root)
	}
	return nil
}
