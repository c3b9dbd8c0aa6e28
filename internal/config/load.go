package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/qjebbs/go-jsons"
)

// localConfigNames are looked up in the working directory, in order.
var localConfigNames = []string{"." + appName + ".json", appName + ".json"}

// Load merges the built-in defaults, the global config, the local config in
// workingDir and the explicit file at configPath, in increasing precedence.
// A missing global or local config is skipped; a missing explicit config is
// an error.
func Load(workingDir, configPath string, debug bool) (*Config, error) {
	defaults, err := json.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default config: %w", err)
	}

	paths := []string{GlobalConfig()}
	for _, name := range localConfigNames {
		p := filepath.Join(workingDir, name)
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
			break
		}
	}

	readers := []io.Reader{bytes.NewReader(defaults)}
	var sources []string
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", p, err)
		}
		readers = append(readers, bytes.NewReader(data))
		sources = append(sources, p)
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		readers = append(readers, bytes.NewReader(data))
		sources = append(sources, configPath)
	}

	cfg, err := loadFromReaders(readers)
	if err != nil {
		return nil, err
	}
	cfg.workingDir = workingDir
	cfg.sources = sources
	if debug {
		cfg.Options.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("Loaded config", "sources", sources, "data_dir", cfg.DataDir())
	return cfg, nil
}

func loadFromReaders(readers []io.Reader) (*Config, error) {
	merged, err := jsons.Merge(readers)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(merged, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
