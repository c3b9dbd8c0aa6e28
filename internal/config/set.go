package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// SetConfigField writes value at the sjson path key of the config file at
// path, creating the file if needed. A value that is valid JSON is stored as
// is; anything else is stored as a string. The file is only written when the
// result still merges into a valid configuration.
func SetConfigField(path, key, value string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data = []byte("{}")
	} else if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if !gjson.GetBytes(knownKeysJSON(), key).Exists() {
		return fmt.Errorf("unknown config key %q", key)
	}

	var updated []byte
	if json.Valid([]byte(value)) {
		updated, err = sjson.SetRawBytes(data, key, []byte(value))
	} else {
		updated, err = sjson.SetBytes(data, key, value)
	}
	if err != nil {
		return fmt.Errorf("failed to set config field %s: %w", key, err)
	}

	cfg, err := loadFromReaders([]io.Reader{bytes.NewReader(defaultJSON()), bytes.NewReader(updated)})
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, updated, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func defaultJSON() []byte {
	data, _ := json.Marshal(Default())
	return data
}

// knownKeysJSON is the default config with every omitted field filled in, so
// that each settable key resolves.
func knownKeysJSON() []byte {
	d := Default()
	d.Options.DataDirectory = filepath.Dir(GlobalConfigData())
	d.List.Match = []string{""}
	data, _ := json.Marshal(d)
	return data
}
