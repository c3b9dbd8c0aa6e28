// Package config loads, merges and validates the crawlview configuration.
package config

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/charmbracelet/crawlview/internal/home"
	"github.com/tidwall/gjson"
)

const (
	appName = "crawlview"

	// DefaultIgnoreFile is the file whose gitignore patterns hide archive
	// entries.
	DefaultIgnoreFile = ".crawlignore"
)

// Page encodings.
const (
	EncodingAuto   = "auto"
	EncodingBlocks = "blocks"
	EncodingKitty  = "kitty"
)

// Options holds general options.
type Options struct {
	Debug         bool   `json:"debug" jsonschema:"description=Enable debug logging,default=false"`
	DataDirectory string `json:"data_directory,omitempty" jsonschema:"description=Directory for logs and state; relative paths are resolved against the working directory"`
	WheelStep     int    `json:"wheel_step" jsonschema:"description=Rows scrolled per mouse wheel notch,default=3,minimum=1"`
}

// WindowOptions controls how many items outside the visible band are kept
// materialized.
type WindowOptions struct {
	Leading  int `json:"leading" jsonschema:"description=Items kept above the visible band,default=1,minimum=0"`
	Trailing int `json:"trailing" jsonschema:"description=Items kept below the visible band,default=2,minimum=0"`
}

// ListOptions configures the archive file list.
type ListOptions struct {
	RowHeight    int      `json:"row_height" jsonschema:"description=Rows per list entry,default=1,minimum=1"`
	Gap          int      `json:"gap" jsonschema:"description=Blank rows between entries,default=0,minimum=0"`
	ShowSize     bool     `json:"show_size" jsonschema:"description=Show file sizes,default=true"`
	ShowModified bool     `json:"show_modified" jsonschema:"description=Show relative modification times,default=true"`
	IgnoreFile   string   `json:"ignore_file" jsonschema:"description=Gitignore style file that hides entries,default=.crawlignore"`
	Match        []string `json:"match,omitempty" jsonschema:"description=Doublestar globs an entry must match to be listed"`
	Hidden       bool     `json:"hidden" jsonschema:"description=List dot files,default=false"`
}

// PageOptions configures the document page viewer.
type PageOptions struct {
	BaseExtent float64 `json:"base_extent" jsonschema:"description=Rows per page at zoom 1,default=40,exclusiveMinimum=0"`
	Chrome     float64 `json:"chrome" jsonschema:"description=Unscaled rows per page for the label and gap,default=2,minimum=0"`
	Zoom       float64 `json:"zoom" jsonschema:"description=Initial zoom factor,default=1,exclusiveMinimum=0"`
	ZoomStep   float64 `json:"zoom_step" jsonschema:"description=Zoom change per key press,default=0.25,exclusiveMinimum=0"`
	MinZoom    float64 `json:"min_zoom" jsonschema:"description=Smallest zoom factor,default=0.25,exclusiveMinimum=0"`
	MaxZoom    float64 `json:"max_zoom" jsonschema:"description=Largest zoom factor,default=4,exclusiveMinimum=0"`
	CacheSize  int     `json:"cache_size" jsonschema:"description=Decoded page bitmaps kept in memory,default=32,minimum=1"`
	Workers    int     `json:"workers" jsonschema:"description=Concurrent page decodes,default=4,minimum=1"`
	Encoding   string  `json:"encoding" jsonschema:"description=Terminal image encoding,default=auto,enum=auto,enum=blocks,enum=kitty"`
}

// Config holds the configuration for crawlview.
type Config struct {
	Options Options       `json:"options"`
	Window  WindowOptions `json:"window"`
	List    ListOptions   `json:"list"`
	Pages   PageOptions   `json:"pages"`

	workingDir string
	sources    []string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Options: Options{
			WheelStep: 3,
		},
		Window: WindowOptions{
			Leading:  1,
			Trailing: 2,
		},
		List: ListOptions{
			RowHeight:    1,
			ShowSize:     true,
			ShowModified: true,
			IgnoreFile:   DefaultIgnoreFile,
		},
		Pages: PageOptions{
			BaseExtent: 40,
			Chrome:     2,
			Zoom:       1,
			ZoomStep:   0.25,
			MinZoom:    0.25,
			MaxZoom:    4,
			CacheSize:  32,
			Workers:    4,
			Encoding:   EncodingAuto,
		},
	}
}

// WorkingDir returns the directory the configuration was loaded for.
func (c *Config) WorkingDir() string {
	return c.workingDir
}

// Sources returns the files that were merged into this configuration, lowest
// precedence first.
func (c *Config) Sources() []string {
	return c.sources
}

// DataDir returns the resolved data directory.
func (c *Config) DataDir() string {
	dir := cmp.Or(c.Options.DataDirectory, filepath.Dir(GlobalConfigData()))
	if !filepath.IsAbs(dir) && c.workingDir != "" {
		dir = filepath.Join(c.workingDir, dir)
	}
	return home.Long(dir)
}

// LogFile returns the path of the rotating log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir(), "logs", appName+".log")
}

// Get returns the effective value at the gjson path key.
func (c *Config) Get(key string) (gjson.Result, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to marshal config: %w", err)
	}
	res := gjson.GetBytes(data, key)
	if !res.Exists() {
		return gjson.Result{}, fmt.Errorf("unknown config key %q", key)
	}
	return res, nil
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Options.WheelStep < 1 {
		add("options.wheel_step must be at least 1, got %d", c.Options.WheelStep)
	}
	if c.Window.Leading < 0 {
		add("window.leading must not be negative, got %d", c.Window.Leading)
	}
	if c.Window.Trailing < 0 {
		add("window.trailing must not be negative, got %d", c.Window.Trailing)
	}
	if c.List.RowHeight < 1 {
		add("list.row_height must be at least 1, got %d", c.List.RowHeight)
	}
	if c.List.Gap < 0 {
		add("list.gap must not be negative, got %d", c.List.Gap)
	}
	p := c.Pages
	if p.BaseExtent <= 0 {
		add("pages.base_extent must be positive, got %v", p.BaseExtent)
	}
	if p.Chrome < 0 {
		add("pages.chrome must not be negative, got %v", p.Chrome)
	}
	if p.ZoomStep <= 0 {
		add("pages.zoom_step must be positive, got %v", p.ZoomStep)
	}
	switch {
	case p.MinZoom <= 0 || p.MaxZoom <= 0 || p.Zoom <= 0:
		add("pages zoom factors must be positive, got min %v, zoom %v, max %v", p.MinZoom, p.Zoom, p.MaxZoom)
	case p.MinZoom > p.Zoom || p.Zoom > p.MaxZoom:
		add("pages zoom must satisfy min_zoom <= zoom <= max_zoom, got %v <= %v <= %v", p.MinZoom, p.Zoom, p.MaxZoom)
	}
	if p.CacheSize < 1 {
		add("pages.cache_size must be at least 1, got %d", p.CacheSize)
	}
	if p.Workers < 1 {
		add("pages.workers must be at least 1, got %d", p.Workers)
	}
	if !slices.Contains([]string{EncodingAuto, EncodingBlocks, EncodingKitty}, p.Encoding) {
		add("pages.encoding must be one of %q, %q or %q, got %q", EncodingAuto, EncodingBlocks, EncodingKitty, p.Encoding)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

// GlobalConfig returns the path to the global config file.
func GlobalConfig() string {
	if p := os.Getenv("CRAWLVIEW_GLOBAL_CONFIG"); p != "" {
		return filepath.Join(p, appName+".json")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, appName+".json")
	}
	if runtime.GOOS == "windows" {
		localAppData := cmp.Or(os.Getenv("LOCALAPPDATA"), filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local"))
		return filepath.Join(localAppData, appName, appName+".json")
	}
	return filepath.Join(home.Dir(), ".config", appName, appName+".json")
}

// GlobalConfigData returns the path to the state file in the data directory.
func GlobalConfigData() string {
	if p := os.Getenv("CRAWLVIEW_GLOBAL_DATA"); p != "" {
		return filepath.Join(p, appName+".json")
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, appName+".json")
	}
	// for windows, it should be in `%LOCALAPPDATA%/crawlview/`
	// for linux and macOS, it should be in `$HOME/.local/share/crawlview/`
	if runtime.GOOS == "windows" {
		localAppData := cmp.Or(os.Getenv("LOCALAPPDATA"), filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local"))
		return filepath.Join(localAppData, appName, appName+".json")
	}
	return filepath.Join(home.Dir(), ".local", "share", appName, appName+".json")
}
