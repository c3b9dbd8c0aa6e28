// Package archive scans a crawl archive directory into an ordered collection
// of entries.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	ignore "github.com/sabhiram/go-gitignore"
)

// Entry is a file or directory in the archive.
type Entry struct {
	Path    string    `json:"path"`
	RelPath string    `json:"rel_path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	IsDir   bool      `json:"is_dir"`
}

// ID returns a stable identity for the entry.
func (e Entry) ID() string {
	return e.RelPath
}

// ScanOptions controls which entries [Scan] reports.
type ScanOptions struct {
	// Match holds doublestar globs matched against the slash separated
	// relative path. When set, files must match at least one of them.
	// Directories are not matched.
	Match []string
	// IgnoreFile is a gitignore style file, relative to the root.
	IgnoreFile string
	// IncludeDirs reports directories as entries.
	IncludeDirs bool
	// Hidden includes dot files and dot directories.
	Hidden bool
}

// Scan walks root and returns its entries sorted by relative path.
func Scan(ctx context.Context, root string, opts ScanOptions) ([]Entry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archive root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive %s is not a directory", root)
	}

	for _, pattern := range opts.Match {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid match pattern %q", pattern)
		}
	}

	var ignorer *ignore.GitIgnore
	if opts.IgnoreFile != "" {
		ignorer, err = ignore.CompileIgnoreFile(filepath.Join(root, opts.IgnoreFile))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read ignore file: %w", err)
		}
	}

	var (
		mu      sync.Mutex
		entries []Entry
	)
	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Debug("Skipping unreadable archive path", "path", path, "error", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !opts.Hidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if opts.IgnoreFile != "" && rel == opts.IgnoreFile {
			return nil
		}
		if ignorer != nil && ignorer.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !opts.IncludeDirs {
				return nil
			}
		} else if !matches(opts.Match, rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		e := Entry{
			Path:    path,
			RelPath: rel,
			Name:    d.Name(),
			ModTime: info.ModTime(),
			IsDir:   d.IsDir(),
		}
		if !e.IsDir {
			e.Size = info.Size()
		}

		mu.Lock()
		entries = append(entries, e)
		mu.Unlock()
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to scan archive: %w", walkErr)
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.RelPath, b.RelPath)
	})
	slog.Debug("Scanned archive", "root", root, "entries", len(entries))
	return entries, nil
}

// matches reports whether rel matches any pattern.
func matches(patterns []string, rel string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
