package archive

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// EntryKind classifies an archive entry by what the page viewer can do with
// it.
type EntryKind int

// Entry kinds.
const (
	KindOther EntryKind = iota
	KindDir
	KindImage
	KindMarkdown
	KindHTML
	KindText
)

var kindNames = map[EntryKind]string{
	KindOther:    "other",
	KindDir:      "directory",
	KindImage:    "image",
	KindMarkdown: "markdown",
	KindHTML:     "html",
	KindText:     "text",
}

func (k EntryKind) String() string {
	return kindNames[k]
}

// Title returns the kind name for display.
func (k EntryKind) Title() string {
	return cases.Title(language.English).String(k.String())
}

// ImageExtensions are the page bitmap formats the viewer decodes.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".svg"}

var textExtensions = []string{".txt", ".log", ".csv", ".tsv", ".json", ".xml", ".yaml", ".yml", ".toml"}

// Kind classifies e by its name.
func Kind(e Entry) EntryKind {
	if e.IsDir {
		return KindDir
	}
	return KindOf(e.Name)
}

// KindOf classifies a file name.
func KindOf(name string) EntryKind {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case slices.Contains(ImageExtensions, ext):
		return KindImage
	case ext == ".md" || ext == ".markdown":
		return KindMarkdown
	case ext == ".html" || ext == ".htm":
		return KindHTML
	case slices.Contains(textExtensions, ext):
		return KindText
	case lexers.Match(name) != nil:
		return KindText
	}
	return KindOther
}

// Viewable reports whether the page viewer can open e. Directories are
// viewable when they hold page images.
func Viewable(e Entry) bool {
	switch Kind(e) {
	case KindImage, KindMarkdown, KindHTML, KindText:
		return true
	case KindDir:
		pages, err := PageFiles(e.Path)
		return err == nil && len(pages) > 0
	}
	return false
}

// PageFiles returns the page images directly inside dir in natural order, so
// that page-2 sorts before page-10.
func PageFiles(dir string) ([]string, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var pages []string
	for _, de := range des {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		if KindOf(de.Name()) == KindImage {
			pages = append(pages, filepath.Join(dir, de.Name()))
		}
	}
	SortNatural(pages)
	return pages, nil
}

// SortNatural sorts names with embedded numbers compared by value.
func SortNatural(names []string) {
	c := collate.New(language.Und, collate.Numeric)
	slices.SortStableFunc(names, func(a, b string) int {
		return c.CompareString(filepath.Base(a), filepath.Base(b))
	})
}
