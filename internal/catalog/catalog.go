// Package catalog holds the static book dataset the librarian recommends from:
// the ordered list of short book records that seed the vector index and the
// long-form summaries returned by the summary tool.
// A Catalog is loaded once at startup and is read-only afterwards, so it is
// safe to share between concurrent requests without locking.
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// BooksFile is the file name of the ordered short-record list.
	BooksFile = "book_summaries.json"
	// FullSummariesFile is the file name of the title → long summary map.
	FullSummariesFile = "full_summaries.json"

	// SummaryNotAvailable is returned by SummaryByTitle for unknown titles.
	SummaryNotAvailable = "No full summary available for the requested title."
)

// ErrDataLoad is returned when a catalog file is missing or malformed.
// It is fatal at startup: the process must not serve with a broken catalog.
var ErrDataLoad = errors.New("catalog: data load failed")

//go:embed data/*.json
var embedded embed.FS

// BookRecord is a single entry of the ordered catalog.
type BookRecord struct {
	// Title is the exact book title, also the key into the full summaries.
	Title string `json:"title"`
	// ShortSummary is the one or two sentence blurb embedded for retrieval.
	ShortSummary string `json:"short_summary"`
	// Themes is the ordered list of theme tags.
	Themes []string `json:"themes"`
}

// Catalog is the read-only book dataset.
type Catalog struct {
	// Books is the ordered list of records. A record's position is its identity.
	Books []BookRecord
	// FullSummaries maps an exact title to its long-form summary.
	FullSummaries map[string]string
}

// Load reads both catalog files from dir.
func Load(dir string) (*Catalog, error) {
	return load(os.DirFS(dir), dir)
}

// LoadDefault reads the catalog compiled into the binary.
func LoadDefault() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("%w: embedded data: %w", ErrDataLoad, err)
	}
	return load(sub, "embedded")
}

// load decodes the two catalog files from fsys. origin is only used in
// error messages.
func load(fsys fs.FS, origin string) (*Catalog, error) {
	var books []BookRecord
	if err := readJSON(fsys, origin, BooksFile, &books); err != nil {
		return nil, err
	}
	var full map[string]string
	if err := readJSON(fsys, origin, FullSummariesFile, &full); err != nil {
		return nil, err
	}

	for i, b := range books {
		if strings.TrimSpace(b.Title) == "" {
			return nil, fmt.Errorf("%w: %s: record %d has no title", ErrDataLoad, BooksFile, i)
		}
	}
	if full == nil {
		full = map[string]string{}
	}

	return &Catalog{Books: books, FullSummaries: full}, nil
}

// readJSON decodes name from fsys into v, wrapping every failure in ErrDataLoad.
func readJSON(fsys fs.FS, origin, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrDataLoad, filepath.Join(origin, name), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrDataLoad, filepath.Join(origin, name), err)
	}
	return nil
}

// SummaryByTitle returns the long-form summary for an exact title, or
// SummaryNotAvailable when the title is unknown. It never fails.
func (c *Catalog) SummaryByTitle(title string) string {
	if s, ok := c.FullSummaries[title]; ok {
		return s
	}
	return SummaryNotAvailable
}

// Len returns the number of book records.
func (c *Catalog) Len() int { return len(c.Books) }

// DocumentID returns the stable index document id for the record at position i.
func DocumentID(i int) string {
	return fmt.Sprintf("book-%d", i)
}

// DocumentText renders the three-line document that is embedded and stored
// for a record.
func DocumentText(b BookRecord) string {
	return fmt.Sprintf("Title: %s\nSummary: %s\nThemes: %s",
		b.Title, b.ShortSummary, strings.Join(b.Themes, ", "))
}
