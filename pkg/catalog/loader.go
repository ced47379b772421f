// Package catalog loads the entry sections that search runs over.
//
// A catalog directory holds one file per section. JSON sections are arrays
// whose elements are cards ({"t","s","a"}) or plain strings; text sections
// hold one line entry per line. Sections are ordered by file name.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bastiangx/bardbook/pkg/search"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// maxParallelLoads caps concurrent section decodes.
const maxParallelLoads = 8

// Section is one named list of entries.
type Section struct {
	Name    string
	Entries []search.Entry
}

// Item addresses one entry within a catalog.
type Item struct {
	Section string
	Index   int
	Entry   search.Entry
}

// Catalog is an ordered list of sections. It is immutable once loaded.
type Catalog struct {
	Sections []Section
	items    []Item
}

// New builds a catalog from sections in the given order.
func New(sections ...Section) *Catalog {
	c := &Catalog{Sections: sections}
	for _, s := range sections {
		for i, e := range s.Entries {
			c.items = append(c.items, Item{Section: s.Name, Index: i, Entry: e})
		}
	}
	return c
}

// All returns every entry in section order.
func (c *Catalog) All() []Item {
	return c.items
}

// Entries returns the bare entries in the same order as All.
func (c *Catalog) Entries() []search.Entry {
	entries := make([]search.Entry, len(c.items))
	for i, it := range c.items {
		entries[i] = it.Entry
	}
	return entries
}

// Len returns the number of entries across all sections.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Section returns the named section.
func (c *Catalog) Section(name string) (Section, bool) {
	for _, s := range c.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Stats returns entry counts per section plus totals.
func (c *Catalog) Stats() map[string]int {
	stats := map[string]int{
		"sections": len(c.Sections),
		"entries":  len(c.items),
	}
	unknown := 0
	for _, it := range c.items {
		if _, ok := search.Fields(it.Entry); !ok {
			unknown++
		}
	}
	stats["malformed"] = unknown
	return stats
}

// Load reads every section file in dir concurrently. Files that fail
// validation are skipped with a warning; read errors abort the load.
func Load(ctx context.Context, dir string) (*Catalog, error) {
	start := time.Now()

	files, err := sectionFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no section files found in %s", dir)
	}

	sections := make([]*Section, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			section, err := loadSection(file)
			if errors.Is(err, ErrInvalidFormat) {
				log.Warnf("Skipping section %s: %v", file, err)
				return nil
			}
			if err != nil {
				return err
			}
			sections[i] = section
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", dir, err)
	}

	loaded := make([]Section, 0, len(sections))
	for _, s := range sections {
		if s != nil {
			loaded = append(loaded, *s)
		}
	}
	c := New(loaded...)
	log.Debugf("Loaded %d entries from %d sections in %v", c.Len(), len(loaded), time.Since(start))
	return c, nil
}

// sectionFiles lists supported files in dir sorted by name.
func sectionFiles(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog dir %s: %w", dir, err)
	}
	var files []string
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		if DetectFormat(de.Name()) == FormatUnknown {
			continue
		}
		files = append(files, filepath.Join(dir, de.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func loadSection(filename string) (*Section, error) {
	if err := ValidateFile(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	var entries []search.Entry
	switch DetectFormat(filename) {
	case FormatText:
		entries, err = DecodeText(file)
	default:
		entries, err = Decode(file)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return &Section{Name: name, Entries: entries}, nil
}
