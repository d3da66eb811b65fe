// Package catalog stores the wish lists to scrape as a small YAML file of
// {name, url} entries. A JSON array in the same shape also loads, since
// YAML is a superset of JSON.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"wishlist-tracker/utils"
)

// ErrInvalidEntry rejects entries without a name or URL.
var ErrInvalidEntry = errors.New("catalog entry needs a name and a url")

// Entry is one wish list to scrape.
type Entry struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads the catalog at path. A missing file is an empty catalog.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", path, err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}
	return entries, nil
}

// Find returns the entry with the given name.
func Find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Add appends an entry and rewrites the file. It reports false when an
// entry with the same URL is already present; the existing name is kept.
func Add(path, name, url string) (bool, error) {
	name, url = strings.TrimSpace(name), strings.TrimSpace(url)
	if name == "" || url == "" {
		return false, ErrInvalidEntry
	}

	entries, err := Load(path)
	if err != nil {
		return false, err
	}

	urls := utils.NewURLSet()
	for _, e := range entries {
		urls.Add(e.URL)
	}
	if !urls.Add(url) {
		return false, nil
	}
	entries = append(entries, Entry{Name: name, URL: url})

	data, err := yaml.Marshal(entries)
	if err != nil {
		return false, fmt.Errorf("catalog: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("catalog: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("catalog: write %q: %w", path, err)
	}
	return true, nil
}
