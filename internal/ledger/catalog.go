package ledger

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"lothelper/internal/identity"
)

// SeriesCatalog is the secondary offline catalog used only for bootstrap
// seeding: an author name maps to known series with their canonical title
// ordering.
type SeriesCatalog interface {
	SeriesForAuthor(name string) (map[string][]string, error)
}

// LocalCatalog is a SeriesCatalog backed by a curated builtin seed of
// popular franchises, optionally extended from a YAML file:
//
//	authors:
//	  "j k rowling":
//	    "Harry Potter":
//	      - "Harry Potter and the Philosopher's Stone"
//	      - ...
//
// Author keys are matched case-insensitively on the trimmed name.
type LocalCatalog struct {
	authors map[string]map[string][]string
}

type catalogFile struct {
	Authors map[string]map[string][]string `yaml:"authors"`
}

// NewLocalCatalog builds a catalog from the builtin seeds plus the optional
// YAML file at path ("" skips the file). File entries extend, not replace,
// the seed data.
func NewLocalCatalog(path string) (*LocalCatalog, error) {
	catalog := &LocalCatalog{authors: builtinSeeds()}
	if path == "" {
		return catalog, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return catalog, nil
		}
		return nil, fmt.Errorf("failed to read series catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse series catalog: %w", err)
	}
	for author, series := range file.Authors {
		keys := []string{catalogKey(author)}
		if canon := identity.AuthorKey(author); canon != "" && canon != keys[0] {
			keys = append(keys, canon)
		}
		for _, key := range keys {
			if key == "" {
				continue
			}
			existing, ok := catalog.authors[key]
			if !ok {
				existing = make(map[string][]string)
				catalog.authors[key] = existing
			}
			for name, titles := range series {
				if len(titles) > 0 {
					existing[name] = titles
				}
			}
		}
	}
	return catalog, nil
}

// SeriesForAuthor returns the known series for an author, or an empty map
// when the catalog has nothing for that name. The lookup tries the plain
// lowercased name first, then the canonical author key, so "J. K. Rowling"
// still finds a catalog entry stored as "j k rowling".
func (c *LocalCatalog) SeriesForAuthor(name string) (map[string][]string, error) {
	series, ok := c.authors[catalogKey(name)]
	if !ok {
		series, ok = c.authors[identity.AuthorKey(name)]
	}
	if !ok {
		return map[string][]string{}, nil
	}
	out := make(map[string][]string, len(series))
	for seriesName, titles := range series {
		out[seriesName] = append([]string(nil), titles...)
	}
	return out, nil
}

func catalogKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
