// Package catalog obtains the seminar document from a file or an HTTP(S)
// URL and keeps the current copy fresh.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	appLog "vitalis/internal/log"
	"vitalis/internal/model"
)

// ErrLoad marks any failure to obtain or parse the catalog. Nothing runs
// without a catalog, so callers treat it as fatal at startup.
var ErrLoad = errors.New("catalog load failed")

// Loader reads the catalog from Source, which is either a local path or
// an http(s) URL.
type Loader struct {
	Source  string
	Fetcher *Fetcher
}

// NewLoader builds a Loader whose HTTP fetches are cached under cacheDir.
func NewLoader(source, cacheDir string) *Loader {
	return &Loader{Source: source, Fetcher: NewFetcher(cacheDir)}
}

// Load fetches and parses the catalog. Every error wraps ErrLoad.
func (l *Loader) Load(ctx context.Context) (*model.Catalog, error) {
	if l.Source == "" {
		return nil, fmt.Errorf("%w: no catalog source configured", ErrLoad)
	}

	var body []byte
	if IsRemote(l.Source) {
		res, err := l.Fetcher.Fetch(ctx, l.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch: %w", ErrLoad, err)
		}
		body = res.Body
	} else {
		data, err := os.ReadFile(l.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: read: %w", ErrLoad, err)
		}
		body = data
	}

	cat, err := Parse(body)
	if err != nil {
		return nil, err
	}
	appLog.Info("catalog loaded", "seminars", cat.Len(), "source", displaySource(l.Source))
	return cat, nil
}

// Parse decodes a JSON array of seminars. Duplicate ids are logged; the
// first occurrence wins for lookups.
func Parse(body []byte) (*model.Catalog, error) {
	var seminars []model.Seminar
	if err := json.Unmarshal(body, &seminars); err != nil {
		return nil, fmt.Errorf("%w: parse: %w", ErrLoad, err)
	}
	if seminars == nil {
		return nil, fmt.Errorf("%w: document is not an array of seminars", ErrLoad)
	}

	cat := model.NewCatalog(seminars)
	for _, id := range cat.Duplicates() {
		appLog.Warn("duplicate seminar id in catalog", "id", id)
	}
	return cat, nil
}

// IsRemote reports whether source is an http(s) URL rather than a path.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func displaySource(source string) string {
	if IsRemote(source) {
		return redactURL(source)
	}
	return source
}
