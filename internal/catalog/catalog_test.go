package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

const sampleDoc = `[
  {"id": 1, "title": "AI i vården", "location": "Sal A", "date_time": "Måndag 12 maj 2025 10:30 - 11:00",
   "speakers": [{"name": "Anna Berg"}], "metadata": {"Språk": "Svenska", "Målgrupp": ["IT-chefer", "Vårdpersonal"]}},
  {"id": "s-2", "title": "Journalsystem", "location": "Sal B", "date_time": "Måndag 12 maj 2025 09:00 - 09:30",
   "speakers": [], "metadata": {}},
  {"id": 1, "title": "Dubblett", "location": "Sal C", "date_time": "Tisdag 13 maj 2025 09:00 - 09:30",
   "speakers": [], "metadata": {}}
]`

func TestParse(t *testing.T) {
	cat, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cat.Len() != 3 {
		t.Fatalf("Len = %d, want 3", cat.Len())
	}
	s, ok := cat.Lookup("1")
	if !ok || s.Title != "AI i vården" {
		t.Errorf("Lookup(1) = %+v, %v; first occurrence should win", s, ok)
	}
	if _, ok := cat.Lookup("s-2"); !ok {
		t.Error("string id not indexed")
	}
	if dups := cat.Duplicates(); len(dups) != 1 || dups[0] != "1" {
		t.Errorf("Duplicates = %v", dups)
	}
}

func TestParseFailures(t *testing.T) {
	for name, doc := range map[string]string{
		"not json":   "<html>",
		"object":     `{"seminars": []}`,
		"null":       "null",
		"bad record": `[{"id": {"x": 1}}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			if !errors.Is(err, ErrLoad) {
				t.Errorf("err = %v, want ErrLoad", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seminars.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	cat, err := NewLoader(path, t.TempDir()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 3 {
		t.Errorf("Len = %d", cat.Len())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.json"), t.TempDir()).Load(context.Background())
	if !errors.Is(err, ErrLoad) {
		t.Errorf("err = %v, want ErrLoad", err)
	}
	_, err = NewLoader("", t.TempDir()).Load(context.Background())
	if !errors.Is(err, ErrLoad) {
		t.Errorf("empty source err = %v, want ErrLoad", err)
	}
}

func TestFetchConditionalAndFallback(t *testing.T) {
	var (
		hits    atomic.Int32
		failing atomic.Bool
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if failing.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	ctx := context.Background()
	f := NewFetcher(t.TempDir())

	res, err := f.Fetch(ctx, srv.URL+"/seminars.json")
	if err != nil || res.FromCache || string(res.Body) != sampleDoc {
		t.Fatalf("first fetch = %+v, %v", res.FromCache, err)
	}

	res, err = f.Fetch(ctx, srv.URL+"/seminars.json")
	if err != nil || !res.FromCache || string(res.Body) != sampleDoc {
		t.Fatalf("304 fetch = %+v, %v", res.FromCache, err)
	}

	failing.Store(true)
	res, err = f.Fetch(ctx, srv.URL+"/seminars.json")
	if err != nil || !res.FromCache {
		t.Fatalf("fallback fetch = %+v, %v", res.FromCache, err)
	}

	if _, err := f.Fetch(ctx, srv.URL+"/other.json"); err == nil {
		t.Error("uncached URL with failing server should error")
	}
	if hits.Load() != 4 {
		t.Errorf("hits = %d, want 4", hits.Load())
	}
}

func TestNotModifiedWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	if _, err := NewFetcher(t.TempDir()).Fetch(context.Background(), srv.URL); err == nil {
		t.Error("304 without cached body should error")
	}
}

func TestRefreshKeepsPreviousOnFailure(t *testing.T) {
	var body atomic.Value
	body.Store(sampleDoc)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body.Load().(string)))
	}))
	defer srv.Close()

	ctx := context.Background()
	loader := NewLoader(srv.URL, t.TempDir())
	first, err := loader.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	holder := NewHolder(first)

	r, err := NewRefresher(loader, holder, "*/15 * * * *")
	if err != nil {
		t.Fatalf("NewRefresher: %v", err)
	}

	body.Store("not json")
	if r.Refresh(ctx) {
		t.Error("refresh with a broken document should fail")
	}
	if holder.Get() != first {
		t.Error("previous catalog should be kept")
	}

	body.Store(`[{"id": 9, "title": "Ny", "location": "Sal D", "date_time": "Onsdag 14 maj 2025 08:00 - 09:00"}]`)
	if !r.Refresh(ctx) {
		t.Fatal("refresh should succeed")
	}
	if _, ok := holder.Get().Lookup("9"); !ok {
		t.Error("new catalog not installed")
	}
}

func TestNewRefresherRejectsBadSchedule(t *testing.T) {
	if _, err := NewRefresher(NewLoader("x", ""), NewHolder(nil), "every now and then"); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestRedactURL(t *testing.T) {
	if got := redactURL("https://example.com/private/seminars.json?token=abc"); got != "https://example.com/...(redacted)" {
		t.Errorf("redactURL = %q", got)
	}
}
