package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hoshipkg/hoshi/pkg/archive"
	"github.com/hoshipkg/hoshi/pkg/cache"
	"github.com/hoshipkg/hoshi/pkg/errors"
	"github.com/hoshipkg/hoshi/pkg/httputil"
)

func testMetadata() Metadata {
	return Metadata{
		Name:        "Hoshi Core",
		Description: "Core packages",
		Packages: []Artifact{
			{Name: "cometlib", Version: "1.0.0", DownloadURL: "http://x/cometlib-1.0.0.tar.gz", ArchiveType: "tar.gz", Dependencies: []string{"stardust"}},
			{Name: "stardust", Version: "0.3.1", DownloadURL: "http://x/stardust.zip"},
		},
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(httputil.NewCache(backend, time.Hour))
	c.http = srv.Client()
	return c
}

func TestClientFetchCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(testMetadata())
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	con := Constellation{Name: "core", MetadataURL: srv.URL + "/core.json"}

	for range 2 {
		meta, err := c.Fetch(context.Background(), con, false)
		if err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
		if len(meta.Packages) != 2 {
			t.Fatalf("got %d packages, want 2", len(meta.Packages))
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (second fetch cached)", hits.Load())
	}

	if _, err := c.Fetch(context.Background(), con, true); err != nil {
		t.Fatalf("Fetch(refresh) error: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("refresh should bypass cache, hits = %d", hits.Load())
	}
}

func TestClientFetchNamespacesByConstellation(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(testMetadata())
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	url := srv.URL + "/shared.json"
	for _, name := range []string{"Core", "Extra", "core"} {
		if _, err := c.Fetch(context.Background(), Constellation{Name: name, MetadataURL: url}, false); err != nil {
			t.Fatalf("Fetch(%s) error: %v", name, err)
		}
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2 (one per constellation, names case-insensitive)", hits.Load())
	}
}

func TestClientFetchIgnoresUndecodableCacheEntry(t *testing.T) {
	fresh := testMetadata()
	fresh.Description = ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(fresh)
	}))
	defer srv.Close()

	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(httputil.NewCache(backend, time.Hour))
	c.http = srv.Client()

	con := Constellation{Name: "core", MetadataURL: srv.URL + "/core.json"}
	stale := []byte(`{"name": "Stale", "description": "stale description", "packages": "not a list"}`)
	key := "core:" + cache.NewDefaultKeyer().CatalogKey(con.MetadataURL)
	if err := backend.Set(context.Background(), key, stale, time.Hour); err != nil {
		t.Fatal(err)
	}

	meta, err := c.Fetch(context.Background(), con, false)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if meta.Description != "" || meta.Name != fresh.Name {
		t.Errorf("stale fields leaked into fetched document: name=%q description=%q", meta.Name, meta.Description)
	}
	if len(meta.Packages) != len(fresh.Packages) {
		t.Errorf("got %d packages, want %d", len(meta.Packages), len(fresh.Packages))
	}
}

func TestClientFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    errors.Code
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }, errors.ErrCodeNotFound},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) }, errors.ErrCodeNetwork},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("{nope")) }, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := newTestClient(t, srv)
			_, err := c.Fetch(context.Background(), Constellation{Name: "core", MetadataURL: srv.URL}, false)
			if !errors.Is(err, tt.code) {
				t.Errorf("Fetch() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestClientFetchRejectsBadURL(t *testing.T) {
	c := NewClient(nil)
	_, err := c.Fetch(context.Background(), Constellation{Name: "x", MetadataURL: "file:///etc/passwd"}, false)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Fetch() error = %v, want INVALID_CONFIG", err)
	}
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/core.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(testMetadata())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	results := c.FetchAll(context.Background(), []Constellation{
		{Name: "core", MetadataURL: srv.URL + "/core.json"},
		{Name: "missing", MetadataURL: srv.URL + "/missing.json"},
	}, false)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Err != nil {
		t.Errorf("core failed: %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("missing constellation should fail")
	}
	if got := len(Artifacts(results)); got != 2 {
		t.Errorf("Artifacts() = %d, want 2", got)
	}
}

func TestFindConstellation(t *testing.T) {
	list := DefaultConstellations()
	if c, ok := FindConstellation(list, "hoshi-core"); !ok || c.Name != "Hoshi-Core" {
		t.Errorf("FindConstellation(hoshi-core) = %+v, %v", c, ok)
	}
	if _, ok := FindConstellation(list, "andromeda"); ok {
		t.Error("unknown constellation should not be found")
	}
}

func TestArtifactKind(t *testing.T) {
	tests := []struct {
		name    string
		a       Artifact
		want    archive.Kind
		wantErr bool
	}{
		{"explicit type", Artifact{ArchiveType: "tar.gz", DownloadURL: "http://x/a.zip"}, archive.KindGzip, false},
		{"from url", Artifact{DownloadURL: "http://x/a.tar.bz2"}, archive.KindBzip2, false},
		{"url with query", Artifact{DownloadURL: "http://x/a.zip?token=1"}, archive.KindZip, false},
		{"unknown", Artifact{DownloadURL: "http://x/a.rar"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Kind()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Kind() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Kind() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestArtifactFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://localhost:8000/cometlib-1.0.0.tar.gz", "cometlib-1.0.0.tar.gz"},
		{"http://localhost:8000/dl/pkg.zip?x=1", "pkg.zip"},
		{"http://localhost:8000/", "cometlib-1.0.0.archive"},
	}
	for _, tt := range tests {
		a := Artifact{Name: "cometlib", Version: "1.0.0", DownloadURL: tt.url}
		if got := a.FileName(); got != tt.want {
			t.Errorf("FileName(%s) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestSearch(t *testing.T) {
	artifacts := []Artifact{
		{Name: "nebula"}, {Name: "cometlib"}, {Name: "Comet"}, {Name: "comet-tools"}, {Name: "stardust"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"comet", []string{"Comet", "comet-tools", "cometlib"}},
		{"COMET", []string{"Comet"}},
		{"dust", []string{"stardust"}},
		{"pulsar", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := Search(artifacts, tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) = %d results, want %d", tt.query, len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].Name != w {
					t.Errorf("Search(%q)[%d] = %s, want %s", tt.query, i, got[i].Name, w)
				}
			}
		})
	}
}

func TestFind(t *testing.T) {
	artifacts := testMetadata().Packages
	if a, ok := Find(artifacts, "stardust"); !ok || a.Version != "0.3.1" {
		t.Errorf("Find(stardust) = %+v, %v", a, ok)
	}
	if _, ok := Find(artifacts, "Stardust"); ok {
		t.Error("Find should be case-sensitive")
	}
}
