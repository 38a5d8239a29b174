package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/hoshipkg/hoshi/pkg/archive"
	"github.com/hoshipkg/hoshi/pkg/catalog"
	"github.com/hoshipkg/hoshi/pkg/errors"
	"github.com/hoshipkg/hoshi/pkg/observability"
	"github.com/hoshipkg/hoshi/pkg/registry"
)

type testEnv struct {
	root       string
	serveDir   string
	srv        *httptest.Server
	configPath string
	registry   string
	installDir string
	cacheDir   string
}

// newTestEnv serves a constellation with cometlib (depending on stardust)
// and writes a config pointing at it.
func newTestEnv(t *testing.T, cacheBackend string) *testEnv {
	t.Helper()
	root := t.TempDir()
	t.Chdir(root)
	for _, k := range []string{"HOSHI_INSTALL_DIR", "HOSHI_DOWNLOAD_DIR", "HOSHI_REGISTRY", "HOSHI_POLICY", "HOSHI_CACHE_BACKEND", "HOSHI_REDIS_ADDR", "HOSHI_JOBS"} {
		t.Setenv(k, "")
	}
	t.Cleanup(observability.Reset)

	env := &testEnv{
		root:       root,
		serveDir:   filepath.Join(root, "serve"),
		registry:   filepath.Join(root, "data", "registry.json"),
		installDir: filepath.Join(root, "packages"),
		cacheDir:   filepath.Join(root, "cache"),
	}
	if err := os.MkdirAll(env.serveDir, 0o755); err != nil {
		t.Fatal(err)
	}
	env.srv = httptest.NewServer(http.FileServer(http.Dir(env.serveDir)))
	t.Cleanup(env.srv.Close)

	meta := catalog.Metadata{
		Name: "Test",
		Packages: []catalog.Artifact{
			env.publish(t, "cometlib", "1.0.0", "cometlib-1.0.0.tar.gz", "stardust"),
			env.publish(t, "stardust", "0.3.1", "stardust-0.3.1.zip"),
		},
	}
	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(env.serveDir, "test.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := fmt.Sprintf(`install_dir = %q
download_dir = %q
registry_path = %q

[cache]
backend = %q
dir = %q

[[constellations]]
name = "Test"
metadata_url = %q
`, env.installDir, filepath.Join(root, "downloads"), env.registry, cacheBackend, env.cacheDir, env.srv.URL+"/test.json")
	env.configPath = filepath.Join(root, "config.toml")
	if err := os.WriteFile(env.configPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func (e *testEnv) publish(t *testing.T, name, version, file string, deps ...string) catalog.Artifact {
	t.Helper()
	src := name + "-" + version
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "README"), []byte(name), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := archive.Create(filepath.Join(e.serveDir, file), []string{src}); err != nil {
		t.Fatalf("create %s: %v", file, err)
	}
	return catalog.Artifact{Name: name, Version: version, DownloadURL: e.srv.URL + "/" + file, SizeMB: 0.01, Dependencies: deps}
}

func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func (e *testEnv) load(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.NewStore(e.registry).Load()
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return reg
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	want := []string{"merge", "list", "delete", "sync", "search", "fetch", "archive", "serve", "cache", "config", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestMergeListDelete(t *testing.T) {
	env := newTestEnv(t, "none")

	if err := env.run(t, "merge", "cometlib", "--yes"); err != nil {
		t.Fatalf("merge: %v", err)
	}
	reg := env.load(t)
	if reg.Len() != 2 {
		t.Fatalf("registry has %d records, want 2", reg.Len())
	}
	p, ok := reg.Get("stardust", "0.3.1")
	if !ok {
		t.Fatal("stardust not registered")
	}
	if p.InstallPath != filepath.Join(env.installDir, "stardust", "0.3.1") {
		t.Errorf("install path = %q", p.InstallPath)
	}
	if _, err := os.Stat(filepath.Join(p.InstallPath, "stardust-0.3.1", "README")); err != nil {
		t.Errorf("stardust not extracted: %v", err)
	}

	if err := env.run(t, "list"); err != nil {
		t.Errorf("list: %v", err)
	}

	if err := env.run(t, "delete", "stardust"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if env.load(t).Len() != 1 {
		t.Error("delete did not remove the record")
	}
	if _, err := os.Stat(p.InstallPath); err != nil {
		t.Errorf("delete removed installed files: %v", err)
	}

	err := env.run(t, "delete", "stardust")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second delete error = %v, want NOT_FOUND", err)
	}
}

func TestMergeUnknownPackage(t *testing.T) {
	env := newTestEnv(t, "none")
	err := env.run(t, "merge", "ghost", "--yes")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("merge error = %v, want NOT_FOUND", err)
	}
	if _, statErr := os.Stat(env.registry); !os.IsNotExist(statErr) {
		t.Error("registry file created for a failed resolution")
	}
}

func TestMergeFailedDownloadKeepsRegistry(t *testing.T) {
	env := newTestEnv(t, "none")
	if err := os.Remove(filepath.Join(env.serveDir, "stardust-0.3.1.zip")); err != nil {
		t.Fatal(err)
	}

	err := env.run(t, "merge", "cometlib", "--yes")
	if !errors.Is(err, errors.ErrCodeTransferFailed) {
		t.Fatalf("merge error = %v, want TRANSFER_FAILED", err)
	}
	if _, statErr := os.Stat(env.registry); !os.IsNotExist(statErr) {
		t.Error("registry written despite all-or-nothing failure")
	}

	err = env.run(t, "merge", "cometlib", "--yes", "--partial")
	if !errors.Is(err, errors.ErrCodeTransferFailed) {
		t.Fatalf("partial merge error = %v, want TRANSFER_FAILED", err)
	}
	if _, ok := env.load(t).Get("cometlib", "1.0.0"); !ok {
		t.Error("partial merge did not register cometlib")
	}
}

func TestSyncAndCacheClear(t *testing.T) {
	env := newTestEnv(t, "file")

	if err := env.run(t, "sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	entries, err := os.ReadDir(env.cacheDir)
	if err != nil || len(entries) == 0 {
		t.Fatalf("sync did not populate the cache: %v", err)
	}

	if err := env.run(t, "sync", "test"); err != nil {
		t.Errorf("sync by case-insensitive name: %v", err)
	}
	err = env.run(t, "sync", "Nowhere")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("sync unknown constellation error = %v, want NOT_FOUND", err)
	}

	if err := env.run(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	var files int
	_ = filepath.WalkDir(env.cacheDir, func(_ string, d os.DirEntry, _ error) error {
		if d != nil && !d.IsDir() {
			files++
		}
		return nil
	})
	if files != 0 {
		t.Errorf("%d cache files left after clear", files)
	}
}

func TestSearchCommand(t *testing.T) {
	env := newTestEnv(t, "none")
	if err := env.run(t, "search", "star"); err != nil {
		t.Errorf("search: %v", err)
	}
	err := env.run(t, "search", "star", "-c", "elsewhere")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("search unknown constellation error = %v, want NOT_FOUND", err)
	}
}

func TestFetchCommand(t *testing.T) {
	env := newTestEnv(t, "none")
	out := filepath.Join(env.root, "fetched")
	if err := env.run(t, "fetch", env.srv.URL+"/test.json", "test.json", out); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "test.json")); err != nil {
		t.Errorf("fetched file missing: %v", err)
	}

	err := env.run(t, "fetch", env.srv.URL+"/missing.zip", "missing.zip", out)
	if !errors.Is(err, errors.ErrCodeHTTPStatus) {
		t.Errorf("fetch missing error = %v, want HTTP_STATUS", err)
	}
}

func TestFetchProgressIsBestEffort(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	cmd, _, err := root.Find([]string{"fetch"})
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Flags().Lookup("strict-progress") != nil {
		t.Error("fetch exposes a strict progress flag although its display never detaches early")
	}
}

func TestArchiveCommands(t *testing.T) {
	env := newTestEnv(t, "none")
	if err := os.MkdirAll("docs/guide", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("docs/guide/intro.md", []byte("# hoshi"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := env.run(t, "archive", "create", "-a", "docs.tar.xz", "docs"); err != nil {
		t.Fatalf("archive create: %v", err)
	}
	if err := env.run(t, "archive", "extract", "-a", "docs.tar.xz", "-o", "out"); err != nil {
		t.Fatalf("archive extract: %v", err)
	}
	data, err := os.ReadFile(filepath.Join("out", "docs", "guide", "intro.md"))
	if err != nil || string(data) != "# hoshi" {
		t.Errorf("extracted content = %q, %v", data, err)
	}

	err = env.run(t, "archive", "create", "-a", "docs.rar", "docs")
	if !errors.Is(err, errors.ErrCodeUnsupportedFormat) {
		t.Errorf("create .rar error = %v, want UNSUPPORTED_FORMAT", err)
	}
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t, "none")
	for _, args := range [][]string{{"config", "show"}, {"config", "path"}, {"config", "paths"}, {"cache", "path"}} {
		if err := env.run(t, args...); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}
}

func TestInvalidConfigIsReported(t *testing.T) {
	env := newTestEnv(t, "memcached")
	err := env.run(t, "list")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("list error = %v, want INVALID_CONFIG", err)
	}
}
