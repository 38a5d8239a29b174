// Package config loads hoshi's settings.
//
// Settings come from three layers, later ones winning: built-in defaults,
// the TOML file at [DefaultPath], and HOSHI_* environment variables.
// Command-line flags are applied on top by the CLI.
//
// A minimal config.toml:
//
//	install_dir = "/opt/hoshi"
//	jobs = 4
//	policy = "per-artifact"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[[constellations]]
//	name = "Hoshi-Core"
//	metadata_url = "https://stars.example.com/core.json"
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hoshipkg/hoshi/pkg/catalog"
	"github.com/hoshipkg/hoshi/pkg/errors"
	"github.com/hoshipkg/hoshi/pkg/merge"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// DefaultCacheTTL is how long fetched constellation documents stay fresh.
const DefaultCacheTTL = Duration(time.Hour)

// Config is the effective configuration.
type Config struct {
	InstallDir     string                  `toml:"install_dir"`
	DownloadDir    string                  `toml:"download_dir"`
	RegistryPath   string                  `toml:"registry_path"`
	Jobs           int                     `toml:"jobs"`
	Policy         string                  `toml:"policy"`
	Cache          CacheConfig             `toml:"cache"`
	Constellations []catalog.Constellation `toml:"constellations"`
}

// CacheConfig selects and configures the catalog cache.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	TTL       Duration `toml:"ttl"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr,omitempty"`
	Prefix    string   `toml:"prefix,omitempty"`
}

// Duration is a time.Duration written as "1h30m" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration. Directory lookups that fail
// leave the corresponding field empty; Validate reports it.
func Default() *Config {
	cfg := &Config{
		InstallDir:     merge.DefaultInstallDir,
		DownloadDir:    merge.DefaultDownloadDir(),
		Policy:         merge.AllOrNothing.String(),
		Cache:          CacheConfig{Backend: BackendFile, TTL: DefaultCacheTTL, Prefix: AppName + ":"},
		Constellations: catalog.DefaultConstellations(),
	}
	if dir, err := DataDir(); err == nil {
		cfg.RegistryPath = filepath.Join(dir, "registry.json")
	}
	if dir, err := CacheDir(); err == nil {
		cfg.Cache.Dir = dir
	}
	return cfg
}

// Load reads path on top of the defaults and then applies the environment.
// An empty path means DefaultPath. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate config directory")
		}
		path = p
	}
	if err := cfg.decodeFile(path); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	// A file listing constellations replaces the defaults rather than
	// appending to them.
	defaults := c.Constellations
	c.Constellations = nil
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if !md.IsDefined("constellations") {
		c.Constellations = defaults
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides settings from HOSHI_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"HOSHI_INSTALL_DIR", &c.InstallDir},
		{"HOSHI_DOWNLOAD_DIR", &c.DownloadDir},
		{"HOSHI_REGISTRY", &c.RegistryPath},
		{"HOSHI_POLICY", &c.Policy},
		{"HOSHI_CACHE_BACKEND", &c.Cache.Backend},
		{"HOSHI_REDIS_ADDR", &c.Cache.RedisAddr},
	}
	for _, s := range strs {
		if v, ok := lookup(s.name); ok && v != "" {
			*s.dst = v
		}
	}
	if v, ok := lookup("HOSHI_JOBS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "HOSHI_JOBS")
		}
		c.Jobs = n
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.InstallDir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "install_dir is empty")
	}
	if c.RegistryPath == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "registry_path is empty and no data directory could be determined")
	}
	if c.Jobs < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "jobs must not be negative, got %d", c.Jobs)
	}
	if _, err := merge.ParsePolicy(c.Policy); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone, "":
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl must not be negative")
	}
	seen := make(map[string]bool, len(c.Constellations))
	for _, con := range c.Constellations {
		if con.Name == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "constellation with empty name")
		}
		key := strings.ToLower(con.Name)
		if seen[key] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate constellation %q", con.Name)
		}
		seen[key] = true
		if err := errors.ValidateURL(con.MetadataURL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "constellation %s", con.Name)
		}
	}
	return nil
}

// MergePolicy returns the parsed barrier policy.
func (c *Config) MergePolicy() merge.Policy {
	p, _ := merge.ParsePolicy(c.Policy)
	return p
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
