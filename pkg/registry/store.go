package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/hoshipkg/hoshi/pkg/errors"
)

const lockRetryDelay = 250 * time.Millisecond

// Store persists a registry at a fixed path.
type Store struct {
	path string
}

// NewStore returns a store for the registry file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the registry file location.
func (s *Store) Path() string { return s.path }

// Load reads the registry. A missing file yields an empty registry; a file
// that exists but does not parse is a REGISTRY_CORRUPT error. Fields the
// registry does not know are rejected rather than dropped, so a later Save
// never loses data.
func (s *Store) Load() (*Registry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRegistryIO, err, "read registry %s", s.path)
	}

	r := New()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRegistryCorrupt, err, "parse registry %s", s.path)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.ErrCodeRegistryCorrupt, "parse registry %s: trailing data after document", s.path)
	}
	if r.Packages == nil {
		r.Packages = make(map[string]Package)
	}
	return r, nil
}

// Save writes the complete registry, creating parent directories. The file
// is replaced atomically so readers never observe a partial document.
func (s *Store) Save(r *Registry) error {
	data, err := Encode(r)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode registry")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeRegistryIO, err, "create registry directory")
	}
	if err := atomicWriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeRegistryIO, err, "write registry %s", s.path)
	}
	return nil
}

// Lock takes an exclusive advisory lock next to the registry file, waiting
// until ctx is done. The returned function releases it.
func (s *Store) Lock(ctx context.Context) (unlock func() error, err error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRegistryIO, err, "create registry directory")
	}
	fl := flock.New(s.path + ".lock")
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRegistryIO, err, "lock registry %s", s.path)
	}
	if !locked {
		return nil, errors.New(errors.ErrCodeRegistryIO, "registry %s is locked by another process", s.path)
	}
	return fl.Unlock, nil
}

// Encode renders r in its canonical on-disk form.
func Encode(r *Registry) ([]byte, error) {
	doc := New()
	if r != nil && r.Packages != nil {
		doc.Packages = r.Packages
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// atomicWriteFile writes data to a temp file in the target directory and
// renames it into place.
func atomicWriteFile(filename string, data []byte, mode os.FileMode) error {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filename); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
