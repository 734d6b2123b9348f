// Package manifest tracks which report files have been ingested.
//
// The manifest is an append-only text file holding one filename per line.
// A filename is appended only after its rows are committed, and it is never
// removed. It is not reconciled against the database.
package manifest

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
)

// Manifest reads and appends the ingested-file ledger at path.
type Manifest struct {
	path string
}

// Discovery is the result of comparing an input directory to the manifest.
type Discovery struct {
	Files         []string // pending filenames, sorted
	AllCount      int      // matching files in the directory
	RecordedCount int      // distinct filenames in the manifest
}

// New creates a Manifest backed by the file at path. The file need not exist.
func New(path string) *Manifest {
	return &Manifest{path: path}
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return m.path
}

// Recorded returns the set of filenames already in the manifest.
// A missing manifest is an empty set.
func (m *Manifest) Recorded() (map[string]struct{}, error) {
	set := make(map[string]struct{})

	f, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return set, nil
		}
		return nil, eris.Wrapf(err, "manifest: open %s", m.path)
	}
	defer f.Close() //nolint:errcheck

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		name := strings.TrimRightFunc(sc.Text(), unicode.IsSpace)
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "manifest: read %s", m.path)
	}
	return set, nil
}

// Pending returns the files in dir ending in ext (case-insensitive) that are
// not yet recorded, sorted by name.
func (m *Manifest) Pending(dir, ext string) (*Discovery, error) {
	all, err := ListFiles(dir, ext)
	if err != nil {
		return nil, err
	}

	recorded, err := m.Recorded()
	if err != nil {
		return nil, err
	}

	pending := make([]string, 0, len(all))
	for _, name := range all {
		if _, ok := recorded[name]; !ok {
			pending = append(pending, name)
		}
	}

	return &Discovery{
		Files:         pending,
		AllCount:      len(all),
		RecordedCount: len(recorded),
	}, nil
}

// Record appends each name as its own line, creating the manifest if needed.
func (m *Manifest) Record(names ...string) error {
	if len(names) == 0 {
		return nil
	}

	if dir := filepath.Dir(m.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "manifest: create dir %s", dir)
		}
	}

	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "manifest: open %s for append", m.path)
	}

	w := bufio.NewWriter(f)
	for _, name := range names {
		if _, err := w.WriteString(name + "\n"); err != nil {
			_ = f.Close()
			return eris.Wrapf(err, "manifest: append %s", name)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "manifest: flush")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "manifest: sync")
	}
	return eris.Wrap(f.Close(), "manifest: close")
}

// ListFiles returns the names of regular files in dir whose name ends in ext,
// compared case-insensitively, sorted by name.
func ListFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "manifest: read dir %s", dir)
	}

	suffix := strings.ToLower(ext)
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
