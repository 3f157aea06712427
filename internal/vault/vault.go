// Package vault reads and edits a directory of markdown notes whose YAML
// frontmatter carries the properties the views are built from.
package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	appLog "planview/internal/log"
	"planview/internal/normalize"
	"planview/internal/record"
)

const sourceName = "vault"

var (
	ErrRecordNotFound = errors.New("vault: record not found")
	ErrInvalidRef     = errors.New("vault: invalid ref")
)

// Notes without an "id" property get a name-based UUID of their path, so the
// same file keeps the same ID across restarts.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("planview:vault"))

// Store is a vault rooted at Dir.
type Store struct {
	Dir string

	mu sync.Mutex
}

func New(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) Name() string { return sourceName }

// Load parses every *.md note under Dir. Hidden directories are skipped and
// notes with broken frontmatter are logged and left out.
func (s *Store) Load(ctx context.Context) ([]record.Record, error) {
	if s.Dir == "" {
		return nil, errors.New("vault: directory not configured")
	}

	var out []record.Record
	seen := map[string]string{}

	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.Dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		rel, err := filepath.Rel(s.Dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		rec, err := parseNote(rel, data)
		if err != nil {
			appLog.Warn("vault note skipped", "ref", rel, "err", err)
			return nil
		}
		if prev, dup := seen[rec.ID]; dup {
			appLog.Warn("vault duplicate id; keeping first", "id", rec.ID, "ref", rel, "first", prev)
			return nil
		}
		seen[rec.ID] = rel
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking vault: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	appLog.Debug("vault loaded", "dir", s.Dir, "notes", len(out))
	return out, nil
}

// Read parses the single note at ref.
func (s *Store) Read(ref string) (record.Record, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return record.Record{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return record.Record{}, fmt.Errorf("%s: %w", ref, ErrRecordNotFound)
		}
		return record.Record{}, err
	}
	return parseNote(filepath.ToSlash(filepath.Clean(filepath.FromSlash(ref))), data)
}

// Update sets frontmatter properties of the note at ref and writes the file
// once, atomically, so either every change lands or none does. Writes
// through one Store are serialized.
func (s *Store) Update(ctx context.Context, ref string, changes ...record.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}
	for _, c := range changes {
		if c.Property == "" {
			return errors.New("vault: empty property name")
		}
	}
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", ref, ErrRecordNotFound)
		}
		return fmt.Errorf("reading %s: %w", ref, err)
	}

	updated, err := setProperties(data, changes)
	if err != nil {
		return fmt.Errorf("updating %s: %w", ref, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(updated)); err != nil {
		return fmt.Errorf("writing %s: %w", ref, err)
	}

	for _, c := range changes {
		appLog.Info("vault property updated", "ref", ref, "property", c.Property, "value", c.Value)
	}
	return nil
}

func (s *Store) resolve(ref string) (string, error) {
	if ref == "" {
		return "", ErrInvalidRef
	}
	clean := filepath.Clean(filepath.FromSlash(ref))
	if filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w", ref, ErrInvalidRef)
	}
	return filepath.Join(s.Dir, clean), nil
}

func parseNote(rel string, data []byte) (record.Record, error) {
	fm, _, _ := splitFrontmatter(data)
	raw, err := decodeFrontmatter(fm)
	if err != nil {
		return record.Record{}, fmt.Errorf("parsing frontmatter: %w", err)
	}
	props := normalize.PropertiesFromMap(raw)

	rec := record.Record{
		Ref:        rel,
		Properties: props,
		Source:     sourceName,
	}
	if id := strings.TrimSpace(normalize.DisplayString(props.Get("id"))); id != "" {
		rec.ID = id
	} else {
		rec.ID = uuid.NewSHA1(idNamespace, []byte(rel)).String()
	}
	if title := strings.TrimSpace(normalize.DisplayString(props.Get("title"))); title != "" {
		rec.Title = title
	} else {
		base := filepath.Base(filepath.FromSlash(rel))
		rec.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return rec, nil
}
