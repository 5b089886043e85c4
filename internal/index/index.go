// Package index keeps the cross-run record of which digests have already
// been placed, so repeated organize runs are idempotent. It is a flat
// digest -> record map persisted as a gob blob, written atomically via a
// sibling temp file and rename, the same idiom the teacher uses for
// copyFileAtomic in main.go.
package index

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xblaster/sift/internal/digest"
)

// ErrNotFound is returned by Get when the digest has no entry.
var ErrNotFound = errors.New("index: digest not found")

// ErrCorrupt is returned by Load when the on-disk blob cannot be decoded.
var ErrCorrupt = errors.New("index: corrupt index file")

// Record is the value stored for each digest key.
type Record struct {
	Digest       digest.Digest
	OriginalPath string
}

// Index is a digest -> Record map with atomic persistence. Safe for
// concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[string]Record
}

// gobEntry is the on-disk shape: the index is serialized as a flat list of
// entries rather than as a map, and Load rebuilds the in-memory "kind:hex"
// key from each entry's Kind and Hex.
type gobEntry struct {
	Kind         digest.Kind
	Hex          string
	OriginalPath string
}

// New returns an empty index.
func New() *Index {
	return &Index{entries: make(map[string]Record)}
}

func key(d digest.Digest) string {
	return fmt.Sprintf("%d:%s", d.Kind, d.Hex)
}

// Contains reports whether d is already present.
func (idx *Index) Contains(d digest.Digest) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.entries[key(d)]
	return ok
}

// Insert adds or overwrites the entry for d.
func (idx *Index) Insert(d digest.Digest, originalPath string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[key(d)] = Record{Digest: d, OriginalPath: originalPath}
}

// Get returns the record for d, or ErrNotFound.
func (idx *Index) Get(d digest.Digest) (Record, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	r, ok := idx.entries[key(d)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

// Iter calls fn for every record. Iteration order is unspecified.
func (idx *Index) Iter(fn func(Record)) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for _, r := range idx.entries {
		fn(r)
	}
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// IsEmpty reports whether the index holds no entries.
func (idx *Index) IsEmpty() bool {
	return idx.Len() == 0
}

// Save writes the index to path atomically: encode to a sibling .tmp file,
// flush, then rename over the target so a crash leaves either the old or the
// new complete file, never a partial one.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	snapshot := make([]gobEntry, 0, len(idx.entries))
	for _, r := range idx.entries {
		snapshot = append(snapshot, gobEntry{
			Kind:         r.Digest.Kind,
			Hex:          r.Digest.Hex,
			OriginalPath: r.OriginalPath,
		})
	}
	idx.mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshot); err != nil {
		return fmt.Errorf("index: encode: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("index: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("index: rename into place: %w", err)
	}
	return nil
}

// Load reads an index previously written by Save. Loading a nonexistent path
// is a hard error; callers that want "no index yet" semantics should stat
// the path first and substitute New().
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("index: read %s: %w", path, err)
	}

	var snapshot []gobEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	idx := New()
	for _, e := range snapshot {
		d := digest.Digest{Kind: e.Kind, Hex: e.Hex}
		idx.entries[key(d)] = Record{Digest: d, OriginalPath: e.OriginalPath}
	}
	return idx, nil
}

// LoadOrNew loads path if it exists, otherwise returns a fresh empty index.
// This is the orchestrator-facing helper implementing spec's "the
// orchestrator maps [a missing file] to an empty index only when the file
// does not pre-exist" rule.
func LoadOrNew(path string) (*Index, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	return Load(path)
}

// DefaultPath returns the conventional index file location under destDir.
func DefaultPath(destDir string) string {
	return filepath.Join(destDir, ".sift_index.bin")
}
