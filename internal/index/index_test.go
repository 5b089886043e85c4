package index

import (
	"path/filepath"
	"testing"

	"github.com/xblaster/sift/internal/digest"
)

func TestInsertContainsGet(t *testing.T) {
	idx := New()
	d := digest.HashBytes([]byte("hello"))

	if idx.Contains(d) {
		t.Fatal("fresh index should not contain anything")
	}

	idx.Insert(d, "/photos/a.jpg")
	if !idx.Contains(d) {
		t.Fatal("expected digest to be present after Insert")
	}

	rec, err := idx.Get(d)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.OriginalPath != "/photos/a.jpg" {
		t.Fatalf("got path %q", rec.OriginalPath)
	}
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	idx := New()
	d := digest.HashBytes([]byte("nope"))
	if _, err := idx.Get(d); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLenAndIsEmpty(t *testing.T) {
	idx := New()
	if !idx.IsEmpty() {
		t.Fatal("new index must be empty")
	}
	idx.Insert(digest.HashBytes([]byte("a")), "a.jpg")
	idx.Insert(digest.HashBytes([]byte("b")), "b.jpg")
	if idx.Len() != 2 {
		t.Fatalf("expected len 2, got %d", idx.Len())
	}
	if idx.IsEmpty() {
		t.Fatal("populated index must not be empty")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")

	idx := New()
	idx.Insert(digest.HashBytes([]byte("one")), "/p/one.jpg")
	idx.Insert(digest.HashBytes([]byte("two")), "/p/two.jpg")

	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != idx.Len() {
		t.Fatalf("round trip lost entries: got %d, want %d", loaded.Len(), idx.Len())
	}

	d := digest.HashBytes([]byte("one"))
	rec, err := loaded.Get(d)
	if err != nil {
		t.Fatalf("Get after load: %v", err)
	}
	if rec.OriginalPath != "/p/one.jpg" {
		t.Fatalf("got %q", rec.OriginalPath)
	}
}

func TestSaveLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")
	idx := New()
	idx.Insert(digest.HashBytes([]byte("x")), "x.jpg")
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := Load(path + ".tmp"); err == nil {
		t.Fatal("expected no leftover .tmp file after a successful save")
	}
}

func TestLoadNonexistentIsHardError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.bin"))
	if err == nil {
		t.Fatal("expected error loading a nonexistent index")
	}
}

func TestLoadOrNewReturnsFreshIndexWhenAbsent(t *testing.T) {
	idx, err := LoadOrNew(filepath.Join(t.TempDir(), "missing.bin"))
	if err != nil {
		t.Fatalf("LoadOrNew: %v", err)
	}
	if !idx.IsEmpty() {
		t.Fatal("expected an empty index for a missing path")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")
	if err := writeGarbage(path); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error loading a corrupt file")
	}
}
