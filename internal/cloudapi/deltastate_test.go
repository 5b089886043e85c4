package cloudapi

import (
	"path/filepath"
	"testing"
)

func TestLoadDeltaStateMissingFileIsEmpty(t *testing.T) {
	s, err := LoadDeltaState(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadDeltaState: %v", err)
	}
	if s.Cursor != "" || len(s.SeenHashes) != 0 {
		t.Fatalf("expected empty state, got %+v", s)
	}
}

func TestSaveLoadDeltaStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "delta.json")

	s := NewDeltaState()
	s.Cursor = "cursor-abc"
	s.SeenHashes["hash1"] = true
	s.SeenHashes["hash2"] = true

	if err := SaveDeltaState(path, s); err != nil {
		t.Fatalf("SaveDeltaState: %v", err)
	}

	loaded, err := LoadDeltaState(path)
	if err != nil {
		t.Fatalf("LoadDeltaState: %v", err)
	}
	if loaded.Cursor != "cursor-abc" {
		t.Fatalf("got cursor %q", loaded.Cursor)
	}
	if !loaded.SeenHashes["hash1"] || !loaded.SeenHashes["hash2"] {
		t.Fatalf("got seen hashes %+v", loaded.SeenHashes)
	}
}

func TestClearDeltaStateRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "delta.json")
	SaveDeltaState(path, NewDeltaState())

	if err := ClearDeltaState(path); err != nil {
		t.Fatalf("ClearDeltaState: %v", err)
	}
	s, err := LoadDeltaState(path)
	if err != nil {
		t.Fatalf("LoadDeltaState after clear: %v", err)
	}
	if s.Cursor != "" {
		t.Fatal("expected empty state after clear")
	}
}
