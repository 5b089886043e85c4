package netio

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadAllReturnsFullContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	content := make([]byte, bufferSize+1000)
	for i := range content {
		content[i] = byte(i % 256)
	}
	os.WriteFile(path, content, 0o644)

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != len(content) {
		t.Fatalf("got %d bytes, want %d", len(got), len(content))
	}
	for i := range content {
		if got[i] != content[i] {
			t.Fatalf("byte mismatch at %d", i)
		}
	}
}

func TestReadAllMissingFile(t *testing.T) {
	_, err := ReadAll(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadWithRetriesSurfacesFinalError(t *testing.T) {
	start := time.Now()
	_, err := ReadWithRetries(filepath.Join(t.TempDir(), "nope"))
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if elapsed < 700*time.Millisecond {
		t.Fatalf("expected worst-case ~700ms of backoff, took %v", elapsed)
	}
}

func TestReadWithRetriesSucceedsImmediately(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.bin")
	os.WriteFile(path, []byte("hello"), 0o644)

	start := time.Now()
	data, err := ReadWithRetries(path)
	if err != nil {
		t.Fatalf("ReadWithRetries: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("got %q", data)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatal("expected no backoff delay on first-try success")
	}
}

func TestReadChunkWithinBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunk.bin")
	os.WriteFile(path, []byte("0123456789"), 0o644)

	got, err := ReadChunk(path, 2, 4)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if string(got) != "2345" {
		t.Fatalf("got %q", got)
	}
}

func TestReadChunkTruncatedAtEOF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunk.bin")
	os.WriteFile(path, []byte("0123456789"), 0o644)

	got, err := ReadChunk(path, 8, 10)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if string(got) != "89" {
		t.Fatalf("got %q", got)
	}
}
