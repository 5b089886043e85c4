// Package digest computes content-addressed identifiers for files.
//
// Two digest algebras coexist: Local digests are a 256-bit cryptographic
// hash of a file's full byte stream, computed by Sift itself. Remote
// digests are opaque content hashes handed back by a cloud drive API
// (e.g. quickXorHash) — their algorithm is irrelevant, only equality
// matters. The two algebras must never be mixed in the same index; callers
// tag which one they hold via Kind.
package digest

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// blockSize is the minimum read granularity contractually guaranteed to
// callers layering on top of HashFile — a streaming 64 KiB block loop over
// a larger buffered reader.
const blockSize = 64 * 1024

// bufferSize is the size of the buffered reader HashFile lays over the file.
const bufferSize = 256 * 1024

// Kind distinguishes the two digest algebras so an Index never mixes them.
type Kind uint8

const (
	// Local identifies a digest computed by HashFile/HashBytes.
	Local Kind = iota
	// Remote identifies an opaque server-provided content hash.
	Remote
)

func (k Kind) String() string {
	if k == Remote {
		return "remote"
	}
	return "local"
}

// Digest is an opaque, fixed-width content identifier rendered as lowercase
// hex for persistence. Equality within an algebra implies content equality.
type Digest struct {
	Kind Kind
	Hex  string
}

// Equal reports whether two digests are the same algebra and value.
func (d Digest) Equal(other Digest) bool {
	return d.Kind == other.Kind && d.Hex == other.Hex
}

// IsZero reports whether d holds no value.
func (d Digest) IsZero() bool {
	return d.Hex == ""
}

func (d Digest) String() string {
	return d.Hex
}

// FromRemote wraps an opaque server-provided content hash as a Remote digest.
func FromRemote(hash string) Digest {
	return Digest{Kind: Remote, Hex: hash}
}

// HashBytes computes the local digest of an in-memory byte slice.
func HashBytes(data []byte) Digest {
	sum := sha256.Sum256(data)
	return Digest{Kind: Local, Hex: hex.EncodeToString(sum[:])}
}

// HashFile computes the local digest of a file on disk, streaming it in
// blockSize chunks through a bufferSize buffered reader, so at most
// bufferSize bytes of the file are held in memory ahead of the hash state.
func HashFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("digest: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, bufferSize)
	h := sha256.New()
	buf := make([]byte, blockSize)

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, werr := h.Write(buf[:n]); werr != nil {
				return Digest{}, fmt.Errorf("digest: hash %s: %w", path, werr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return Digest{}, fmt.Errorf("digest: read %s: %w", path, readErr)
		}
	}

	return Digest{Kind: Local, Hex: hex.EncodeToString(h.Sum(nil))}, nil
}
