// Package planner computes destination paths for organized photos. It never
// touches the filesystem — creating directories and copying files is the
// caller's responsibility, same division of labor as the teacher's
// destMonthDir/monthFolder helpers that only compute a path string.
package planner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xblaster/sift/internal/metadata"
)

// unsafeChars are replaced with underscore during Sanitize.
const unsafeChars = `/\:*?"<>|`

// Sanitize replaces each unsafe filesystem character with "_" and trims
// surrounding whitespace.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(unsafeChars, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Plan returns root/YYYY/MM/DD, zero-padded, optionally followed by a
// sanitized location segment.
func Plan(root string, date metadata.CaptureDate, location ...string) string {
	segments := []string{
		root,
		fmt.Sprintf("%04d", date.Year),
		fmt.Sprintf("%02d", date.Month),
		fmt.Sprintf("%02d", date.Day),
	}
	if len(location) > 0 && location[0] != "" {
		segments = append(segments, Sanitize(location[0]))
	}
	return filepath.Join(segments...)
}
