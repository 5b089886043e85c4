package index

import "os"

func writeGarbage(path string) error {
	return os.WriteFile(path, []byte("not a gob stream"), 0o644)
}
