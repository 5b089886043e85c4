package digest

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// HashFilesParallel computes the local digest of each path using up to
// workers concurrent goroutines. Failures are silently dropped from the
// result — callers that care about reduced cardinality must compare
// len(result) against len(paths) themselves (Sift's local orchestrator
// checks each path and warns for every one missing from the result).
// Ordering of the underlying work is not guaranteed; the result map makes
// that irrelevant to callers.
func HashFilesParallel(ctx context.Context, paths []string, workers int) map[string]Digest {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	result := make(map[string]Digest, len(paths))
	var mu sync.Mutex

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for _, path := range paths {
		path := path
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled: stop launching new work but let
			// already-running hashes finish below.
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			d, err := HashFile(path)
			if err != nil {
				return
			}
			mu.Lock()
			result[path] = d
			mu.Unlock()
		}()
	}

	wg.Wait()
	return result
}
