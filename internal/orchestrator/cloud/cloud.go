// Package cloud runs the zero-download cloud organize pipeline against an
// OneDrive-style drive API: Load state -> Scan (delta) -> Dedup -> Place
// (metadata move) -> Commit. Same stage-table idiom as internal/orchestrator
// local, substituting internal/cloudapi for local disk I/O.
package cloud

import (
	"context"
	"fmt"

	"github.com/xblaster/sift/internal/checkpoint"
	"github.com/xblaster/sift/internal/cloudapi"
	"github.com/xblaster/sift/internal/metadata"
	"github.com/xblaster/sift/internal/planner"
	"github.com/xblaster/sift/internal/sifterr"
)

// Config holds one cloud organize run's parameters.
type Config struct {
	DestFolderID   string // root drive item id to organize under
	DestFolderPath string // its cumulative path, for folder-ensure caching
	StatePath      string // delta state JSON path
	DryRun         bool
	CheckpointPath string // checkpoint SQLite file; defaults alongside StatePath
}

func (c Config) resolvedCheckpointPath() string {
	if c.CheckpointPath != "" {
		return c.CheckpointPath
	}
	return c.StatePath + ".checkpoint.db"
}

// checkpointRunID derives a stable run id from the destination folder, so a
// crash mid-run and a subsequent retry of the same organize invocation share
// one visited-set instead of each generating a fresh, unresumable one.
func checkpointRunID(cfg Config) string {
	return cfg.DestFolderID
}

// Summary reports per-stage counts for one run.
type Summary struct {
	Scanned  int
	Skipped  int // duplicates via seen_digests, plus items already marked visited in the checkpoint
	NoDate   int
	Moved    int
	Warnings []string
	Plan     []PlannedMove // populated only on a dry run
}

// PlannedMove describes a move the dry-run would have issued.
type PlannedMove struct {
	ItemID     string
	Name       string
	DestFolder string
}

func (s *Summary) warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// Ensurer is the subset of GraphClient's folder-ensure contract the cloud
// orchestrator needs to place items.
type Ensurer interface {
	EnsureFolder(ctx context.Context, parentID, parentPath, name string) (id string, childPath string, err error)
}

// Mover is the subset of cloudapi.ItemClient the orchestrator needs to move
// items after ensuring their destination folder.
type Mover interface {
	MoveItem(ctx context.Context, itemID, newParentID string) error
}

// Run executes the full cloud stage machine.
func Run(ctx context.Context, cfg Config, fetcher cloudapi.DeltaFetcher, ensurer Ensurer, mover Mover) (Summary, error) {
	summary := Summary{}

	// --- Load state -----------------------------------------------------
	state, err := cloudapi.LoadDeltaState(cfg.StatePath)
	if err != nil {
		return summary, sifterr.Wrap(sifterr.IndexFailure, cfg.StatePath, err)
	}

	// --- Scan (delta) -----------------------------------------------------
	records, newCursor, err := cloudapi.ScanAll(ctx, fetcher, state.Cursor)
	if err != nil {
		return summary, sifterr.Wrap(sifterr.NetworkFailure, "", err)
	}
	summary.Scanned = len(records)

	// A checkpoint store lets a crash mid-run skip re-placing items already
	// moved on a prior attempt at the same delta page; it's advisory only,
	// so dry runs never open one.
	var ckpt *checkpoint.Store
	if !cfg.DryRun {
		ckpt, err = checkpoint.Open(cfg.resolvedCheckpointPath(), checkpointRunID(cfg), checkpoint.KindCloud)
		if err != nil {
			return summary, sifterr.Wrap(sifterr.IndexFailure, cfg.resolvedCheckpointPath(), err)
		}
		defer ckpt.Close()
	}

	// --- Dedup --------------------------------------------------------------
	var toPlace []cloudapi.Record
	for _, rec := range records {
		if rec.Deleted {
			if !rec.Digest.IsZero() {
				delete(state.SeenHashes, rec.Digest.String())
			}
			continue
		}

		if ckpt != nil {
			visited, err := ckpt.IsVisited(rec.ItemID)
			if err != nil {
				return summary, sifterr.Wrap(sifterr.IndexFailure, rec.ItemID, err)
			}
			if visited {
				summary.Skipped++
				continue
			}
		}

		if rec.Digest.IsZero() {
			// Conservative choice: no digest means we cannot tell if it's
			// a duplicate, so it falls through to placement rather than
			// risking silently losing it.
			toPlace = append(toPlace, rec)
			continue
		}

		key := rec.Digest.String()
		if state.SeenHashes[key] {
			summary.Skipped++
			continue
		}
		toPlace = append(toPlace, rec)
	}

	// --- Place ----------------------------------------------------------------
	for _, rec := range toPlace {
		if !rec.HasDate {
			summary.NoDate++
			continue
		}

		destPath := planner.Plan(cfg.DestFolderPath, rec.CaptureDate)

		if cfg.DryRun {
			summary.Plan = append(summary.Plan, PlannedMove{
				ItemID: rec.ItemID, Name: rec.Name, DestFolder: destPath,
			})
			continue
		}

		folderID, _, err := ensureHierarchy(ctx, ensurer, cfg.DestFolderID, cfg.DestFolderPath, rec.CaptureDate)
		if err != nil {
			summary.warn("place: %v", sifterr.Wrap(sifterr.NetworkFailure, rec.Name, err))
			continue
		}

		if rec.ParentID == folderID {
			if ckpt != nil {
				if err := ckpt.MarkVisited(rec.ItemID); err != nil {
					return summary, sifterr.Wrap(sifterr.IndexFailure, rec.ItemID, err)
				}
			}
			continue
		}

		if err := mover.MoveItem(ctx, rec.ItemID, folderID); err != nil {
			summary.warn("place: %v", sifterr.Wrap(sifterr.NetworkFailure, rec.Name, err))
			continue
		}

		summary.Moved++
		if !rec.Digest.IsZero() {
			state.SeenHashes[rec.Digest.String()] = true
		}
		if ckpt != nil {
			if err := ckpt.MarkVisited(rec.ItemID); err != nil {
				return summary, sifterr.Wrap(sifterr.IndexFailure, rec.ItemID, err)
			}
		}
	}

	// --- Commit -----------------------------------------------------------------
	if cfg.DryRun {
		return summary, nil
	}

	state.Cursor = newCursor
	if err := cloudapi.SaveDeltaState(cfg.StatePath, state); err != nil {
		return summary, sifterr.Wrap(sifterr.IndexFailure, cfg.StatePath, err)
	}

	if ckpt != nil {
		if err := ckpt.Clear(); err != nil {
			return summary, sifterr.Wrap(sifterr.IndexFailure, cfg.resolvedCheckpointPath(), err)
		}
	}

	return summary, nil
}

// ensureHierarchy walks the YYYY/MM/DD folder segments under root, creating
// any that don't exist via ensurer, which caches (cumulative_path -> id)
// across the run per spec.md's folder-ensure contract.
func ensureHierarchy(ctx context.Context, ensurer Ensurer, rootID, rootPath string, date metadata.CaptureDate) (string, string, error) {
	segments := []string{
		fmt.Sprintf("%04d", date.Year),
		fmt.Sprintf("%02d", date.Month),
		fmt.Sprintf("%02d", date.Day),
	}

	id, path := rootID, rootPath
	for _, segment := range segments {
		var err error
		id, path, err = ensurer.EnsureFolder(ctx, id, path, segment)
		if err != nil {
			return "", "", err
		}
	}
	return id, path, nil
}
