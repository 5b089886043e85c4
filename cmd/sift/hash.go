package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xblaster/sift/internal/digest"
)

func newHashCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "hash PATH",
		Short: "Print the content digest of one file or a directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := collectHashTargets(args[0], recursive)
			if err != nil {
				return fmt.Errorf("hash: %w", err)
			}
			for _, p := range paths {
				d, err := digest.HashFile(p)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", p, err)
					continue
				}
				fmt.Printf("%s: %s\n", p, d.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&recursive, "recursive", false, "walk PATH recursively (organize's scan is non-recursive; hash is not)")
	return cmd
}

// collectHashTargets lists files under path. Unlike the local organizer's
// Scan, this walks recursively when --recursive is set and applies no
// extension allowlist: hash is a general-purpose utility, not a stage of
// the organize pipeline.
func collectHashTargets(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	if !recursive {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		var paths []string
		for _, e := range entries {
			if !e.IsDir() {
				paths = append(paths, filepath.Join(path, e.Name()))
			}
		}
		return paths, nil
	}

	var paths []string
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			paths = append(paths, p)
		}
		return nil
	})
	return paths, err
}
