package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xblaster/sift/internal/index"
)

func newIndexCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "index INDEX_FILE",
		Short: "Print entries from a dedup index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := index.Load(args[0])
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			printed := 0
			idx.Iter(func(r index.Record) {
				if printed >= limit {
					return
				}
				fmt.Printf("%s  %s\n", r.Digest.String(), r.OriginalPath)
				printed++
			})
			fmt.Printf("\n%d of %d entries shown\n", printed, idx.Len())
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of entries to print")
	return cmd
}
