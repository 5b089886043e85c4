package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/xblaster/sift/internal/geo"
	"github.com/xblaster/sift/internal/orchestrator/local"
)

func newOrganizeCmd() *cobra.Command {
	var withClustering bool
	var jobs int
	var indexPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize SOURCE DEST",
		Short: "Organize a local photo library into a chronological tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := local.Config{
				SourceDir:      args[0],
				DestDir:        args[1],
				WithClustering: withClustering,
				WorkerCount:    jobs,
				IndexPath:      indexPath,
				DryRun:         dryRun,
			}

			if withClustering {
				gazetteer, err := geo.LoadEmbeddedGazetteer()
				if err != nil {
					return fmt.Errorf("organize: load gazetteer: %w", err)
				}
				cfg.Gazetteer = gazetteer
			}

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("Analyzing"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetWidth(20),
				progressbar.OptionSetElapsedTime(true),
				progressbar.OptionClearOnFinish(),
			)
			cfg.OnProgress = func() { bar.Add(1) }

			summary, err := local.Run(context.Background(), cfg)
			if err != nil {
				return fmt.Errorf("organize: %w", err)
			}

			printLocalSummary(summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withClustering, "with-clustering", false, "group destination folders by geographic cluster")
	cmd.Flags().IntVar(&jobs, "jobs", 0, "worker pool size for hashing (default: GOMAXPROCS)")
	cmd.Flags().StringVar(&indexPath, "index", "", "path to the dedup index (default: {dest}/.sift_index.bin)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be organized without writing anything")

	return cmd
}

func printLocalSummary(s local.Summary) {
	for _, w := range s.Warnings {
		color.New(color.FgYellow).Println(w)
	}
	fmt.Println()
	color.New(color.FgGreen).Printf("Organized: %d, ", s.Organized)
	color.New(color.FgYellow).Printf("Duplicates: %d, ", s.SkippedDuplicates)
	color.New(color.FgRed).Printf("Failed: %d, ", s.Failed)
	fmt.Printf("Scanned: %d, Analyzed: %d\n", s.Scanned, s.Analyzed)
}
