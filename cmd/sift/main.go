// sift: chronological photo organizer with content-dedup and optional
// geographic clustering, for local disks and OneDrive-style cloud drives.
package main

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "sift",
		Short: "Organize photo libraries by capture date, deduplicating by content",
		Long: `sift organizes large photo libraries into a YYYY/MM/DD tree,
deduplicating by content hash and optionally grouping by geographic cluster.
It runs against a local directory or a OneDrive-style cloud drive without
downloading file contents.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogger(verbose)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	rootCmd.AddCommand(
		newOrganizeCmd(),
		newHashCmd(),
		newIndexCmd(),
		newClusterCmd(),
		newBenchmarkCmd(),
		newOnedriveCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// initLogger installs the process-wide structured logger. --verbose lowers
// the level to Debug; the default level is Info, matching the teacher's
// terse non-debug console output.
func initLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

