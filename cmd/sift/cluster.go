package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xblaster/sift/internal/geo"
	"github.com/xblaster/sift/internal/orchestrator/local"
)

const (
	defaultClusterEpsKm     = 1.0
	defaultClusterMinPoints = 2
)

func newClusterCmd() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "cluster SOURCE",
		Short: "Group a local photo library's GPS-tagged photos into geographic clusters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gazetteer, err := geo.LoadEmbeddedGazetteer()
			if err != nil {
				return fmt.Errorf("cluster: load gazetteer: %w", err)
			}

			results, err := local.Cluster(args[0], defaultClusterEpsKm, defaultClusterMinPoints, gazetteer)
			if err != nil {
				return fmt.Errorf("cluster: %w", err)
			}

			for _, r := range results {
				fmt.Printf("cluster %d: %s (%d photos)\n", r.ID, r.Label, len(r.Paths))
				if details {
					for _, p := range r.Paths {
						fmt.Printf("  %s\n", p)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "also list member file paths per cluster")
	return cmd
}
