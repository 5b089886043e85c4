package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/xblaster/sift/internal/digest"
)

// newBenchmarkCmd hashes a generated file of the requested size n times and
// reports average latency/throughput. The argument parser and interactive
// polish around this command are explicitly out of scope; this keeps enough
// behavior to exercise internal/digest's hot path on demand.
func newBenchmarkCmd() *cobra.Command {
	var sizeMB int
	var iterations int

	cmd := &cobra.Command{
		Use:   "benchmark PATH",
		Short: "Measure local hashing throughput against PATH's filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := filepath.Join(args[0], ".sift_benchmark.tmp")
			if err := writeRandomFile(target, sizeMB); err != nil {
				return fmt.Errorf("benchmark: %w", err)
			}
			defer os.Remove(target)

			var total time.Duration
			for i := 0; i < iterations; i++ {
				start := time.Now()
				if _, err := digest.HashFile(target); err != nil {
					return fmt.Errorf("benchmark: %w", err)
				}
				total += time.Since(start)
			}

			avg := total / time.Duration(iterations)
			throughputMBps := float64(sizeMB) / avg.Seconds()
			fmt.Printf("average latency: %s, throughput: %.2f MB/s\n", avg, throughputMBps)
			return nil
		},
	}

	cmd.Flags().IntVar(&sizeMB, "size-mb", 100, "size in MB of the generated benchmark file")
	cmd.Flags().IntVarP(&iterations, "n", "n", 5, "number of hash iterations")
	return cmd
}

func writeRandomFile(path string, sizeMB int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, 1024*1024)
	for i := 0; i < sizeMB; i++ {
		if _, err := f.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
