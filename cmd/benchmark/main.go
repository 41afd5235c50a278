// Command benchmark measures inference latency of a configured vision model
// over an image corpus and prints the per-image, per-variant results.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vision-bench/go-bench/benchmark"
	"github.com/vision-bench/go-bench/config"
	"github.com/vision-bench/go-bench/models"
	"github.com/vision-bench/go-bench/report"
)

var (
	cfgFile   string
	rootDir   string
	outputDir string
)

var rootCmd = &cobra.Command{
	Use:          "benchmark",
	Short:        "Measure vision model inference latency over an image corpus",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "cfg", "c", "", "benchmark configuration file (YAML)")
	rootCmd.Flags().StringVar(&rootDir, "root", "", "base directory prepended to relative data and model paths")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for JSON/CSV result exports")
	_ = rootCmd.MarkFlagRequired("cfg")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if rootDir != "" {
		cfg.Benchmark.Data.Path = prependRoot(rootDir, cfg.Benchmark.Data.Path)
		cfg.Model.ModelPath = prependRoot(rootDir, cfg.Model.ModelPath)
	}

	bench, err := benchmark.NewBuilder().
		WithData(*cfg.Benchmark.Data).
		WithMetric(*cfg.Benchmark.Metric).
		WithBackend(cfg.Benchmark.Backend).
		WithTarget(cfg.Benchmark.Target).
		WithProgress().
		Build()
	if err != nil {
		return err
	}

	model, err := models.NewModel(cfg.Model)
	if err != nil {
		return err
	}
	defer model.Close()

	fmt.Printf("Benchmarking %s:\n", model.Name())
	if err := bench.Run(model); err != nil {
		return err
	}

	report.Print(os.Stdout, bench.Results(), bench.Reduction())

	stats := bench.Stats()
	log.Printf("measured %d image(s), %d variant(s) in %s",
		stats.Items, stats.Variants, stats.WallTime.Round(time.Millisecond))

	if outputDir != "" {
		jsonPath, csvPath, err := report.Export(outputDir, bench.Results(), bench.Reduction())
		if err != nil {
			return err
		}
		log.Printf("results saved to %s and %s", jsonPath, csvPath)
	}
	return nil
}

func prependRoot(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
