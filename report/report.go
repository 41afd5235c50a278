// Package report - Human and machine readable rendering of benchmark results.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"

	"github.com/vision-bench/go-bench/benchmark"
	"github.com/vision-bench/go-bench/timing"
)

// Print writes one block per measured image: the image name followed by each
// variant's reduction-labeled latency in milliseconds to four decimal places.
func Print(w io.Writer, table *benchmark.ResultTable, reduction timing.Reduction) {
	header := color.New(color.FgCyan)
	for _, item := range table.Items {
		header.Fprintf(w, "  image: %s\n", item.Image)
		for _, v := range item.Variants {
			fmt.Fprintf(w, "      %s, latency (%s): %.4f ms\n", v.Key, reduction, v.Latency)
		}
	}
}

// WriteJSON marshals the result table to path.
func WriteJSON(path string, table *benchmark.ResultTable) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshaling results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes one row per (image, variant) pair to path.
func WriteCSV(path string, table *benchmark.ResultTable, reduction timing.Reduction) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write([]string{"image", "variant", "reduction", "latency_ms"}); err != nil {
		return err
	}
	for _, item := range table.Items {
		for _, v := range item.Variants {
			row := []string{
				item.Image,
				v.Key,
				string(reduction),
				strconv.FormatFloat(v.Latency, 'f', 4, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export writes timestamped JSON and CSV renderings of the table under dir,
// creating the directory when needed, and returns the file paths.
func Export(dir string, table *benchmark.ResultTable, reduction timing.Reduction) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("report: creating output directory: %w", err)
	}
	stamp := time.Now().Format("2006-01-02_15-04-05")
	jsonPath := filepath.Join(dir, fmt.Sprintf("benchmark_results_%s.json", stamp))
	csvPath := filepath.Join(dir, fmt.Sprintf("benchmark_results_%s.csv", stamp))

	if err := WriteJSON(jsonPath, table); err != nil {
		return "", "", err
	}
	if err := WriteCSV(csvPath, table, reduction); err != nil {
		return "", "", err
	}
	return jsonPath, csvPath, nil
}
