// Package dataset - Random-access view over an image corpus on disk.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"github.com/vision-bench/go-bench/config"
)

// Item is one corpus entry: the file name, its decoded image, and the region
// rows parsed from the sibling label file when labels are enabled.
type Item struct {
	Name    string
	Image   gocv.Mat
	Regions [][]float32
}

// Dataset is an indexable corpus of images under one directory. Images are
// decoded lazily per access; labels are loaded once at construction.
type Dataset struct {
	path     string
	files    []string
	useLabel bool
	labels   map[string][][]float32
}

// New builds a Dataset from the data configuration. When no explicit file
// list is given, every .jpg/.png file under the path is discovered in
// directory order.
func New(cfg config.Data) (*Dataset, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("dataset: path cannot be empty")
	}

	files := cfg.Files
	if len(files) == 0 {
		entries, err := os.ReadDir(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("dataset: reading %s: %w", cfg.Path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch filepath.Ext(entry.Name()) {
			case ".jpg", ".png":
				files = append(files, entry.Name())
			}
		}
	}

	d := &Dataset{path: cfg.Path, files: files, useLabel: cfg.UseLabel}
	if cfg.UseLabel {
		labels, err := loadLabels(cfg.Path, files)
		if err != nil {
			return nil, err
		}
		d.labels = labels
	}
	return d, nil
}

// Len returns the number of corpus entries.
func (d *Dataset) Len() int { return len(d.files) }

// Files returns the file names in iteration order.
func (d *Dataset) Files() []string {
	out := make([]string, len(d.files))
	copy(out, d.files)
	return out
}

// At decodes and returns the idx-th corpus entry. The caller owns the
// returned image and must close it.
func (d *Dataset) At(idx int) (Item, error) {
	if idx < 0 || idx >= len(d.files) {
		return Item{}, fmt.Errorf("dataset: index %d out of range [0, %d)", idx, len(d.files))
	}
	name := d.files[idx]
	img := gocv.IMRead(filepath.Join(d.path, name), gocv.IMReadColor)
	if img.Empty() {
		return Item{}, fmt.Errorf("dataset: failed to decode %s", name)
	}
	return Item{Name: name, Image: img, Regions: d.labels[name]}, nil
}

// loadLabels reads one <stem>.txt label file per corpus image. Each
// whitespace-separated line becomes one region row.
func loadLabels(dir string, files []string) (map[string][][]float32, error) {
	labels := make(map[string][][]float32, len(files))
	for _, name := range files {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		path := filepath.Join(dir, stem+".txt")
		rows, err := readLabelFile(path)
		if err != nil {
			return nil, fmt.Errorf("dataset: label for %s: %w", name, err)
		}
		labels[name] = rows
	}
	return labels, nil
}

func readLabelFile(path string) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows [][]float32
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		row := make([]float32, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
			}
			row[i] = float32(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
