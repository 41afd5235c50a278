// Package config - Strongly typed YAML configuration for benchmark runs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vision-bench/go-bench/timing"
)

// Data configures the image corpus a run iterates.
type Data struct {
	// Path is the directory holding the corpus. Required.
	Path string `yaml:"path"`
	// Files restricts the run to an explicit list of file names. When empty,
	// every .jpg/.png file under Path is discovered.
	Files []string `yaml:"files"`
	// UseLabel enables loading region rows from sibling .txt label files.
	UseLabel bool `yaml:"useLabel"`
}

// Metric configures the trial loop and its statistical reduction.
type Metric struct {
	// Sizes lists the preprocessing sizes as [width, height] pairs. When
	// empty the image's native size is used.
	Sizes [][]int `yaml:"sizes"`
	// Warmup is the number of leading trials discarded from statistics.
	Warmup int `yaml:"warmup"`
	// Repeat is the number of retained trials. Must exceed Warmup.
	Repeat int `yaml:"repeat"`
	// BatchSize is accepted for compatibility but not applied: every
	// inference call processes exactly one input.
	BatchSize int `yaml:"batchSize"`
	// Reduction names the strategy collapsing samples to one scalar.
	Reduction string `yaml:"reduction"`
}

// UnmarshalYAML fills in the documented defaults before decoding so absent
// keys and explicit zero values stay distinguishable.
func (m *Metric) UnmarshalYAML(node *yaml.Node) error {
	type plain Metric
	p := plain{
		Warmup:    3,
		Repeat:    10,
		BatchSize: 1,
		Reduction: string(timing.ReductionMedian),
	}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*m = Metric(p)
	return nil
}

// Benchmark is the run-level configuration section.
type Benchmark struct {
	Data    *Data   `yaml:"data"`
	Metric  *Metric `yaml:"metric"`
	Backend string  `yaml:"backend"`
	Target  string  `yaml:"target"`
}

// UnmarshalYAML applies the backend/target defaults before decoding.
func (b *Benchmark) UnmarshalYAML(node *yaml.Node) error {
	type plain Benchmark
	p := plain{Backend: "default", Target: "cpu"}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*b = Benchmark(p)
	return nil
}

// Validate reports the first construction-time error in the section.
func (b *Benchmark) Validate() error {
	if b.Data == nil {
		return fmt.Errorf("config: Benchmark.data cannot be empty")
	}
	if b.Data.Path == "" {
		return fmt.Errorf("config: Benchmark.data.path cannot be empty")
	}
	if b.Metric == nil {
		return fmt.Errorf("config: Benchmark.metric cannot be empty")
	}
	if b.Metric.Warmup < 0 {
		return fmt.Errorf("config: warmup cannot be negative, got %d", b.Metric.Warmup)
	}
	if b.Metric.Warmup >= b.Metric.Repeat {
		return fmt.Errorf("config: warmup (%d) must be smaller than repeat (%d)",
			b.Metric.Warmup, b.Metric.Repeat)
	}
	if _, err := timing.ParseReduction(b.Metric.Reduction); err != nil {
		return err
	}
	for i, size := range b.Metric.Sizes {
		if len(size) != 2 || size[0] <= 0 || size[1] <= 0 {
			return fmt.Errorf("config: sizes[%d] must be a positive [width, height] pair, got %v", i, size)
		}
	}
	return nil
}

// Model is the model section. Beyond the common name and path, model-specific
// fields are retained as raw YAML nodes for the model factory to decode.
type Model struct {
	Name      string
	ModelPath string
	Extra     map[string]yaml.Node
}

// UnmarshalYAML splits the common fields from the model-specific remainder.
func (m *Model) UnmarshalYAML(node *yaml.Node) error {
	var common struct {
		Name      string `yaml:"name"`
		ModelPath string `yaml:"modelPath"`
	}
	if err := node.Decode(&common); err != nil {
		return err
	}
	extra := map[string]yaml.Node{}
	if err := node.Decode(&extra); err != nil {
		return err
	}
	delete(extra, "name")
	delete(extra, "modelPath")

	m.Name = common.Name
	m.ModelPath = common.ModelPath
	m.Extra = extra
	return nil
}

// Validate reports the first construction-time error in the section.
func (m *Model) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("config: Model.name cannot be empty")
	}
	if m.ModelPath == "" {
		return fmt.Errorf("config: Model.modelPath cannot be empty")
	}
	return nil
}

// File is a fully parsed configuration file.
type File struct {
	Benchmark Benchmark `yaml:"Benchmark"`
	Model     Model     `yaml:"Model"`
}

// Load parses and validates the YAML configuration at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Benchmark.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
