// Package benchmark - Orchestration of latency measurements over an image
// corpus.
package benchmark

import (
	"errors"
	"runtime"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/vision-bench/go-bench/config"
	"github.com/vision-bench/go-bench/dataset"
	"github.com/vision-bench/go-bench/models"
	"github.com/vision-bench/go-bench/timing"
)

// Source is the random-access corpus view the orchestrator iterates. At
// returns an item whose image the caller owns and closes.
type Source interface {
	Len() int
	At(idx int) (dataset.Item, error)
}

// RunStats captures coarse run-level counters alongside the latency table.
type RunStats struct {
	Items           int
	Variants        int
	WallTime        time.Duration
	TotalAllocBytes uint64
	NumGC           uint32
}

// Benchmark wires a corpus, the metric evaluator, and a model together, and
// owns the result table. Runs are single-threaded: items, variants, and
// trials execute strictly in order.
type Benchmark struct {
	source   Source
	metric   *Metric
	backend  models.Backend
	target   models.Target
	progress bool
	results  ResultTable
	stats    RunStats
}

// Builder assembles a Benchmark, deferring the first error until Build.
type Builder struct {
	b   Benchmark
	err error
}

// NewBuilder returns an empty benchmark builder.
func NewBuilder() *Builder { return &Builder{} }

// WithData builds the corpus view from the data configuration.
func (bl *Builder) WithData(cfg config.Data) *Builder {
	if bl.err != nil {
		return bl
	}
	src, err := dataset.New(cfg)
	if err != nil {
		bl.err = err
		return bl
	}
	bl.b.source = src
	return bl
}

// WithSource supplies a prebuilt corpus view.
func (bl *Builder) WithSource(src Source) *Builder {
	if bl.err != nil {
		return bl
	}
	bl.b.source = src
	return bl
}

// WithMetric builds the evaluator from the metric configuration.
func (bl *Builder) WithMetric(cfg config.Metric) *Builder {
	if bl.err != nil {
		return bl
	}
	metric, err := NewMetric(cfg)
	if err != nil {
		bl.err = err
		return bl
	}
	bl.b.metric = metric
	return bl
}

// WithBackend resolves the symbolic backend name.
func (bl *Builder) WithBackend(name string) *Builder {
	if bl.err != nil {
		return bl
	}
	backend, err := models.ResolveBackend(name)
	if err != nil {
		bl.err = err
		return bl
	}
	bl.b.backend = backend
	return bl
}

// WithTarget resolves the symbolic target name.
func (bl *Builder) WithTarget(name string) *Builder {
	if bl.err != nil {
		return bl
	}
	target, err := models.ResolveTarget(name)
	if err != nil {
		bl.err = err
		return bl
	}
	bl.b.target = target
	return bl
}

// WithProgress renders a progress bar over corpus items during Run.
func (bl *Builder) WithProgress() *Builder {
	bl.b.progress = true
	return bl
}

// Build returns the assembled Benchmark or the first configuration error.
func (bl *Builder) Build() (*Benchmark, error) {
	if bl.err != nil {
		return nil, bl.err
	}
	if bl.b.source == nil {
		return nil, errors.New("benchmark: data source not configured")
	}
	if bl.b.metric == nil {
		return nil, errors.New("benchmark: metric not configured")
	}
	if bl.b.backend == "" {
		bl.b.backend = models.BackendDefault
	}
	if bl.b.target == "" {
		bl.b.target = models.TargetCPU
	}
	b := bl.b
	return &b, nil
}

// FromConfig builds a Benchmark from a parsed configuration section.
func FromConfig(cfg config.Benchmark) (*Benchmark, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewBuilder().
		WithData(*cfg.Data).
		WithMetric(*cfg.Metric).
		WithBackend(cfg.Backend).
		WithTarget(cfg.Target).
		Build()
}

// Run configures the model's backend and target exactly once, then measures
// every corpus item in order. Any item failure aborts the run; there is no
// retry, skip, or partial-results checkpoint.
func (b *Benchmark) Run(model models.Model) error {
	if err := model.SetBackend(b.backend); err != nil {
		return err
	}
	if err := model.SetTarget(b.target); err != nil {
		return err
	}

	var bar *pb.ProgressBar
	if b.progress {
		bar = pb.StartNew(b.source.Len())
	}

	var startMem runtime.MemStats
	runtime.ReadMemStats(&startMem)
	start := time.Now()

	for i := 0; i < b.source.Len(); i++ {
		item, err := b.source.At(i)
		if err != nil {
			return err
		}
		variants, err := b.metric.Measure(model, item)
		item.Image.Close()
		if err != nil {
			return err
		}
		b.results.add(ItemResult{Image: item.Name, Variants: variants})
		b.stats.Variants += len(variants)
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)
	b.stats.Items = b.results.Len()
	b.stats.WallTime = time.Since(start)
	b.stats.TotalAllocBytes = endMem.TotalAlloc - startMem.TotalAlloc
	b.stats.NumGC = endMem.NumGC - startMem.NumGC
	return nil
}

// Results returns the table built by the last run.
func (b *Benchmark) Results() *ResultTable { return &b.results }

// Stats returns the counters captured by the last run.
func (b *Benchmark) Stats() RunStats { return b.stats }

// Reduction returns the reduction strategy results were computed with.
func (b *Benchmark) Reduction() timing.Reduction { return b.metric.Reduction() }
