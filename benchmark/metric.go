package benchmark

import (
	"fmt"
	"image"
	"strconv"

	"github.com/vision-bench/go-bench/config"
	"github.com/vision-bench/go-bench/dataset"
	"github.com/vision-bench/go-bench/images"
	"github.com/vision-bench/go-bench/models"
	"github.com/vision-bench/go-bench/timing"
)

// Metric drives one corpus item through the warmup+repeat trial loop for
// every input variant and reduces each variant's samples to one latency.
type Metric struct {
	sizes  []image.Point
	warmup int
	repeat int
	// batchSize is accepted for compatibility but not applied: every timed
	// call feeds exactly one input.
	batchSize int
	reduction timing.Reduction
	timer     *timing.Timer
}

// NewMetric validates the metric configuration and builds the evaluator.
func NewMetric(cfg config.Metric) (*Metric, error) {
	if cfg.Warmup < 0 {
		return nil, fmt.Errorf("benchmark: warmup cannot be negative, got %d", cfg.Warmup)
	}
	if cfg.Warmup >= cfg.Repeat {
		return nil, fmt.Errorf("benchmark: warmup (%d) must be smaller than repeat (%d)",
			cfg.Warmup, cfg.Repeat)
	}
	reduction, err := timing.ParseReduction(cfg.Reduction)
	if err != nil {
		return nil, err
	}
	sizes := make([]image.Point, 0, len(cfg.Sizes))
	for i, size := range cfg.Sizes {
		if len(size) != 2 || size[0] <= 0 || size[1] <= 0 {
			return nil, fmt.Errorf("benchmark: sizes[%d] must be a positive [width, height] pair, got %v", i, size)
		}
		sizes = append(sizes, image.Pt(size[0], size[1]))
	}

	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 1
	}
	return &Metric{
		sizes:     sizes,
		warmup:    cfg.Warmup,
		repeat:    cfg.Repeat,
		batchSize: batchSize,
		reduction: reduction,
		timer:     timing.NewTimer(cfg.Warmup, reduction),
	}, nil
}

// Reduction returns the configured reduction strategy.
func (m *Metric) Reduction() timing.Reduction { return m.reduction }

// Measure runs the trial loop for every variant of item and returns the
// reduced latency per variant key, in loop order. Items carrying region rows
// are measured per region; all others per configured size.
func (m *Metric) Measure(model models.Model, item dataset.Item) ([]VariantResult, error) {
	if len(item.Regions) > 0 {
		return m.measureRegions(model, item)
	}
	return m.measureSizes(model, item)
}

func (m *Metric) measureSizes(model models.Model, item dataset.Item) ([]VariantResult, error) {
	sizes := m.sizes
	if len(sizes) == 0 {
		sizes = []image.Point{image.Pt(item.Image.Cols(), item.Image.Rows())}
	}

	results := make([]VariantResult, 0, len(sizes))
	for _, size := range sizes {
		resized := images.Resize(item.Image, size.X, size.Y)
		model.SetInputSize(size)

		latency, err := m.trialLoop(func() error { return model.Infer(resized) })
		resized.Close()
		if err != nil {
			return nil, fmt.Errorf("benchmark: %s at %s: %w", item.Name, sizeKey(size), err)
		}
		results = append(results, VariantResult{Key: sizeKey(size), Latency: latency})
	}
	return results, nil
}

func (m *Metric) measureRegions(model models.Model, item dataset.Item) ([]VariantResult, error) {
	rm, ok := model.(models.RegionModel)
	if !ok {
		return nil, fmt.Errorf("benchmark: model %s does not support region inference", model.Name())
	}

	results := make([]VariantResult, 0, len(item.Regions))
	for idx, region := range item.Regions {
		key := "bbox" + strconv.Itoa(idx)
		latency, err := m.trialLoop(func() error { return rm.InferRegion(item.Image, region) })
		if err != nil {
			return nil, fmt.Errorf("benchmark: %s at %s: %w", item.Name, key, err)
		}
		results = append(results, VariantResult{Key: key, Latency: latency})
	}
	return results, nil
}

// trialLoop resets the timer, runs warmup+repeat timed calls of infer, and
// reduces the samples. The reset keeps one variant's samples from leaking
// into the next variant's record.
func (m *Metric) trialLoop(infer func() error) (float64, error) {
	m.timer.Reset()
	for i := 0; i < m.repeat+m.warmup; i++ {
		if err := m.timer.Start(); err != nil {
			return 0, err
		}
		if err := infer(); err != nil {
			return 0, err
		}
		if err := m.timer.Stop(); err != nil {
			return 0, err
		}
	}
	return m.timer.Result()
}

func sizeKey(size image.Point) string {
	return fmt.Sprintf("[%d, %d]", size.X, size.Y)
}
