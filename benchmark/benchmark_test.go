package benchmark

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/vision-bench/go-bench/config"
	"github.com/vision-bench/go-bench/dataset"
	"github.com/vision-bench/go-bench/models"
)

// mockModel satisfies models.Model without touching any inference engine.
type mockModel struct {
	name       string
	backends   []models.Backend
	targets    []models.Target
	inputSizes []image.Point
	inferCount int
	failOn     int // 1-based call index that fails, 0 never
	closed     bool
}

func (m *mockModel) Name() string { return m.name }

func (m *mockModel) SetBackend(b models.Backend) error {
	m.backends = append(m.backends, b)
	return nil
}

func (m *mockModel) SetTarget(t models.Target) error {
	m.targets = append(m.targets, t)
	return nil
}

func (m *mockModel) SetInputSize(size image.Point) {
	m.inputSizes = append(m.inputSizes, size)
}

func (m *mockModel) Infer(img gocv.Mat) error {
	m.inferCount++
	if m.failOn != 0 && m.inferCount >= m.failOn {
		return errors.New("mock inference failure")
	}
	return nil
}

func (m *mockModel) Close() error {
	m.closed = true
	return nil
}

// mockRegionModel adds region inference on top of mockModel.
type mockRegionModel struct {
	mockModel
	regions [][]float32
}

func (m *mockRegionModel) InferRegion(img gocv.Mat, region []float32) error {
	m.regions = append(m.regions, region)
	return m.Infer(img)
}

// fakeSource serves cloned Mats so the orchestrator can close what it gets.
type fakeSource struct {
	items []dataset.Item
	errAt int // 1-based index that fails, 0 never
}

func (s *fakeSource) Len() int { return len(s.items) }

func (s *fakeSource) At(idx int) (dataset.Item, error) {
	if s.errAt != 0 && idx+1 >= s.errAt {
		return dataset.Item{}, fmt.Errorf("fake source failure at %d", idx)
	}
	item := s.items[idx]
	return dataset.Item{
		Name:    item.Name,
		Image:   item.Image.Clone(),
		Regions: item.Regions,
	}, nil
}

func newFakeSource(t *testing.T, names []string, regions [][][]float32) *fakeSource {
	t.Helper()
	src := &fakeSource{}
	for i, name := range names {
		mat := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
		t.Cleanup(func() { mat.Close() })
		item := dataset.Item{Name: name, Image: mat}
		if regions != nil {
			item.Regions = regions[i]
		}
		src.items = append(src.items, item)
	}
	return src
}

func metricConfig(sizes [][]int, warmup, repeat int) config.Metric {
	return config.Metric{
		Sizes:     sizes,
		Warmup:    warmup,
		Repeat:    repeat,
		BatchSize: 1,
		Reduction: "median",
	}
}

func TestNewMetricValidation(t *testing.T) {
	_, err := NewMetric(metricConfig(nil, 10, 10))
	assert.ErrorContains(t, err, "must be smaller than repeat")

	_, err = NewMetric(metricConfig(nil, 12, 10))
	assert.ErrorContains(t, err, "must be smaller than repeat")

	_, err = NewMetric(metricConfig(nil, -1, 10))
	assert.ErrorContains(t, err, "cannot be negative")

	_, err = NewMetric(config.Metric{Warmup: 1, Repeat: 5, Reduction: "p99"})
	assert.ErrorContains(t, err, "unsupported reduction")

	_, err = NewMetric(config.Metric{Warmup: 1, Repeat: 5, Reduction: "median", Sizes: [][]int{{320}}})
	assert.ErrorContains(t, err, "sizes[0]")
}

func TestMeasureOneEntryPerSize(t *testing.T) {
	metric, err := NewMetric(metricConfig([][]int{{320, 240}, {160, 120}}, 1, 2))
	require.NoError(t, err)

	src := newFakeSource(t, []string{"a.jpg"}, nil)
	item, err := src.At(0)
	require.NoError(t, err)
	defer item.Image.Close()

	model := &mockModel{name: "mock"}
	variants, err := metric.Measure(model, item)
	require.NoError(t, err)

	require.Len(t, variants, 2)
	assert.Equal(t, "[320, 240]", variants[0].Key)
	assert.Equal(t, "[160, 120]", variants[1].Key)
	for _, v := range variants {
		assert.GreaterOrEqual(t, v.Latency, 0.0)
	}

	// warmup+repeat calls per size, input size set once per size.
	assert.Equal(t, 6, model.inferCount)
	assert.Equal(t, []image.Point{image.Pt(320, 240), image.Pt(160, 120)}, model.inputSizes)
}

func TestMeasureDefaultsToNativeSize(t *testing.T) {
	metric, err := NewMetric(metricConfig(nil, 0, 2))
	require.NoError(t, err)

	src := newFakeSource(t, []string{"a.jpg"}, nil)
	item, err := src.At(0)
	require.NoError(t, err)
	defer item.Image.Close()

	model := &mockModel{name: "mock"}
	variants, err := metric.Measure(model, item)
	require.NoError(t, err)

	require.Len(t, variants, 1)
	assert.Equal(t, "[320, 240]", variants[0].Key)
}

func TestMeasureOneEntryPerRegion(t *testing.T) {
	metric, err := NewMetric(metricConfig(nil, 1, 3))
	require.NoError(t, err)

	regions := [][][]float32{{{10, 10, 50, 50}, {60, 60, 40, 40}}}
	src := newFakeSource(t, []string{"faces.png"}, regions)
	item, err := src.At(0)
	require.NoError(t, err)
	defer item.Image.Close()

	model := &mockRegionModel{mockModel: mockModel{name: "mock"}}
	variants, err := metric.Measure(model, item)
	require.NoError(t, err)

	require.Len(t, variants, 2)
	assert.Equal(t, "bbox0", variants[0].Key)
	assert.Equal(t, "bbox1", variants[1].Key)

	// warmup+repeat region calls per region row.
	assert.Len(t, model.regions, 8)
	assert.Equal(t, []float32{10, 10, 50, 50}, model.regions[0])
}

func TestMeasureRegionsRequireRegionModel(t *testing.T) {
	metric, err := NewMetric(metricConfig(nil, 0, 2))
	require.NoError(t, err)

	regions := [][][]float32{{{10, 10, 50, 50}}}
	src := newFakeSource(t, []string{"faces.png"}, regions)
	item, err := src.At(0)
	require.NoError(t, err)
	defer item.Image.Close()

	_, err = metric.Measure(&mockModel{name: "plain"}, item)
	assert.ErrorContains(t, err, "does not support region inference")
}

func TestMeasureResetsTimerBetweenVariants(t *testing.T) {
	metric, err := NewMetric(metricConfig([][]int{{320, 240}, {160, 120}}, 1, 2))
	require.NoError(t, err)

	src := newFakeSource(t, []string{"a.jpg"}, nil)
	item, err := src.At(0)
	require.NoError(t, err)
	defer item.Image.Close()

	_, err = metric.Measure(&mockModel{name: "mock"}, item)
	require.NoError(t, err)

	// Only the last variant's record remains: warmup+repeat samples.
	assert.Equal(t, 3, metric.timer.Count())
}

func TestBuilderUnknownBackendFailsBeforeInference(t *testing.T) {
	model := &mockModel{name: "mock"}

	_, err := NewBuilder().
		WithSource(newFakeSource(t, []string{"a.jpg"}, nil)).
		WithMetric(metricConfig(nil, 1, 2)).
		WithBackend("halide").
		Build()

	assert.ErrorContains(t, err, `unknown backend "halide"`)
	assert.Zero(t, model.inferCount)
}

func TestBuilderUnknownTarget(t *testing.T) {
	_, err := NewBuilder().
		WithSource(newFakeSource(t, []string{"a.jpg"}, nil)).
		WithMetric(metricConfig(nil, 1, 2)).
		WithTarget("myriad").
		Build()

	assert.ErrorContains(t, err, `unknown target "myriad"`)
}

func TestBuilderRequiresSourceAndMetric(t *testing.T) {
	_, err := NewBuilder().WithMetric(metricConfig(nil, 1, 2)).Build()
	assert.ErrorContains(t, err, "data source not configured")

	_, err = NewBuilder().WithSource(newFakeSource(t, nil, nil)).Build()
	assert.ErrorContains(t, err, "metric not configured")
}

func TestRunEndToEnd(t *testing.T) {
	bench, err := NewBuilder().
		WithSource(newFakeSource(t, []string{"one.jpg", "two.png"}, nil)).
		WithMetric(metricConfig([][]int{{320, 240}}, 1, 2)).
		WithBackend("opencv").
		WithTarget("cpu").
		Build()
	require.NoError(t, err)

	model := &mockModel{name: "mock"}
	require.NoError(t, bench.Run(model))

	// Backend and target configured exactly once.
	assert.Equal(t, []models.Backend{models.BackendOpenCV}, model.backends)
	assert.Equal(t, []models.Target{models.TargetCPU}, model.targets)

	table := bench.Results()
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "one.jpg", table.Items[0].Image)
	assert.Equal(t, "two.png", table.Items[1].Image)

	for _, name := range []string{"one.jpg", "two.png"} {
		latency, ok := table.Lookup(name, "[320, 240]")
		require.True(t, ok, "missing variant for %s", name)
		assert.GreaterOrEqual(t, latency, 0.0)
	}

	stats := bench.Stats()
	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, 2, stats.Variants)
	assert.Greater(t, stats.WallTime.Nanoseconds(), int64(0))
}

func TestRunAbortsOnItemFailure(t *testing.T) {
	bench, err := NewBuilder().
		WithSource(newFakeSource(t, []string{"one.jpg", "two.png"}, nil)).
		WithMetric(metricConfig([][]int{{320, 240}}, 1, 2)).
		Build()
	require.NoError(t, err)

	// First item consumes 3 calls; the 4th call fails on the second item.
	model := &mockModel{name: "mock", failOn: 4}
	err = bench.Run(model)
	require.ErrorContains(t, err, "mock inference failure")

	assert.Equal(t, 1, bench.Results().Len())
}

func TestRunAbortsOnSourceFailure(t *testing.T) {
	src := newFakeSource(t, []string{"one.jpg", "two.png"}, nil)
	src.errAt = 2

	bench, err := NewBuilder().
		WithSource(src).
		WithMetric(metricConfig([][]int{{320, 240}}, 1, 2)).
		Build()
	require.NoError(t, err)

	err = bench.Run(&mockModel{name: "mock"})
	assert.ErrorContains(t, err, "fake source failure")
}

func TestFromConfigEndToEnd(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.jpg", "two.jpg"} {
		mat := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
		require.True(t, gocv.IMWrite(filepath.Join(dir, name), mat))
		mat.Close()
	}

	bench, err := FromConfig(config.Benchmark{
		Data:    &config.Data{Path: dir},
		Metric:  &config.Metric{Sizes: [][]int{{320, 240}}, Warmup: 1, Repeat: 2, Reduction: "median"},
		Backend: "default",
		Target:  "cpu",
	})
	require.NoError(t, err)

	model := &mockModel{name: "mock"}
	require.NoError(t, bench.Run(model))

	table := bench.Results()
	require.Equal(t, 2, table.Len())
	for _, item := range table.Items {
		require.Len(t, item.Variants, 1)
		assert.Equal(t, "[320, 240]", item.Variants[0].Key)
		assert.GreaterOrEqual(t, item.Variants[0].Latency, 0.0)
	}
}

func TestFromConfigValidates(t *testing.T) {
	_, err := FromConfig(config.Benchmark{
		Metric: &config.Metric{Warmup: 1, Repeat: 2, Reduction: "median"},
	})
	assert.ErrorContains(t, err, "Benchmark.data")
}
