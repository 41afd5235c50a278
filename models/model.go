// Package models - Model capability contracts, execution selectors, and the
// model factory.
package models

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Backend selects the execution engine a model runs on.
type Backend string

// Supported backends.
const (
	BackendDefault Backend = "default"
	BackendOpenCV  Backend = "opencv"
	BackendCUDA    Backend = "cuda"
)

// Target selects the device the chosen backend executes on.
type Target string

// Supported targets.
const (
	TargetCPU      Target = "cpu"
	TargetCUDA     Target = "cuda"
	TargetCUDAFP16 Target = "cuda_fp16"
)

// backends and targets map the symbolic configuration names onto selectors.
// Each model translates a selector into its own engine's enumeration.
var (
	backends = map[string]Backend{
		"default": BackendDefault,
		"opencv":  BackendOpenCV,
		"cuda":    BackendCUDA,
	}
	targets = map[string]Target{
		"cpu":       TargetCPU,
		"cuda":      TargetCUDA,
		"cuda_fp16": TargetCUDAFP16,
	}
)

// ResolveBackend maps a symbolic backend name from configuration.
func ResolveBackend(name string) (Backend, error) {
	b, ok := backends[name]
	if !ok {
		return "", fmt.Errorf("models: unknown backend %q", name)
	}
	return b, nil
}

// ResolveTarget maps a symbolic target name from configuration.
func ResolveTarget(name string) (Target, error) {
	t, ok := targets[name]
	if !ok {
		return "", fmt.Errorf("models: unknown target %q", name)
	}
	return t, nil
}

// Model is the capability set the benchmark engine drives. Backend and
// target are configured once before the first inference.
type Model interface {
	Name() string
	SetBackend(b Backend) error
	SetTarget(t Target) error
	SetInputSize(size image.Point)
	Infer(img gocv.Mat) error
	Close() error
}

// RegionModel is implemented by models that consume one region proposal at a
// time instead of a whole preprocessed frame.
type RegionModel interface {
	Model
	InferRegion(img gocv.Mat, region []float32) error
}
