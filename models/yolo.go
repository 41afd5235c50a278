package models

import (
	"fmt"
	"image"
	"os"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/vision-bench/go-bench/images"
)

// yoloDefaultSize is the standard YOLO detector input.
var yoloDefaultSize = image.Pt(640, 640)

// YOLOv8 runs a YOLO-family detector through ONNX Runtime. The session is
// created lazily on the first inference so backend and target selection can
// happen after construction.
type YOLOv8 struct {
	name        string
	path        string
	inputNames  []string
	outputNames []string
	inputSize   image.Point
	backend     Backend
	target      Target
	session     *ort.DynamicAdvancedSession
}

// NewYOLOv8 prepares a YOLO detector for the ONNX model at modelPath. The
// tensor names default to the YOLOv8 export convention.
func NewYOLOv8(name, modelPath string, inputNames, outputNames []string) (*YOLOv8, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("models: model file %s: %w", modelPath, err)
	}
	if len(inputNames) == 0 {
		inputNames = []string{"images"}
	}
	if len(outputNames) == 0 {
		outputNames = []string{"output0"}
	}
	return &YOLOv8{
		name:        name,
		path:        modelPath,
		inputNames:  inputNames,
		outputNames: outputNames,
		backend:     BackendDefault,
		target:      TargetCPU,
	}, nil
}

// Name returns the configured model name.
func (m *YOLOv8) Name() string { return m.name }

// SetBackend selects the execution engine. Only the default and CUDA
// backends translate to ONNX Runtime execution providers.
func (m *YOLOv8) SetBackend(b Backend) error {
	if m.session != nil {
		return fmt.Errorf("models: backend cannot change after the session is created")
	}
	switch b {
	case BackendDefault, BackendCUDA:
		m.backend = b
		return nil
	default:
		return fmt.Errorf("models: backend %q not supported by the ONNX Runtime engine", b)
	}
}

// SetTarget selects the execution device.
func (m *YOLOv8) SetTarget(t Target) error {
	if m.session != nil {
		return fmt.Errorf("models: target cannot change after the session is created")
	}
	switch t {
	case TargetCPU, TargetCUDA, TargetCUDAFP16:
		m.target = t
		return nil
	default:
		return fmt.Errorf("models: target %q not supported by the ONNX Runtime engine", t)
	}
}

// SetInputSize fixes the tensor size for subsequent inferences.
func (m *YOLOv8) SetInputSize(size image.Point) { m.inputSize = size }

// Infer runs one detection pass over img.
func (m *YOLOv8) Infer(img gocv.Mat) error {
	size := m.inputSize
	if size.X == 0 || size.Y == 0 {
		size = yoloDefaultSize
	}
	if err := m.ensureSession(); err != nil {
		return err
	}

	data, err := images.TensorNCHW(img, size.X, size.Y)
	if err != nil {
		return err
	}
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(size.Y), int64(size.X)), data)
	if err != nil {
		return fmt.Errorf("models: creating input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := make([]ort.Value, len(m.outputNames))
	if err := m.session.Run([]ort.Value{input}, outputs); err != nil {
		return fmt.Errorf("models: %s inference: %w", m.name, err)
	}
	for _, out := range outputs {
		if out != nil {
			out.Destroy()
		}
	}
	return nil
}

func (m *YOLOv8) ensureSession() error {
	if m.session != nil {
		return nil
	}
	if !ort.IsInitialized() {
		if lib := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("models: initializing ONNX Runtime: %w", err)
		}
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("models: creating session options: %w", err)
	}
	defer opts.Destroy()

	if m.backend == BackendCUDA || m.target == TargetCUDA || m.target == TargetCUDAFP16 {
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return fmt.Errorf("models: creating CUDA provider options: %w", err)
		}
		defer cudaOpts.Destroy()
		if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			return fmt.Errorf("models: enabling CUDA execution provider: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(m.path, m.inputNames, m.outputNames, opts)
	if err != nil {
		return fmt.Errorf("models: creating session for %s: %w", m.path, err)
	}
	m.session = session
	return nil
}

// Close destroys the session if one was created.
func (m *YOLOv8) Close() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
