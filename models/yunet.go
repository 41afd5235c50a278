package models

import (
	"image"

	"gocv.io/x/gocv"
)

// YuNet is the OpenCV Zoo face detection model, benchmarked in single-image
// mode. It forwards the whole preprocessed frame through a gocv DNN.
type YuNet struct {
	name      string
	dnn       dnnNet
	inputSize image.Point
}

// NewYuNet loads the YuNet ONNX network from modelPath.
func NewYuNet(name, modelPath string) (*YuNet, error) {
	dnn, err := readNet(modelPath)
	if err != nil {
		return nil, err
	}
	return &YuNet{name: name, dnn: dnn}, nil
}

// Name returns the configured model name.
func (m *YuNet) Name() string { return m.name }

// SetBackend selects the DNN execution backend.
func (m *YuNet) SetBackend(b Backend) error { return m.dnn.setBackend(b) }

// SetTarget selects the DNN execution device.
func (m *YuNet) SetTarget(t Target) error { return m.dnn.setTarget(t) }

// SetInputSize fixes the blob size for subsequent inferences.
func (m *YuNet) SetInputSize(size image.Point) { m.inputSize = size }

// Infer runs one detection pass over img.
func (m *YuNet) Infer(img gocv.Mat) error {
	size := m.inputSize
	if size.X == 0 || size.Y == 0 {
		size = image.Pt(img.Cols(), img.Rows())
	}
	return m.dnn.forward(img, size)
}

// Close releases the network.
func (m *YuNet) Close() error { return m.dnn.close() }
