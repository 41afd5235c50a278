package models

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/vision-bench/go-bench/images"
)

// sfaceInputSize is the fixed embedding input of the SFace network.
var sfaceInputSize = image.Pt(112, 112)

// SFace is the OpenCV Zoo face recognition model. It consumes one region
// proposal at a time, cropping the face from the frame before embedding it.
type SFace struct {
	name      string
	dnn       dnnNet
	inputSize image.Point
}

// NewSFace loads the SFace ONNX network from modelPath.
func NewSFace(name, modelPath string) (*SFace, error) {
	dnn, err := readNet(modelPath)
	if err != nil {
		return nil, err
	}
	return &SFace{name: name, dnn: dnn, inputSize: sfaceInputSize}, nil
}

// Name returns the configured model name.
func (m *SFace) Name() string { return m.name }

// SetBackend selects the DNN execution backend.
func (m *SFace) SetBackend(b Backend) error { return m.dnn.setBackend(b) }

// SetTarget selects the DNN execution device.
func (m *SFace) SetTarget(t Target) error { return m.dnn.setTarget(t) }

// SetInputSize overrides the embedding input size.
func (m *SFace) SetInputSize(size image.Point) { m.inputSize = size }

// Infer embeds the whole frame. Used when no region proposals are given.
func (m *SFace) Infer(img gocv.Mat) error {
	return m.dnn.forward(img, m.inputSize)
}

// InferRegion crops the region's [x, y, w, h] prefix from img and embeds the
// crop. Trailing region values (landmarks, scores) are ignored.
func (m *SFace) InferRegion(img gocv.Mat, region []float32) error {
	if len(region) < 4 {
		return fmt.Errorf("models: region needs at least 4 values, got %d", len(region))
	}
	rect := image.Rect(
		int(region[0]),
		int(region[1]),
		int(region[0]+region[2]),
		int(region[1]+region[3]),
	)
	face, err := images.Crop(img, rect)
	if err != nil {
		return err
	}
	defer face.Close()
	return m.dnn.forward(face, m.inputSize)
}

// Close releases the network.
func (m *SFace) Close() error { return m.dnn.close() }
