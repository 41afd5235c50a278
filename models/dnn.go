package models

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

// dnnNet wraps a gocv DNN with the backend/target translation shared by the
// OpenCV-backed models.
type dnnNet struct {
	net gocv.Net
}

func readNet(path string) (dnnNet, error) {
	if _, err := os.Stat(path); err != nil {
		return dnnNet{}, fmt.Errorf("models: model file %s: %w", path, err)
	}
	net := gocv.ReadNet(path, "")
	if net.Empty() {
		return dnnNet{}, fmt.Errorf("models: failed to load network from %s", path)
	}
	return dnnNet{net: net}, nil
}

func (d *dnnNet) setBackend(b Backend) error {
	var nb gocv.NetBackendType
	switch b {
	case BackendDefault:
		nb = gocv.NetBackendDefault
	case BackendOpenCV:
		nb = gocv.NetBackendOpenCV
	case BackendCUDA:
		nb = gocv.NetBackendCUDA
	default:
		return fmt.Errorf("models: backend %q not supported by the OpenCV DNN engine", b)
	}
	return d.net.SetPreferableBackend(nb)
}

func (d *dnnNet) setTarget(t Target) error {
	var nt gocv.NetTargetType
	switch t {
	case TargetCPU:
		nt = gocv.NetTargetCPU
	case TargetCUDA:
		nt = gocv.NetTargetCUDA
	case TargetCUDAFP16:
		nt = gocv.NetTargetCUDAFP16
	default:
		return fmt.Errorf("models: target %q not supported by the OpenCV DNN engine", t)
	}
	return d.net.SetPreferableTarget(nt)
}

// forward feeds one blob-sized input through the network and discards the
// output, which is all the latency benchmark needs.
func (d *dnnNet) forward(img gocv.Mat, size image.Point) error {
	blob := gocv.BlobFromImage(img, 1.0, size, gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()
	if out.Empty() {
		return fmt.Errorf("models: network produced no output")
	}
	return nil
}

func (d *dnnNet) close() error {
	return d.net.Close()
}
