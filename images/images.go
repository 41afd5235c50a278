// Package images - Image preprocessing helpers for the benchmark engine.
package images

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Resize returns a copy of src scaled to width x height with bilinear
// interpolation.
func Resize(src gocv.Mat, width, height int) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return dst
}

// Crop returns a copy of the given region of src, clamped to the image
// bounds. A region entirely outside the image is an error.
func Crop(src gocv.Mat, rect image.Rectangle) (gocv.Mat, error) {
	bounds := image.Rect(0, 0, src.Cols(), src.Rows())
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return gocv.Mat{}, errors.Errorf("images: crop region outside image bounds %v", bounds)
	}
	region := src.Region(rect)
	defer region.Close()
	return region.Clone(), nil
}

// TensorNCHW converts src to a normalized float32 NCHW tensor of the given
// width and height: RGB channel order, values scaled to [0, 1].
func TensorNCHW(src gocv.Mat, width, height int) ([]float32, error) {
	img, err := src.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "images: converting mat")
	}
	resized := resize.Resize(uint(width), uint(height), img, resize.Bilinear)

	plane := width * height
	data := make([]float32, 3*plane)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			i := y*width + x
			data[i] = float32(r>>8) / 255
			data[plane+i] = float32(g>>8) / 255
			data[2*plane+i] = float32(b>>8) / 255
		}
	}
	return data, nil
}
