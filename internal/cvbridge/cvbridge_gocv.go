//go:build gocv

// Package cvbridge provides OpenCV-backed detector collaborators via gocv.
//
// Build with -tags gocv and an OpenCV 4 installation to enable it. Without the
// tag the constructors return ErrUnavailable and the pure Go collaborators
// from package imaging are used instead.
package cvbridge

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Available reports whether the OpenCV collaborators were compiled in.
const Available = true

// EdgeDetector runs OpenCV's Canny on a frame.
type EdgeDetector struct {
	Low  float32
	High float32
}

// NewEdgeDetector returns a Canny edge detector with the given hysteresis
// thresholds.
func NewEdgeDetector(low, high float32) (*EdgeDetector, error) {
	return &EdgeDetector{Low: low, High: high}, nil
}

// EdgeMask returns OpenCV's Canny edges of frame: 255 on edges, 0 elsewhere.
func (d *EdgeDetector) EdgeMask(frame *image.Gray) (*image.Gray, error) {
	src, err := gocv.ImageGrayToMatGray(frame)
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	defer src.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(src, &edges, d.Low, d.High)

	return matToGray(edges)
}

// CornerResponder computes the Harris response with OpenCV primitives.
type CornerResponder struct{}

// NewCornerResponder returns an OpenCV Harris responder.
func NewCornerResponder() (*CornerResponder, error) {
	return &CornerResponder{}, nil
}

// CornerResponse returns det(M) - k·trace(M)² per pixel, where M is the
// structure tensor of Sobel derivatives box-summed over blockSize.
func (CornerResponder) CornerResponse(mask *image.Gray, blockSize, aperture int, k float64) ([]float64, error) {
	src, err := gocv.ImageGrayToMatGray(mask)
	if err != nil {
		return nil, fmt.Errorf("converting mask: %w", err)
	}
	defer src.Close()

	ix := gocv.NewMat()
	defer ix.Close()
	iy := gocv.NewMat()
	defer iy.Close()
	gocv.Sobel(src, &ix, gocv.MatTypeCV32F, 1, 0, aperture, 1, 0, gocv.BorderReflect101)
	gocv.Sobel(src, &iy, gocv.MatTypeCV32F, 0, 1, aperture, 1, 0, gocv.BorderReflect101)

	ixx := gocv.NewMat()
	defer ixx.Close()
	iyy := gocv.NewMat()
	defer iyy.Close()
	ixy := gocv.NewMat()
	defer ixy.Close()
	gocv.Multiply(ix, ix, &ixx)
	gocv.Multiply(iy, iy, &iyy)
	gocv.Multiply(ix, iy, &ixy)

	ksize := image.Pt(blockSize, blockSize)
	sxx := gocv.NewMat()
	defer sxx.Close()
	syy := gocv.NewMat()
	defer syy.Close()
	sxy := gocv.NewMat()
	defer sxy.Close()
	gocv.BoxFilter(ixx, &sxx, -1, ksize)
	gocv.BoxFilter(iyy, &syy, -1, ksize)
	gocv.BoxFilter(ixy, &sxy, -1, ksize)

	rows, cols := src.Rows(), src.Cols()
	response := make([]float64, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			a := float64(sxx.GetFloatAt(y, x))
			b := float64(sxy.GetFloatAt(y, x))
			c := float64(syy.GetFloatAt(y, x))
			response[y*cols+x] = a*c - b*b - k*(a+c)*(a+c)
		}
	}
	return response, nil
}

func matToGray(m gocv.Mat) (*image.Gray, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting mat: %w", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("expected single-channel mat, got %T", img)
	}
	return gray, nil
}
