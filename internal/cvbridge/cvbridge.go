//go:build !gocv

// Package cvbridge provides OpenCV-backed detector collaborators via gocv.
//
// This build was compiled without the gocv tag, so every constructor returns
// ErrUnavailable.
package cvbridge

import "image"

// Available reports whether the OpenCV collaborators were compiled in.
const Available = false

// EdgeDetector is a placeholder for the OpenCV Canny detector.
type EdgeDetector struct{}

// NewEdgeDetector always fails without the gocv build tag.
func NewEdgeDetector(low, high float32) (*EdgeDetector, error) {
	return nil, ErrUnavailable
}

// EdgeMask always fails without the gocv build tag.
func (d *EdgeDetector) EdgeMask(frame *image.Gray) (*image.Gray, error) {
	return nil, ErrUnavailable
}

// CornerResponder is a placeholder for the OpenCV Harris responder.
type CornerResponder struct{}

// NewCornerResponder always fails without the gocv build tag.
func NewCornerResponder() (*CornerResponder, error) {
	return nil, ErrUnavailable
}

// CornerResponse always fails without the gocv build tag.
func (CornerResponder) CornerResponse(mask *image.Gray, blockSize, aperture int, k float64) ([]float64, error) {
	return nil, ErrUnavailable
}
