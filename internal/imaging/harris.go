package imaging

import (
	"fmt"
	"image"
)

// HarrisResponder computes the Harris corner response of a grayscale image.
//
// The response at each pixel is R = det(M) - k·trace(M)², where M is the
// structure tensor of the image gradients summed over a blockSize×blockSize
// neighbourhood. Corners give large positive values, straight edges negative
// values, flat regions values near zero.
//
// Borders are handled by mirroring without repeating the edge pixel
// (…cba|bcd…), matching OpenCV's default, so results line up with the gocv
// responder within a constant scale factor.
type HarrisResponder struct{}

// Derivative and smoothing taps of the separable Sobel kernels, by aperture.
var sobelTaps = map[int]struct{ deriv, smooth []float64 }{
	3: {deriv: []float64{-1, 0, 1}, smooth: []float64{1, 2, 1}},
	5: {deriv: []float64{-1, -2, 0, 2, 1}, smooth: []float64{1, 4, 6, 4, 1}},
}

// CornerResponse returns the Harris response of img, one value per pixel in
// row-major order.
//
// Parameters:
//   - blockSize: side of the neighbourhood summed into the structure tensor (≥ 2).
//   - aperture: Sobel kernel size, 3 or 5.
//   - k: Harris sensitivity, typically 0.04–0.06.
func (HarrisResponder) CornerResponse(img *image.Gray, blockSize, aperture int, k float64) ([]float64, error) {
	taps, ok := sobelTaps[aperture]
	if !ok {
		return nil, fmt.Errorf("unsupported sobel aperture %d (want 3 or 5)", aperture)
	}
	if blockSize < 2 {
		return nil, fmt.Errorf("block size must be at least 2, got %d", blockSize)
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width == 0 || height == 0 {
		return []float64{}, nil
	}

	src := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src[y*width+x] = float64(img.Pix[y*img.Stride+x]) / 255.0
		}
	}

	// Ix = smooth(y) * deriv(x), Iy = deriv(y) * smooth(x)
	ix := convolveCols(convolveRows(src, width, height, taps.deriv), width, height, taps.smooth)
	iy := convolveCols(convolveRows(src, width, height, taps.smooth), width, height, taps.deriv)

	n := width * height
	ixx := make([]float64, n)
	iyy := make([]float64, n)
	ixy := make([]float64, n)
	for i := 0; i < n; i++ {
		ixx[i] = ix[i] * ix[i]
		iyy[i] = iy[i] * iy[i]
		ixy[i] = ix[i] * iy[i]
	}

	box := make([]float64, blockSize)
	for i := range box {
		box[i] = 1
	}
	sxx := convolveCols(convolveRows(ixx, width, height, box), width, height, box)
	syy := convolveCols(convolveRows(iyy, width, height, box), width, height, box)
	sxy := convolveCols(convolveRows(ixy, width, height, box), width, height, box)

	response := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b, c := sxx[i], sxy[i], syy[i]
		trace := a + c
		response[i] = a*c - b*b - k*trace*trace
	}
	return response, nil
}

// convolveRows correlates every row of src with kernel. The kernel is
// anchored at len(kernel)/2.
func convolveRows(src []float64, width, height int, kernel []float64) []float64 {
	dst := make([]float64, len(src))
	anchor := len(kernel) / 2
	for y := 0; y < height; y++ {
		row := src[y*width : (y+1)*width]
		for x := 0; x < width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += w * row[reflect101(x+k-anchor, width)]
			}
			dst[y*width+x] = sum
		}
	}
	return dst
}

// convolveCols correlates every column of src with kernel.
func convolveCols(src []float64, width, height int, kernel []float64) []float64 {
	dst := make([]float64, len(src))
	anchor := len(kernel) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += w * src[reflect101(y+k-anchor, height)*width+x]
			}
			dst[y*width+x] = sum
		}
	}
	return dst
}

// reflect101 maps an out-of-range index back into [0, n) by mirroring around
// the first and last element without repeating them.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}
