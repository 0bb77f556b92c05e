package imaging

import (
	"fmt"
	"image"
	"math"
)

// CannyDetector produces a thin edge mask using Canny-style edge detection.
//
// Canny edges are one pixel wide and may leave gaps at sharp corners, which
// lets a marker's interior merge with its surroundings during labeling. It is
// kept for clean, high-contrast input; SobelDetector is the safer default.
type CannyDetector struct {
	// Low is the weak edge threshold (0-255). Gradients below it are discarded.
	Low int

	// High is the strong edge threshold (0-255). Gradients above it are
	// always edges; gradients between Low and High are kept only when next
	// to a strong edge.
	High int
}

// EdgeMask returns a mask of the frame's size where edge pixels are 255 and
// all other pixels are 0.
//
// # Algorithm
//
//  1. Gaussian blur: 5x5 kernel to reduce noise
//
//  2. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²)
//     direction = atan2(Gy, Gx)
//
//  3. Non-maximum suppression: thin edges to 1-pixel width by keeping only
//     local maxima in the gradient direction
//
//  4. Hysteresis thresholding:
//     - Pixels above High are strong edges (always kept)
//     - Pixels between Low and High are weak edges
//     (kept only if an 8-neighbour is a strong edge)
//     - Pixels below Low are discarded
func (d CannyDetector) EdgeMask(frame *image.Gray) (*image.Gray, error) {
	if d.Low < 0 || d.High > 255 || d.Low > d.High {
		return nil, fmt.Errorf("invalid canny thresholds: low=%d high=%d", d.Low, d.High)
	}

	bounds := frame.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			gray[y][x] = float64(frame.Pix[y*frame.Stride+x]) / 255.0
		}
	}

	blurred := gaussianBlur(gray, width, height)
	magnitude, direction := sobelGradients(blurred, width, height)
	suppressed := suppressNonMaxima(magnitude, direction, width, height)

	result := image.NewGray(image.Rect(0, 0, width, height))
	lowThresh := float64(d.Low) / 255.0
	highThresh := float64(d.High) / 255.0

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := suppressed[y][x]
			if val >= highThresh {
				result.Pix[y*result.Stride+x] = 255
			} else if val >= lowThresh && hasStrongNeighbor(suppressed, x, y, width, height, highThresh) {
				result.Pix[y*result.Stride+x] = 255
			}
		}
	}

	return result, nil
}

// sobelGradients returns the gradient magnitude and direction of img.
func sobelGradients(img [][]float64, width, height int) ([][]float64, [][]float64) {
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude := make([][]float64, height)
	direction := make([][]float64, height)
	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)

		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += img[py][px] * sobelX[ky+1][kx+1]
					gy += img[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}
	return magnitude, direction
}

// suppressNonMaxima keeps a gradient only where it is a local maximum along
// its own direction. Border pixels are always suppressed.
func suppressNonMaxima(magnitude, direction [][]float64, width, height int) [][]float64 {
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8):
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			default:
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}
	return suppressed
}

func hasStrongNeighbor(suppressed [][]float64, x, y, width, height int, highThresh float64) bool {
	for ky := -1; ky <= 1; ky++ {
		for kx := -1; kx <= 1; kx++ {
			py := clamp(y+ky, 0, height-1)
			px := clamp(x+kx, 0, width-1)
			if suppressed[py][px] >= highThresh {
				return true
			}
		}
	}
	return false
}

// gaussianBlur applies a 5x5 Gaussian blur (sigma ≈ 1.4):
//
//	1  4  7  4  1
//	4 16 26 16  4
//	7 26 41 26  7
//	4 16 26 16  4
//	1  4  7  4  1
//
// Total kernel sum = 273. Border pixels use clamped (replicated) edge values.
func gaussianBlur(img [][]float64, width, height int) [][]float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	const kernelSum = 273.0

	result := make([][]float64, height)
	for y := 0; y < height; y++ {
		result[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					sum += img[py][px] * kernel[ky+2][kx+2]
				}
			}
			result[y][x] = sum / kernelSum
		}
	}
	return result
}

// clamp constrains an integer value to the range [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
