package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// SobelDetector produces an edge mask by thresholding the Sobel gradient
// magnitude of a frame.
//
// Unlike Canny, the edges are not thinned to a single pixel. A thick band of
// edge pixels closes the outline of a marker reliably, which keeps its
// interior from leaking into the background during labeling.
type SobelDetector struct {
	// BlurRadius is the Gaussian blur radius applied before the gradient.
	// Zero disables blurring.
	BlurRadius float64

	// Threshold is the minimum gradient magnitude (0-255) of an edge pixel.
	// Must be at least 1.
	Threshold uint8

	// DilateRadius grows the edge band to bridge small gaps. Zero disables
	// dilation.
	DilateRadius float64
}

// fullStep is the Sobel magnitude of a black-to-white step on a [0,1] scale.
// It maps to 255 in the magnitude image.
const fullStep = 4.0

// EdgeMask returns a mask of the frame's size where edge pixels are 255 and
// all other pixels are 0.
//
// # Algorithm
//
//  1. Gaussian blur with BlurRadius to suppress sensor noise
//  2. Sobel gradient magnitude, scaled so a full black-to-white step is 255
//  3. Optional dilation by DilateRadius
//  4. Binary threshold at Threshold
func (d SobelDetector) EdgeMask(frame *image.Gray) (*image.Gray, error) {
	if d.Threshold == 0 {
		return nil, fmt.Errorf("sobel threshold must be at least 1")
	}

	bounds := frame.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var src image.Image = frame
	if d.BlurRadius > 0 {
		src = blur.Gaussian(src, d.BlurRadius)
	}

	lum := make([][]float64, height)
	for y := 0; y < height; y++ {
		lum[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			v := color.GrayModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			lum[y][x] = float64(v.Y) / 255.0
		}
	}
	magnitude, _ := sobelGradients(lum, width, height)

	var gradient image.Image = magnitudeImage(magnitude, width, height)
	if d.DilateRadius > 0 {
		gradient = effect.Dilate(gradient, d.DilateRadius)
	}

	return segment.Threshold(gradient, d.Threshold), nil
}

// magnitudeImage scales gradient magnitudes into an 8-bit image.
func magnitudeImage(magnitude [][]float64, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := math.Round(magnitude[y][x] / fullStep * 255)
			img.Pix[y*img.Stride+x] = uint8(math.Min(v, 255))
		}
	}
	return img
}
