package detection

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/floats"
)

// CornerResponder computes a per-pixel corner saliency map.
//
// The mask image holds the filled silhouette with inside cells at 255 and
// outside cells at 0. The result has one value per pixel in row-major order;
// larger values mean stronger corners. Only the relative ordering matters:
// the extractor min/max normalises the map before thresholding.
type CornerResponder interface {
	CornerResponse(mask *image.Gray, blockSize, aperture int, k float64) ([]float64, error)
}

// CornerParams configures corner candidate extraction.
type CornerParams struct {
	// BlockSize is the neighbourhood size of the structure tensor.
	BlockSize int `json:"block_size"`

	// Aperture is the derivative kernel size.
	Aperture int `json:"aperture"`

	// K is the Harris sensitivity coefficient.
	K float64 `json:"k"`

	// Threshold is compared against the response normalised to [0, 255].
	// Pixels strictly above it become raw vertex candidates.
	Threshold float64 `json:"threshold"`
}

// ExtractCorners appends the raw corner candidates of a filled mask to
// comp.Vertices, in frame coordinates.
//
// The padding ring of the mask is never reported. Candidates come out in
// row-major mask order; clusters of near-duplicate hits around each true
// corner are expected and left for ReduceVertices.
func ExtractCorners(mask *Mask, comp *Component, responder CornerResponder, p CornerParams) error {
	response, err := responder.CornerResponse(mask.Gray(), p.BlockSize, p.Aperture, p.K)
	if err != nil {
		return fmt.Errorf("corner response for component %d: %w", comp.Label, err)
	}
	if len(response) != mask.Rows*mask.Cols {
		return fmt.Errorf("corner response for component %d: got %d values for a %dx%d mask",
			comp.Label, len(response), mask.Cols, mask.Rows)
	}

	normalizeMinMax(response, 255)

	for y := gridPadding; y < mask.Rows-gridPadding; y++ {
		for x := gridPadding; x < mask.Cols-gridPadding; x++ {
			if response[y*mask.Cols+x] <= p.Threshold {
				continue
			}
			f := MaskToFrame(image.Pt(x, y), comp.BBox)
			comp.Vertices = append(comp.Vertices, VertexOf(f))
		}
	}
	return nil
}

// normalizeMinMax rescales values in place so that the minimum maps to 0 and
// the maximum to scale. A flat map becomes all zeros.
func normalizeMinMax(values []float64, scale float64) {
	if len(values) == 0 {
		return
	}
	lo := floats.Min(values)
	hi := floats.Max(values)
	if hi == lo {
		for i := range values {
			values[i] = 0
		}
		return
	}
	floats.AddConst(-lo, values)
	floats.Scale(scale/(hi-lo), values)
}
