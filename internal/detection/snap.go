package detection

import (
	"image"
	"math"
)

// SnapParams configures edge snapping.
type SnapParams struct {
	// SearchFactor sizes the search window as a fraction of the mask's larger
	// dimension. The window extends half of that on each side of the vertex.
	SearchFactor float64 `json:"search_factor"`

	// WindowSize is the side of the neighbourhood whose sum scores a position.
	WindowSize int `json:"window_size"`
}

// SnapVertices moves each vertex of comp onto the silhouette pixel with the
// lowest local foreground density inside its search window.
//
// Inside pixels close to a corner of the silhouette have fewer inside
// neighbours than pixels along an edge, which in turn have fewer than pixels
// in the interior, so the minimum sits on the polygon corner. Window sums are
// abandoned as soon as they reach the best sum so far. Ties keep the first
// position in row-major order. A vertex whose window holds no inside pixel is
// left where it was.
func SnapVertices(mask *Mask, comp *Component, p SnapParams) {
	longest := mask.Rows
	if mask.Cols > longest {
		longest = mask.Cols
	}
	radius := int(float64(longest) * p.SearchFactor / 2)

	for i, v := range comp.Vertices {
		center := FrameToMask(v.Pt(), comp.BBox)
		if best, ok := snapPoint(mask, center, radius, p.WindowSize); ok {
			comp.Vertices[i] = VertexOf(MaskToFrame(best, comp.BBox))
		}
	}
}

// snapPoint searches the window of the given radius around center for the
// inside pixel with the smallest windowSize×windowSize sum.
func snapPoint(mask *Mask, center image.Point, radius, windowSize int) (image.Point, bool) {
	search := image.Rect(center.X-radius, center.Y-radius, center.X+radius+1, center.Y+radius+1).
		Intersect(image.Rect(0, 0, mask.Cols, mask.Rows))

	best := math.MaxInt
	var bestAt image.Point
	found := false

	for y := search.Min.Y; y < search.Max.Y; y++ {
		for x := search.Min.X; x < search.Max.X; x++ {
			if mask.At(x, y) != maskInside {
				continue
			}
			sum, complete := windowSum(mask, x, y, windowSize, best)
			if complete {
				best = sum
				bestAt = image.Pt(x, y)
				found = true
			}
		}
	}
	return bestAt, found
}

// windowSum adds the mask values in the size×size window around (cx, cy),
// clipped to the mask. It stops early and reports false once the running sum
// reaches limit.
func windowSum(mask *Mask, cx, cy, size, limit int) (int, bool) {
	half := size / 2
	x0, y0 := max(cx-half, 0), max(cy-half, 0)
	x1, y1 := min(cx-half+size, mask.Cols), min(cy-half+size, mask.Rows)

	sum := 0
	for y := y0; y < y1; y++ {
		row := mask.Pix[y*mask.Cols : y*mask.Cols+mask.Cols]
		for x := x0; x < x1; x++ {
			sum += int(row[x])
			if sum >= limit {
				return sum, false
			}
		}
	}
	return sum, true
}
