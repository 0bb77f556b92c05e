package detection

import (
	"image"
	"math"
)

// The pipeline moves points between three coordinate frames:
//
//   - frame: pixel coordinates of the input image, (0,0) at the top-left.
//   - grid:  the padded label grid, one cell larger than the frame on every
//     side, so grid = frame + (1,1).
//   - mask:  a component's filled mask, which covers the component's bbox plus
//     one cell of padding, so mask(1,1) = grid(bbox.X, bbox.Y).
//
// All conversions go through the functions below. Inline offset arithmetic
// elsewhere in the package is a bug.

// gridPadding is the number of cells added on each side of the frame by the
// label grid and on each side of a bbox by a filled mask.
const gridPadding = 1

// Vertex is a 2D point in frame pixel space. Vertices are floating point because
// cluster centroids rarely land on a pixel center.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt returns the pixel containing v, rounding to the nearest integer.
func (v Vertex) Pt() image.Point {
	return image.Pt(int(math.Round(v.X)), int(math.Round(v.Y)))
}

// VertexOf converts an integer pixel position into a Vertex.
func VertexOf(p image.Point) Vertex {
	return Vertex{X: float64(p.X), Y: float64(p.Y)}
}

// Box is an axis-aligned rectangle given by its top-left cell and its size.
// Width and Height count cells, so a single-cell box has Width == Height == 1.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the box as an image.Rectangle with an exclusive max corner.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// FrameToGrid maps a frame pixel to its label grid cell.
func FrameToGrid(p image.Point) image.Point {
	return image.Pt(p.X+gridPadding, p.Y+gridPadding)
}

// GridToFrame maps a label grid cell to its frame pixel. Padding cells map to
// positions outside the frame.
func GridToFrame(p image.Point) image.Point {
	return image.Pt(p.X-gridPadding, p.Y-gridPadding)
}

// GridToMask maps a label grid cell to the local coordinates of the filled
// mask built for a component with the given bbox.
func GridToMask(p image.Point, bbox Box) image.Point {
	return image.Pt(p.X-bbox.X+gridPadding, p.Y-bbox.Y+gridPadding)
}

// MaskToGrid is the inverse of GridToMask.
func MaskToGrid(p image.Point, bbox Box) image.Point {
	return image.Pt(p.X+bbox.X-gridPadding, p.Y+bbox.Y-gridPadding)
}

// MaskToFrame maps a mask-local cell to frame pixel space.
func MaskToFrame(p image.Point, bbox Box) image.Point {
	return GridToFrame(MaskToGrid(p, bbox))
}

// FrameToMask maps a frame pixel to mask-local coordinates.
func FrameToMask(p image.Point, bbox Box) image.Point {
	return GridToMask(FrameToGrid(p), bbox)
}

// GridBoxToFrame converts a bbox in grid coordinates to frame coordinates.
func GridBoxToFrame(b Box) Box {
	tl := GridToFrame(image.Pt(b.X, b.Y))
	return Box{X: tl.X, Y: tl.Y, Width: b.Width, Height: b.Height}
}
