package detection

import (
	"image"
)

// Label grid cell states. Any non-negative value is a component label.
const (
	// Unvisited marks cells that are not part of any blob (edge pixels and
	// the padding ring).
	Unvisited int32 = -2

	// Target marks non-edge cells waiting to be assigned to a component.
	Target int32 = -1
)

// LabelGrid is the padded label grid for one frame.
//
// The grid is one cell larger than the frame on every side. The padding ring
// always holds Unvisited, so 4-neighbour lookups from any frame cell stay in
// range without bounds checks.
type LabelGrid struct {
	// Rows and Cols are the padded dimensions (frame height+2, width+2).
	Rows int
	Cols int

	// Cells holds one value per cell in row-major order.
	Cells []int32
}

// NewLabelGrid allocates a grid for a frame of the given size with every cell
// set to Unvisited.
func NewLabelGrid(frameHeight, frameWidth int) *LabelGrid {
	rows := frameHeight + 2*gridPadding
	cols := frameWidth + 2*gridPadding
	cells := make([]int32, rows*cols)
	for i := range cells {
		cells[i] = Unvisited
	}
	return &LabelGrid{Rows: rows, Cols: cols, Cells: cells}
}

// At returns the value of the cell at grid position (x, y).
func (g *LabelGrid) At(x, y int) int32 {
	return g.Cells[y*g.Cols+x]
}

// Set stores v in the cell at grid position (x, y).
func (g *LabelGrid) Set(x, y int, v int32) {
	g.Cells[y*g.Cols+x] = v
}

// Count returns the number of cells holding label.
func (g *LabelGrid) Count(label int32) int {
	n := 0
	for _, v := range g.Cells {
		if v == label {
			n++
		}
	}
	return n
}

// Component is one connected region of non-edge pixels.
//
// Origin and BBox are in label grid coordinates; use GridToFrame and
// GridBoxToFrame for frame space. Vertices are always in frame space and are
// rewritten in place by each pipeline stage (raw corners, reduced centroids,
// snapped positions). Their order is insertion order, not geometric order.
type Component struct {
	Label      int         `json:"label"`
	Origin     image.Point `json:"origin"`
	BBox       Box         `json:"bbox"`
	PixelCount int         `json:"pixel_count"`
	Vertices   []Vertex    `json:"vertices"`

	// Accepted is set when the component passed size rejection.
	Accepted bool `json:"accepted"`
}

// Label groups the non-edge pixels of an edge mask into 4-connected components.
//
// A pixel belongs to a blob when the edge mask is zero there; edge pixels
// (non-zero) separate blobs. Components are discovered by a row-major scan of
// the padded grid and labelled 0, 1, 2, ... in discovery order.
//
// The returned grid holds the component label in every blob cell and
// Unvisited everywhere else.
func Label(edges *image.Gray) (*LabelGrid, []Component) {
	bounds := edges.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	grid := NewLabelGrid(height, width)
	for y := 0; y < height; y++ {
		row := edges.Pix[y*edges.Stride : y*edges.Stride+width]
		for x, v := range row {
			if v == 0 {
				g := FrameToGrid(image.Pt(x, y))
				grid.Set(g.X, g.Y, Target)
			}
		}
	}

	components := make([]Component, 0)
	queue := make([]int, 0, 1024)
	var label int32

	for y := 0; y < grid.Rows; y++ {
		for x := 0; x < grid.Cols; x++ {
			if grid.At(x, y) != Target {
				continue
			}
			var comp Component
			queue = fillComponent(grid, x, y, label, &comp, queue)
			components = append(components, comp)
			label++
		}
	}

	return grid, components
}

// fillComponent relabels the component seeded at (seedX, seedY) with label
// using a breadth-first flood fill, recording its statistics in comp.
//
// The queue slice is reused across calls to avoid reallocating it for every
// component; the (possibly grown) slice is returned.
func fillComponent(grid *LabelGrid, seedX, seedY int, label int32, comp *Component, queue []int) []int {
	cols := grid.Cols
	queue = append(queue[:0], seedY*cols+seedX)

	minX, minY := grid.Cols, grid.Rows
	maxX, maxY := -1, -1
	origin := image.Pt(seedX, seedY)
	count := 0

	for head := 0; head < len(queue); head++ {
		idx := queue[head]
		if grid.Cells[idx] != Target {
			continue
		}
		x, y := idx%cols, idx/cols

		grid.Cells[idx] = label
		count++

		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
		if comparePoints(image.Pt(x, y), origin) < 0 {
			origin = image.Pt(x, y)
		}

		// The padding ring never holds Target, so these indices stay in range
		// for every cell that passed the Target check above.
		queue = append(queue, idx-1, idx+1, idx-cols, idx+cols)
	}

	comp.Label = int(label)
	comp.Origin = origin
	comp.PixelCount = count
	comp.BBox = Box{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
	return queue
}

// comparePoints orders points by row, then column. It returns -1, 0 or 1.
func comparePoints(a, b image.Point) int {
	switch {
	case a.Y < b.Y:
		return -1
	case a.Y > b.Y:
		return 1
	case a.X < b.X:
		return -1
	case a.X > b.X:
		return 1
	}
	return 0
}
