package detection

import (
	"errors"
	"fmt"
	"image"
)

// EdgeDetector is the gradient detection collaborator. It turns a grayscale
// frame into a same-size edge mask where edge pixels are non-zero and every
// other pixel is zero.
type EdgeDetector interface {
	EdgeMask(frame *image.Gray) (*image.Gray, error)
}

// Params is the complete set of tunables for one frame.
//
// A Params value is read once at the start of a frame and never consulted
// again mid-frame, so a new configuration can be swapped in between frames
// without locking the pipeline.
type Params struct {
	// MinBlobSize and MaxBlobSize bound a component's bbox width and height
	// as fractions of the frame width.
	MinBlobSize float64 `json:"min_blob_size"`
	MaxBlobSize float64 `json:"max_blob_size"`

	Corners CornerParams `json:"corners"`

	// MergeDistance is the clustering radius of ReduceVertices, in pixels.
	MergeDistance float64 `json:"merge_distance"`

	Snap SnapParams `json:"snap"`
}

// DefaultParams returns parameters that work for markers filling roughly
// 5%–50% of the frame width.
func DefaultParams() Params {
	return Params{
		MinBlobSize: 0.05,
		MaxBlobSize: 0.5,
		Corners: CornerParams{
			BlockSize: 3,
			Aperture:  3,
			K:         0.04,
			Threshold: 200,
		},
		MergeDistance: 5,
		Snap: SnapParams{
			SearchFactor: 0.2,
			WindowSize:   3,
		},
	}
}

// Quad is the four vertices of a candidate in frame pixel space, in cluster
// order. The order is not guaranteed to be clockwise or to start at any
// particular corner.
type Quad [4]Vertex

// Result is the output of one frame.
type Result struct {
	// Sequence numbers results in the order their frames were started.
	Sequence uint64 `json:"sequence"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Components lists every component found by the labeler, including
	// rejected ones, indexed by label.
	Components []Component `json:"components"`

	// Candidates holds the indices into Components of every component that
	// was reduced to exactly four vertices and snapped, in discovery order.
	Candidates []int `json:"candidates"`

	// Labels is the frame's label grid. It belongs to this result alone.
	Labels *LabelGrid `json:"-"`
}

// CandidateCount returns the number of candidate quadrilaterals.
func (r *Result) CandidateCount() int {
	return len(r.Candidates)
}

// Quad returns the vertices of the i-th candidate.
func (r *Result) Quad(i int) (Quad, bool) {
	if i < 0 || i >= len(r.Candidates) {
		return Quad{}, false
	}
	var q Quad
	copy(q[:], r.Components[r.Candidates[i]].Vertices)
	return q, true
}

// Quads returns the vertices of every candidate.
func (r *Result) Quads() []Quad {
	quads := make([]Quad, 0, len(r.Candidates))
	for i := range r.Candidates {
		q, _ := r.Quad(i)
		quads = append(quads, q)
	}
	return quads
}

// Detector runs the blob-to-polygon pipeline one frame at a time.
//
// A Detector is not safe for concurrent use: its arena is reused across
// frames. Run one Detector per goroutine, or hand results to readers through
// a Latest.
type Detector struct {
	edges    EdgeDetector
	corners  CornerResponder
	arena    *Arena
	sequence uint64
}

// NewDetector returns a detector using the given collaborators.
func NewDetector(edges EdgeDetector, corners CornerResponder) *Detector {
	return &Detector{
		edges:   edges,
		corners: corners,
		arena:   &Arena{},
	}
}

// SetCollaborators replaces the edge detector and corner responder. Call it
// between frames only, from the goroutine that runs Detect.
func (d *Detector) SetCollaborators(edges EdgeDetector, corners CornerResponder) {
	d.edges = edges
	d.corners = corners
}

// Detect runs the full pipeline on a grayscale frame.
//
// An error matching ErrInvariant means the frame was abandoned because of
// inconsistent internal bookkeeping; no partial result is returned. A frame
// with no candidates is not an error.
func (d *Detector) Detect(frame *image.Gray, p Params) (*Result, error) {
	if d.edges == nil {
		return nil, errors.New("detector has no edge detector")
	}
	edges, err := d.edges.EdgeMask(frame)
	if err != nil {
		return nil, fmt.Errorf("edge detection: %w", err)
	}
	if edges.Bounds().Size() != frame.Bounds().Size() {
		return nil, fmt.Errorf("edge detection: mask is %v, frame is %v",
			edges.Bounds().Size(), frame.Bounds().Size())
	}
	return d.DetectEdges(edges, p)
}

// DetectEdges runs the pipeline on a precomputed edge mask.
func (d *Detector) DetectEdges(edges *image.Gray, p Params) (*Result, error) {
	width := edges.Bounds().Dx()
	height := edges.Bounds().Dy()

	d.sequence++
	d.arena.Reserve(height, width)

	grid, components := Label(edges)
	res := &Result{
		Sequence:   d.sequence,
		Width:      width,
		Height:     height,
		Components: components,
		Candidates: make([]int, 0),
		Labels:     grid,
	}

	for i := range components {
		comp := &components[i]
		if !acceptSize(comp.BBox, width, p) {
			continue
		}
		comp.Accepted = true

		ok, err := d.processComponent(grid, comp, p)
		if err != nil {
			return nil, err
		}
		if ok {
			res.Candidates = append(res.Candidates, i)
		}
	}
	return res, nil
}

// processComponent runs hole filling, corner extraction, reduction and, for
// four-vertex components, snapping. It reports whether comp became a
// candidate.
func (d *Detector) processComponent(grid *LabelGrid, comp *Component, p Params) (bool, error) {
	mask, err := FillHoles(grid, comp, d.arena)
	if err != nil {
		return false, err
	}
	if d.corners == nil {
		return false, errors.New("detector has no corner responder")
	}
	if err := ExtractCorners(mask, comp, d.corners, p.Corners); err != nil {
		return false, err
	}
	comp.Vertices = ReduceVertices(comp.Vertices, p.MergeDistance)
	if len(comp.Vertices) != 4 {
		return false, nil
	}
	SnapVertices(mask, comp, p.Snap)
	return true, nil
}

// acceptSize reports whether a bbox falls inside the configured size range.
// Both bounds are fractions of the frame width.
func acceptSize(b Box, frameWidth int, p Params) bool {
	lo := p.MinBlobSize * float64(frameWidth)
	hi := p.MaxBlobSize * float64(frameWidth)
	w, h := float64(b.Width), float64(b.Height)
	return w >= lo && w <= hi && h >= lo && h <= hi
}
