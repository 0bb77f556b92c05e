// Package detection extracts quadrilateral marker candidates from a frame.
//
// The package turns an edge mask into a list of four-vertex polygons that a
// marker decoder can warp into a canonical grid. It owns the blob-to-polygon
// pipeline; gradient detection and corner saliency are collaborators supplied
// through the EdgeDetector and CornerResponder interfaces.
//
// # Pipeline
//
// Every frame runs through the same stages, strictly in order:
//
//  1. Labeling: non-edge pixels are grouped into 4-connected components over a
//     padded label grid (Label).
//  2. Size rejection: components whose bbox width or height falls outside the
//     configured fraction of the frame width are dropped.
//  3. Hole filling: each surviving component gets a padded mask with enclosed
//     holes closed (FillHoles).
//  4. Corner extraction: the saliency map of the mask is normalised and
//     thresholded into raw vertex candidates (ExtractCorners).
//  5. Vertex reduction: candidates are clustered with union-find and replaced
//     by cluster centroids (ReduceVertices).
//  6. Edge snapping: components with exactly four vertices have each vertex
//     moved onto the silhouette corner nearby (SnapVertices) and become
//     candidates.
//
// Detector sequences the stages; Result exposes the candidate count and the
// four vertices of each candidate.
//
// # Coordinate Systems
//
// Three coordinate frames are in play: frame pixels, the padded label grid
// (frame + 1), and mask-local cells (bbox offset plus one cell of padding).
// Component.Origin and Component.BBox are grid coordinates; vertices are
// always frame coordinates. Conversions live in coords.go and nowhere else.
//
// # Ownership and Concurrency
//
// A Detector processes one frame at a time and reuses a scratch Arena for
// masks; it is not safe for concurrent use. Each Result owns its label grid
// and components. Latest publishes finished results to concurrent readers
// with a single hand-off, and Runner drives a Detector from a FrameSource in
// its own goroutine.
//
// # Errors
//
// A frame without candidates is not an error. Broken label or bbox
// bookkeeping surfaces as an error matching ErrInvariant, and the whole frame
// is abandoned rather than processed with corrupt data.
package detection
