package detection

import (
	"gonum.org/v1/gonum/stat"
)

// ReduceVertices merges nearby corner candidates and returns one centroid per
// cluster.
//
// Two candidates join the same cluster when their squared distance is below
// mergeDistance². Merging is transitive: a chain of close points collapses
// into one cluster even when its ends are far apart. Corners of a marker
// produce dense clumps of hits, so chaining is what gathers a clump into a
// single vertex.
//
// Clusters are emitted in order of their first member. Fewer than two points
// are returned unchanged.
func ReduceVertices(points []Vertex, mergeDistance float64) []Vertex {
	if len(points) < 2 {
		return points
	}

	parent := make([]int, len(points))
	for i := range parent {
		parent[i] = i
	}

	limit := mergeDistance * mergeDistance
	for i := range points {
		for j := range points {
			if i == j {
				continue
			}
			dx := points[i].X - points[j].X
			dy := points[i].Y - points[j].Y
			if dx*dx+dy*dy >= limit {
				continue
			}
			ri, rj := findRoot(parent, i), findRoot(parent, j)
			if ri != rj {
				parent[ri] = rj
			}
		}
	}

	order := make([]int, 0)
	members := make(map[int][]int)
	for i := range points {
		r := findRoot(parent, i)
		if _, ok := members[r]; !ok {
			order = append(order, r)
		}
		members[r] = append(members[r], i)
	}

	reduced := make([]Vertex, 0, len(order))
	for _, r := range order {
		idx := members[r]
		xs := make([]float64, len(idx))
		ys := make([]float64, len(idx))
		for k, i := range idx {
			xs[k] = points[i].X
			ys[k] = points[i].Y
		}
		reduced = append(reduced, Vertex{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)})
	}
	return reduced
}

// findRoot follows parent links until it reaches a cluster root. Paths are not
// compressed; their length is bounded by the cluster size.
func findRoot(parent []int, i int) int {
	for parent[i] != i {
		i = parent[i]
	}
	return i
}
