package detection

import "math"

// QuadGeometry summarises the shape of a candidate quadrilateral.
type QuadGeometry struct {
	// Sides holds the length of side i, from vertex i to vertex i+1.
	Sides [4]float64 `json:"sides"`

	// Angles holds the direction of each side in degrees, 0 pointing right
	// and 90 pointing down.
	Angles [4]float64 `json:"angles"`

	// Area is the polygon area in square pixels.
	Area float64 `json:"area"`

	// Convex reports whether the vertices, in their stored order, trace a
	// convex polygon without self-intersection.
	Convex bool `json:"convex"`

	// AspectRatio is the shortest side over the longest side.
	AspectRatio float64 `json:"aspect_ratio"`
}

// Measure computes the geometry of q with vertices taken in stored order.
// The vertex order of a candidate is cluster order, so a non-convex result
// can mean the vertices need reordering rather than a bad shape.
func Measure(q Quad) QuadGeometry {
	var g QuadGeometry
	shortest, longest := math.Inf(1), 0.0
	var area float64
	sign := 0
	convex := true

	for i := range q {
		a, b, c := q[i], q[(i+1)%4], q[(i+2)%4]
		dx, dy := b.X-a.X, b.Y-a.Y

		length := math.Hypot(dx, dy)
		g.Sides[i] = round(length, 100)
		g.Angles[i] = round(math.Atan2(dy, dx)*180/math.Pi, 10)
		shortest = math.Min(shortest, length)
		longest = math.Max(longest, length)

		area += a.X*b.Y - b.X*a.Y

		cross := dx*(c.Y-b.Y) - dy*(c.X-b.X)
		switch {
		case cross > 0:
			if sign < 0 {
				convex = false
			}
			sign = 1
		case cross < 0:
			if sign > 0 {
				convex = false
			}
			sign = -1
		}
	}

	g.Area = round(math.Abs(area)/2, 100)
	g.Convex = convex && sign != 0
	if longest > 0 {
		g.AspectRatio = round(shortest/longest, 1000)
	}
	return g
}

func round(v, scale float64) float64 {
	return math.Round(v*scale) / scale
}
