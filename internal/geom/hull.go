package geom

import "sort"

// ConvexHull returns the convex hull of the points on the XZ projection
// using the monotone chain algorithm, in counter-clockwise order (looking
// down the Y axis). Collinear points along the boundary are dropped.
//
// Degenerate input returns fewer than 3 points: callers that need a real
// polygon must check the result length.
func ConvexHull(points []Point) []Point {
	n := len(points)
	if n < 3 {
		return append([]Point(nil), points...)
	}

	sorted := make([]Point, n)
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Z < sorted[j].Z
	})

	// Build lower then upper chain, popping while the last three points do
	// not make a counter-clockwise turn.
	hull := make([]Point, 0, 2*n)
	for _, p := range sorted {
		for len(hull) >= 2 && Cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && Cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// First and last point are the same; drop the duplicate.
	hull = hull[:len(hull)-1]

	if len(hull) < 3 {
		// All points collinear (or duplicated); not a polygon.
		return hull
	}
	return hull
}
