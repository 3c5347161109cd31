package nav

// Smooth removes waypoints that can be skipped with an unblocked straight
// segment. The result is a subsequence of path that keeps both endpoints.
func (g *Graph) Smooth(path Path) Path {
	if len(path) <= 2 {
		return path.Clone()
	}

	smoothed := Path{path[0]}
	current := 0

	for current < len(path)-1 {
		farthest := current
		for next := current + 1; next < len(path); next++ {
			if !g.IsBlocked(path[current], path[next]) {
				farthest = next
			}
		}
		// adjacent raw waypoints were connected by an edge; always make progress
		if farthest == current {
			farthest = current + 1
		}

		smoothed = append(smoothed, path[farthest])
		current = farthest
	}

	return smoothed
}
