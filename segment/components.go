package segment

// causalNeighbors are offsets (dx, dy) of the already-visited half of the 8-neighborhood in a row-major scan:
// up-left, up, up-right, left.
var causalNeighbors = [4][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}}

// ConnectedComponents labels 8-connected foreground regions of the mask (any value > 0 is foreground).
//
// Returned numLabels is the next label that would be assigned, so the number of real components is numLabels-1.
// Foreground pixels carry labels in [1, numLabels), background pixels carry 0.
// Labels are dense and numbered in the row-major order their components are first met.
func ConnectedComponents(mask *Mask) (int, *LabelGrid) {
	labels := NewGrid[int](mask.Width, mask.Height)
	resolver := NewResolver()
	nextLabel := 1

	neighborLabels := make([]int, 0, len(causalNeighbors))
	for y := range mask.Height {
		for x := range mask.Width {
			if mask.At(x, y) == 0 {
				continue
			}
			neighborLabels = neighborLabels[:0]
			for _, offset := range causalNeighbors {
				nx, ny := x+offset[0], y+offset[1]
				if !labels.In(nx, ny) {
					continue
				}
				if lbl := labels.At(nx, ny); lbl > 0 {
					neighborLabels = append(neighborLabels, lbl)
				}
			}
			if len(neighborLabels) == 0 {
				labels.Set(x, y, nextLabel)
				nextLabel++
				continue
			}
			minLabel := neighborLabels[0]
			for _, lbl := range neighborLabels[1:] {
				if lbl < minLabel {
					minLabel = lbl
				}
			}
			labels.Set(x, y, minLabel)
			for _, lbl := range neighborLabels {
				resolver.Union(minLabel, lbl)
			}
		}
	}

	numLabels := compact(labels, resolver.Find)
	return numLabels, labels
}

// Relabel renumbers labels densely in row-major first-encounter order.
// Relabeling an already compacted grid yields the same grid.
func Relabel(labels *LabelGrid) (int, *LabelGrid) {
	out := labels.Clone()
	numLabels := compact(out, func(lbl int) int { return lbl })
	return numLabels, out
}

// compact rewrites every labeled pixel in place to a dense label of its resolved root.
// Returns next unused label.
func compact(labels *LabelGrid, resolve func(int) int) int {
	labelMap := make(map[int]int)
	newLabel := 1
	for i, lbl := range labels.Data {
		if lbl <= 0 {
			continue
		}
		root := resolve(lbl)
		mapped, ok := labelMap[root]
		if !ok {
			mapped = newLabel
			labelMap[root] = mapped
			newLabel++
		}
		labels.Data[i] = mapped
	}
	return newLabel
}
