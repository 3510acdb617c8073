// Package measure extracts geometric descriptors of labeled clusters:
// centroid, distance, width, outline polygon, camera-relative heading and geographic location.
package measure

import (
	"image"
	"math"

	"github.com/LdDl/sidewalk-go/mot"
	"github.com/LdDl/sidewalk-go/segment"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyCluster is returned when the requested label has no pixels
	ErrEmptyCluster = errors.New("cluster has no pixels")
	// ErrNoSidewalkEdges is returned when the centroid row holds fewer than two cluster pixels.
	// Width is reported as 0 in that case.
	ErrNoSidewalkEdges = errors.New("can't find sidewalk edges at centroid row")
)

// DefaultOutlineTolerance is Douglas-Peucker tolerance (pixels) used for cluster outlines
const DefaultOutlineTolerance = 1.0

// Cluster is a measured cluster of a label grid
type Cluster struct {
	Label    int
	Pixels   int
	Centroid mot.Point
	// Depth at centroid, meters
	Distance float64
	// Physical width at centroid row, meters
	Width   float64
	Polygon orb.Ring
}

// Measure computes all descriptors of the cluster.
// ErrNoSidewalkEdges is returned together with a filled Cluster (Width = 0): callers may treat it as a warning.
func Measure(labels *segment.LabelGrid, label int, depth *segment.DepthMap, tolerance float64) (Cluster, error) {
	if err := segment.SameShape(labels, depth); err != nil {
		return Cluster{}, errors.Wrap(err, "can't measure cluster")
	}
	centroid, err := Centroid(labels, label)
	if err != nil {
		return Cluster{}, errors.Wrapf(err, "label %d", label)
	}
	cluster := Cluster{
		Label:    label,
		Pixels:   segment.CountLabel(labels, label),
		Centroid: centroid,
		Distance: Distance(depth, centroid),
		Polygon:  Outline(labels, label, tolerance),
	}
	cluster.Width, err = Width(labels, label, depth, centroid)
	if err != nil {
		return cluster, errors.Wrapf(err, "label %d", label)
	}
	return cluster, nil
}

// Centroid returns (median x, median y) over pixels of the label.
// Median of an even number of values is the mean of the two middle ones.
func Centroid(labels *segment.LabelGrid, label int) (mot.Point, error) {
	xs := make([]int, labels.Width)
	ys := make([]int, labels.Height)
	total := 0
	for y := range labels.Height {
		for x := range labels.Width {
			if labels.At(x, y) == label {
				xs[x]++
				ys[y]++
				total++
			}
		}
	}
	if total == 0 {
		return mot.Point{}, ErrEmptyCluster
	}
	return mot.NewPoint(histogramMedian(xs, total), histogramMedian(ys, total)), nil
}

// histogramMedian returns median of values given as counts per integer value
func histogramMedian(counts []int, total int) float64 {
	if total%2 == 1 {
		return float64(valueAtRank(counts, total/2))
	}
	lower := valueAtRank(counts, total/2-1)
	upper := valueAtRank(counts, total/2)
	return float64(lower+upper) / 2.0
}

// valueAtRank returns value at 0-based rank k of the sorted sample
func valueAtRank(counts []int, k int) int {
	cumulative := 0
	for v, c := range counts {
		cumulative += c
		if cumulative > k {
			return v
		}
	}
	return len(counts) - 1
}

// Distance returns depth at centroid pixel
func Distance(depth *segment.DepthMap, centroid mot.Point) float64 {
	x, y := pixelOf(depth, centroid)
	return depth.At(x, y)
}

// Width estimates physical width of the cluster along the centroid row.
// Each edge is projected onto the lateral axis using the depth at the centroid as the forward leg:
// sqrt(edge² - side²). Edges closer than the centroid depth contribute 0.
func Width(labels *segment.LabelGrid, label int, depth *segment.DepthMap, centroid mot.Point) (float64, error) {
	if err := segment.SameShape(labels, depth); err != nil {
		return 0, errors.Wrap(err, "can't compute width")
	}
	cx, cy := pixelOf(labels, centroid)
	left, right, count := -1, -1, 0
	for x := range labels.Width {
		if labels.At(x, cy) != label {
			continue
		}
		if left < 0 {
			left = x
		}
		right = x
		count++
	}
	if count < 2 {
		return 0, ErrNoSidewalkEdges
	}
	side := depth.At(cx, cy)
	leftEstimate := lateral(depth.At(left, cy), side)
	rightEstimate := lateral(depth.At(right, cy), side)
	return (leftEstimate + rightEstimate) / 2.0, nil
}

func lateral(hypotenuse, side float64) float64 {
	sq := hypotenuse*hypotenuse - side*side
	if sq <= 0 {
		return 0
	}
	return math.Sqrt(sq)
}

// pixelOf truncates point to pixel indices and clamps them into the grid
func pixelOf[T any](grid *segment.Grid[T], p mot.Point) (int, int) {
	x := clampInt(int(p.X), 0, grid.Width-1)
	y := clampInt(int(p.Y), 0, grid.Height-1)
	return x, y
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// Outline traces the cluster boundary row by row: leftmost pixels top to bottom, then rightmost pixels bottom to top.
// The ring is closed and simplified with Douglas-Peucker when tolerance > 0. Returns nil for an empty cluster.
func Outline(labels *segment.LabelGrid, label int, tolerance float64) orb.Ring {
	lefts := make([]orb.Point, 0)
	rights := make([]orb.Point, 0)
	for y := range labels.Height {
		left, right := -1, -1
		for x := range labels.Width {
			if labels.At(x, y) != label {
				continue
			}
			if left < 0 {
				left = x
			}
			right = x
		}
		if left < 0 {
			continue
		}
		lefts = append(lefts, mot.NewPointFrom(image.Pt(left, y)).Orb())
		rights = append(rights, mot.NewPointFrom(image.Pt(right, y)).Orb())
	}
	if len(lefts) == 0 {
		return nil
	}
	ring := make(orb.Ring, 0, 2*len(lefts)+1)
	ring = append(ring, lefts...)
	for i := len(rights) - 1; i >= 0; i-- {
		ring = append(ring, rights[i])
	}
	ring = append(ring, ring[0])
	if tolerance <= 0 {
		return ring
	}
	if simplified, ok := simplify.DouglasPeucker(tolerance).Simplify(ring).(orb.Ring); ok && len(simplified) > 0 {
		return simplified
	}
	return ring
}
