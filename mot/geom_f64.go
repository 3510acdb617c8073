package mot

import (
	"image"
	"math"

	"github.com/paulmach/orb"
)

// Point is a position in pixel coordinates
type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func NewPointFrom(point image.Point) Point {
	return Point{
		X: float64(point.X),
		Y: float64(point.Y),
	}
}

// Orb converts point to planar orb.Point
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Hypot(p1.X-p2.X, p1.Y-p2.Y)
}
