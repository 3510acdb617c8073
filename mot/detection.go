package mot

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// ErrFieldLengthMismatch is returned when columns of FrameObjects have different lengths
var ErrFieldLengthMismatch = errors.New("frame object fields have different lengths")

// Detection is a single object found on a frame
type Detection struct {
	// Class name, e.g. "sidewalk"
	Name string
	// Centroid in pixels
	Centroid Point
	// Outline in pixel coordinates
	Polygon orb.Ring
	// Distance to camera, meters
	Distance float64
	// Physical width, meters. Zero when it could not be estimated
	Width float64
	// Bearing, degrees clockwise from north
	Heading float64
	// Geographic position (lon, lat). Zero value when unknown
	Location orb.Point
}

// FrameObjects is column-oriented description of the objects found on a frame: i-th entry of every field belongs to i-th object.
// Locations is optional and may be left nil.
type FrameObjects struct {
	Names     []string
	Centroids []Point
	Polygons  []orb.Ring
	Distances []float64
	Widths    []float64
	Headings  []float64
	Locations []orb.Point
}

// Detections validates column lengths and zips the columns into detections
func (frame FrameObjects) Detections() ([]Detection, error) {
	n := len(frame.Centroids)
	lengths := map[string]int{
		"names":     len(frame.Names),
		"polygons":  len(frame.Polygons),
		"distances": len(frame.Distances),
		"widths":    len(frame.Widths),
		"headings":  len(frame.Headings),
	}
	if frame.Locations != nil {
		lengths["locations"] = len(frame.Locations)
	}
	for field, l := range lengths {
		if l != n {
			return nil, errors.Wrapf(ErrFieldLengthMismatch, "%s has %d entries, centroids has %d", field, l, n)
		}
	}
	detections := make([]Detection, n)
	for i := range n {
		detections[i] = Detection{
			Name:     frame.Names[i],
			Centroid: frame.Centroids[i],
			Polygon:  frame.Polygons[i],
			Distance: frame.Distances[i],
			Width:    frame.Widths[i],
			Heading:  frame.Headings[i],
		}
		if frame.Locations != nil {
			detections[i].Location = frame.Locations[i]
		}
	}
	return detections, nil
}
