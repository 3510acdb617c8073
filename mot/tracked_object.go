package mot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// TrackedObject is an object identity kept by CentroidTracker across frames.
// Descriptor fields hold values of the last matched detection.
type TrackedObject struct {
	ID       int
	Name     string
	Centroid Point
	Polygon  orb.Ring
	Distance float64
	Width    float64
	Heading  float64
	Location orb.Point

	disappeared      int
	smoothedCentroid Point
	track            []Point
	maxTrackLen      int
	dt               float64
	smoother         *kalman_filter.Kalman2D
}

func newSmoother(centroid Point, dt float64) *kalman_filter.Kalman2D {
	/* Kalman filter props */
	ux := 0.0
	uy := 0.0
	stdDevA := 2.0
	stdDevMx := 0.1
	stdDevMy := 0.1
	return kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy, kalman_filter.WithState2D(centroid.X, centroid.Y))
}

func newTrackedObject(id int, detection Detection, dt float64) *TrackedObject {
	object := TrackedObject{
		ID:               id,
		disappeared:      0,
		smoothedCentroid: detection.Centroid,
		track:            make([]Point, 0, 150),
		maxTrackLen:      150,
		dt:               dt,
		smoother:         newSmoother(detection.Centroid, dt),
	}
	object.setDescriptor(detection)
	object.track = append(object.track, object.smoothedCentroid)
	return &object
}

// Disappeared returns number of consecutive frames the object was not matched
func (object *TrackedObject) Disappeared() int {
	return object.disappeared
}

// SmoothedCentroid returns Kalman-filtered centroid
func (object *TrackedObject) SmoothedCentroid() Point {
	return object.smoothedCentroid
}

// Track returns smoothed centroid history. Be careful: this is not copy of track, but reference to it
func (object *TrackedObject) Track() []Point {
	return object.track
}

// GetMaxTrackLen returns max track length
func (object *TrackedObject) GetMaxTrackLen() int {
	return object.maxTrackLen
}

// SetMaxTrackLen sets max track length
func (object *TrackedObject) SetMaxTrackLen(newMaxTrackLen int) {
	object.maxTrackLen = newMaxTrackLen
}

func (object *TrackedObject) setDescriptor(detection Detection) {
	object.Name = detection.Name
	object.Centroid = detection.Centroid
	object.Polygon = detection.Polygon
	object.Distance = detection.Distance
	object.Width = detection.Width
	object.Heading = detection.Heading
	object.Location = detection.Location
}

// update overwrites descriptor fields in place, resets miss counter and feeds the centroid to the Kalman filter.
// Descriptor and counter are updated even when smoothing fails.
func (object *TrackedObject) update(detection Detection) error {
	object.setDescriptor(detection)
	object.disappeared = 0

	object.smoother.Predict()
	err := object.smoother.Update(detection.Centroid.X, detection.Centroid.Y)
	if err != nil {
		object.restartSmoother()
	} else {
		stateX, stateY := object.smoother.GetState()
		object.smoothedCentroid = NewPoint(stateX, stateY)
	}
	object.track = append(object.track, object.smoothedCentroid)
	if len(object.track) > object.maxTrackLen {
		object.track = object.track[1:]
	}
	return errors.Wrap(err, "Can't update centroid smoother")
}

// restartSmoother replaces the Kalman filter with a fresh one positioned at the raw centroid
func (object *TrackedObject) restartSmoother() {
	object.smoother = newSmoother(object.Centroid, object.dt)
	object.smoothedCentroid = object.Centroid
}

// miss increments miss counter and advances the filter without a measurement
func (object *TrackedObject) miss() {
	object.disappeared++
	object.smoother.Predict()
}
