package mot

import (
	"maps"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MatchGatePx is the largest centroid distance (pixels) accepted as a match between a tracked object and a detection
const MatchGatePx = 50.0

// DefaultMaxDisappeared is default number of consecutive misses an object survives
const DefaultMaxDisappeared = 5

// CentroidTracker is greedy nearest-centroid Multi-object tracker (MOT).
// It is not safe for concurrent use: one tracker serves one video stream and Update calls must be serialized.
type CentroidTracker struct {
	// Main storage. Identifiers are assigned in ascending order and never reused
	Objects map[int]*TrackedObject
	// Next identifier to assign
	nextObjectID int
	// Object is removed once it was missed more than maxDisappeared frames in a row. Default is 5
	maxDisappeared int
	// Time step for centroid smoothing. Default 1.0 (one frame)
	dt float64
}

// NewCentroidTrackerDefault creates default instance of CentroidTracker
func NewCentroidTrackerDefault() *CentroidTracker {
	return NewCentroidTracker(DefaultMaxDisappeared)
}

// NewCentroidTracker creates new instance of CentroidTracker
func NewCentroidTracker(maxDisappeared int) *CentroidTracker {
	return NewCentroidTrackerWithTime(maxDisappeared, 1.0)
}

// NewCentroidTrackerWithTime creates new instance of CentroidTracker with custom time step between frames for centroid smoothing
func NewCentroidTrackerWithTime(maxDisappeared int, dt float64) *CentroidTracker {
	return &CentroidTracker{
		Objects:        make(map[int]*TrackedObject),
		nextObjectID:   0,
		maxDisappeared: maxDisappeared,
		dt:             dt,
	}
}

// MaxDisappeared returns number of consecutive misses an object survives
func (tracker *CentroidTracker) MaxDisappeared() int {
	return tracker.maxDisappeared
}

// IDs returns identifiers of live objects in registration order
func (tracker *CentroidTracker) IDs() []int {
	return slices.Sorted(maps.Keys(tracker.Objects))
}

// Disappeared returns miss counters of live objects
func (tracker *CentroidTracker) Disappeared() map[int]int {
	disappeared := make(map[int]int, len(tracker.Objects))
	for objectID, object := range tracker.Objects {
		disappeared[objectID] = object.disappeared
	}
	return disappeared
}

func (tracker *CentroidTracker) register(detection Detection) *TrackedObject {
	object := newTrackedObject(tracker.nextObjectID, detection, tracker.dt)
	tracker.Objects[object.ID] = object
	tracker.nextObjectID++
	return object
}

func (tracker *CentroidTracker) deregister(objectID int) {
	delete(tracker.Objects, objectID)
}

// markMissed ages the object and removes it when it was missed too many times
func (tracker *CentroidTracker) markMissed(objectID int) {
	object := tracker.Objects[objectID]
	object.miss()
	if object.disappeared > tracker.maxDisappeared {
		tracker.deregister(objectID)
	}
}

// UpdateFrame is the same as Update, but accepts column-oriented frame description
func (tracker *CentroidTracker) UpdateFrame(frame FrameObjects) (map[int]*TrackedObject, map[int]int, error) {
	detections, err := frame.Detections()
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't read frame objects")
	}
	return tracker.Update(detections)
}

// Update matches detections of a new frame with tracked objects.
// Returns live objects and their miss counters.
//
// Matching is greedy: tracked objects are served in ascending order of their distance to the closest detection,
// each one takes that closest detection unless it is already taken or farther than MatchGatePx.
// When there are at least as many tracked objects as detections, unmatched objects are aged.
// Otherwise unmatched detections are registered as new objects.
//
// The frame is always applied completely. If centroid smoothing fails for some objects their smoothers are restarted
// at the detected centroid and the failure is returned together with the updated objects.
func (tracker *CentroidTracker) Update(detections []Detection) (map[int]*TrackedObject, map[int]int, error) {
	if len(detections) == 0 {
		for _, objectID := range tracker.IDs() {
			tracker.markMissed(objectID)
		}
		return tracker.Objects, tracker.Disappeared(), nil
	}

	if len(tracker.Objects) == 0 {
		for _, detection := range detections {
			tracker.register(detection)
		}
		return tracker.Objects, tracker.Disappeared(), nil
	}

	objectIDs := tracker.IDs()
	matches := tracker.match(objectIDs, detections)

	var smoothErr error
	usedRows := make(map[int]struct{}, len(matches))
	usedCols := make(map[int]struct{}, len(matches))
	for _, m := range matches {
		objectID := objectIDs[m.row]
		err := tracker.Objects[objectID].update(detections[m.col])
		if err != nil && smoothErr == nil {
			smoothErr = errors.Wrapf(err, "Can't update object with id %d", objectID)
		}
		usedRows[m.row] = struct{}{}
		usedCols[m.col] = struct{}{}
	}

	if len(objectIDs) >= len(detections) {
		for row, objectID := range objectIDs {
			if _, ok := usedRows[row]; ok {
				continue
			}
			tracker.markMissed(objectID)
		}
	} else {
		for col, detection := range detections {
			if _, ok := usedCols[col]; ok {
				continue
			}
			tracker.register(detection)
		}
	}
	return tracker.Objects, tracker.Disappeared(), smoothErr
}

// match pairs rows (objectIDs) with columns (detections) without touching tracked objects.
// The closest column of every row is computed once and is not revised when columns get taken.
func (tracker *CentroidTracker) match(objectIDs []int, detections []Detection) []rowCandidate {
	rows, cols := len(objectIDs), len(detections)
	distances := mat.NewDense(rows, cols, nil)
	for i, objectID := range objectIDs {
		centroid := tracker.Objects[objectID].Centroid
		for j := range detections {
			distances.Set(i, j, euclideanDistance(centroid, detections[j].Centroid))
		}
	}

	priorityQueue := make(rowHeap, 0, rows)
	for i := range rows {
		rowDistances := distances.RawRowView(i)
		col := floats.MinIdx(rowDistances)
		priorityQueue.Push(rowCandidate{
			row:      i,
			col:      col,
			distance: rowDistances[col],
		})
	}

	matches := make([]rowCandidate, 0, min(rows, cols))
	usedCols := make(map[int]struct{})
	for priorityQueue.Len() > 0 {
		candidate := priorityQueue.Pop()
		if candidate.distance > MatchGatePx {
			continue
		}
		if _, ok := usedCols[candidate.col]; ok {
			continue
		}
		usedCols[candidate.col] = struct{}{}
		matches = append(matches, candidate)
	}
	return matches
}
