// Package pipeline turns segmentation masks and depth maps of a video stream into tracked objects.
//
// Every configured class goes through selection, cleaning, optional depth trimming, depth-based
// cluster merging and measurement. Detections of all classes are then fed to a single tracker.
package pipeline

import (
	"github.com/LdDl/sidewalk-go/config"
	"github.com/LdDl/sidewalk-go/measure"
	"github.com/LdDl/sidewalk-go/mot"
	"github.com/LdDl/sidewalk-go/segment"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Frame is a single input frame
type Frame struct {
	Index int
	Mask  *segment.Mask
	Depth *segment.DepthMap
	// Camera yaw, degrees clockwise from north
	Yaw float64
	// Camera position (lon, lat). Zero value disables geographic projection
	Observer orb.Point
}

// FrameResult is the outcome of a processed frame
type FrameResult struct {
	Index      int
	Detections []mot.Detection
	// Copies of live tracked objects ordered by id. They are not affected by subsequent frames
	Objects []*mot.TrackedObject
}

// Processor runs frames of one video stream through the pipeline.
// It is not safe for concurrent use.
type Processor struct {
	cfg        *config.TuningConfig
	classes    map[string]uint8
	classNames []string
	tracker    *mot.CentroidTracker
	streamID   uuid.UUID
	logger     zerolog.Logger
}

// Option configures Processor
type Option func(*Processor)

// WithLogger sets logger. Processor adds stream id to every message
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithStreamID overrides randomly generated stream id
func WithStreamID(id uuid.UUID) Option {
	return func(p *Processor) {
		p.streamID = id
	}
}

// NewProcessor creates new Processor. Nil config means defaults
func NewProcessor(cfg *config.TuningConfig, options ...Option) (*Processor, error) {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Can't create processor")
	}
	p := &Processor{
		cfg:        cfg,
		classes:    cfg.GetClasses(),
		classNames: cfg.ClassNames(),
		tracker:    mot.NewCentroidTracker(cfg.GetMaxDisappeared()),
		streamID:   uuid.New(),
		logger:     zerolog.Nop(),
	}
	for _, option := range options {
		option(p)
	}
	p.logger = p.logger.With().Str("stream", p.streamID.String()).Logger()
	return p, nil
}

// StreamID returns identifier of the stream served by processor
func (p *Processor) StreamID() uuid.UUID {
	return p.streamID
}

// Tracker returns underlying tracker
func (p *Processor) Tracker() *mot.CentroidTracker {
	return p.tracker
}

// ProcessFrame extracts detections of every configured class and updates the tracker with them
func (p *Processor) ProcessFrame(frame Frame) (*FrameResult, error) {
	if frame.Mask == nil || frame.Depth == nil {
		return nil, errors.Errorf("frame %d: mask and depth are required", frame.Index)
	}
	if err := segment.SameShape(frame.Mask, frame.Depth); err != nil {
		return nil, errors.Wrapf(err, "frame %d", frame.Index)
	}
	logger := p.logger.With().Int("frame", frame.Index).Logger()

	detections := []mot.Detection{}
	for _, className := range p.classNames {
		classDetections, err := p.detect(logger, frame, className, p.classes[className])
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d, class %s", frame.Index, className)
		}
		detections = append(detections, classDetections...)
	}

	objects, _, err := p.tracker.Update(detections)
	if err != nil {
		// Tracker state is complete for the frame, only smoothing was restarted
		logger.Warn().Err(err).Msg("centroid smoothing restarted")
	}

	result := &FrameResult{
		Index:      frame.Index,
		Detections: detections,
		Objects:    make([]*mot.TrackedObject, 0, len(objects)),
	}
	for _, objectID := range p.tracker.IDs() {
		snapshot := *objects[objectID]
		result.Objects = append(result.Objects, &snapshot)
	}
	logger.Debug().Int("detections", len(detections)).Int("objects", len(result.Objects)).Msg("frame processed")
	return result, nil
}

func (p *Processor) detect(logger zerolog.Logger, frame Frame, className string, classValue uint8) ([]mot.Detection, error) {
	mask, err := segment.Clean(segment.Select(frame.Mask, classValue), p.cfg.GetKernelSize())
	if err != nil {
		return nil, err
	}
	if p.cfg.GetTrimEnabled() {
		mask, err = segment.Trim(mask, frame.Depth, 1, p.cfg.GetTrimThreshold())
		if err != nil {
			return nil, errors.Wrap(err, "Can't trim mask")
		}
	}

	numLabels, labels := segment.ConnectedComponents(mask)
	nextLabel, merged, err := segment.MergeLabels(numLabels, labels, frame.Depth, p.cfg.GetDepthThreshold())
	if err != nil {
		return nil, errors.Wrap(err, "Can't merge clusters")
	}

	hasObserver := frame.Observer != orb.Point{}
	detections := make([]mot.Detection, 0, nextLabel-1)
	for label := 1; label < nextLabel; label++ {
		if segment.CountLabel(merged, label) < p.cfg.GetMinClusterPixels() {
			continue
		}
		cluster, err := measure.Measure(merged, label, frame.Depth, measure.DefaultOutlineTolerance)
		if err != nil {
			if !errors.Is(err, measure.ErrNoSidewalkEdges) {
				return nil, errors.Wrapf(err, "Can't measure cluster %d", label)
			}
			logger.Warn().Str("class", className).Int("cluster", label).Msg("can't estimate width: no edges at centroid row")
		}
		detection := mot.Detection{
			Name:     className,
			Centroid: cluster.Centroid,
			Polygon:  cluster.Polygon,
			Distance: cluster.Distance,
			Width:    cluster.Width,
			Heading:  measure.Heading(cluster.Centroid.X, frame.Mask.Width, frame.Yaw, p.cfg.GetHFOVDegrees()),
		}
		if hasObserver {
			detection.Location = measure.Locate(frame.Observer, detection.Heading, detection.Distance)
		}
		detections = append(detections, detection)
	}
	logger.Debug().Str("class", className).Int("clusters", nextLabel-1).Int("detections", len(detections)).Msg("class processed")
	return detections, nil
}
