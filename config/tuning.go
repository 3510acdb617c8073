package config

import (
	"encoding/json"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/LdDl/sidewalk-go/measure"
	"github.com/LdDl/sidewalk-go/mot"
	"github.com/LdDl/sidewalk-go/segment"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a configuration value is out of range
var ErrInvalid = errors.New("invalid configuration")

// DefaultSidewalkClass is the mask value of the sidewalk class
const DefaultSidewalkClass = 1

const maxFileSize = 1 * 1024 * 1024 // 1MB

// TuningConfig holds processing parameters.
// Every field is optional: Get* methods fall back to defaults for fields that were not set,
// so partial configs are safe.
type TuningConfig struct {
	// Cluster merging
	DepthThreshold *float64 `json:"depth_threshold,omitempty" yaml:"depth_threshold,omitempty"`

	// Tracker
	MaxDisappeared *int `json:"max_disappeared,omitempty" yaml:"max_disappeared,omitempty"`

	// Mask cleaning. 0 or 1 disables it
	KernelSize *int `json:"kernel_size,omitempty" yaml:"kernel_size,omitempty"`

	// Depth based pruning
	TrimEnabled   *bool    `json:"trim_enabled,omitempty" yaml:"trim_enabled,omitempty"`
	TrimThreshold *float64 `json:"trim_threshold,omitempty" yaml:"trim_threshold,omitempty"`

	// Clusters with fewer pixels are not measured
	MinClusterPixels *int `json:"min_cluster_pixels,omitempty" yaml:"min_cluster_pixels,omitempty"`

	// Camera
	HFOVDegrees *float64 `json:"hfov_degrees,omitempty" yaml:"hfov_degrees,omitempty"`
	DepthScale  *float64 `json:"depth_scale,omitempty" yaml:"depth_scale,omitempty"` // raw depth unit to meters

	// Class name to mask value
	Classes map[string]uint8 `json:"classes,omitempty" yaml:"classes,omitempty"`

	LogLevel *string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to its default
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		DepthThreshold:   ptrFloat64(empty.GetDepthThreshold()),
		MaxDisappeared:   ptrInt(empty.GetMaxDisappeared()),
		KernelSize:       ptrInt(empty.GetKernelSize()),
		TrimEnabled:      ptrBool(empty.GetTrimEnabled()),
		TrimThreshold:    ptrFloat64(empty.GetTrimThreshold()),
		MinClusterPixels: ptrInt(empty.GetMinClusterPixels()),
		HFOVDegrees:      ptrFloat64(empty.GetHFOVDegrees()),
		DepthScale:       ptrFloat64(empty.GetDepthScale()),
		Classes:          empty.GetClasses(),
		LogLevel:         ptrString(empty.GetLogLevel()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON or YAML file.
// Format is picked by extension: .json, .yaml or .yml. File must be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, errors.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat config file")
	}
	if fileInfo.Size() > maxFileSize {
		return nil, errors.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", filepath.Base(cleanPath))
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid
func (c *TuningConfig) Validate() error {
	// Zero threshold is valid and disables merging
	if c.DepthThreshold != nil && (*c.DepthThreshold < 0 || math.IsNaN(*c.DepthThreshold)) {
		return errors.Wrapf(ErrInvalid, "depth_threshold must be non-negative, got %f", *c.DepthThreshold)
	}
	if c.MaxDisappeared != nil && *c.MaxDisappeared < 0 {
		return errors.Wrapf(ErrInvalid, "max_disappeared must be non-negative, got %d", *c.MaxDisappeared)
	}
	if c.KernelSize != nil && *c.KernelSize < 0 {
		return errors.Wrapf(ErrInvalid, "kernel_size must be non-negative, got %d", *c.KernelSize)
	}
	if c.TrimThreshold != nil && *c.TrimThreshold < 0 {
		return errors.Wrapf(ErrInvalid, "trim_threshold must be non-negative, got %f", *c.TrimThreshold)
	}
	if c.MinClusterPixels != nil && *c.MinClusterPixels < 0 {
		return errors.Wrapf(ErrInvalid, "min_cluster_pixels must be non-negative, got %d", *c.MinClusterPixels)
	}
	if c.HFOVDegrees != nil && (*c.HFOVDegrees <= 0 || *c.HFOVDegrees > 360) {
		return errors.Wrapf(ErrInvalid, "hfov_degrees must be in (0, 360], got %f", *c.HFOVDegrees)
	}
	if c.DepthScale != nil && *c.DepthScale <= 0 {
		return errors.Wrapf(ErrInvalid, "depth_scale must be positive, got %f", *c.DepthScale)
	}
	if c.LogLevel != nil && *c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(*c.LogLevel); err != nil {
			return errors.Wrapf(ErrInvalid, "unknown log_level %q", *c.LogLevel)
		}
	}
	for name, value := range c.Classes {
		if name == "" {
			return errors.Wrap(ErrInvalid, "class name must not be empty")
		}
		if value == 0 {
			return errors.Wrapf(ErrInvalid, "class %q: mask value 0 is reserved for background", name)
		}
	}
	return nil
}

// GetDepthThreshold returns the depth_threshold value or the default.
func (c *TuningConfig) GetDepthThreshold() float64 {
	if c.DepthThreshold == nil {
		return segment.DefaultDepthThreshold
	}
	return *c.DepthThreshold
}

// GetMaxDisappeared returns the max_disappeared value or the default.
func (c *TuningConfig) GetMaxDisappeared() int {
	if c.MaxDisappeared == nil {
		return mot.DefaultMaxDisappeared
	}
	return *c.MaxDisappeared
}

// GetKernelSize returns the kernel_size value or the default.
func (c *TuningConfig) GetKernelSize() int {
	if c.KernelSize == nil {
		return segment.DefaultKernelSize
	}
	return *c.KernelSize
}

// GetTrimEnabled returns the trim_enabled value or the default.
func (c *TuningConfig) GetTrimEnabled() bool {
	if c.TrimEnabled == nil {
		return false // default: trimming disabled
	}
	return *c.TrimEnabled
}

// GetTrimThreshold returns the trim_threshold value or the default.
func (c *TuningConfig) GetTrimThreshold() float64 {
	if c.TrimThreshold == nil {
		return segment.DefaultTrimThreshold
	}
	return *c.TrimThreshold
}

// GetMinClusterPixels returns the min_cluster_pixels value or the default.
func (c *TuningConfig) GetMinClusterPixels() int {
	if c.MinClusterPixels == nil {
		return 1
	}
	return *c.MinClusterPixels
}

// GetHFOVDegrees returns the hfov_degrees value or the default.
func (c *TuningConfig) GetHFOVDegrees() float64 {
	if c.HFOVDegrees == nil {
		return measure.DefaultHFOV
	}
	return *c.HFOVDegrees
}

// GetDepthScale returns the depth_scale value or the default.
func (c *TuningConfig) GetDepthScale() float64 {
	if c.DepthScale == nil {
		return 0.001 // millimeters
	}
	return *c.DepthScale
}

// GetClasses returns a copy of the classes map or the default one with the sidewalk class only.
func (c *TuningConfig) GetClasses() map[string]uint8 {
	if len(c.Classes) == 0 {
		return map[string]uint8{"sidewalk": DefaultSidewalkClass}
	}
	return maps.Clone(c.Classes)
}

// ClassNames returns configured class names in sorted order
func (c *TuningConfig) ClassNames() []string {
	return slices.Sorted(maps.Keys(c.GetClasses()))
}

// GetLogLevel returns the log_level value or the default.
func (c *TuningConfig) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return "info"
	}
	return *c.LogLevel
}

// ZerologLevel returns parsed log level. Unknown values fall back to info
func (c *TuningConfig) ZerologLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
