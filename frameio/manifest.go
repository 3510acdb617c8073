package frameio

import (
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FrameEntry describes files and camera pose of a single frame
type FrameEntry struct {
	Mask      string  `yaml:"mask"`
	Depth     string  `yaml:"depth"`
	Yaw       float64 `yaml:"yaw"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// Observer returns camera position as (lon, lat) point
func (entry FrameEntry) Observer() orb.Point {
	return orb.Point{entry.Longitude, entry.Latitude}
}

// Manifest is an ordered list of frames of one video stream
type Manifest struct {
	Frames []FrameEntry `yaml:"frames"`
}

// LoadManifest reads a YAML manifest. Relative file paths are resolved against the manifest directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read manifest")
	}
	manifest := &Manifest{}
	if err := yaml.Unmarshal(data, manifest); err != nil {
		return nil, errors.Wrap(err, "Can't parse manifest")
	}
	baseDir := filepath.Dir(path)
	for i := range manifest.Frames {
		entry := &manifest.Frames[i]
		if entry.Mask == "" || entry.Depth == "" {
			return nil, errors.Errorf("frame %d: mask and depth paths are required", i)
		}
		entry.Mask = resolve(baseDir, entry.Mask)
		entry.Depth = resolve(baseDir, entry.Depth)
	}
	return manifest, nil
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
