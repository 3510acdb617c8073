package segment

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// DefaultTrimThreshold is default allowed deviation (meters) from the mean depth of the trimmed class
const DefaultTrimThreshold = 0.25

// Trim removes pixels whose depth is farther than threshold from the mean depth of pixels carrying label.
// Every pixel of the mask is tested, not only the labeled ones. The input mask is left untouched.
// When no pixel carries the label a plain copy is returned.
func Trim(mask *Mask, depth *DepthMap, label uint8, threshold float64) (*Mask, error) {
	if err := SameShape(mask, depth); err != nil {
		return nil, errors.Wrap(err, "can't trim mask")
	}
	values := make([]float64, 0)
	for i, v := range mask.Data {
		if v == label {
			values = append(values, depth.Data[i])
		}
	}
	trimmed := mask.Clone()
	if len(values) == 0 {
		return trimmed, nil
	}
	meanDepth := stat.Mean(values, nil)
	for i, d := range depth.Data {
		if math.Abs(d-meanDepth) > threshold {
			trimmed.Data[i] = 0
		}
	}
	return trimmed, nil
}
