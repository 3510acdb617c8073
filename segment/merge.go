package segment

import (
	"math"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// DefaultDepthThreshold is default merge sensitivity (same units as depth map, meters)
const DefaultDepthThreshold = 0.5

// MergeMask labels connected regions of the mask and merges regions whose mean depths differ by less than depthThreshold.
// Background stays 0, merged clusters are numbered densely from 1.
func MergeMask(mask *Mask, depth *DepthMap, depthThreshold float64) (*LabelGrid, error) {
	if err := SameShape(mask, depth); err != nil {
		return nil, errors.Wrap(err, "can't merge mask")
	}
	numLabels, labels := ConnectedComponents(mask)
	_, merged, err := MergeLabels(numLabels, labels, depth, depthThreshold)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// MergeLabels merges clusters of labeled grid by depth similarity. Input grid is left untouched.
// Returns next unused label of the merged grid together with the grid itself.
//
// Pairwise comparison is quadratic in numLabels: it is meant for scenes with a few dozen clusters.
func MergeLabels(numLabels int, labels *LabelGrid, depth *DepthMap, depthThreshold float64) (int, *LabelGrid, error) {
	if err := SameShape(labels, depth); err != nil {
		return 0, nil, errors.Wrap(err, "can't merge labels")
	}

	depths := ClusterDepths(numLabels, labels, depth)
	clusterLabels := make([]int, 0, len(depths))
	for lbl := 1; lbl < numLabels; lbl++ {
		if _, ok := depths[lbl]; ok {
			clusterLabels = append(clusterLabels, lbl)
		}
	}

	resolver := NewResolver()
	for i := range clusterLabels {
		for j := i + 1; j < len(clusterLabels); j++ {
			labelI, labelJ := clusterLabels[i], clusterLabels[j]
			if math.Abs(depths[labelI]-depths[labelJ]) < depthThreshold {
				resolver.Union(labelI, labelJ)
			}
		}
	}

	// Ascending scan over original labels, so roots (which are class minimums) get numbered deterministically
	labelMap := make(map[int]int)
	newLabel := 1
	for lbl := 1; lbl < numLabels; lbl++ {
		if _, ok := depths[lbl]; !ok {
			continue
		}
		root := resolver.Find(lbl)
		if _, ok := labelMap[root]; !ok {
			labelMap[root] = newLabel
			newLabel++
		}
	}

	merged := labels.Clone()
	for i, lbl := range merged.Data {
		if lbl <= 0 {
			continue
		}
		mapped, ok := labelMap[resolver.Find(lbl)]
		if !ok {
			return 0, nil, errors.Errorf("label %d is outside of [1, %d)", lbl, numLabels)
		}
		merged.Data[i] = mapped
	}
	return newLabel, merged, nil
}

// ClusterDepths computes mean depth of every label in [1, numLabels).
// Labels without pixels are left out of the result.
func ClusterDepths(numLabels int, labels *LabelGrid, depth *DepthMap) map[int]float64 {
	values := make([][]float64, numLabels)
	for i, lbl := range labels.Data {
		if lbl <= 0 || lbl >= numLabels {
			continue
		}
		values[lbl] = append(values[lbl], depth.Data[i])
	}
	depths := make(map[int]float64, numLabels)
	for lbl := 1; lbl < numLabels; lbl++ {
		if len(values[lbl]) == 0 {
			// Labeler output never has gaps, so this means the caller passed a wrong label count
			log.Error().Int("label", lbl).Int("num_labels", numLabels).Msg("cluster has no pixels, skipping depth average")
			continue
		}
		depths[lbl] = stat.Mean(values[lbl], nil)
	}
	return depths
}
