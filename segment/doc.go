// Package segment turns per-frame class masks into depth-consistent clusters.
//
// Pipeline for a single class: Select -> Clean -> Trim (optional) -> MergeMask.
// MergeMask labels 8-connected regions with ConnectedComponents and then joins regions
// whose mean depths are closer than a threshold, so one physical surface split by noise gets one label.
package segment
