package models

import "fmt"

// Dims holds the NIfTI grid dimensions as x, y, z, t.
// Single-volume inputs carry t=1; the subject axis added during group
// analysis is never part of Dims.
type Dims [4]int

// Voxels returns the total number of voxels covered by the dimensions.
func (d Dims) Voxels() int {
	n := 1
	for _, v := range d {
		if v > 0 {
			n *= v
		}
	}
	return n
}

// Equal reports whether two dimension sets match exactly on every axis.
func (d Dims) Equal(other Dims) bool {
	return d == other
}

// String formats dimensions the way they appear in diagnostic output,
// e.g. "91x109x91x1".
func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%dx%d", d[0], d[1], d[2], d[3])
}

// StatMaps holds the result of a voxel-wise one-sample group analysis:
// a t-statistic map and a z-statistic map over the same grid as a single
// input volume, plus the degrees of freedom of the underlying t-test.
type StatMaps struct {
	// TStat is the per-voxel t-statistic as a flattened array in the
	// same voxel order as the input volumes.
	TStat []float64

	// ZStat is the per-voxel signed z-statistic derived from TStat.
	ZStat []float64

	// Dims are the grid dimensions shared by both maps.
	Dims Dims

	// DegreesOfFreedom is K-1 for K input subjects.
	DegreesOfFreedom int
}
