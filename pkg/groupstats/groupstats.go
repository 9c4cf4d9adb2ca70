// Package groupstats implements the voxel-wise one-sample group analysis:
// a t-test across subjects at every voxel, followed by a t-to-z statistic
// conversion in the style of FSL's group-level tools.
package groupstats

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"fmrigroup/internal/models"
	"fmrigroup/pkg/volume"
)

// Analyze runs a one-sample t-test at every voxel across the given subject
// volumes and converts the resulting t-statistics to signed z-statistics.
//
// For K subjects at each voxel:
//  1. mean and sample standard deviation (n-1 denominator) across subjects
//  2. standard error = std / sqrt(K)
//  3. t = mean / standard error, with 0 substituted where the standard
//     error is 0 (constant data) or the quotient is NaN or infinite
//  4. two-tailed p = 2 * T_sf(|t|, K-1)
//  5. z = inverse standard-normal survival of p, sign-matched to t,
//     with NaN and infinite results zeroed
//
// The sign restoration in step 5 reproduces the convention of the FSL-style
// conversion rather than the statistically exact signed transform; callers
// depend on that behavior.
//
// All volumes must share identical dimensions. At least two subjects are
// required, since a single subject leaves zero degrees of freedom.
func Analyze(vols []*volume.Volume) (*models.StatMaps, error) {
	if len(vols) < 2 {
		return nil, fmt.Errorf("group analysis requires at least 2 subjects, got %d", len(vols))
	}

	dims := vols[0].Dims
	for _, v := range vols[1:] {
		if !v.Dims.Equal(dims) {
			return nil, fmt.Errorf("volume %s has dimensions %s, expected %s", v.Path, v.Dims, dims)
		}
	}

	numSubjects := len(vols)
	numVoxels := dims.Voxels()
	df := numSubjects - 1

	fmt.Printf("Performing group analysis on %d subjects...\n", numSubjects)
	fmt.Printf("Data dimensions: %s\n", dims)
	startTime := time.Now()

	tStat := make([]float64, numVoxels)
	zStat := make([]float64, numVoxels)

	// One t-distribution for the whole run; only Survival is used, so no
	// random source is needed.
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}

	sample := make([]float64, numSubjects)
	for i := 0; i < numVoxels; i++ {
		for s, v := range vols {
			sample[s] = v.Data[i]
		}

		mean := stat.Mean(sample, nil)
		sd := stat.StdDev(sample, nil)
		se := sd / math.Sqrt(float64(numSubjects))

		t := 0.0
		if se != 0 {
			t = mean / se
		}
		if math.IsNaN(t) || math.IsInf(t, 0) {
			t = 0
		}
		tStat[i] = t

		// Two-tailed p-value, then the inverse standard-normal survival
		// function. -Quantile(p) rather than Quantile(1-p) keeps precision
		// for very small p.
		p := 2 * tDist.Survival(math.Abs(t))
		z := sign(t) * -distuv.UnitNormal.Quantile(p)
		if math.IsNaN(z) || math.IsInf(z, 0) {
			z = 0
		}
		zStat[i] = z
	}

	fmt.Printf("Group analysis completed in %.2f seconds.\n", time.Since(startTime).Seconds())

	return &models.StatMaps{
		TStat:            tStat,
		ZStat:            zStat,
		Dims:             dims,
		DegreesOfFreedom: df,
	}, nil
}

// sign returns 0 for a zero input, so a zero t-value propagates to a zero
// z-value instead of picking up the sign of -Inf.
func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
