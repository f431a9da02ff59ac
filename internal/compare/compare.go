// Package compare aligns two lap telemetry series onto a shared distance
// grid and quantifies the speed difference between them.
//
// Laps are sampled irregularly and at different distances, so direct
// pointwise comparison is meaningless. The pipeline here builds a common
// grid over the distance range both laps cover, resamples each lap's
// speed onto it by linear interpolation, and derives a signed delta curve
// with summary statistics.
package compare

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lapdelta.report/internal/telemetry"
)

var (
	// ErrInvalidSeries marks telemetry that cannot be resampled: fewer
	// than two samples, non-increasing distances, or no shared range.
	ErrInvalidSeries = errors.New("invalid telemetry series")

	// ErrLengthMismatch marks resampled channels whose lengths differ.
	ErrLengthMismatch = errors.New("length mismatch")
)

// DeltaStats summarises a signed delta curve.
type DeltaStats struct {
	// MeanAbs is the average absolute difference across the grid.
	MeanAbs float64
	// MaxPositive is the largest positive delta (driver A's best
	// advantage), or 0 when A is never ahead.
	MaxPositive float64
	// MaxNegative is driver B's best advantage as a positive magnitude,
	// or 0 when B is never ahead.
	MaxNegative float64
}

// Comparison holds two laps aligned on a common distance grid and the
// signed speed delta between them. Positive delta means driver A carried
// more speed at that point on track.
type Comparison struct {
	DriverA  string
	DriverB  string
	LapTimeA time.Duration
	LapTimeB time.Duration

	Grid   []float64 // metres, shared axis
	SpeedA []float64 // km/h, resampled onto Grid
	SpeedB []float64
	Delta  []float64 // SpeedA[i] - SpeedB[i]

	Stats DeltaStats
}

// BuildCommonGrid returns pointCount evenly spaced distances covering the
// range both series share: [0, min(maxDistanceA, maxDistanceB)]. The grid
// starts at exactly 0 and ends at exactly the shared limit.
func BuildCommonGrid(a, b *telemetry.Series, pointCount int) ([]float64, error) {
	if pointCount < 2 {
		return nil, fmt.Errorf("grid needs at least 2 points, got %d", pointCount)
	}
	if err := validate(a); err != nil {
		return nil, err
	}
	if err := validate(b); err != nil {
		return nil, err
	}

	limit := math.Min(a.MaxDistance(), b.MaxDistance())
	if limit <= 0 {
		return nil, fmt.Errorf("%w: no shared distance range (limit %.3f)", ErrInvalidSeries, limit)
	}

	grid := make([]float64, pointCount)
	for i := range grid {
		grid[i] = limit * float64(i) / float64(pointCount-1)
	}
	return grid, nil
}

// Resample interpolates the series' speed channel at each grid distance.
// Grid points outside the sampled range hold the boundary value rather
// than extrapolating.
func Resample(s *telemetry.Series, grid []float64) ([]float64, error) {
	if err := validate(s); err != nil {
		return nil, err
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(s.Distances(), s.Speeds()); err != nil {
		// validate() already enforces Fit's preconditions.
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeries, err)
	}

	out := make([]float64, len(grid))
	for i, d := range grid {
		out[i] = pl.Predict(d)
	}
	return out, nil
}

// DiffAndStats computes the signed pointwise difference a-b and its
// summary statistics. Pure; both inputs must have the same non-zero
// length or it fails with ErrLengthMismatch.
func DiffAndStats(a, b []float64) ([]float64, DeltaStats, error) {
	var stats DeltaStats
	if len(a) != len(b) {
		return nil, stats, fmt.Errorf("%w: %d vs %d points", ErrLengthMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return nil, stats, fmt.Errorf("%w: empty input", ErrLengthMismatch)
	}

	delta := make([]float64, len(a))
	floats.SubTo(delta, a, b)

	abs := make([]float64, len(delta))
	for i, d := range delta {
		abs[i] = math.Abs(d)
	}

	stats = DeltaStats{
		MeanAbs:     stat.Mean(abs, nil),
		MaxPositive: math.Max(0, floats.Max(delta)),
		MaxNegative: math.Max(0, -floats.Min(delta)),
	}
	return delta, stats, nil
}

// Speeds runs the full alignment pipeline for two laps: common grid,
// resample both, diff. pointCount controls grid density.
func Speeds(a, b *telemetry.Series, pointCount int) (*Comparison, error) {
	grid, err := BuildCommonGrid(a, b, pointCount)
	if err != nil {
		return nil, err
	}

	speedA, err := Resample(a, grid)
	if err != nil {
		return nil, err
	}
	speedB, err := Resample(b, grid)
	if err != nil {
		return nil, err
	}

	delta, stats, err := DiffAndStats(speedA, speedB)
	if err != nil {
		return nil, err
	}

	return &Comparison{
		DriverA:  a.Driver,
		DriverB:  b.Driver,
		LapTimeA: a.LapTime,
		LapTimeB: b.LapTime,
		Grid:     grid,
		SpeedA:   speedA,
		SpeedB:   speedB,
		Delta:    delta,
		Stats:    stats,
	}, nil
}

func validate(s *telemetry.Series) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSeries, err)
	}
	return nil
}
