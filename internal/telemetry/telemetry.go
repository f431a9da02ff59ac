// Package telemetry defines the lap telemetry model shared by the provider,
// comparison, and rendering layers.
package telemetry

import (
	"fmt"
	"time"
)

// Sample is one telemetry measurement on a lap, positioned by distance
// travelled from the start of the lap.
type Sample struct {
	Distance float64 // metres from lap start
	Speed    float64 // km/h
	Throttle float64 // percent, 0-100
	Brake    float64 // percent; the car data feed reports 0 or 100
	RPM      float64
	Gear     int
	DRS      bool
}

// Series is the telemetry trace for one driver's lap. Samples are ordered
// by distance; distance-based analysis requires the order to be strictly
// increasing (see Validate).
type Series struct {
	Driver    string // three-letter driver code, e.g. "VER"
	LapNumber int
	LapTime   time.Duration
	Samples   []Sample
}

// Validate checks that the series is usable for distance-based analysis:
// at least two samples, with strictly increasing distance values.
func (s *Series) Validate() error {
	if s == nil {
		return fmt.Errorf("nil series")
	}
	if len(s.Samples) < 2 {
		return fmt.Errorf("series %q has %d samples, need at least 2", s.Driver, len(s.Samples))
	}
	for i := 1; i < len(s.Samples); i++ {
		if s.Samples[i].Distance <= s.Samples[i-1].Distance {
			return fmt.Errorf("series %q distance not strictly increasing at sample %d (%.3f after %.3f)",
				s.Driver, i, s.Samples[i].Distance, s.Samples[i-1].Distance)
		}
	}
	return nil
}

// MaxDistance returns the distance of the last sample, or 0 for an empty series.
func (s *Series) MaxDistance() float64 {
	if s == nil || len(s.Samples) == 0 {
		return 0
	}
	return s.Samples[len(s.Samples)-1].Distance
}

// Distances returns the distance channel as a slice.
func (s *Series) Distances() []float64 {
	return s.channel(func(smp Sample) float64 { return smp.Distance })
}

// Speeds returns the speed channel as a slice.
func (s *Series) Speeds() []float64 {
	return s.channel(func(smp Sample) float64 { return smp.Speed })
}

// Throttles returns the throttle channel as a slice.
func (s *Series) Throttles() []float64 {
	return s.channel(func(smp Sample) float64 { return smp.Throttle })
}

// Brakes returns the brake channel as a slice.
func (s *Series) Brakes() []float64 {
	return s.channel(func(smp Sample) float64 { return smp.Brake })
}

// RPMs returns the engine speed channel as a slice.
func (s *Series) RPMs() []float64 {
	return s.channel(func(smp Sample) float64 { return smp.RPM })
}

func (s *Series) channel(f func(Sample) float64) []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = f(smp)
	}
	return out
}

// DedupeDistances collapses runs of non-advancing distance values, keeping
// the last sample of each run. Car data feeds repeat distance while the
// car is stationary (grid, pit box) and can jitter backwards at very low
// speed; resampling needs strictly increasing distances.
func DedupeDistances(samples []Sample) []Sample {
	if len(samples) == 0 {
		return nil
	}

	out := make([]Sample, 0, len(samples))
	out = append(out, samples[0])
	for _, smp := range samples[1:] {
		// Same or earlier position: the newer sample wins, and anything it
		// backslid past goes with it.
		for len(out) > 0 && smp.Distance <= out[len(out)-1].Distance {
			out = out[:len(out)-1]
		}
		out = append(out, smp)
	}
	return out
}
