// Package stats derives summary speed statistics from lap telemetry.
package stats

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lapdelta.report/internal/telemetry"
)

// SpeedSummary describes the speed envelope of one lap.
type SpeedSummary struct {
	Driver  string
	LapTime time.Duration
	Max     float64 // km/h
	Min     float64
	Mean    float64
}

// Summarize computes the speed envelope for one lap. Fails on a series
// with no samples.
func Summarize(s *telemetry.Series) (SpeedSummary, error) {
	if s == nil || len(s.Samples) == 0 {
		return SpeedSummary{}, fmt.Errorf("no samples to summarize")
	}

	speeds := s.Speeds()
	return SpeedSummary{
		Driver:  s.Driver,
		LapTime: s.LapTime,
		Max:     floats.Max(speeds),
		Min:     floats.Min(speeds),
		Mean:    stat.Mean(speeds, nil),
	}, nil
}

// SummarizeAll computes envelopes for a set of laps, preserving input
// order. Series without samples are skipped.
func SummarizeAll(series []*telemetry.Series) []SpeedSummary {
	out := make([]SpeedSummary, 0, len(series))
	for _, s := range series {
		summary, err := Summarize(s)
		if err != nil {
			continue
		}
		out = append(out, summary)
	}
	return out
}
