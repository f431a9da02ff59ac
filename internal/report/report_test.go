package report

import (
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/lapdelta.report/internal/compare"
	"github.com/banshee-data/lapdelta.report/internal/fsutil"
	"github.com/banshee-data/lapdelta.report/internal/telemetry"
	"github.com/banshee-data/lapdelta.report/internal/units"
)

func testLap(driver string, lapTime time.Duration, baseSpeed float64) *telemetry.Series {
	s := &telemetry.Series{Driver: driver, LapNumber: 7, LapTime: lapTime}
	for d := 0.0; d <= 1000; d += 20 {
		s.Samples = append(s.Samples, telemetry.Sample{
			Distance: d,
			Speed:    baseSpeed + 60*math.Sin(d/180),
			Throttle: 80,
			RPM:      11000,
			Gear:     7,
		})
	}
	return s
}

func TestWriteReport(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := NewReporter(fs, units.KPH, nil)

	a := testLap("VER", 92*time.Second+500*time.Millisecond, 250)
	b := testLap("HAM", 92*time.Second+900*time.Millisecond, 246)
	cmp, err := compare.Speeds(a, b, 100)
	if err != nil {
		t.Fatalf("compare.Speeds: %v", err)
	}

	path, err := r.Write("plots", []*telemetry.Series{a, b}, cmp, "Las Vegas", 2024)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := filepath.Join("plots", "telemetry_report_Las_Vegas_2024.html")
	if path != want {
		t.Errorf("expected path %s, got %s", want, path)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	html := string(data)

	for _, fragment := range []string{
		"<html",
		"echarts",
		"VER (1:32.500)",
		"HAM (1:32.900)",
		"Speed Delta: VER vs HAM",
		"Lap Times",
	} {
		if !strings.Contains(html, fragment) {
			t.Errorf("expected report to contain %q", fragment)
		}
	}
}

func TestWriteReportWithoutComparison(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := NewReporter(fs, units.KPH, nil)

	a := testLap("VER", 92*time.Second, 250)
	b := testLap("HAM", 93*time.Second, 246)

	path, err := r.Write("plots", []*telemetry.Series{a, b}, nil, "Monaco", 2023)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	html := string(data)

	if strings.Contains(html, "Speed Delta") {
		t.Error("expected no delta chart without a comparison")
	}
	if !strings.Contains(html, "Lap Times") {
		t.Error("expected lap time chart")
	}
}

func TestWriteReportTooFewDrivers(t *testing.T) {
	r := NewReporter(fsutil.NewMemoryFileSystem(), units.KPH, nil)

	series := []*telemetry.Series{testLap("VER", 92*time.Second, 250)}
	if _, err := r.Write("plots", series, nil, "Monaco", 2023); err == nil {
		t.Fatal("expected error for a single driver, got nil")
	}
}

func TestReportFilename(t *testing.T) {
	if got := Filename("Las Vegas", 2024); got != "telemetry_report_Las_Vegas_2024.html" {
		t.Errorf("unexpected filename %s", got)
	}
}
