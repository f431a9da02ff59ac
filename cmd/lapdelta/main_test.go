package main

import (
	"bytes"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/lapdelta.report/internal/config"
	"github.com/banshee-data/lapdelta.report/internal/db"
)

func TestSplitDrivers(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"VER,HAM,LEC", []string{"VER", "HAM", "LEC"}},
		{" ver , lec ", []string{"ver", "lec"}},
		{"VER,,HAM", []string{"VER", "HAM"}},
		{"", []string{}},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(tc.want, splitDrivers(tc.in)); diff != "" {
			t.Errorf("splitDrivers(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	for name, value := range map[string]string{
		"year":    "2023",
		"drivers": " ver , ham ",
		"units":   "mph",
	} {
		if err := flag.Set(name, value); err != nil {
			t.Fatalf("set -%s: %v", name, err)
		}
	}

	cfg := config.EmptyAnalysisConfig()
	applyFlagOverrides(cfg)

	if got := cfg.GetYear(); got != 2023 {
		t.Errorf("expected year 2023, got %d", got)
	}
	if diff := cmp.Diff([]string{"VER", "HAM"}, cfg.GetDrivers()); diff != "" {
		t.Errorf("drivers mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.GetUnits(); got != "mph" {
		t.Errorf("expected units mph, got %q", got)
	}
	// Flags left at their defaults must not mask config file values.
	if cfg.Event != nil {
		t.Errorf("expected event to stay unset, got %q", *cfg.Event)
	}
}

func TestPrintHistory(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "lapdelta.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	var buf bytes.Buffer
	if err := printHistory(&buf, database, 5); err != nil {
		t.Fatalf("printHistory on empty db: %v", err)
	}
	if !strings.Contains(buf.String(), "no artifacts recorded yet") {
		t.Errorf("expected empty notice, got:\n%s", buf.String())
	}

	art := &db.ReportArtifact{
		RunID:    "run-1",
		Kind:     "speed_analysis",
		Event:    "Las Vegas",
		Year:     2024,
		Session:  "Qualifying",
		Drivers:  "VER,HAM",
		Filepath: "plots",
		Filename: "speed_analysis_Las_Vegas_2024.png",
		Units:    "kph",
	}
	if err := database.CreateReportArtifact(art); err != nil {
		t.Fatalf("create artifact: %v", err)
	}

	buf.Reset()
	if err := printHistory(&buf, database, 5); err != nil {
		t.Fatalf("printHistory: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"speed_analysis", "Las Vegas", "VER,HAM", filepath.Join("plots", "speed_analysis_Las_Vegas_2024.png")} {
		if !strings.Contains(got, want) {
			t.Errorf("history output missing %q:\n%s", want, got)
		}
	}
}
