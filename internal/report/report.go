// Package report writes a self-contained interactive HTML page for a
// comparison run: a speed overlay, the speed delta curve, and a lap time
// summary, rendered with go-echarts.
package report

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"

	"github.com/banshee-data/lapdelta.report/internal/compare"
	"github.com/banshee-data/lapdelta.report/internal/fsutil"
	"github.com/banshee-data/lapdelta.report/internal/render"
	"github.com/banshee-data/lapdelta.report/internal/stats"
	"github.com/banshee-data/lapdelta.report/internal/telemetry"
	"github.com/banshee-data/lapdelta.report/internal/units"
)

// KindReport is the artifact kind for the HTML report.
const KindReport = "telemetry_report"

// Charts stay responsive with a bounded point count; longer series are
// stride-downsampled.
const maxChartPoints = 2000

// Filename names the HTML report for an event and season.
func Filename(event string, year int) string {
	return fmt.Sprintf("%s_%s_%d.html", KindReport, render.Slug(event), year)
}

// Reporter writes HTML reports through a filesystem abstraction.
type Reporter struct {
	fs    fsutil.FileSystem
	units string
	log   *zap.Logger
}

// NewReporter creates a Reporter. A nil fs falls back to the real
// filesystem, a nil logger to a no-op one.
func NewReporter(fs fsutil.FileSystem, unit string, log *zap.Logger) *Reporter {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{fs: fs, units: unit, log: log}
}

// Write renders the report page into dir and returns the full path. The
// overlay and lap time charts cover every series; the delta chart is
// omitted when cmp is nil.
func (r *Reporter) Write(dir string, series []*telemetry.Series, cmp *compare.Comparison, event string, year int) (string, error) {
	if len(series) < 2 {
		return "", fmt.Errorf("report needs at least 2 drivers, got %d", len(series))
	}

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Telemetry Report - %s %d", event, year)
	page.AddCharts(r.speedChart(series, event, year))
	if cmp != nil {
		page.AddCharts(r.deltaChart(cmp))
	}
	page.AddCharts(r.lapTimeChart(series, event, year))

	path := filepath.Join(dir, Filename(event, year))
	w, err := r.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := page.Render(w); err != nil {
		w.Close()
		return "", fmt.Errorf("render report: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	r.log.Debug("wrote report", zap.String("path", path), zap.Int("drivers", len(series)))
	return path, nil
}

// speedChart overlays every driver's speed trace against lap distance.
func (r *Reporter) speedChart(series []*telemetry.Series, event string, year int) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Speed - %s %d", event, year),
			Subtitle: "fastest lap speed vs distance",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed (" + units.Label(r.units) + ")", Type: "value", Scale: opts.Bool(true)}),
	)

	for _, s := range series {
		stride := 1
		if len(s.Samples) > maxChartPoints {
			stride = int(math.Ceil(float64(len(s.Samples)) / float64(maxChartPoints)))
		}
		data := make([]opts.LineData, 0, len(s.Samples)/stride+1)
		for i := 0; i < len(s.Samples); i += stride {
			smp := s.Samples[i]
			data = append(data, opts.LineData{Value: []interface{}{
				round1(smp.Distance),
				round1(units.ConvertSpeed(smp.Speed, r.units)),
			}})
		}
		name := fmt.Sprintf("%s (%s)", s.Driver, units.FormatLapTime(s.LapTime))
		line.AddSeries(name, data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	}
	return line
}

// deltaChart plots the aligned speed delta with a zero reference line.
func (r *Reporter) deltaChart(cmp *compare.Comparison) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Speed Delta: %s vs %s", cmp.DriverA, cmp.DriverB),
			Subtitle: fmt.Sprintf("positive means %s carries more speed", cmp.DriverA),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed Delta (" + units.Label(r.units) + ")", Type: "value"}),
	)

	data := make([]opts.LineData, len(cmp.Grid))
	for i := range cmp.Grid {
		data[i] = opts.LineData{Value: []interface{}{
			round1(cmp.Grid[i]),
			round1(units.ConvertSpeed(cmp.Delta[i], r.units)),
		}}
	}
	line.AddSeries(
		fmt.Sprintf("%s - %s", cmp.DriverA, cmp.DriverB),
		data,
		charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "level", YAxis: 0}),
	)
	return line
}

// lapTimeChart summarises each driver's fastest lap as a labelled bar.
func (r *Reporter) lapTimeChart(series []*telemetry.Series, event string, year int) *charts.Bar {
	summaries := stats.SummarizeAll(series)

	x := make([]string, len(summaries))
	y := make([]opts.BarData, len(summaries))
	for i, s := range summaries {
		x[i] = s.Driver
		y[i] = opts.BarData{Value: round3(s.LapTime.Seconds())}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Lap Times",
			Subtitle: fmt.Sprintf("%s %d, fastest lap per driver", event, year),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("lap time (s)", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
