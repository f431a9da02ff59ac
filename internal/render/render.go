// Package render draws the analysis figures with gonum/plot and writes
// them as PNG files through the fsutil filesystem abstraction. Each
// figure corresponds to one artifact kind recorded in the run history.
package render

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/lapdelta.report/internal/compare"
	"github.com/banshee-data/lapdelta.report/internal/fsutil"
	"github.com/banshee-data/lapdelta.report/internal/stats"
	"github.com/banshee-data/lapdelta.report/internal/telemetry"
	"github.com/banshee-data/lapdelta.report/internal/units"
)

// Artifact kinds produced by the renderer. They prefix the output
// filenames and key the artifact history.
const (
	KindFastestLaps   = "fastest_laps_comparison"
	KindTelemetryDiff = "telemetry_comparison"
	KindSpeedAnalysis = "speed_analysis"
)

// Fill and line colours for the delta figure.
var (
	deltaLineColor = color.RGBA{R: 0xFF, A: 0xFF}
	zeroLineColor  = color.NRGBA{A: 0x80}
	fillAheadColor = color.NRGBA{G: 0x80, A: 0x4D}
	fillBehindCol  = color.NRGBA{R: 0xFF, A: 0x4D}
)

// Slug makes an event name safe for filenames: surrounding whitespace is
// dropped and internal spaces become underscores ("Las Vegas" becomes
// "Las_Vegas").
func Slug(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

// FastestLapsFilename names the multi-channel overlay figure.
func FastestLapsFilename(event string, year int) string {
	return fmt.Sprintf("%s_%s_%d.png", KindFastestLaps, Slug(event), year)
}

// DeltaFilename names the two-driver speed delta figure.
func DeltaFilename(driverA, driverB, event string, year int) string {
	return fmt.Sprintf("%s_%s_vs_%s_%s_%d.png", KindTelemetryDiff, driverA, driverB, Slug(event), year)
}

// SpeedAnalysisFilename names the per-driver speed analysis figure.
func SpeedAnalysisFilename(event string, year int) string {
	return fmt.Sprintf("%s_%s_%d.png", KindSpeedAnalysis, Slug(event), year)
}

// Renderer draws analysis figures as PNG files. Speeds are converted
// from the km/h the telemetry carries into the configured display units.
type Renderer struct {
	fs    fsutil.FileSystem
	units string
	log   *zap.Logger
}

// NewRenderer creates a Renderer writing through fs. A nil fs falls back
// to the real filesystem, a nil logger to a no-op one.
func NewRenderer(fs fsutil.FileSystem, unit string, log *zap.Logger) *Renderer {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{fs: fs, units: unit, log: log}
}

// FastestLapsFigure draws the 2x2 overlay of speed, throttle, brake, and
// RPM against lap distance for every fetched driver. The output lands in
// dir and the full path is returned.
func (r *Renderer) FastestLapsFigure(dir string, series []*telemetry.Series, event string, year int) (string, error) {
	if len(series) < 2 {
		return "", fmt.Errorf("fastest laps figure needs at least 2 drivers, got %d", len(series))
	}

	title := fmt.Sprintf("%s %d", event, year)
	speed := newPanel(title+" - Speed", "Distance (m)", "Speed ("+units.Label(r.units)+")")
	throttle := newPanel(title+" - Throttle", "Distance (m)", "Throttle (%)")
	brake := newPanel(title+" - Brake", "Distance (m)", "Brake (%)")
	rpm := newPanel(title+" - RPM", "Distance (m)", "RPM")

	colors := palette(len(series))
	for i, s := range series {
		dists := s.Distances()

		speedLine, err := newLine(dists, r.convert(s.Speeds()), colors[i], vg.Points(2))
		if err != nil {
			return "", err
		}
		speed.Add(speedLine)
		speed.Legend.Add(fmt.Sprintf("%s (%s)", s.Driver, units.FormatLapTime(s.LapTime)), speedLine)

		throttleLine, err := newLine(dists, s.Throttles(), colors[i], vg.Points(2))
		if err != nil {
			return "", err
		}
		throttle.Add(throttleLine)
		throttle.Legend.Add(s.Driver, throttleLine)

		brakeLine, err := newLine(dists, s.Brakes(), colors[i], vg.Points(2))
		if err != nil {
			return "", err
		}
		brake.Add(brakeLine)
		brake.Legend.Add(s.Driver, brakeLine)

		rpmLine, err := newLine(dists, s.RPMs(), colors[i], vg.Points(2))
		if err != nil {
			return "", err
		}
		rpm.Add(rpmLine)
		rpm.Legend.Add(s.Driver, rpmLine)
	}

	img := vgimg.New(15*vg.Inch, 10*vg.Inch)
	tiles := draw.Tiles{
		Rows: 2, Cols: 2,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	panels := [][]*plot.Plot{{speed, throttle}, {brake, rpm}}
	canvases := plot.Align(panels, tiles, draw.New(img))
	for row := range panels {
		for col := range panels[row] {
			panels[row][col].Draw(canvases[row][col])
		}
	}

	path := filepath.Join(dir, FastestLapsFilename(event, year))
	if err := r.writePNG(img, path); err != nil {
		return "", err
	}
	r.log.Debug("wrote figure", zap.String("path", path), zap.Int("drivers", len(series)))
	return path, nil
}

// DeltaFigure draws the signed speed delta between two aligned laps.
// Regions where driver A carried more speed are shaded green, regions
// where driver B did red, with a dashed zero line for reference.
func (r *Renderer) DeltaFigure(dir string, cmp *compare.Comparison, event string, year int) (string, error) {
	if cmp == nil || len(cmp.Grid) == 0 {
		return "", fmt.Errorf("delta figure needs an aligned comparison")
	}

	p := newPanel(
		fmt.Sprintf("Speed Delta: %s vs %s (%s %d)", cmp.DriverA, cmp.DriverB, event, year),
		"Distance (m)",
		fmt.Sprintf("Speed Delta (%s)", units.Label(r.units)),
	)

	delta := r.convert(cmp.Delta)

	// Shading goes in first so the delta line stays on top of it.
	for _, region := range signRegions(cmp.Grid, delta, true) {
		poly, err := plotter.NewPolygon(region)
		if err != nil {
			return "", err
		}
		poly.Color = fillAheadColor
		poly.LineStyle.Width = 0
		p.Add(poly)
	}
	for _, region := range signRegions(cmp.Grid, delta, false) {
		poly, err := plotter.NewPolygon(region)
		if err != nil {
			return "", err
		}
		poly.Color = fillBehindCol
		poly.LineStyle.Width = 0
		p.Add(poly)
	}
	p.Legend.Add(cmp.DriverA+" faster", swatch{fillAheadColor})
	p.Legend.Add(cmp.DriverB+" faster", swatch{fillBehindCol})

	zero, err := newLine(
		[]float64{cmp.Grid[0], cmp.Grid[len(cmp.Grid)-1]},
		[]float64{0, 0},
		zeroLineColor, vg.Points(1),
	)
	if err != nil {
		return "", err
	}
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(zero)

	line, err := newLine(cmp.Grid, delta, deltaLineColor, vg.Points(3))
	if err != nil {
		return "", err
	}
	p.Add(line)

	img := vgimg.New(12*vg.Inch, 8*vg.Inch)
	p.Draw(draw.New(img))

	path := filepath.Join(dir, DeltaFilename(cmp.DriverA, cmp.DriverB, event, year))
	if err := r.writePNG(img, path); err != nil {
		return "", err
	}
	r.log.Debug("wrote figure", zap.String("path", path))
	return path, nil
}

// SpeedAnalysisFigure draws the 1x3 speed analysis: top speed per driver,
// average speed per driver, and overlaid speed distributions. Series
// without samples are skipped; at least one usable lap is required.
func (r *Renderer) SpeedAnalysisFigure(dir string, series []*telemetry.Series, event string, year int) (string, error) {
	usable := make([]*telemetry.Series, 0, len(series))
	for _, s := range series {
		if s != nil && len(s.Samples) > 0 {
			usable = append(usable, s)
		}
	}
	if len(usable) == 0 {
		return "", fmt.Errorf("speed analysis needs at least one usable lap")
	}
	summaries := stats.SummarizeAll(usable)

	title := fmt.Sprintf("%s %d", event, year)
	unitLabel := units.Label(r.units)

	names := make([]string, len(summaries))
	maxVals := make([]float64, len(summaries))
	meanVals := make([]float64, len(summaries))
	for i, s := range summaries {
		names[i] = s.Driver
		maxVals[i] = units.ConvertSpeed(s.Max, r.units)
		meanVals[i] = units.ConvertSpeed(s.Mean, r.units)
	}

	maxPanel, err := barPanel(title+" - Top Speed", "Speed ("+unitLabel+")", names, maxVals, palette(len(names)))
	if err != nil {
		return "", err
	}
	meanPanel, err := barPanel(title+" - Average Speed", "Speed ("+unitLabel+")", names, meanVals, meanBarPalette)
	if err != nil {
		return "", err
	}

	hist := plot.New()
	hist.Title.Text = title + " - Speed Distribution"
	hist.X.Label.Text = "Speed (" + unitLabel + ")"
	hist.Y.Label.Text = "Samples"
	hist.Legend.Top = true
	hist.Legend.Left = false
	hist.Legend.XOffs = -10
	hist.Legend.YOffs = -10

	colors := palette(len(usable))
	for i, s := range usable {
		h, err := plotter.NewHist(plotter.Values(r.convert(s.Speeds())), 30)
		if err != nil {
			return "", err
		}
		h.FillColor = withAlpha(colors[i], 0x99)
		hist.Add(h)
		hist.Legend.Add(s.Driver, swatch{h.FillColor})
	}

	img := vgimg.New(18*vg.Inch, 6*vg.Inch)
	tiles := draw.Tiles{
		Rows: 1, Cols: 3,
		PadX: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	panels := [][]*plot.Plot{{maxPanel, meanPanel, hist}}
	canvases := plot.Align(panels, tiles, draw.New(img))
	for col := range panels[0] {
		panels[0][col].Draw(canvases[0][col])
	}

	path := filepath.Join(dir, SpeedAnalysisFilename(event, year))
	if err := r.writePNG(img, path); err != nil {
		return "", err
	}
	r.log.Debug("wrote figure", zap.String("path", path), zap.Int("drivers", len(usable)))
	return path, nil
}

// newPanel builds one axis in the house style: titled, labelled, light
// grid, legend tucked into the top right corner.
func newPanel(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p
}

// newLine builds a styled line from parallel x and y slices.
func newLine(xs, ys []float64, c color.Color, w vg.Length) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = c
	line.Width = w
	return line, nil
}

// barPanel draws one bar per driver with a value label above it. Each
// bar is its own chart so each driver keeps its own colour.
func barPanel(title, yLabel string, names []string, values []float64, colors []color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel

	for i, v := range values {
		vals := make(plotter.Values, len(values))
		vals[i] = v
		bars, err := plotter.NewBarChart(vals, vg.Points(40))
		if err != nil {
			return nil, err
		}
		bars.Color = colors[i%len(colors)]
		bars.LineStyle.Width = 0
		p.Add(bars)
	}

	xyl := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(values)),
		Labels: make([]string, len(values)),
	}
	for i, v := range values {
		xyl.XYs[i] = plotter.XY{X: float64(i), Y: v + 1}
		xyl.Labels[i] = fmt.Sprintf("%.1f", v)
	}
	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
	}
	p.Add(labels)

	p.NominalX(names...)
	return p, nil
}

// signRegions splits the delta curve into closed polygons covering each
// contiguous run on the requested side of zero. Each region traces the
// curve and closes back along the zero axis.
func signRegions(grid, delta []float64, positive bool) []plotter.XYs {
	var regions []plotter.XYs
	var current plotter.XYs
	for i := range delta {
		inside := delta[i] > 0
		if !positive {
			inside = delta[i] < 0
		}
		switch {
		case inside && len(current) == 0:
			current = plotter.XYs{{X: grid[i], Y: 0}, {X: grid[i], Y: delta[i]}}
		case inside:
			current = append(current, plotter.XY{X: grid[i], Y: delta[i]})
		case len(current) > 0:
			current = append(current, plotter.XY{X: grid[i-1], Y: 0})
			regions = append(regions, current)
			current = nil
		}
	}
	if len(current) > 0 {
		current = append(current, plotter.XY{X: grid[len(grid)-1], Y: 0})
		regions = append(regions, current)
	}
	return regions
}

// writePNG encodes the canvas through the configured filesystem so tests
// can render into memory.
func (r *Renderer) writePNG(img *vgimg.Canvas, path string) error {
	w, err := r.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// convert maps a km/h channel into the renderer's display units.
func (r *Renderer) convert(kph []float64) []float64 {
	out := make([]float64, len(kph))
	for i, v := range kph {
		out[i] = units.ConvertSpeed(v, r.units)
	}
	return out
}
