// Package analysis orchestrates a comparison run end to end: resolve the
// session, fetch every configured driver's fastest lap, render the figures
// the fetched data supports, and record the artifacts.
package analysis

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/banshee-data/lapdelta.report/internal/compare"
	"github.com/banshee-data/lapdelta.report/internal/config"
	"github.com/banshee-data/lapdelta.report/internal/db"
	"github.com/banshee-data/lapdelta.report/internal/fsutil"
	"github.com/banshee-data/lapdelta.report/internal/openf1"
	"github.com/banshee-data/lapdelta.report/internal/render"
	"github.com/banshee-data/lapdelta.report/internal/report"
	"github.com/banshee-data/lapdelta.report/internal/stats"
	"github.com/banshee-data/lapdelta.report/internal/telemetry"
	"github.com/banshee-data/lapdelta.report/internal/timeutil"
	"github.com/banshee-data/lapdelta.report/internal/units"
)

// SessionProvider resolves a session and fetches per-driver fastest-lap
// telemetry. *openf1.Provider is the production implementation.
type SessionProvider interface {
	ResolveSession(ctx context.Context, year int, event string, sessionType telemetry.SessionType) (*openf1.Session, error)
	FetchFastestLap(ctx context.Context, session *openf1.Session, driverCode string) (*telemetry.Series, error)
}

// Runner executes one analysis run.
type Runner struct {
	cfg      *config.AnalysisConfig
	provider SessionProvider
	db       *db.DB
	renderer *render.Renderer
	reporter *report.Reporter
	fs       fsutil.FileSystem
	clock    timeutil.Clock
	log      *zap.Logger
	out      io.Writer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithFileSystem replaces the filesystem figures and reports are written
// through.
func WithFileSystem(fs fsutil.FileSystem) RunnerOption {
	return func(r *Runner) { r.fs = fs }
}

// WithClock replaces the wall clock used to judge cache expiry.
func WithClock(c timeutil.Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// WithLogger sets the runner's logger.
func WithLogger(log *zap.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// WithOutput redirects the human-readable run summary (stats lines and
// the speed table) away from stdout.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) { r.out = w }
}

// NewRunner wires a runner from its parts. The renderer and reporter are
// built from the configured units and the runner's filesystem, so options
// are applied first.
func NewRunner(cfg *config.AnalysisConfig, provider SessionProvider, database *db.DB, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:      cfg,
		provider: provider,
		db:       database,
		fs:       fsutil.OSFileSystem{},
		clock:    timeutil.RealClock{},
		log:      zap.NewNop(),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.renderer = render.NewRenderer(r.fs, cfg.GetUnits(), r.log)
	r.reporter = report.NewReporter(r.fs, cfg.GetUnits(), r.log)
	return r
}

// Result summarises a completed run.
type Result struct {
	RunID      string
	Session    *openf1.Session
	Fetched    []*telemetry.Series // configured order, failed drivers omitted
	Skipped    []string            // driver codes with no usable telemetry
	Comparison *compare.Comparison // nil when fewer than two drivers fetched
	Artifacts  []db.ReportArtifact
}

// Run performs a full analysis. It returns an error only when the
// environment fails (output directory, session resolution, writing a
// figure, or no driver yielding telemetry) or when the comparison
// itself reports invalid data; individual drivers and analyses that
// lack data are skipped with a logged reason and the run continues.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	year := r.cfg.GetYear()
	event := r.cfg.GetEvent()
	log := r.log.With(zap.String("run_id", res.RunID), zap.String("event", event), zap.Int("year", year))

	if ttl := r.cfg.GetCacheTTL(); ttl > 0 {
		if n, err := r.db.PurgeExpiredResponses(ttl, r.clock.Now()); err != nil {
			log.Warn("cache purge failed", zap.Error(err))
		} else if n > 0 {
			log.Debug("purged expired cache entries", zap.Int64("count", n))
		}
	}

	plotsDir := r.cfg.GetPlotsDir()
	if err := r.fs.MkdirAll(plotsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create plots dir %s: %w", plotsDir, err)
	}

	session, err := r.provider.ResolveSession(ctx, year, event, r.cfg.GetSession())
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	res.Session = session
	log.Info("session resolved",
		zap.Int("session_key", session.SessionKey),
		zap.String("location", session.Location))

	res.Fetched, res.Skipped = r.fetchAll(ctx, session)
	if len(res.Fetched) == 0 {
		return nil, fmt.Errorf("no usable telemetry for any of %s", strings.Join(r.cfg.GetDrivers(), ", "))
	}

	if len(res.Fetched) >= 2 {
		path, err := r.renderer.FastestLapsFigure(plotsDir, res.Fetched, event, year)
		if err != nil {
			return nil, fmt.Errorf("fastest laps figure: %w", err)
		}
		r.record(res, render.KindFastestLaps, path, driverCodes(res.Fetched))
	} else {
		log.Warn("overview figure skipped", zap.Int("drivers", len(res.Fetched)))
	}

	if len(res.Fetched) >= 2 {
		a, b := res.Fetched[0], res.Fetched[1]
		cmp, err := compare.Speeds(a, b, r.cfg.GetGridPoints())
		if err != nil {
			return nil, fmt.Errorf("compare %s vs %s: %w", a.Driver, b.Driver, err)
		}
		res.Comparison = cmp
		path, err := r.renderer.DeltaFigure(plotsDir, cmp, event, year)
		if err != nil {
			return nil, fmt.Errorf("delta figure: %w", err)
		}
		r.record(res, render.KindTelemetryDiff, path, []string{a.Driver, b.Driver})
		r.printDeltaStats(cmp)
	} else {
		log.Warn("comparison skipped", zap.Int("drivers", len(res.Fetched)))
		fmt.Fprintf(r.out, "comparison skipped: only %d driver(s) with usable telemetry\n", len(res.Fetched))
	}

	path, err := r.renderer.SpeedAnalysisFigure(plotsDir, res.Fetched, event, year)
	if err != nil {
		return nil, fmt.Errorf("speed analysis figure: %w", err)
	}
	r.record(res, render.KindSpeedAnalysis, path, driverCodes(res.Fetched))
	r.printSpeedTable(res.Fetched)

	if len(res.Fetched) >= 2 && r.cfg.GetHTMLReport() {
		path, err := r.reporter.Write(plotsDir, res.Fetched, res.Comparison, event, year)
		if err != nil {
			return nil, fmt.Errorf("html report: %w", err)
		}
		r.record(res, report.KindReport, path, driverCodes(res.Fetched))
	}

	arts, err := r.db.GetArtifactsForRun(res.RunID)
	if err != nil {
		log.Warn("listing run artifacts failed", zap.Error(err))
	} else {
		res.Artifacts = arts
	}
	log.Info("run complete",
		zap.Int("drivers", len(res.Fetched)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("artifacts", len(res.Artifacts)))
	return res, nil
}

// fetchAll fetches every configured driver's fastest lap concurrently.
// Each goroutine writes its own result slot, so the configured driver
// order survives the fan-out. Drivers whose fetch failed are logged and
// returned in the skipped list, never failing the siblings.
func (r *Runner) fetchAll(ctx context.Context, session *openf1.Session) ([]*telemetry.Series, []string) {
	drivers := r.cfg.GetDrivers()
	results := make([]*telemetry.Series, len(drivers))
	errs := make([]error, len(drivers))

	wg := sync.WaitGroup{}
	for i := range drivers {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			series, err := r.provider.FetchFastestLap(ctx, session, drivers[idx])
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx] = series
		}(i)
	}
	wg.Wait()

	fetched := make([]*telemetry.Series, 0, len(drivers))
	var skipped []string
	for i, s := range results {
		if s == nil {
			r.log.Warn("driver skipped", zap.String("driver", drivers[i]), zap.Error(errs[i]))
			fmt.Fprintf(r.out, "warning: no telemetry for %s: %v\n", drivers[i], errs[i])
			skipped = append(skipped, drivers[i])
			continue
		}
		fetched = append(fetched, s)
	}
	return fetched, skipped
}

func (r *Runner) record(res *Result, kind, path string, drivers []string) {
	art := &db.ReportArtifact{
		RunID:    res.RunID,
		Kind:     kind,
		Event:    r.cfg.GetEvent(),
		Year:     r.cfg.GetYear(),
		Session:  r.cfg.GetSession().String(),
		Drivers:  strings.Join(drivers, ","),
		Filepath: filepath.Dir(path),
		Filename: filepath.Base(path),
		Units:    r.cfg.GetUnits(),
	}
	if err := r.db.CreateReportArtifact(art); err != nil {
		r.log.Warn("recording artifact failed", zap.String("kind", kind), zap.Error(err))
	}
}

// printDeltaStats writes the comparison summary lines in the configured
// units.
func (r *Runner) printDeltaStats(cmp *compare.Comparison) {
	unit := r.cfg.GetUnits()
	label := units.Label(unit)
	fmt.Fprintf(r.out, "\nComparison: %s vs %s\n", cmp.DriverA, cmp.DriverB)
	fmt.Fprintf(r.out, "  %s lap time: %s\n", cmp.DriverA, units.FormatLapTime(cmp.LapTimeA))
	fmt.Fprintf(r.out, "  %s lap time: %s (%s)\n", cmp.DriverB, units.FormatLapTime(cmp.LapTimeB), units.FormatDelta(cmp.LapTimeB-cmp.LapTimeA))
	fmt.Fprintf(r.out, "  mean abs speed delta: %.2f %s\n", units.ConvertSpeed(cmp.Stats.MeanAbs, unit), label)
	fmt.Fprintf(r.out, "  max %s advantage: %.2f %s\n", cmp.DriverA, units.ConvertSpeed(cmp.Stats.MaxPositive, unit), label)
	fmt.Fprintf(r.out, "  max %s advantage: %.2f %s\n", cmp.DriverB, units.ConvertSpeed(cmp.Stats.MaxNegative, unit), label)
}

// printSpeedTable writes the per-driver speed summary as a rounded table.
func (r *Runner) printSpeedTable(series []*telemetry.Series) {
	unit := r.cfg.GetUnits()
	label := units.Label(unit)

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Driver", "Max (" + label + ")", "Min (" + label + ")", "Avg (" + label + ")", "Lap Time"})
	for _, s := range stats.SummarizeAll(series) {
		t.AppendRow([]interface{}{
			s.Driver,
			fmt.Sprintf("%.1f", units.ConvertSpeed(s.Max, unit)),
			fmt.Sprintf("%.1f", units.ConvertSpeed(s.Min, unit)),
			fmt.Sprintf("%.1f", units.ConvertSpeed(s.Mean, unit)),
			units.FormatLapTime(s.LapTime),
		})
	}
	fmt.Fprintln(r.out)
	t.Render()
}

func driverCodes(series []*telemetry.Series) []string {
	codes := make([]string, len(series))
	for i, s := range series {
		codes[i] = s.Driver
	}
	return codes
}
