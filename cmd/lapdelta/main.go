// Command lapdelta fetches fastest-lap telemetry for a set of drivers and
// renders the comparison figures, the speed analysis, and the interactive
// HTML report. A bare run analyses the built-in defaults; flags override
// values loaded from -config.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/banshee-data/lapdelta.report/internal/analysis"
	"github.com/banshee-data/lapdelta.report/internal/config"
	"github.com/banshee-data/lapdelta.report/internal/db"
	"github.com/banshee-data/lapdelta.report/internal/openf1"
	"github.com/banshee-data/lapdelta.report/internal/version"
)

var (
	configPath = flag.String("config", "", "JSON config file; explicit flags override its values")
	year       = flag.Int("year", 2024, "Championship year (2023 or later)")
	event      = flag.String("event", "Las Vegas", "Grand prix, matched against location, country, and circuit name")
	session    = flag.String("session", "Qualifying", "Session to analyse (race, qualifying, fp1-fp3)")
	drivers    = flag.String("drivers", "VER,HAM,LEC", "Comma-separated three-letter driver codes")
	points     = flag.Int("points", 1000, "Number of points on the common distance grid")
	plotsDir   = flag.String("plots", "plots", "Directory figures and reports are written to")
	cacheDir   = flag.String("cache", "cache", "Directory for the response cache database")
	unitsFlag  = flag.String("units", "kph", "Speed units: kph or mph")
	cacheTTL   = flag.String("cache-ttl", "0s", "Cached response lifetime; 0s keeps entries forever")
	history    = flag.Int("history", 0, "Print the N most recent run artifacts and exit")
	debug      = flag.Bool("debug", false, "Log at debug level")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

const dbFile = "lapdelta.db"

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("lapdelta %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.EmptyAnalysisConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadAnalysisConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := zap.Must(zap.NewProduction())
	if *debug {
		logger = zap.Must(zap.NewDevelopment())
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.GetCacheDir(), 0o755); err != nil {
		log.Fatalf("failed to create cache dir: %v", err)
	}
	database, err := db.Open(filepath.Join(cfg.GetCacheDir(), dbFile))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if *history > 0 {
		if err := printHistory(os.Stdout, database, *history); err != nil {
			log.Fatalf("failed to list artifacts: %v", err)
		}
		return
	}

	client := openf1.NewClient(cfg.GetBaseURL(),
		openf1.WithTimeout(cfg.GetHTTPTimeout()),
		openf1.WithCache(database, cfg.GetCacheTTL()),
		openf1.WithLogger(logger),
	)
	provider := openf1.NewProvider(client, logger)
	runner := analysis.NewRunner(cfg, provider, database, analysis.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}
	fmt.Printf("\n%d artifact(s) written to %s (run %s)\n", len(res.Artifacts), cfg.GetPlotsDir(), res.RunID)
}

// applyFlagOverrides copies explicitly-set flags into the config, so the
// precedence is flags, then config file, then built-in defaults.
func applyFlagOverrides(cfg *config.AnalysisConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "year":
			cfg.Year = year
		case "event":
			cfg.Event = event
		case "session":
			cfg.Session = session
		case "drivers":
			cfg.Drivers = splitDrivers(*drivers)
		case "points":
			cfg.GridPoints = points
		case "plots":
			cfg.PlotsDir = plotsDir
		case "cache":
			cfg.CacheDir = cacheDir
		case "units":
			cfg.Units = unitsFlag
		case "cache-ttl":
			cfg.CacheTTL = cacheTTL
		}
	})
}

func splitDrivers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// printHistory writes the most recent run artifacts as a rounded table.
func printHistory(w io.Writer, database *db.DB, limit int) error {
	arts, err := database.GetRecentArtifacts(limit)
	if err != nil {
		return err
	}
	if len(arts) == 0 {
		fmt.Fprintln(w, "no artifacts recorded yet")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Created", "Kind", "Event", "Year", "Session", "Drivers", "File"})
	for _, a := range arts {
		t.AppendRow([]interface{}{
			a.CreatedAt.Format("2006-01-02 15:04"),
			a.Kind,
			a.Event,
			a.Year,
			a.Session,
			a.Drivers,
			filepath.Join(a.Filepath, a.Filename),
		})
	}
	t.Render()
	return nil
}
