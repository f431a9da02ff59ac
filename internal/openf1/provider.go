package openf1

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/banshee-data/lapdelta.report/internal/telemetry"
)

var (
	// ErrDriverNotFound reports a driver code missing from the session roster.
	ErrDriverNotFound = errors.New("driver not found in session")
	// ErrNoData reports a session or driver that yielded no usable telemetry.
	ErrNoData = errors.New("no usable telemetry data")
)

// Provider resolves sessions and builds fastest-lap telemetry series.
// Safe for concurrent use; each session's driver roster is fetched once
// and shared.
type Provider struct {
	client *Client
	log    *zap.Logger

	mu      sync.Mutex
	rosters map[int]map[string]Driver // session_key -> acronym -> driver
}

// NewProvider creates a Provider on top of an API client.
func NewProvider(client *Client, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		client:  client,
		log:     log,
		rosters: make(map[int]map[string]Driver),
	}
}

// ResolveSession finds the session of the given type for an event. The event
// is matched case-insensitively against the session's location, country, and
// circuit names, so "Las Vegas", "monaco", and "spa" all resolve.
func (p *Provider) ResolveSession(ctx context.Context, year int, event string, sessionType telemetry.SessionType) (*Session, error) {
	sessions, err := p.client.Sessions(ctx, year, sessionType.String())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(event))
	for i := range sessions {
		s := &sessions[i]
		for _, name := range []string{s.Location, s.CountryName, s.CircuitShortName} {
			if strings.Contains(strings.ToLower(name), needle) {
				p.log.Debug("resolved session",
					zap.Int("session_key", s.SessionKey),
					zap.String("location", s.Location),
					zap.Int("year", s.Year))
				return s, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: no %s session for %q in %d", ErrNoData, sessionType, event, year)
}

// FetchFastestLap returns the telemetry series for a driver's fastest lap in
// the session. Speeds stay in km/h; distance is integrated from speed over
// the sample timestamps, in metres from the start of the lap.
func (p *Provider) FetchFastestLap(ctx context.Context, session *Session, driverCode string) (*telemetry.Series, error) {
	code := strings.ToUpper(strings.TrimSpace(driverCode))

	roster, err := p.roster(ctx, session.SessionKey)
	if err != nil {
		return nil, err
	}
	driver, ok := roster[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q (session %d)", ErrDriverNotFound, code, session.SessionKey)
	}

	laps, err := p.client.Laps(ctx, session.SessionKey, driver.DriverNumber)
	if err != nil {
		return nil, fmt.Errorf("list laps: %w", err)
	}

	fastest, ok := pickFastestLap(laps)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no completed laps", ErrNoData, code)
	}

	lapTime := time.Duration(*fastest.LapDuration * float64(time.Second))
	from := *fastest.DateStart
	to := from.Add(lapTime)

	points, err := p.client.CarData(ctx, session.SessionKey, driver.DriverNumber, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch car data: %w", err)
	}

	series := &telemetry.Series{
		Driver:    code,
		LapNumber: fastest.LapNumber,
		LapTime:   lapTime,
		Samples:   buildSamples(points),
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	p.log.Debug("built lap telemetry",
		zap.String("driver", code),
		zap.Int("lap", fastest.LapNumber),
		zap.Duration("lap_time", lapTime),
		zap.Int("samples", len(series.Samples)))

	return series, nil
}

// roster returns the session's driver roster keyed by acronym, fetching it
// on first use. The lock is held across the fetch so concurrent callers
// wait for one request instead of issuing their own.
func (p *Provider) roster(ctx context.Context, sessionKey int) (map[string]Driver, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.rosters[sessionKey]; ok {
		return r, nil
	}

	drivers, err := p.client.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}

	r := make(map[string]Driver, len(drivers))
	for _, d := range drivers {
		r[strings.ToUpper(d.NameAcronym)] = d
	}
	p.rosters[sessionKey] = r
	return r, nil
}

// pickFastestLap returns the lap with the smallest non-null duration. Laps
// missing a duration or a start time cannot be windowed and are skipped.
func pickFastestLap(laps []Lap) (Lap, bool) {
	var best Lap
	found := false
	for _, lap := range laps {
		if lap.LapDuration == nil || lap.DateStart == nil {
			continue
		}
		if !found || *lap.LapDuration < *best.LapDuration {
			best = lap
			found = true
		}
	}
	return best, found
}

// buildSamples converts raw car data into distance-keyed samples. Distance
// is the running integral of speed over time, so it starts at zero and never
// decreases; the dedupe pass collapses stretches where the car is stationary
// and distance stalls.
func buildSamples(points []CarSample) []telemetry.Sample {
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	samples := make([]telemetry.Sample, 0, len(points))
	var distance float64
	for i, pt := range points {
		if i > 0 {
			if dt := pt.Date.Sub(points[i-1].Date).Seconds(); dt > 0 {
				distance += pt.Speed / 3.6 * dt // km/h over seconds gives metres
			}
		}
		samples = append(samples, telemetry.Sample{
			Distance: distance,
			Speed:    pt.Speed,
			Throttle: pt.Throttle,
			Brake:    pt.Brake,
			RPM:      pt.RPM,
			Gear:     pt.NGear,
			DRS:      drsOpen(pt.DRS),
		})
	}
	return telemetry.DedupeDistances(samples)
}

// drsOpen reports whether a raw DRS status code means the flap is open.
func drsOpen(code int) bool {
	return code == 10 || code == 12 || code == 14
}
