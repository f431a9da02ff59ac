package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/lapdelta.report/internal/telemetry"
	"github.com/banshee-data/lapdelta.report/internal/units"
)

// DefaultConfigPath is the path to the canonical defaults file.
// This is the single source of truth for all default analysis values.
const DefaultConfigPath = "config/lapdelta.defaults.json"

// AnalysisConfig represents the configuration for one comparison run.
// Every field is optional: the Get* accessors fall back to built-in
// defaults, so a partial JSON file only overrides what it names.
// CLI flags in cmd/lapdelta take precedence over loaded values.
type AnalysisConfig struct {
	// Event selection
	Year    *int     `json:"year,omitempty"`
	Event   *string  `json:"event,omitempty"`
	Session *string  `json:"session,omitempty"` // session name like "Qualifying" or short form like "Q"
	Drivers []string `json:"drivers,omitempty"` // three-letter driver codes

	// Comparison params
	GridPoints *int    `json:"grid_points,omitempty"`
	Units      *string `json:"units,omitempty"`

	// Output params
	PlotsDir   *string `json:"plots_dir,omitempty"`
	HTMLReport *bool   `json:"html_report,omitempty"`

	// Upstream params
	BaseURL     *string `json:"base_url,omitempty"`
	HTTPTimeout *string `json:"http_timeout,omitempty"` // duration string like "30s"
	CacheDir    *string `json:"cache_dir,omitempty"`
	CacheTTL    *string `json:"cache_ttl,omitempty"` // duration string; "0s" means entries never expire
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
// Use LoadAnalysisConfig to load actual values from a file.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	// Validate Year if set. openf1 coverage starts with the 2023 season.
	if c.Year != nil {
		if *c.Year < 2023 {
			return fmt.Errorf("year must be 2023 or later, got %d", *c.Year)
		}
	}

	// Validate Event if set
	if c.Event != nil {
		if strings.TrimSpace(*c.Event) == "" {
			return fmt.Errorf("event must not be empty")
		}
	}

	// Validate Session can be parsed if set
	if c.Session != nil && *c.Session != "" {
		if _, err := telemetry.ParseSessionType(*c.Session); err != nil {
			return fmt.Errorf("invalid session: %w", err)
		}
	}

	// Validate Drivers if set: a comparison needs at least two of them.
	if c.Drivers != nil {
		if len(c.Drivers) < 2 {
			return fmt.Errorf("need at least two drivers to compare, got %d", len(c.Drivers))
		}
		for i, d := range c.Drivers {
			if strings.TrimSpace(d) == "" {
				return fmt.Errorf("driver %d must not be empty", i)
			}
		}
	}

	// Validate GridPoints if set
	if c.GridPoints != nil {
		if *c.GridPoints < 2 {
			return fmt.Errorf("grid_points must be at least 2, got %d", *c.GridPoints)
		}
	}

	// Validate Units if set
	if c.Units != nil {
		if !units.IsValid(*c.Units) {
			return fmt.Errorf("invalid units %q, valid units are: %s", *c.Units, units.GetValidUnitsString())
		}
	}

	// Validate BaseURL if set
	if c.BaseURL != nil {
		if strings.TrimSpace(*c.BaseURL) == "" {
			return fmt.Errorf("base_url must not be empty")
		}
	}

	// Validate HTTPTimeout can be parsed if set
	if c.HTTPTimeout != nil && *c.HTTPTimeout != "" {
		d, err := time.ParseDuration(*c.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("invalid http_timeout '%s': %w", *c.HTTPTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("http_timeout must be positive, got %s", *c.HTTPTimeout)
		}
	}

	// Validate CacheTTL can be parsed if set
	if c.CacheTTL != nil && *c.CacheTTL != "" {
		d, err := time.ParseDuration(*c.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl '%s': %w", *c.CacheTTL, err)
		}
		if d < 0 {
			return fmt.Errorf("cache_ttl must not be negative, got %s", *c.CacheTTL)
		}
	}

	return nil
}

// GetYear returns the year value or the default.
func (c *AnalysisConfig) GetYear() int {
	if c.Year == nil {
		return 2024 // default
	}
	return *c.Year
}

// GetEvent returns the event value or the default.
func (c *AnalysisConfig) GetEvent() string {
	if c.Event == nil {
		return "Las Vegas" // default
	}
	return *c.Event
}

// GetSession parses and returns the Session as a telemetry.SessionType.
func (c *AnalysisConfig) GetSession() telemetry.SessionType {
	if c.Session == nil || *c.Session == "" {
		return telemetry.SessionQualifying // default
	}
	t, err := telemetry.ParseSessionType(*c.Session)
	if err != nil {
		return telemetry.SessionQualifying // default on parse error
	}
	return t
}

// GetDrivers returns the configured driver codes, trimmed and upper-cased,
// or the default set.
func (c *AnalysisConfig) GetDrivers() []string {
	if len(c.Drivers) == 0 {
		return []string{"VER", "HAM", "LEC"} // default
	}
	out := make([]string, len(c.Drivers))
	for i, d := range c.Drivers {
		out[i] = strings.ToUpper(strings.TrimSpace(d))
	}
	return out
}

// GetGridPoints returns the grid_points value or the default.
func (c *AnalysisConfig) GetGridPoints() int {
	if c.GridPoints == nil {
		return 1000 // default
	}
	return *c.GridPoints
}

// GetUnits returns the units value or the default.
func (c *AnalysisConfig) GetUnits() string {
	if c.Units == nil {
		return units.KPH // default: telemetry feeds report km/h
	}
	return *c.Units
}

// GetPlotsDir returns the plots_dir value or the default.
func (c *AnalysisConfig) GetPlotsDir() string {
	if c.PlotsDir == nil {
		return "plots" // default
	}
	return *c.PlotsDir
}

// GetHTMLReport returns the html_report value or the default.
func (c *AnalysisConfig) GetHTMLReport() bool {
	if c.HTMLReport == nil {
		return true // default: write the interactive report
	}
	return *c.HTMLReport
}

// GetBaseURL returns the base_url value or the default.
func (c *AnalysisConfig) GetBaseURL() string {
	if c.BaseURL == nil {
		return "https://api.openf1.org/v1" // default
	}
	return *c.BaseURL
}

// GetHTTPTimeout parses and returns the HTTPTimeout as a time.Duration.
func (c *AnalysisConfig) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeout == nil || *c.HTTPTimeout == "" {
		return 30 * time.Second // default
	}
	d, err := time.ParseDuration(*c.HTTPTimeout)
	if err != nil {
		return 30 * time.Second // default on parse error
	}
	return d
}

// GetCacheDir returns the cache_dir value or the default.
func (c *AnalysisConfig) GetCacheDir() string {
	if c.CacheDir == nil {
		return "cache" // default
	}
	return *c.CacheDir
}

// GetCacheTTL parses and returns the CacheTTL as a time.Duration.
// Zero means cached responses never expire.
func (c *AnalysisConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == nil || *c.CacheTTL == "" {
		return 0 // default: never expire
	}
	d, err := time.ParseDuration(*c.CacheTTL)
	if err != nil {
		return 0 // default on parse error
	}
	return d
}
