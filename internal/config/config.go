package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"calaudit/internal/filter"
)

// Defaults applied by DefaultConfig and Normalize.
const (
	DefaultListen        = "127.0.0.1:8080"
	DefaultRefreshCron   = "*/15 * * * *"
	DefaultTopN          = 10
	DefaultLongThreshold = 60
	DefaultDatabase      = "calaudit.db"
	DefaultCacheDir      = "./var/fetch-cache"
	DefaultUploadRPS     = 2
	DefaultUploadBurst   = 5
)

// SourceConfig describes one calendar export that is re-audited on a schedule.
// Exactly one of Path and URL is set.
type SourceConfig struct {
	// ID is an internal identifier used in API paths and logs.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Path is a local export file.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// URL is a remote export; webcal:// is accepted.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// Source overrides CSV source detection: "outlook", "google" or empty.
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// FilterConfig holds the default filters applied to every audit.
type FilterConfig struct {
	ExcludeAllDay   bool     `yaml:"exclude_all_day" json:"exclude_all_day"`
	MinDuration     int      `yaml:"min_duration" json:"min_duration"`
	ExcludeKeywords []string `yaml:"exclude_keywords" json:"exclude_keywords"`
}

// Options converts the config block into filter options.
func (f FilterConfig) Options() filter.Options {
	return filter.Options{
		ExcludeAllDay:   f.ExcludeAllDay,
		MinDuration:     f.MinDuration,
		ExcludeKeywords: append([]string(nil), f.ExcludeKeywords...),
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// RateLimitConfig throttles the upload endpoints. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" json:"rps"`
	Burst int     `yaml:"burst" json:"burst"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	Log LogConfig `yaml:"log" json:"log"`

	Filters FilterConfig `yaml:"filters" json:"filters"`

	// TopN limits the ranked meeting and organizer tables.
	TopN int `yaml:"top_n" json:"top_n"`

	// LongMeetingThreshold is the duration in minutes above which a meeting
	// is listed as long.
	LongMeetingThreshold int `yaml:"long_meeting_threshold" json:"long_meeting_threshold"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *") used
	// to re-audit Sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Database is the SQLite file holding audit history.
	Database string `yaml:"database" json:"database"`

	// CacheDir stores HTTP cache entries for remote sources.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Sources []SourceConfig `yaml:"sources" json:"sources"`

	UploadRateLimit RateLimitConfig `yaml:"upload_rate_limit" json:"upload_rate_limit"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen: DefaultListen,
		Log:    LogConfig{Level: "INFO", Format: "console"},
		Filters: FilterConfig{
			ExcludeAllDay:   true,
			ExcludeKeywords: []string{},
		},
		TopN:                 DefaultTopN,
		LongMeetingThreshold: DefaultLongThreshold,
		RefreshCron:          DefaultRefreshCron,
		Database:             DefaultDatabase,
		CacheDir:             DefaultCacheDir,
		Sources:              []SourceConfig{},
		UploadRateLimit:      RateLimitConfig{RPS: DefaultUploadRPS, Burst: DefaultUploadBurst},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly. Booleans cannot be told apart from
// "unset" and are left alone.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Log.Level == "" {
		c.Log.Level = "INFO"
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		c.Log.Format = "console"
	}
	if c.Filters.MinDuration < 0 {
		c.Filters.MinDuration = 0
	}
	if c.Filters.ExcludeKeywords == nil {
		c.Filters.ExcludeKeywords = []string{}
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.LongMeetingThreshold <= 0 {
		c.LongMeetingThreshold = DefaultLongThreshold
	}
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefreshCron
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
	if c.UploadRateLimit.RPS > 0 && c.UploadRateLimit.Burst <= 0 {
		c.UploadRateLimit.Burst = DefaultUploadBurst
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		s.ID = strings.TrimSpace(s.ID)
		s.Source = strings.ToLower(strings.TrimSpace(s.Source))
		if s.Name == "" {
			s.Name = s.ID
		}
	}
}

// Validate reports configuration mistakes that Normalize cannot repair.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Sources))
	var errs []error
	for i, s := range c.Sources {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: id is required", i))
			continue
		}
		if _, dup := seen[s.ID]; dup {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = struct{}{}

		if (s.Path == "") == (s.URL == "") {
			errs = append(errs, fmt.Errorf("source %q: exactly one of path and url must be set", s.ID))
		}
		switch s.Source {
		case "", "auto", "outlook", "google":
		default:
			errs = append(errs, fmt.Errorf("source %q: unknown source %q", s.ID, s.Source))
		}
	}
	return errors.Join(errs...)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg to path atomically via a temp file and rename, with 0600
// permissions. The parent directory is created (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calaudit-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
