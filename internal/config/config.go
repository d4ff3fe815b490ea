// Package config loads the shiftlog CUE configuration. Every field is
// optional except configVersion; absent fields keep their defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"

	"github.com/flarebyte/shiftlog/internal/record"
)

// DefaultPath is read when no --config is given. Its absence is not an error.
const DefaultPath = "shiftlog.cue"

// Config is the process-wide configuration, passed down explicitly.
type Config struct {
	ConfigVersion string
	// Path is the file the values came from, empty for pure defaults.
	Path       string
	DataDir    string
	Store      Store
	Categories map[record.Category]Category
	Export     Export
	Cache      Cache
	Reminder   Reminder
	Server     Server
	Lua        Lua
}

// Store holds storage limits.
type Store struct {
	MaxValueBytes int
}

// Category overrides the label or admission predicate of one category.
type Category struct {
	Label string
	Admit string
}

// Export holds export settings.
type Export struct {
	Format       string
	OutDir       string
	CombinedName string
	HandoffRepo  string
}

// Cache describes the offline app-shell cache.
type Cache struct {
	Name     string
	Version  string
	Origin   string
	Dir      string
	Manifest []string
}

// Reminder holds the periodic reminder content and cadence.
type Reminder struct {
	Enabled            bool
	IntervalMinutes    int
	Tag                string
	Title              string
	Body               string
	Icon               string
	Badge              string
	RequireInteraction bool
	DismissOpensApp    bool
}

// Server holds the device server settings.
type Server struct {
	Addr string
}

// Lua bounds admission predicates.
type Lua struct {
	TimeoutMs        int
	InstructionLimit int
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		DataDir:       ".shiftlog",
		Store:         Store{MaxValueBytes: 5 << 20},
		Categories:    map[record.Category]Category{},
		Export: Export{
			Format:       "csv",
			OutDir:       ".",
			CombinedName: "כל_הנתונים_מעקב_עובדים",
		},
		Cache: Cache{
			Name:    "employee-tracking",
			Version: "v1",
			Origin:  "http://localhost:3000",
			Manifest: []string{
				"/", "/forms/injections", "/forms/assemblies", "/forms/coloring",
				"/forms/filling", "/export", "/manifest.json",
			},
		},
		Reminder: Reminder{
			Enabled:            true,
			IntervalMinutes:    60,
			Tag:                "hourly-reminder",
			Title:              "תזכורת מילוי טופס",
			Body:               "זמן למלא את טופס מעקב העובדים",
			Icon:               "/icon-192x192.png",
			Badge:              "/icon-192x192.png",
			RequireInteraction: true,
		},
		Server: Server{Addr: ":8090"},
		Lua:    Lua{TimeoutMs: 200, InstructionLimit: 100000},
	}
}

// Load reads path over the defaults. When explicit is false a missing file
// yields the defaults; an explicitly named file must exist.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	}
	v, err := compileCUE(path)
	if err != nil {
		return Config{}, err
	}
	if err := parseVersion(v, &cfg); err != nil {
		return Config{}, err
	}
	for _, parse := range []func(cue.Value, *Config) error{
		parseStoreSection,
		parseCategoriesSection,
		parseExportSection,
		parseCacheSection,
		parseReminderSection,
		parseServerSection,
		parseLuaSandboxSection,
	} {
		if err := parse(v, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseVersion(v cue.Value, cfg *Config) error {
	if err := requireStringField(v, "configVersion"); err != nil {
		return err
	}
	if err := v.LookupPath(cue.ParsePath("configVersion")).Decode(&cfg.ConfigVersion); err != nil {
		return fmt.Errorf("invalid value for configVersion: %v", err)
	}
	if !IsSupportedConfigVersion(cfg.ConfigVersion) {
		return fmt.Errorf("unsupported configVersion: %q (supported: %s)", cfg.ConfigVersion, SupportedConfigVersionsCSV())
	}
	return nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Export.Format {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("invalid export.format: %q (expected csv or xlsx)", c.Export.Format)
	}
	if c.DataDir == "" {
		return errors.New("dataDir must not be empty")
	}
	if c.Store.MaxValueBytes <= 0 {
		return errors.New("store.maxValueBytes must be positive")
	}
	if c.Reminder.IntervalMinutes <= 0 {
		return errors.New("reminder.intervalMinutes must be positive")
	}
	if c.Cache.Name == "" || c.Cache.Version == "" {
		return errors.New("cache.name and cache.version must not be empty")
	}
	return nil
}

// CacheDir resolves cache.dir, which defaults to <dataDir>/cache.
func (c Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.DataDir, "cache")
}

// StoreDir is where the key/value files live.
func (c Config) StoreDir() string {
	return filepath.Join(c.DataDir, "store")
}

// Labels returns the configured label overrides.
func (c Config) Labels() record.Labels {
	l := record.Labels{}
	for cat, o := range c.Categories {
		if o.Label != "" {
			l[cat] = o.Label
		}
	}
	return l
}

// AdmitOverrides returns the configured admission predicates.
func (c Config) AdmitOverrides() map[record.Category]string {
	m := map[record.Category]string{}
	for cat, o := range c.Categories {
		if o.Admit != "" {
			m[cat] = o.Admit
		}
	}
	return m
}

// ReminderInterval is reminder.intervalMinutes as a duration.
func (c Config) ReminderInterval() time.Duration {
	return time.Duration(c.Reminder.IntervalMinutes) * time.Minute
}
