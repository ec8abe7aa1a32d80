package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/teemow/julian/internal/freeslots"
)

const (
	// FileName is the config file name looked up in the search path
	FileName = "julian.toml"

	// EnvPath names an explicit config file
	EnvPath = "JULIAN_CONFIG"
)

// Config is the contents of julian.toml
type Config struct {
	Google     Google     `toml:"google"`
	Scheduling Scheduling `toml:"scheduling"`

	// Path is the file the config was read from, empty for defaults
	Path string `toml:"-"`
}

// Google holds the OAuth client used for the code flow
type Google struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// Scheduling holds the defaults for free-slot searches
type Scheduling struct {
	SlotDurationMinutes int      `toml:"slot_duration_minutes"`
	HorizonDays         int      `toml:"horizon_days"`
	BusinessStartHour   int      `toml:"business_start_hour"`
	BusinessEndHour     int      `toml:"business_end_hour"`
	StepMinutes         int      `toml:"step_minutes"`
	WorkingDays         []string `toml:"working_days"`
	TimeZone            string   `toml:"time_zone"`
	DeclineComment      string   `toml:"decline_comment"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Scheduling: Scheduling{
			SlotDurationMinutes: int(freeslots.DefaultSlotDuration / time.Minute),
			HorizonDays:         freeslots.DefaultHorizonDays,
			BusinessStartHour:   freeslots.DefaultBusinessStartHour,
			BusinessEndHour:     freeslots.DefaultBusinessEndHour,
			StepMinutes:         int(freeslots.DefaultStep / time.Minute),
			WorkingDays:         []string{"mon", "tue", "wed", "thu", "fri"},
			DeclineComment:      "Declined by Julian",
		},
	}
}

// SearchPath lists the candidate config files in lookup order:
// $JULIAN_CONFIG, ./julian.toml, then $HOME/.config/julian/julian.toml.
func SearchPath() []string {
	var paths []string
	if p := os.Getenv(EnvPath); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, FileName)
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "julian", FileName))
	}
	return paths
}

// Load reads the config at path. An empty path walks SearchPath and falls
// back to Default when no file exists. An explicit path must exist.
func Load(path string) (*Config, error) {
	if path != "" {
		return loadFile(path)
	}
	for _, candidate := range SearchPath() {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		return loadFile(candidate)
	}
	return Default(), nil
}

func loadFile(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the scheduling defaults
func (c *Config) Validate() error {
	s := c.Scheduling
	var errs []error
	if s.SlotDurationMinutes <= 0 {
		errs = append(errs, fmt.Errorf("scheduling.slot_duration_minutes must be positive"))
	}
	if s.HorizonDays <= 0 {
		errs = append(errs, fmt.Errorf("scheduling.horizon_days must be positive"))
	}
	if s.StepMinutes <= 0 {
		errs = append(errs, fmt.Errorf("scheduling.step_minutes must be positive"))
	}
	if s.BusinessStartHour < 0 || s.BusinessEndHour > 23 || s.BusinessEndHour <= s.BusinessStartHour {
		errs = append(errs, fmt.Errorf("scheduling business hours %d-%d are invalid", s.BusinessStartHour, s.BusinessEndHour))
	}
	if _, err := s.Weekdays(); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlotDuration returns the default slot length
func (s Scheduling) SlotDuration() time.Duration {
	return time.Duration(s.SlotDurationMinutes) * time.Minute
}

// Step returns the default distance between candidate starts
func (s Scheduling) Step() time.Duration {
	return time.Duration(s.StepMinutes) * time.Minute
}

// Location returns the configured time zone override, or nil when unset
func (s Scheduling) Location() (*time.Location, error) {
	if s.TimeZone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("scheduling.time_zone: %w", err)
	}
	return loc, nil
}

// Weekdays parses WorkingDays
func (s Scheduling) Weekdays() ([]time.Weekday, error) {
	return ParseWeekdays(s.WorkingDays)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekdays converts day names such as "mon" or "Friday" to weekdays.
// Duplicates are removed and the result is ordered Sunday first.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]bool)
	for _, name := range names {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		seen[d] = true
	}
	days := make([]time.Weekday, 0, len(seen))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if seen[d] {
			days = append(days, d)
		}
	}
	return days, nil
}
