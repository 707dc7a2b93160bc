package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const (
	appName    = "planstack"
	configFile = "config.json"
)

// Config holds the user-adjustable settings.
type Config struct {
	// StartHour and StartMinute fix the first slot of the day that events
	// are stacked from.
	StartHour   int `json:"start_hour"`
	StartMinute int `json:"start_minute"`

	// CalendarID names the target calendar. "primary" addresses the
	// account's main calendar; anything else must be a calendar id as
	// reported by the calendars command.
	CalendarID string `json:"calendar_id"`

	// TimeZone is an IANA zone name attached to event times. When empty the
	// calendar's own zone applies.
	TimeZone string `json:"time_zone,omitempty"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{StartHour: 9, StartMinute: 0, CalendarID: "primary"}
}

// Dir returns the directory all of planstack's state lives in.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the location of the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file, filling in defaults for anything the file
// does not set. A missing file yields the defaults; an unreadable or
// invalid one is an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "opening config file %s", path)
	}
	defer f.Close()

	// Decoding over the defaults keeps them for keys the file omits, so an
	// explicit "start_hour": 0 still means midnight.
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "decoding config file %s", path)
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save validates and writes the config file, creating the directory when
// needed.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrapf(err, "opening config file %s for writing", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(c), "encoding config")
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	if c.StartHour < 0 || c.StartHour > 23 {
		return errors.Errorf("start hour %d is outside 0-23", c.StartHour)
	}
	if c.StartMinute < 0 || c.StartMinute > 59 {
		return errors.Errorf("start minute %d is outside 0-59", c.StartMinute)
	}
	if c.CalendarID == "" {
		return errors.New("calendar id must not be empty")
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return errors.Wrapf(err, "unknown time zone %q", c.TimeZone)
		}
	}
	return nil
}

// StartOfDay returns the configured start time on now's day, in now's
// location. This is the cursor every sync pass stacks slots from.
func (c *Config) StartOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), c.StartHour, c.StartMinute, 0, 0, now.Location())
}
