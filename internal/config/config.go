// Package config handles YAML configuration discovery and parsing.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"sattelclub/internal/core"
)

const (
	// FileName is the config file looked up in each search directory.
	FileName = "sattelclub.yaml"
	// AppDir is the directory name under the user config directory.
	AppDir = "sattelclub"
)

// DefaultTemplate is written for the user when no config exists yet.
//
//go:embed sattelclub.default.yaml
var DefaultTemplate []byte

// EnvPrefix prefixes the environment variables that override scalar
// settings, e.g. SATTELCLUB_RIDE_ID.
const EnvPrefix = "SATTELCLUB_"

// ErrNotFound indicates no config file exists in any search directory.
var ErrNotFound = errors.New("config file not found")

// Config is the root configuration structure.
type Config struct {
	Users            []User        `yaml:"users"`
	BaseURL          string        `yaml:"baseUrl" env:"BASE_URL"`
	RideID           string        `yaml:"rideId" env:"RIDE_ID"`
	CheckingInterval time.Duration `yaml:"checkingInterval" env:"CHECKING_INTERVAL"`
	SignupWeekday    string        `yaml:"signupWeekday" env:"SIGNUP_WEEKDAY"`
	RideWeekday      string        `yaml:"rideWeekday" env:"RIDE_WEEKDAY"`
	CheckFrom        string        `yaml:"checkFrom" env:"CHECK_FROM"`
	MaxAttempts      int           `yaml:"maxAttempts,omitempty" env:"MAX_ATTEMPTS"`
	Parallel         bool          `yaml:"parallel,omitempty" env:"PARALLEL"`
	Timeout          time.Duration `yaml:"timeout,omitempty" env:"TIMEOUT"`

	// Set by Validate.
	signupDay time.Weekday
	rideDay   time.Weekday
	checkFrom core.TimeOfDay
}

// User is a participant entry.
type User struct {
	FirstName string `yaml:"firstName"`
	Surname   string `yaml:"surname"`
	Email     string `yaml:"email"`
	Enabled   bool   `yaml:"enabled"`
}

// SearchDirs returns the directories searched for FileName, in order: the
// working directory, then the user config directory.
func SearchDirs() []string {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if base, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(base, AppDir))
	}
	return dirs
}

// Find returns the first config file found in SearchDirs.
func Find() (string, error) {
	return FindIn(SearchDirs())
}

// FindIn returns the first dir/FileName that exists.
func FindIn(dirs []string) (string, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, FileName)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w (searched %s)", ErrNotFound, strings.Join(dirs, ", "))
}

// Load reads the config at path, or searches for one when path is empty.
func Load(path string) (*Config, string, error) {
	if path == "" {
		found, err := Find()
		if err != nil {
			return nil, "", err
		}
		path = found
	}
	cfg, err := LoadConfig(path)
	return cfg, path, err
}

// LocalPath returns the override file for path: name.yaml -> name.local.yaml.
func LocalPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// LoadConfig reads and parses a YAML configuration file, merges the optional
// local override file and EnvPrefix variables over it and validates the
// result.
func LoadConfig(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	localPath := LocalPath(path)
	if _, err := os.Stat(localPath); err == nil {
		override, err := parseFile(localPath)
		if err != nil {
			return nil, err
		}
		if err := mergo.Merge(cfg, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging %s: %w", localPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overrides fields whose EnvPrefix variable is set. Unset variables
// leave the file values alone.
func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing %s environment: %w", EnvPrefix, err)
	}
	return nil
}

// Parse decodes YAML without validating it. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL == "" {
		errs = append(errs, errors.New("baseUrl is required"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("baseUrl %q is not an absolute URL", c.BaseURL))
	}
	if c.RideID == "" {
		errs = append(errs, errors.New("rideId is required"))
	}
	if c.CheckingInterval <= 0 {
		errs = append(errs, errors.New("checkingInterval must be positive"))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, errors.New("maxAttempts must not be negative"))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}

	var err error
	if c.signupDay, err = core.ParseWeekday(c.SignupWeekday); err != nil {
		errs = append(errs, fmt.Errorf("signupWeekday: %w", err))
	}
	if c.rideDay, err = core.ParseWeekday(c.RideWeekday); err != nil {
		errs = append(errs, fmt.Errorf("rideWeekday: %w", err))
	}
	if c.checkFrom, err = core.ParseTimeOfDay(c.CheckFrom); err != nil {
		errs = append(errs, fmt.Errorf("checkFrom: %w", err))
	}

	if len(c.Users) == 0 {
		errs = append(errs, errors.New("at least one user is required"))
	}
	seen := make(map[string]bool, len(c.Users))
	for i, u := range c.Users {
		if u.FirstName == "" || u.Surname == "" {
			errs = append(errs, fmt.Errorf("users[%d]: firstName and surname are required", i))
		}
		if u.Email == "" {
			errs = append(errs, fmt.Errorf("users[%d]: email is required", i))
			continue
		}
		if seen[u.Email] {
			errs = append(errs, fmt.Errorf("users[%d]: duplicate email %q", i, u.Email))
		}
		seen[u.Email] = true
	}

	return errors.Join(errs...)
}

// Participants converts the user entries, including disabled ones.
func (c *Config) Participants() []core.Participant {
	out := make([]core.Participant, len(c.Users))
	for i, u := range c.Users {
		out[i] = core.Participant{
			FirstName: u.FirstName,
			LastName:  u.Surname,
			Email:     u.Email,
			Enabled:   u.Enabled,
		}
	}
	return out
}

// SignupDay, RideDay and CheckFromTime are valid after Validate succeeds.
func (c *Config) SignupDay() time.Weekday       { return c.signupDay }
func (c *Config) RideDay() time.Weekday         { return c.rideDay }
func (c *Config) CheckFromTime() core.TimeOfDay { return c.checkFrom }

// Target resolves the next ride on or after from.
func (c *Config) Target(from time.Time) core.Target {
	return core.Target{
		ServiceURL: c.BaseURL,
		ActivityID: c.RideID,
		Date:       core.NextWeekday(from, c.rideDay),
	}
}

// NextStart returns when polling should begin, relative to now.
func (c *Config) NextStart(now time.Time) time.Time {
	return core.NextStart(now, c.signupDay, c.checkFrom)
}

// NextRide returns when the next signup window opens and the ride that
// window is for. The ride is resolved from the window, not from now, so a
// run started after this week's window targets next week's ride.
func (c *Config) NextRide(now time.Time) (time.Time, core.Target) {
	start := c.NextStart(now)
	return start, c.Target(start)
}

// WriteDefault writes DefaultTemplate to dir/FileName, creating dir. An
// existing file is never overwritten.
func WriteDefault(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return path, fmt.Errorf("writing default config: %w", err)
	}
	if _, err := f.Write(DefaultTemplate); err != nil {
		f.Close()
		return path, fmt.Errorf("writing default config: %w", err)
	}
	if err := f.Close(); err != nil {
		return path, fmt.Errorf("writing default config: %w", err)
	}
	return path, nil
}
