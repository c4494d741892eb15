package pilot

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/flight"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/maneuver"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/turret"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the pilot tuning. Every section has a default in defaults.yaml; a
// user file only needs the keys it changes.
type Config struct {
	Approach   ApproachConfig      `yaml:"approach"`
	Follow     flight.FollowParams `yaml:"follow"`
	Escort     EscortConfig        `yaml:"escort"`
	Turret     turret.Params       `yaml:"turret"`
	Supervisor SupervisorConfig    `yaml:"supervisor"`
}

// ApproachConfig holds one flight.Params per maneuver kind. Attack's arrival
// distance is the standoff kept from the quarry.
type ApproachConfig struct {
	Landing  flight.Params `yaml:"landing"`
	Asteroid flight.Params `yaml:"asteroid"`
	Transit  flight.Params `yaml:"transit"`
	Attack   flight.Params `yaml:"attack"`
}

type EscortConfig struct {
	WaitMin          float64 `yaml:"wait_min"`
	WaitMax          float64 `yaml:"wait_max"`
	MaxRouteFailures int     `yaml:"max_route_failures"`
}

type SupervisorConfig struct {
	Personality    string  `yaml:"personality"`
	ThreatRadius   float64 `yaml:"threat_radius"`
	SafeTime       float64 `yaml:"safe_time"`
	AvoidDistance  float64 `yaml:"avoid_distance"`
	IdleWait       float64 `yaml:"idle_wait"`
	RetryWait      float64 `yaml:"retry_wait"`
	MaxJobFailures int     `yaml:"max_job_failures"`
	MemorySize     int     `yaml:"memory_size"`
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() Config {
	var c Config
	if err := yaml.Unmarshal(defaultsYAML, &c); err != nil {
		panic(fmt.Sprintf("pilot: embedded defaults: %v", err))
	}
	return c
}

// LoadConfig overlays the YAML in r on the defaults and validates the result.
func LoadConfig(r io.Reader) (Config, error) {
	return DefaultConfig().Overlay(r)
}

// Overlay decodes the YAML in r over a copy of c and validates the result. Keys
// missing from r keep c's values.
func (c Config) Overlay(r io.Reader) (Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode pilot config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid pilot config: %w", err)
	}
	return c, nil
}

// ParseConfig is LoadConfig over a byte slice.
func ParseConfig(b []byte) (Config, error) {
	return LoadConfig(bytes.NewReader(b))
}

func (c Config) Validate() error {
	var errs []error
	section := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	section("approach.landing", c.Approach.Landing.Validate())
	section("approach.asteroid", c.Approach.Asteroid.Validate())
	section("approach.transit", c.Approach.Transit.Validate())
	section("approach.attack", c.Approach.Attack.Validate())
	section("follow", c.Follow.Validate())
	section("turret", c.Turret.Validate())

	if c.Escort.WaitMin < 0 || c.Escort.WaitMax < c.Escort.WaitMin {
		errs = append(errs, fmt.Errorf("escort: wait interval [%v, %v] is invalid", c.Escort.WaitMin, c.Escort.WaitMax))
	}
	s := c.Supervisor
	if _, ok := LookupPersonality(s.Personality); !ok {
		errs = append(errs, fmt.Errorf("supervisor: unknown personality %q", s.Personality))
	}
	if s.ThreatRadius <= 0 || s.SafeTime <= 0 {
		errs = append(errs, errors.New("supervisor: threat_radius and safe_time must be positive"))
	}
	if s.MemorySize <= 0 {
		errs = append(errs, fmt.Errorf("supervisor: memory_size must be positive, got %d", s.MemorySize))
	}
	return errors.Join(errs...)
}

// EscortManeuver assembles the escort tuning from the follow and approach sections.
func (c Config) EscortManeuver() maneuver.EscortConfig {
	return maneuver.EscortConfig{
		Follow:           c.Follow,
		Landing:          c.Approach.Landing,
		Transit:          c.Approach.Transit,
		WaitMin:          c.Escort.WaitMin,
		WaitMax:          c.Escort.WaitMax,
		MaxRouteFailures: c.Escort.MaxRouteFailures,
	}
}
