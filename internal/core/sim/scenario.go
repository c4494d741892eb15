package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events/bus"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/pilot"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/world"
)

// Scenario describes a starting world and the pilots flying in it.
type Scenario struct {
	Name     string         `yaml:"name"`
	Duration float64        `yaml:"duration"`
	DT       float64        `yaml:"dt"`
	Timings  *world.Timings `yaml:"timings"`
	Hostile  [][2]string    `yaml:"hostile"`
	Bodies   []BodySpec     `yaml:"bodies"`
	Gates    []GateLinkSpec `yaml:"gates"`
	Ships    []ShipSetup    `yaml:"ships"`
	// Tuning overlays the pilot config for every pilot in the scenario.
	Tuning *Section `yaml:"pilot_config"`
}

// Section keeps a YAML subtree as written so it can be decoded later over a base
// value. Its keys are checked when it is decoded, not when the scenario is.
type Section struct {
	node yaml.Node
}

func (s *Section) UnmarshalYAML(value *yaml.Node) error {
	s.node = *value
	return nil
}

// Bytes re-encodes the subtree.
func (s *Section) Bytes() ([]byte, error) {
	return yaml.Marshal(&s.node)
}

type BodySpec struct {
	Name       string             `yaml:"name"`
	Kind       string             `yaml:"kind"`
	Partition  models.PartitionID `yaml:"partition"`
	Position   physics.Vec2       `yaml:"position"`
	Velocity   physics.Vec2       `yaml:"velocity"`
	Radius     float64            `yaml:"radius"`
	SpeedLimit float64            `yaml:"speed_limit"`
}

type GateLinkSpec struct {
	A world.GateSpec `yaml:"a"`
	B world.GateSpec `yaml:"b"`
}

type ShipSetup struct {
	world.ShipSpec `yaml:",inline"`

	LandedOn string      `yaml:"landed_on"`
	Pilot    *PilotSetup `yaml:"pilot"`
	// Turrets lists mount offsets in the ship's frame, x along the nose.
	Turrets []physics.Vec2 `yaml:"turrets"`
}

type PilotSetup struct {
	Planner     string         `yaml:"planner"`
	Params      map[string]any `yaml:"params"`
	Personality string         `yaml:"personality"`
	Seed        uint64         `yaml:"seed"`
}

// LoadScenario decodes and validates a scenario document.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty scenario")
		}
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", sc.Name, err)
	}
	return &sc, nil
}

func (sc *Scenario) Validate() error {
	var errs []error
	if sc.DT < 0 || sc.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration %v and dt %v must not be negative", sc.Duration, sc.DT))
	}
	names := make(map[string]bool)
	unique := func(kind, name string) {
		if name == "" {
			errs = append(errs, fmt.Errorf("%s without a name", kind))
		} else if names[name] {
			errs = append(errs, fmt.Errorf("duplicate name %q", name))
		}
		names[name] = true
	}
	for _, b := range sc.Bodies {
		unique("body", b.Name)
		switch b.Kind {
		case "planet", "station", "asteroid":
		default:
			errs = append(errs, fmt.Errorf("body %s: unknown kind %q", b.Name, b.Kind))
		}
		if b.Radius <= 0 {
			errs = append(errs, fmt.Errorf("body %s: radius must be positive", b.Name))
		}
	}
	for _, g := range sc.Gates {
		unique("gate", g.A.Name)
		unique("gate", g.B.Name)
	}
	for _, s := range sc.Ships {
		unique("ship", s.Name)
		if s.LandedOn != "" && !sc.hasBody(s.LandedOn) {
			errs = append(errs, fmt.Errorf("ship %s: landed_on %q is not a body", s.Name, s.LandedOn))
		}
		if s.Pilot != nil && s.Pilot.Planner == "" {
			errs = append(errs, fmt.Errorf("ship %s: pilot needs a planner", s.Name))
		}
	}
	if _, err := sc.PilotConfig(pilot.DefaultConfig()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (sc *Scenario) hasBody(name string) bool {
	for _, b := range sc.Bodies {
		if b.Name == name {
			return true
		}
	}
	return false
}

// PilotConfig overlays the scenario's pilot_config section on base.
func (sc *Scenario) PilotConfig(base pilot.Config) (pilot.Config, error) {
	if sc.Tuning == nil {
		return base, nil
	}
	doc, err := sc.Tuning.Bytes()
	if err != nil {
		return pilot.Config{}, fmt.Errorf("pilot_config: %w", err)
	}
	cfg, err := base.Overlay(bytes.NewReader(doc))
	if err != nil {
		return pilot.Config{}, fmt.Errorf("pilot_config: %w", err)
	}
	return cfg, nil
}

// Build creates the world, pilots and turrets a scenario describes. Pilots get
// their planners from reg.
func Build(sc *Scenario, reg *pilot.Registry, base pilot.Config, b bus.EventBus, l log.Log, opts ...Option) (*Simulation, error) {
	if l == nil {
		l = log.NewNop()
	}
	if b == nil {
		b = bus.New()
	}
	cfg, err := sc.PilotConfig(base)
	if err != nil {
		return nil, err
	}
	wopts := []world.Option{world.WithBus(b), world.WithLogger(l)}
	if sc.Timings != nil {
		wopts = append(wopts, world.WithTimings(*sc.Timings))
	}
	w := world.New(wopts...)
	for _, pair := range sc.Hostile {
		w.SetHostile(pair[0], pair[1])
	}
	for _, bs := range sc.Bodies {
		switch bs.Kind {
		case "planet":
			w.AddPlanet(bs.Name, bs.Partition, bs.Position, bs.Radius, bs.SpeedLimit)
		case "station":
			w.AddStation(bs.Name, bs.Partition, bs.Position, bs.Radius, bs.SpeedLimit)
		case "asteroid":
			w.AddAsteroid(bs.Name, bs.Partition, bs.Position, bs.Velocity, bs.Radius, bs.SpeedLimit)
		}
	}
	for _, g := range sc.Gates {
		w.LinkGates(g.A, g.B)
	}

	s := New(w, b, append([]Option{WithLogger(l)}, opts...)...)
	for _, ss := range sc.Ships {
		ship := w.AddShip(ss.ShipSpec)
		if ss.LandedOn != "" {
			body, _ := w.Landable(ss.LandedOn)
			w.LandShip(ship, body)
		}
		for _, mount := range ss.Turrets {
			s.AddTurret(ship, mount, cfg.Turret)
		}
		if ss.Pilot == nil {
			continue
		}
		planner, err := reg.New(ss.Pilot.Planner, ss.Pilot.Params)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("ship %s: %w", ss.Name, err)
		}
		popts := []pilot.Option{
			pilot.WithConfig(cfg),
			pilot.WithNavigator(w),
			pilot.WithBus(b),
			pilot.WithLogger(l),
		}
		if ss.Pilot.Personality != "" {
			pers, ok := pilot.LookupPersonality(ss.Pilot.Personality)
			if !ok {
				_ = s.Close()
				return nil, fmt.Errorf("ship %s: unknown personality %q", ss.Name, ss.Pilot.Personality)
			}
			popts = append(popts, pilot.WithPersonality(pers))
		}
		if ss.Pilot.Seed != 0 {
			popts = append(popts, pilot.WithSeed(ss.Pilot.Seed))
		}
		s.AddPilot(pilot.New(ship, planner, popts...))
	}
	return s, nil
}
