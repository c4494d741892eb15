package pilot

import (
	"fmt"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/maneuver"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// Planner supplies a pilot's job maneuvers one step at a time.
type Planner interface {
	Name() string
	// Plan builds the maneuver for the current step, or nil when the plan is
	// finished. It is called again for the same step after an interruption.
	Plan(p *Pilot) (maneuver.Maneuver, error)
	// Advance moves past the current step.
	Advance()
}

// Route step actions.
const (
	ActionLand   = "land"
	ActionDock   = "dock"
	ActionWait   = "wait"
	ActionTravel = "travel"
	ActionFlyTo  = "flyto"
)

// Step is one leg of a route. Target names a body for land and dock, a partition
// for travel and a label for flyto.
type Step struct {
	Action  string  `yaml:"action"`
	Target  string  `yaml:"target"`
	Seconds float64 `yaml:"seconds"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
}

func (s Step) validate() error {
	switch s.Action {
	case ActionLand, ActionDock, ActionTravel:
		if s.Target == "" {
			return fmt.Errorf("%s step requires a target", s.Action)
		}
	case ActionWait:
		if s.Seconds < 0 {
			return fmt.Errorf("wait step has negative duration %v", s.Seconds)
		}
	case ActionFlyTo:
	default:
		return fmt.Errorf("unknown step action %q", s.Action)
	}
	return nil
}

// RoutePlanner runs a fixed list of steps, optionally forever.
type RoutePlanner struct {
	steps []Step
	loop  bool
	idx   int
}

func NewRoutePlanner(steps []Step, loop bool) (*RoutePlanner, error) {
	for i, s := range steps {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return &RoutePlanner{steps: steps, loop: loop}, nil
}

func (r *RoutePlanner) Name() string { return "route" }
func (r *RoutePlanner) Index() int   { return r.idx }

func (r *RoutePlanner) Advance() {
	r.idx++
	if r.loop && r.idx >= len(r.steps) {
		r.idx = 0
	}
}

func (r *RoutePlanner) Plan(p *Pilot) (maneuver.Maneuver, error) {
	if r.idx >= len(r.steps) {
		return nil, nil
	}
	v, cfg := p.Vehicle(), p.Config()
	step := r.steps[r.idx]
	switch step.Action {
	case ActionLand, ActionDock:
		nav, err := navigator(p, "route")
		if err != nil {
			return nil, err
		}
		body, ok := nav.Landable(step.Target)
		if !ok {
			return nil, models.NewError(models.TargetInvalid, "route", "no body named %q", step.Target)
		}
		if step.Action == ActionDock || body.Kind() == models.KindAsteroid {
			return maneuver.NewAsteroidDock(v, body, cfg.Approach.Asteroid), nil
		}
		return maneuver.NewLanding(v, body, cfg.Approach.Landing), nil
	case ActionWait:
		return maneuver.NewWait(v, step.Seconds, cfg.Approach.Landing), nil
	case ActionTravel:
		dest := models.PartitionID(step.Target)
		if v.Partition() == dest {
			return maneuver.NewWait(v, 0, cfg.Approach.Transit), nil
		}
		nav, err := navigator(p, "route")
		if err != nil {
			return nil, err
		}
		gate := nav.FindLinkTo(v.Partition(), dest)
		if gate == nil {
			return nil, models.NewError(models.NoRouteFound, "route", "no gate from %s to %s", v.Partition(), dest)
		}
		return maneuver.NewTransit(v, gate, cfg.Approach.Transit), nil
	default:
		wp := maneuver.Waypoint{Label: step.Target, At: physics.V(step.X, step.Y), In: v.Partition()}
		return maneuver.NewFlyTo(v, wp, cfg.Approach.Transit), nil
	}
}

// navigator returns the pilot's name lookup; without one no named target can be
// resolved.
func navigator(p *Pilot, op string) (Navigator, error) {
	if nav := p.Navigator(); nav != nil {
		return nav, nil
	}
	return nil, models.NewError(models.TargetInvalid, op, "pilot %s has no navigator", p.Name())
}

// EscortPlanner keeps the pilot on a named leader.
type EscortPlanner struct {
	leader string
}

func NewEscortPlanner(leader string) *EscortPlanner { return &EscortPlanner{leader: leader} }

func (e *EscortPlanner) Name() string { return "escort" }
func (e *EscortPlanner) Advance()     {}

func (e *EscortPlanner) Plan(p *Pilot) (maneuver.Maneuver, error) {
	nav, err := navigator(p, "escort")
	if err != nil {
		return nil, err
	}
	leader, ok := nav.Vehicle(e.leader)
	if !ok {
		return nil, models.NewError(models.TargetInvalid, "escort", "no ship named %q", e.leader)
	}
	return maneuver.NewEscort(p.Vehicle(), leader, p.Config().EscortManeuver(), p.Rand()), nil
}

// PatrolPlanner cycles through points in the pilot's partition, pausing at each.
type PatrolPlanner struct {
	points   []physics.Vec2
	dwell    float64
	idx      int
	dwelling bool
}

func NewPatrolPlanner(points []physics.Vec2, dwell float64) (*PatrolPlanner, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("patrol needs at least one point")
	}
	return &PatrolPlanner{points: points, dwell: dwell}, nil
}

func (pp *PatrolPlanner) Name() string { return "patrol" }

func (pp *PatrolPlanner) Advance() {
	if !pp.dwelling && pp.dwell > 0 {
		pp.dwelling = true
		return
	}
	pp.dwelling = false
	pp.idx = (pp.idx + 1) % len(pp.points)
}

func (pp *PatrolPlanner) Plan(p *Pilot) (maneuver.Maneuver, error) {
	v := p.Vehicle()
	if pp.dwelling {
		return maneuver.NewWait(v, pp.dwell, p.Config().Approach.Transit), nil
	}
	wp := maneuver.Waypoint{
		Label: fmt.Sprintf("patrol-%d", pp.idx),
		At:    pp.points[pp.idx],
		In:    v.Partition(),
	}
	return maneuver.NewFlyTo(v, wp, p.Config().Approach.Transit), nil
}
