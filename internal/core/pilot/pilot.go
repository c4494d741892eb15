// Package pilot is the per-ship supervisor. It keeps exactly one maneuver active,
// chooses it from the job planner or from the reaction to a nearby hostile, and
// swaps it when a threat appears, the ship is hit, or the danger has passed.
package pilot

import (
	"fmt"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events/bus"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/maneuver"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// maxTransitions bounds how many mode changes one Update may follow through.
const maxTransitions = 3

type Option func(*Pilot)

func WithLogger(l log.Log) Option { return func(p *Pilot) { p.log = l } }

func WithBus(b bus.EventBus) Option { return func(p *Pilot) { p.eb = b } }

func WithConfig(c Config) Option { return func(p *Pilot) { p.cfg = c } }

func WithNavigator(nav Navigator) Option { return func(p *Pilot) { p.nav = nav } }

// WithPersonality overrides the personality named in the supervisor config.
func WithPersonality(pers Personality) Option {
	return func(p *Pilot) { p.pers, p.persSet = pers, true }
}

// WithSeed fixes the pilot's random source. The default derives from the ship name.
func WithSeed(seed uint64) Option {
	return func(p *Pilot) { p.seed, p.seedSet = seed, true }
}

// Pilot supervises one vehicle. It is not safe for concurrent use: Update and the
// damage handler both run on the goroutine that steps the world.
type Pilot struct {
	id      string
	vehicle models.Vehicle
	nav     Navigator
	planner Planner
	cfg     Config
	log     log.Log
	eb      bus.EventBus
	sensor  *ThreatSensor
	mem     *Memory
	rng     *rand.Rand

	pers    Personality
	persSet bool
	seed    uint64
	seedSet bool

	mode     Mode
	active   maneuver.Maneuver
	retrying bool
	failures int
	threat   models.Target
	safeFor  float64
	lastErr  error

	frame uint64
	ran   bool

	damage []events.Damage
	sub    bus.Subscription
}

// New builds a pilot for v. A nil planner leaves the pilot idling between
// threats.
func New(v models.Vehicle, planner Planner, opts ...Option) *Pilot {
	p := &Pilot{
		id:      uuid.NewString(),
		vehicle: v,
		planner: planner,
		cfg:     DefaultConfig(),
		log:     log.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if !p.persSet {
		pers, ok := LookupPersonality(p.cfg.Supervisor.Personality)
		if !ok {
			pers, _ = LookupPersonality("passive")
		}
		p.pers = pers
	}
	if !p.seedSet {
		p.seed = xxhash.Sum64String(v.Name())
	}
	p.rng = rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))
	p.sensor = NewThreatSensor(p.cfg.Supervisor.ThreatRadius)
	p.mem = NewMemory(p.cfg.Supervisor.MemorySize)
	p.log = p.log.With(log.String("pilot", v.Name()), log.String("personality", p.pers.Name))

	if p.eb != nil {
		sub, err := p.eb.Subscribe(events.ShipDamaged, p.onDamage)
		if err != nil {
			p.log.Warn("damage subscription failed", log.Error(err))
		}
		p.sub = sub
	}
	return p
}

func (p *Pilot) ID() string                     { return p.id }
func (p *Pilot) Name() string                   { return p.vehicle.Name() }
func (p *Pilot) Mode() Mode                     { return p.mode }
func (p *Pilot) Active() maneuver.Maneuver      { return p.active }
func (p *Pilot) Threat() models.Target          { return p.threat }
func (p *Pilot) History() []DecisionRecord      { return p.mem.History() }
func (p *Pilot) LastError() error               { return p.lastErr }
func (p *Pilot) Vehicle() models.Vehicle        { return p.vehicle }
func (p *Pilot) Navigator() Navigator           { return p.nav }
func (p *Pilot) Config() Config                 { return p.cfg }
func (p *Pilot) Rand() *rand.Rand               { return p.rng }
func (p *Pilot) Personality() Personality       { return p.pers }
func (p *Pilot) Planner() Planner               { return p.planner }
func (p *Pilot) Sensor() *ThreatSensor          { return p.sensor }
func (p *Pilot) Memory() *Memory                { return p.mem }
func (p *Pilot) Subscription() bus.Subscription { return p.sub }

func (p *Pilot) Status() string {
	if p.active == nil {
		return p.mode.String()
	}
	return fmt.Sprintf("%s: %s", p.mode, p.active.Status())
}

// Close drops the damage subscription.
func (p *Pilot) Close() error {
	if p.eb == nil || p.sub == nil {
		return nil
	}
	return p.eb.Unsubscribe(p.sub)
}

func (p *Pilot) onDamage(e bus.Event) error {
	d, ok := e.Data().(events.Damage)
	if !ok || d.Victim != p.vehicle.Name() {
		return nil
	}
	p.damage = append(p.damage, d)
	return nil
}

func (p *Pilot) drainDamage() []events.Damage {
	d := p.damage
	p.damage = nil
	return d
}

var modeHandlers = [...]func(*Pilot, maneuver.TickContext){
	ModeIdle:   (*Pilot).tickIdle,
	ModeJob:    (*Pilot).tickJob,
	ModeAvoid:  (*Pilot).tickAvoid,
	ModeFlee:   (*Pilot).tickFlee,
	ModeAttack: (*Pilot).tickAttack,
}

// Update runs one supervisor tick. A second call with the same non-zero frame is
// ignored, so the active maneuver is never evaluated twice per tick.
func (p *Pilot) Update(tc maneuver.TickContext) {
	if tc.Frame != 0 && p.ran && tc.Frame == p.frame {
		return
	}
	p.frame, p.ran = tc.Frame, true

	if !p.vehicle.Valid() {
		p.active = nil
		p.drainDamage()
		return
	}
	tc.Pilot = p.vehicle.Name()
	tc.Log = p.log
	tc.Events = p.eb
	if p.nav != nil {
		tc.Links = p.nav
	}

	p.react(tc)
	for range maxTransitions {
		m := p.mode
		modeHandlers[m](p, tc)
		if p.mode == m {
			return
		}
	}
}

func (p *Pilot) react(tc maneuver.TickContext) {
	for _, d := range p.drainDamage() {
		next := p.pers.OnDamage
		if next == ModeJob || d.Attacker == nil || !d.Attacker.Valid() {
			continue
		}
		if p.mode == next {
			p.threat, p.safeFor = d.Attacker, 0
			continue
		}
		p.threat = d.Attacker
		p.enter(tc, next, "damaged by "+d.Attacker.Name())
	}
	if p.mode.Reactive() || p.pers.OnThreat == ModeJob || p.vehicle.DiscreteState() == models.Landed {
		return
	}
	threat, dist := p.sensor.Scan(p.vehicle, p.nav)
	if threat == nil {
		return
	}
	p.threat = threat
	p.enter(tc, p.pers.OnThreat, fmt.Sprintf("threat %s at %.0f", threat.Name(), dist))
}

func (p *Pilot) enter(tc maneuver.TickContext, mode Mode, cause string) {
	from := p.mode
	p.mode = mode
	p.active, p.retrying = nil, false
	p.safeFor = 0

	p.mem.AppendDecision(DecisionRecord{At: tc.Now, Mode: mode, Outcome: "mode", Detail: cause})
	p.log.Info("pilot mode changed",
		log.Stringer("from", from),
		log.Stringer("to", mode),
		log.String("cause", cause),
	)
	if p.eb == nil {
		return
	}
	ev := bus.NewEvent(events.PilotModeChanged, p.vehicle.Name(), tc.Now, events.ModeChange{
		Pilot: p.vehicle.Name(),
		From:  from.String(),
		To:    mode.String(),
		Cause: cause,
	}, nil)
	if err := p.eb.Publish(ev); err != nil {
		p.log.Warn("event handler failed", log.String("event", events.PilotModeChanged), log.Error(err))
	}
}

// drive ticks m and retires it once it stops running.
func (p *Pilot) drive(tc maneuver.TickContext, m maneuver.Maneuver) maneuver.Status {
	st := m.Tick(tc)
	if st == maneuver.StatusRunning {
		return st
	}
	rec := DecisionRecord{At: tc.Now, Mode: p.mode, Maneuver: m.Name(), Outcome: st.String()}
	if err := m.LastError(); err != nil {
		rec.Detail = err.Error()
		p.lastErr = err
	}
	p.mem.AppendDecision(rec)
	if p.active == m {
		p.active = nil
	}
	return st
}

func (p *Pilot) tickIdle(tc maneuver.TickContext) {
	if p.planner != nil {
		p.enter(tc, ModeJob, "planner "+p.planner.Name())
		return
	}
	if p.active == nil {
		p.active = maneuver.NewWait(p.vehicle, p.cfg.Supervisor.IdleWait, p.cfg.Approach.Transit)
	}
	p.drive(tc, p.active)
}

func (p *Pilot) tickJob(tc maneuver.TickContext) {
	if p.active == nil && !p.plan(tc) {
		return
	}
	m, retry := p.active, p.retrying
	switch p.drive(tc, m) {
	case maneuver.StatusSuccess:
		if !retry {
			p.failures = 0
			p.planner.Advance()
		}
	case maneuver.StatusFailure:
		if !retry {
			p.jobFailed(m.LastError())
		}
	}
}

// plan installs the planner's current step, or a retry wait when planning fails.
// It reports whether a maneuver is ready to run.
func (p *Pilot) plan(tc maneuver.TickContext) bool {
	if p.planner == nil {
		p.enter(tc, ModeIdle, "no planner")
		return false
	}
	m, err := p.planner.Plan(p)
	if err != nil {
		p.jobFailed(err)
		return true
	}
	if m == nil {
		p.log.Info("plan complete", log.String("planner", p.planner.Name()))
		p.planner = nil
		p.enter(tc, ModeIdle, "plan complete")
		return false
	}
	p.active, p.retrying = m, false
	return true
}

func (p *Pilot) jobFailed(err error) {
	p.lastErr = err
	p.failures++
	p.log.Warn("job step failed", log.Int("failures", p.failures), log.Error(err))
	if limit := p.cfg.Supervisor.MaxJobFailures; limit > 0 && p.failures >= limit {
		p.log.Warn("skipping job step", log.String("planner", p.planner.Name()))
		p.failures = 0
		p.planner.Advance()
	}
	p.active = maneuver.NewWait(p.vehicle, p.cfg.Supervisor.RetryWait, p.cfg.Approach.Transit)
	p.retrying = true
}

func (p *Pilot) tickAvoid(tc maneuver.TickContext) {
	if p.resumeWhenSafe(tc) {
		return
	}
	if p.active == nil {
		p.active = p.evade()
	}
	p.drive(tc, p.active)
}

func (p *Pilot) tickFlee(tc maneuver.TickContext) {
	if p.resumeWhenSafe(tc) {
		return
	}
	if p.active == nil {
		if p.vehicle.DiscreteState() == models.Landed {
			return
		}
		p.active = p.harbor()
	}
	p.drive(tc, p.active)
}

func (p *Pilot) tickAttack(tc maneuver.TickContext) {
	if p.resumeWhenSafe(tc) {
		return
	}
	if p.active == nil {
		p.active = p.engage()
	}
	p.drive(tc, p.active)
}

// resumeWhenSafe counts time spent out of the threat's reach and returns to the
// job once it reaches the configured safe time. Landed counts as out of reach.
func (p *Pilot) resumeWhenSafe(tc maneuver.TickContext) bool {
	if p.vehicle.DiscreteState() == models.Landed || !p.sensor.InRange(p.vehicle, p.threat) {
		p.safeFor += tc.DT
	} else {
		p.safeFor = 0
	}
	if p.safeFor < p.cfg.Supervisor.SafeTime {
		return false
	}
	p.threat = nil
	next := ModeIdle
	if p.planner != nil {
		next = ModeJob
	}
	p.enter(tc, next, "threat cleared")
	return true
}

// evade flies a leg directly away from the threat, or along the current heading
// when the threat is gone.
func (p *Pilot) evade() maneuver.Maneuver {
	pos := p.vehicle.Position()
	away := physics.FromAngle(p.vehicle.Heading(), 1)
	if p.threat != nil && p.threat.Valid() {
		if d := pos.Sub(p.threat.Position()).Unit(); d.LenSq() > 0 {
			away = d
		}
	}
	wp := maneuver.Waypoint{
		Label: "evade",
		At:    pos.Add(away.Scale(p.cfg.Supervisor.AvoidDistance)),
		In:    p.vehicle.Partition(),
	}
	return maneuver.NewFlyTo(p.vehicle, wp, p.cfg.Approach.Transit)
}

func (p *Pilot) harbor() maneuver.Maneuver {
	if p.nav == nil {
		return p.evade()
	}
	body := Harbor(p.vehicle, p.threat, p.nav.Landables(p.vehicle.Partition()))
	if body == nil {
		return p.evade()
	}
	if body.Kind() == models.KindAsteroid {
		return maneuver.NewAsteroidDock(p.vehicle, body, p.cfg.Approach.Asteroid)
	}
	return maneuver.NewLanding(p.vehicle, body, p.cfg.Approach.Landing)
}

func (p *Pilot) engage() maneuver.Maneuver {
	attack := p.cfg.Approach.Attack
	valid := models.StillValid(p.threat, p.vehicle.Partition())
	if valid && p.nav != nil {
		valid = p.nav.IsValidAttackTarget(p.vehicle, p.threat)
	}
	if !valid {
		return maneuver.NewWait(p.vehicle, p.cfg.Supervisor.SafeTime, attack)
	}
	if s, ok := p.vehicle.(interface{ SetSelectedTarget(models.Target) }); ok {
		s.SetSelectedTarget(p.threat)
	}
	return maneuver.NewPursue(p.vehicle, p.threat, attack, attack.ArrivalDistance)
}
