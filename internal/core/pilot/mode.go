package pilot

import "sort"

// Mode is the supervisor's top-level behaviour.
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeJob
	ModeAvoid
	ModeFlee
	ModeAttack
)

var modeNames = [...]string{
	ModeIdle:   "idle",
	ModeJob:    "job",
	ModeAvoid:  "avoid",
	ModeFlee:   "flee",
	ModeAttack: "attack",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// Reactive reports whether m is a response to a threat.
func (m Mode) Reactive() bool {
	return m == ModeAvoid || m == ModeFlee || m == ModeAttack
}

// Personality decides how a pilot reacts to hostiles. ModeJob means ignore.
type Personality struct {
	Name     string
	OnThreat Mode
	OnDamage Mode
}

var personalities = map[string]Personality{
	"trader":  {Name: "trader", OnThreat: ModeAvoid, OnDamage: ModeFlee},
	"coward":  {Name: "coward", OnThreat: ModeFlee, OnDamage: ModeFlee},
	"fighter": {Name: "fighter", OnThreat: ModeAttack, OnDamage: ModeAttack},
	"guard":   {Name: "guard", OnThreat: ModeJob, OnDamage: ModeAttack},
	"passive": {Name: "passive", OnThreat: ModeJob, OnDamage: ModeJob},
}

func LookupPersonality(name string) (Personality, bool) {
	p, ok := personalities[name]
	return p, ok
}

// Personalities lists the known personality names.
func Personalities() []string {
	names := make([]string, 0, len(personalities))
	for n := range personalities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
