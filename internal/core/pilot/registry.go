package pilot

import (
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// Factory builds a planner from its scenario parameters.
type Factory func(params map[string]any) (Planner, error)

// Registry maps planner names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	r.factories[name] = f
	r.mu.Unlock()
}

func (r *Registry) New(name string, params map[string]any) (Planner, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown planner: %s", name)
	}
	return f(params)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins installs route, escort, patrol and idle.
func RegisterBuiltins(r *Registry) {
	r.Register("route", func(params map[string]any) (Planner, error) {
		var p struct {
			Steps []Step `yaml:"steps"`
			Loop  bool   `yaml:"loop"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return NewRoutePlanner(p.Steps, p.Loop)
	})
	r.Register("escort", func(params map[string]any) (Planner, error) {
		var p struct {
			Leader string `yaml:"leader"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Leader == "" {
			return nil, fmt.Errorf("escort planner requires a leader")
		}
		return NewEscortPlanner(p.Leader), nil
	})
	r.Register("patrol", func(params map[string]any) (Planner, error) {
		var p struct {
			Points [][2]float64 `yaml:"points"`
			Dwell  float64      `yaml:"dwell"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		pts := make([]physics.Vec2, len(p.Points))
		for i, xy := range p.Points {
			pts[i] = physics.V(xy[0], xy[1])
		}
		return NewPatrolPlanner(pts, p.Dwell)
	})
	r.Register("idle", func(map[string]any) (Planner, error) { return nil, nil })
}

// decodeParams round-trips a loosely typed parameter map through YAML into out.
func decodeParams(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	b, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode planner params: %w", err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode planner params: %w", err)
	}
	return nil
}
