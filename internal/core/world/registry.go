package world

import (
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// Handle addresses an entity slot. A slot is reused after removal with a bumped
// generation, so stale handles stop resolving instead of aliasing the newcomer.
type Handle struct {
	Index uint32
	Gen   uint32
}

// IsZero reports whether h was never issued. Generations start at 1.
func (h Handle) IsZero() bool { return h.Gen == 0 }

// Entity is anything stored in the registry.
type Entity interface {
	Handle() Handle
	Name() string
	Partition() models.PartitionID
	Position() physics.Vec2
	Velocity() physics.Vec2
	Radius() float64
}

type slot struct {
	gen   uint32
	value Entity
}

// Registry owns every entity of a world. Lookups are by Handle.
type Registry struct {
	slots []slot
	free  []uint32
	live  int
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Insert stores the entity built by mk under a fresh handle.
func (r *Registry) Insert(mk func(Handle) Entity) Handle {
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, slot{})
	}
	s := &r.slots[idx]
	s.gen++
	h := Handle{Index: idx, Gen: s.gen}
	s.value = mk(h)
	r.live++
	return h
}

// Remove drops the entity behind h. It reports false for stale handles.
func (r *Registry) Remove(h Handle) bool {
	if !r.Alive(h) {
		return false
	}
	r.slots[h.Index].value = nil
	r.free = append(r.free, h.Index)
	r.live--
	return true
}

func (r *Registry) Alive(h Handle) bool {
	if h.IsZero() || int(h.Index) >= len(r.slots) {
		return false
	}
	s := r.slots[h.Index]
	return s.gen == h.Gen && s.value != nil
}

func (r *Registry) Get(h Handle) (Entity, bool) {
	if !r.Alive(h) {
		return nil, false
	}
	return r.slots[h.Index].value, true
}

func (r *Registry) Len() int { return r.live }

// Each visits live entities in slot order. fn may remove entities.
func (r *Registry) Each(fn func(Entity)) {
	for i := range r.slots {
		if v := r.slots[i].value; v != nil {
			fn(v)
		}
	}
}
