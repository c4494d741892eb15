package metrics

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var _ Collector = (*Registry)(nil)

// Registry is an in-process Collector. Series are keyed by an xxhash of the metric
// name and its sorted tags, so the same name+tags always resolves to the same series.
type Registry struct {
	mu     sync.RWMutex
	series map[uint64]*series
}

type series struct {
	name string
	tags map[string]string
	kind Kind

	mu    sync.Mutex
	value float64
	count uint64
	min   float64
	max   float64
}

func NewRegistry() *Registry {
	return &Registry{series: make(map[uint64]*series)}
}

// Key returns the series key for name and tags.
func Key(name string, tags map[string]string) uint64 {
	if len(tags) == 0 {
		return xxhash.Sum64String(name)
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	return xxhash.Sum64String(b.String())
}

func (r *Registry) get(name string, tags map[string]string, kind Kind) *series {
	key := Key(name, tags)

	r.mu.RLock()
	s, ok := r.series[key]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.series[key]; ok {
		return s
	}
	copied := make(map[string]string, len(tags))
	for k, v := range tags {
		copied[k] = v
	}
	s = &series{name: name, tags: copied, kind: kind, min: math.Inf(1), max: math.Inf(-1)}
	r.series[key] = s
	return s
}

func (r *Registry) Counter(name string, tags map[string]string) Counter {
	return (*counter)(r.get(name, tags, KindCounter))
}

func (r *Registry) Gauge(name string, tags map[string]string) Gauge {
	return (*gauge)(r.get(name, tags, KindGauge))
}

func (r *Registry) Histogram(name string, tags map[string]string) Histogram {
	return (*histogram)(r.get(name, tags, KindHistogram))
}

// Export snapshots every series, ordered by name.
func (r *Registry) Export() []Family {
	r.mu.RLock()
	out := make([]Family, 0, len(r.series))
	for _, s := range r.series {
		s.mu.Lock()
		f := Family{Name: s.name, Tags: s.tags, Kind: s.kind, Value: s.value, Count: s.count}
		if s.count > 0 {
			f.Min, f.Max = s.min, s.max
		}
		s.mu.Unlock()
		out = append(out, f)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return Key(out[i].Name, out[i].Tags) < Key(out[j].Name, out[j].Tags)
	})
	return out
}

type counter series

func (c *counter) Inc() { c.Add(1) }

func (c *counter) Add(v float64) {
	if v < 0 {
		return
	}
	c.mu.Lock()
	c.value += v
	c.count++
	c.mu.Unlock()
}

func (c *counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

type gauge series

func (g *gauge) Set(v float64) {
	g.mu.Lock()
	g.value = v
	g.count++
	g.mu.Unlock()
}

func (g *gauge) Add(v float64) {
	g.mu.Lock()
	g.value += v
	g.count++
	g.mu.Unlock()
}

func (g *gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

type histogram series

func (h *histogram) Observe(v float64) {
	h.mu.Lock()
	h.value += v
	h.count++
	h.min = math.Min(h.min, v)
	h.max = math.Max(h.max, v)
	h.mu.Unlock()
}

func (h *histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (h *histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

func (h *histogram) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return 0
	}
	return h.value / float64(h.count)
}

func (h *histogram) Min() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return 0
	}
	return h.min
}

func (h *histogram) Max() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return 0
	}
	return h.max
}
