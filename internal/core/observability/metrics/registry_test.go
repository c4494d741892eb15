package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIgnoresTagOrder(t *testing.T) {
	a := Key("maneuver.completed", map[string]string{"kind": "landing", "pilot": "p1"})
	b := Key("maneuver.completed", map[string]string{"pilot": "p1", "kind": "landing"})
	c := Key("maneuver.completed", map[string]string{"pilot": "p2", "kind": "landing"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCounterAndGauge(t *testing.T) {
	r := NewRegistry()
	tags := map[string]string{"pilot": "p1"}

	r.Counter("restarts", tags).Inc()
	r.Counter("restarts", tags).Add(2)
	r.Counter("restarts", tags).Add(-5)
	assert.Equal(t, 3.0, r.Counter("restarts", tags).Value())

	g := r.Gauge("speed", tags)
	g.Set(10)
	g.Add(-4)
	assert.Equal(t, 6.0, g.Value())
}

func TestHistogramStats(t *testing.T) {
	r := NewRegistry()
	h := r.Histogram("approach.duration", nil)
	assert.Zero(t, h.Mean())

	for _, v := range []float64{2, 4, 9} {
		h.Observe(v)
	}
	assert.Equal(t, uint64(3), h.Count())
	assert.Equal(t, 15.0, h.Sum())
	assert.Equal(t, 5.0, h.Mean())
	assert.Equal(t, 2.0, h.Min())
	assert.Equal(t, 9.0, h.Max())
}

func TestExportSorted(t *testing.T) {
	r := NewRegistry()
	r.Counter("b", nil).Inc()
	r.Gauge("a", nil).Set(1)

	out := r.Export()
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Name)
	assert.Equal(t, KindGauge, out[0].Kind)
	assert.Equal(t, "b", out[1].Name)
}
