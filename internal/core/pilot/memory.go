package pilot

// DecisionRecord is one entry in a pilot's history: a mode change or the end of
// a maneuver.
type DecisionRecord struct {
	At       float64
	Mode     Mode
	Maneuver string
	Outcome  string
	Detail   string
}

// Memory keeps the most recent decisions in a fixed-size ring. It belongs to one
// pilot and shares its goroutine.
type Memory struct {
	ring  []DecisionRecord
	next  int
	count int
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 1
	}
	return &Memory{ring: make([]DecisionRecord, size)}
}

func (m *Memory) AppendDecision(rec DecisionRecord) {
	m.ring[m.next] = rec
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}
}

// History returns the retained records, oldest first.
func (m *Memory) History() []DecisionRecord {
	out := make([]DecisionRecord, 0, m.count)
	start := (m.next - m.count + len(m.ring)) % len(m.ring)
	for i := 0; i < m.count; i++ {
		out = append(out, m.ring[(start+i)%len(m.ring)])
	}
	return out
}

func (m *Memory) Len() int { return m.count }

func (m *Memory) Reset() { m.next, m.count = 0, 0 }
