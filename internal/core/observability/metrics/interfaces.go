package metrics

type Collector interface {
	Counter(name string, tags map[string]string) Counter
	Gauge(name string, tags map[string]string) Gauge
	Histogram(name string, tags map[string]string) Histogram

	Export() []Family
}

// Family is one exported series.
type Family struct {
	Name  string
	Tags  map[string]string
	Kind  Kind
	Value float64
	Count uint64
	Min   float64
	Max   float64
}

type Kind uint8

const (
	KindCounter Kind = iota
	KindGauge
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

type Counter interface {
	Inc()
	Add(float64)
	Value() float64
}

type Gauge interface {
	Set(float64)
	Add(float64)
	Value() float64
}

type Histogram interface {
	Observe(float64)
	Count() uint64
	Sum() float64
	Mean() float64
	Min() float64
	Max() float64
}
