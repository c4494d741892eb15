package sim

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// TraceRow is one ship's state at one sample time.
type TraceRow struct {
	Time      float64 `csv:"time"`
	Ship      string  `csv:"ship"`
	Partition string  `csv:"partition"`
	X         float64 `csv:"x"`
	Y         float64 `csv:"y"`
	VX        float64 `csv:"vx"`
	VY        float64 `csv:"vy"`
	Heading   float64 `csv:"heading"`
	Thrust    bool    `csv:"thrust"`
	State     string  `csv:"state"`
	Hull      float64 `csv:"hull"`
	Mode      string  `csv:"mode"`
	Maneuver  string  `csv:"maneuver"`
}

// Recorder appends trace rows to a CSV stream. A nil Recorder discards rows.
type Recorder struct {
	out           io.Writer
	headerWritten bool
	rows          int
}

func NewRecorder(out io.Writer) *Recorder {
	return &Recorder{out: out}
}

func (r *Recorder) Rows() int {
	if r == nil {
		return 0
	}
	return r.rows
}

// Write appends rows, emitting the header with the first batch.
func (r *Recorder) Write(rows []TraceRow) error {
	if r == nil || len(rows) == 0 {
		return nil
	}
	if !r.headerWritten {
		if err := gocsv.Marshal(rows, r.out); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(rows, r.out); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}
	r.rows += len(rows)
	return nil
}
