package wisp

import (
	"fmt"
	"io"
)

// SearchPosition describes the point at which the search engine hit a
// conflict: the partial assignment in effect and the constraints that
// reported Violated.
type SearchPosition interface {
	Assignment() Assignment
	Conflicts() []Constraint
}

// Tracer is notified of conflicts as the search engine encounters
// them.
type Tracer interface {
	Trace(p SearchPosition)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ SearchPosition) {
}

type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p SearchPosition) {
	fmt.Fprintf(t.Writer, "---\nAssignment:\n- %s\nConflict:\n", p.Assignment())
	for _, c := range p.Conflicts() {
		fmt.Fprintf(t.Writer, "- %s\n", c)
	}
}
