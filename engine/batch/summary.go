package batch

import (
	"fmt"
	"io"
	"time"
)

// Counts tallies the items of one phase.
type Counts struct {
	Processed int
	Succeeded int
	Skipped   int
	Failed    int
}

// Summary is the report of one run.
type Summary struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Output   string
	// Failures lists every failed item in processing order.
	Failures []Item
	// Fatal is set when the run aborted.
	Fatal error

	phases [numPhases]Counts
}

func (s *Summary) add(it Item) {
	c := &s.phases[it.Phase]
	c.Processed++
	switch it.Status {
	case Succeeded:
		c.Succeeded++
	case Skipped:
		c.Skipped++
	default:
		c.Failed++
		s.Failures = append(s.Failures, it)
	}
}

// Counts returns the tallies for one phase.
func (s *Summary) Counts(p Phase) Counts {
	if p < 0 || p >= numPhases {
		return Counts{}
	}
	return s.phases[p]
}

// Failed is the number of failed items over all phases.
func (s *Summary) Failed() int {
	return len(s.Failures)
}

// WriteTo prints a per-phase table followed by the failed items.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	var n int64
	printf := func(format string, args ...any) error {
		k, err := fmt.Fprintf(w, format, args...)
		n += int64(k)
		return err
	}

	if err := printf("run %s  %s\n", s.RunID, s.Duration.Round(time.Millisecond)); err != nil {
		return n, err
	}
	if err := printf("%-18s %9s %9s %9s %9s\n", "phase", "processed", "ok", "skipped", "failed"); err != nil {
		return n, err
	}
	for p := PhaseLoadTextures; p < PhaseSerialize; p++ {
		c := s.phases[p]
		if err := printf("%-18s %9d %9d %9d %9d\n", p, c.Processed, c.Succeeded, c.Skipped, c.Failed); err != nil {
			return n, err
		}
	}
	for _, it := range s.Failures {
		if err := printf("  %s %s %s: %s: %v\n", it.Phase, it.Kind, it.Name, it.Reason, it.Err); err != nil {
			return n, err
		}
	}
	if s.Output != "" {
		if err := printf("wrote %s\n", s.Output); err != nil {
			return n, err
		}
	}
	if s.Fatal != nil {
		if err := printf("aborted: %v\n", s.Fatal); err != nil {
			return n, err
		}
	}
	return n, nil
}
