// Package saga runs a linear sequence of named steps against external
// collaborators. There is no automatic rollback: when a step fails, the
// compensations of already-completed steps are logged as orphaned work so the
// inconsistency is visible, but they are not executed. Callers that need
// cleanup can fetch them via Pending.
package saga

import (
	"context"
	"fmt"
	"log/slog"
)

type Step struct {
	Name string
	Run  func(ctx context.Context) error

	// Compensate describes how this step would be undone. Recorded, never
	// executed by the sequence itself.
	Compensate func(ctx context.Context) error

	// BestEffort steps log their failure and let the sequence continue.
	BestEffort bool
}

// StepError names the step that aborted the sequence.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("step %s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

type Sequence struct {
	log       *slog.Logger
	name      string
	steps     []Step
	completed []Step
}

func New(log *slog.Logger, name string, steps ...Step) *Sequence {
	return &Sequence{log: log, name: name, steps: steps}
}

func (s *Sequence) Run(ctx context.Context) error {
	for _, st := range s.steps {
		if err := st.Run(ctx); err != nil {
			if st.BestEffort {
				s.log.Warn("best-effort step failed",
					"saga", s.name, "step", st.Name, "err", err)
				continue
			}
			s.log.Error("saga aborted",
				"saga", s.name, "step", st.Name, "err", err,
				"completed", s.Completed(), "orphaned", s.compensatable())
			return &StepError{Step: st.Name, Err: err}
		}
		s.completed = append(s.completed, st)
	}
	return nil
}

// Completed returns the names of steps that ran successfully, in order.
func (s *Sequence) Completed() []string {
	names := make([]string, 0, len(s.completed))
	for _, st := range s.completed {
		names = append(names, st.Name)
	}
	return names
}

// Pending returns compensations for completed steps, most recent first.
func (s *Sequence) Pending() []Step {
	var out []Step
	for i := len(s.completed) - 1; i >= 0; i-- {
		if s.completed[i].Compensate != nil {
			out = append(out, s.completed[i])
		}
	}
	return out
}

func (s *Sequence) compensatable() []string {
	var names []string
	for _, st := range s.completed {
		if st.Compensate != nil {
			names = append(names, st.Name)
		}
	}
	return names
}
