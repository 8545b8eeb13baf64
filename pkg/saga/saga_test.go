package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/ozkantan/lokma/pkg/logging"
)

func TestRunStopsAtFirstFailure(t *testing.T) {
	var ran []string
	step := func(name string, err error) Step {
		return Step{Name: name, Run: func(context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}

	boom := errors.New("boom")
	seq := New(logging.Discard(), "test",
		step("one", nil),
		step("two", boom),
		step("three", nil),
	)

	err := seq.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from failing step")
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != "two" {
		t.Fatalf("expected StepError naming step two, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if len(ran) != 2 {
		t.Fatalf("expected step three to be skipped, ran %v", ran)
	}
	if got := seq.Completed(); len(got) != 1 || got[0] != "one" {
		t.Fatalf("expected only step one completed, got %v", got)
	}
}

func TestBestEffortFailureDoesNotAbort(t *testing.T) {
	var last string
	seq := New(logging.Discard(), "test",
		Step{Name: "flaky", BestEffort: true, Run: func(context.Context) error {
			return errors.New("ignored")
		}},
		Step{Name: "final", Run: func(context.Context) error {
			last = "final"
			return nil
		}},
	)

	if err := seq.Run(context.Background()); err != nil {
		t.Fatalf("best-effort failure must not abort: %v", err)
	}
	if last != "final" {
		t.Fatal("expected final step to run")
	}
}

func TestPendingReturnsCompensationsNewestFirst(t *testing.T) {
	noop := func(context.Context) error { return nil }
	seq := New(logging.Discard(), "test",
		Step{Name: "a", Run: noop, Compensate: noop},
		Step{Name: "b", Run: noop},
		Step{Name: "c", Run: noop, Compensate: noop},
	)
	if err := seq.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending := seq.Pending()
	if len(pending) != 2 || pending[0].Name != "c" || pending[1].Name != "a" {
		names := make([]string, len(pending))
		for i, p := range pending {
			names[i] = p.Name
		}
		t.Fatalf("expected [c a], got %v", names)
	}
}
