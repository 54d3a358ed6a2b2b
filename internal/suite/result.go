package suite

import (
	"fmt"
	"strings"
	"time"
)

// TestID identifies a scenario by its path in the scenario tree.
type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

// TestResult is the outcome of one scenario.
type TestResult struct {
	TestID   TestID
	Errors   []error
	Skipped  bool
	Duration time.Duration
}

// Failed reports whether the scenario recorded any error.
func (r TestResult) Failed() bool {
	return len(r.Errors) > 0
}

// Results collects every scenario outcome of a run.
type Results struct {
	Tests    []TestResult
	Failures []TestResult
	Skipped  []TestResult
}

// OK reports whether no scenario failed.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Passed returns the number of scenarios that ran without errors.
func (r Results) Passed() int {
	return len(r.Tests) - len(r.Failures) - len(r.Skipped)
}

// TestFailure pairs an error with the scenario that produced it.
type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

func (f TestFailure) Unwrap() error {
	return f.Err
}
