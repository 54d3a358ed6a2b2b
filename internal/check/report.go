// Package check implements soft assertions: checks record their outcome and
// let the caller carry on, so a single run surfaces every mismatch instead of
// only the first one. Failures are inspected (or reported to a testing.TB)
// once all checks have run.
package check

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
)

// Outcome is the result of one check.
type Outcome struct {
	Passed  bool
	Message string
}

func (o Outcome) String() string {
	if o.Passed {
		return "PASS: " + o.Message
	}
	return "FAIL: " + o.Message
}

// Report accumulates outcomes. The zero value is ready to use. A Report is
// owned by a single test and is not safe for concurrent use.
type Report struct {
	outcomes []Outcome
}

// New returns an empty Report.
func New() *Report { return &Report{} }

func (r *Report) record(passed bool, format string, args ...any) bool {
	r.outcomes = append(r.outcomes, Outcome{Passed: passed, Message: fmt.Sprintf(format, args...)})
	return passed
}

// True records a check that cond holds.
func (r *Report) True(cond bool, format string, args ...any) bool {
	return r.record(cond, format, args...)
}

// False records a check that cond does not hold.
func (r *Report) False(cond bool, format string, args ...any) bool {
	return r.record(!cond, format, args...)
}

// Equal records a check that actual equals expected.
func Equal[T comparable](r *Report, actual, expected T, format string, args ...any) bool {
	if actual == expected {
		return r.record(true, format, args...)
	}
	msg := fmt.Sprintf(format, args...)
	return r.record(false, "%s: expected %v, got %v", msg, expected, actual)
}

// NotEqual records a check that a and b differ.
func NotEqual[T comparable](r *Report, a, b T, format string, args ...any) bool {
	if a != b {
		return r.record(true, format, args...)
	}
	msg := fmt.Sprintf(format, args...)
	return r.record(false, "%s: both are %v", msg, a)
}

// Less records a check that actual is strictly less than limit.
func Less[T cmp.Ordered](r *Report, actual, limit T, format string, args ...any) bool {
	return r.record(actual < limit, format, args...)
}

// Failf records an unconditional failure.
func (r *Report) Failf(format string, args ...any) {
	r.record(false, format, args...)
}

// Merge appends all outcomes of other to r.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.outcomes = append(r.outcomes, other.outcomes...)
}

// Outcomes returns every recorded outcome in order.
func (r *Report) Outcomes() []Outcome {
	return append([]Outcome(nil), r.outcomes...)
}

// Failures returns only the failed outcomes.
func (r *Report) Failures() []Outcome {
	var ret []Outcome
	for _, o := range r.outcomes {
		if !o.Passed {
			ret = append(ret, o)
		}
	}
	return ret
}

// OK reports whether no check has failed.
func (r *Report) OK() bool {
	return len(r.Failures()) == 0
}

// Err joins all failure messages into one error, or returns nil.
func (r *Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, errors.New(f.Message))
	}
	return errors.Join(errs...)
}

func (r *Report) String() string {
	lines := make([]string, 0, len(r.outcomes))
	for _, o := range r.outcomes {
		lines = append(lines, o.String())
	}
	return strings.Join(lines, "\n")
}

// TB is the subset of testing.TB used to surface failures.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
}

// AssertOK reports every accumulated failure to t without stopping it.
func (r *Report) AssertOK(t TB) bool {
	t.Helper()
	failures := r.Failures()
	for _, f := range failures {
		t.Errorf("%s", f.Message)
	}
	return len(failures) == 0
}
