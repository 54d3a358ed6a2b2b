package suite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/phrazzld/users-qa/internal/check"
	"github.com/phrazzld/users-qa/internal/metrics"
	"github.com/phrazzld/users-qa/internal/platform/logger"
)

type environment struct {
	ctx        context.Context
	logger     *slog.Logger
	metrics    *metrics.Metrics
	failures   *logger.FailureLogger
	results    Results
	testLogger TestLogger
	filter     Filter
}

// T is the handle a scenario uses to report problems. Errorf and Check
// record soft failures and let the scenario continue; FailNow, Fatalf and
// Require stop it. Deferred calls in the scenario still run after a stop,
// so cleanup belongs in a defer.
type T struct {
	env        *environment
	id         TestID
	ctx        context.Context
	logger     *slog.Logger
	failed     bool
	skipped    bool
	skipReason string
	soft       int
	errors     []error
}

// Run executes action as the root of a scenario tree and returns the
// results of every scenario it started with T.Run. A nil testLogger
// discards progress output; a nil filter runs everything.
func Run(ctx context.Context, l *slog.Logger, m *metrics.Metrics, filter Filter, testLogger TestLogger, action func(*T)) Results {
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}
	if l == nil {
		l = slog.Default()
	}
	env := &environment{
		ctx:        ctx,
		logger:     l,
		metrics:    m,
		failures:   logger.NewFailureLogger(l),
		testLogger: testLogger,
		filter:     filter,
	}
	t := &T{env: env, ctx: ctx, logger: l}
	t.run(action)
	return env.results
}

func (t *T) run(action func(*T)) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			if t.skipped {
				return
			}
			t.failed = true
			var addError error
			if _, ok := r.(*T); ok {
				if len(t.errors) == 0 {
					addError = errors.New("scenario failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in scenario: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				t.errors = append(t.errors, addError)
				t.env.testLogger.TestError(t.id, addError)
			}
		}
		if len(t.id.Path) == 0 {
			return
		}
		result := TestResult{TestID: t.id, Errors: t.errors, Duration: time.Since(start)}
		t.env.results.Tests = append(t.env.results.Tests, result)
		if t.failed {
			t.env.results.Failures = append(t.env.results.Failures, result)
			t.env.failures.LogFailure(t.ctx, t.id.String(), errors.Join(t.errors...), map[string]any{
				"soft_failures": t.soft,
				"duration_ms":   result.Duration.Milliseconds(),
			})
		}
	}()

	action(t)
}

// ID returns the scenario path.
func (t *T) ID() TestID {
	return t.id
}

// Context returns a context carrying the scenario logger.
func (t *T) Context() context.Context {
	return t.ctx
}

// Logger returns the scenario logger.
func (t *T) Logger() *slog.Logger {
	return t.logger
}

// Run starts a child scenario. Filtered out children are reported as
// skipped without running.
func (t *T) Run(name string, action func(*T)) {
	id := TestID{Path: append(append([]string(nil), t.id.Path...), name)}

	t.env.testLogger.TestStarted(id)
	if t.env.filter != nil && !t.env.filter(id) {
		t.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}

	l := t.env.logger.With(slog.String("scenario", id.String()))
	child := &T{
		env:    t.env,
		id:     id,
		ctx:    logger.WithLogger(t.env.ctx, l),
		logger: l,
	}
	child.run(action)

	if child.skipped {
		t.env.results.Tests = append(t.env.results.Tests, TestResult{TestID: id, Skipped: true})
		t.env.results.Skipped = append(t.env.results.Skipped, TestResult{TestID: id, Skipped: true})
		t.env.failures.LogSkip(child.ctx, id.String(), child.skipReason)
		t.env.testLogger.TestSkipped(id, child.skipReason)
		return
	}
	t.env.testLogger.TestFinished(id, child.failed)
}

// Errorf records a failure and continues.
func (t *T) Errorf(format string, args ...any) {
	t.failed = true
	err := fmt.Errorf(format, args...)
	t.errors = append(t.errors, err)
	t.env.testLogger.TestError(t.id, err)
}

// FailNow stops the scenario. Errors recorded so far are kept.
func (t *T) FailNow() {
	t.failed = true
	panic(t)
}

// Fatalf records a failure and stops the scenario.
func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	t.FailNow()
}

// Require stops the scenario when err is non-nil.
func (t *T) Require(err error) {
	if err != nil {
		t.Fatalf("%s", err)
	}
}

// Check records every failed outcome of r as a soft failure and reports
// whether r passed.
func (t *T) Check(r *check.Report) bool {
	failures := r.Failures()
	for _, f := range failures {
		t.Errorf("%s", f.Message)
	}
	if len(failures) > 0 {
		t.soft += len(failures)
		t.env.metrics.SoftFailures(t.id.String(), len(failures))
	}
	return len(failures) == 0
}

// Skip stops the scenario and marks it skipped.
func (t *T) Skip(reason string) {
	t.skipped = true
	t.skipReason = reason
	panic(t)
}

// Helper satisfies check.TB.
func (t *T) Helper() {}

var _ check.TB = (*T)(nil)
