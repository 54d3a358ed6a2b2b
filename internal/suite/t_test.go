package suite

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/phrazzld/users-qa/internal/check"
	"github.com/phrazzld/users-qa/internal/metrics"
	"github.com/phrazzld/users-qa/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRecordsOutcomes(t *testing.T) {
	l, logBuf := logger.GetTestLogger(t)
	var continuedAfterSoft, continuedAfterHard, cleanedUp bool

	results := Run(context.Background(), l, nil, nil, nil, func(t *T) {
		t.Run("pass", func(t *T) {})
		t.Run("soft", func(t *T) {
			t.Errorf("first")
			t.Errorf("second")
			continuedAfterSoft = true
		})
		t.Run("hard", func(t *T) {
			defer func() { cleanedUp = true }()
			t.Fatalf("stop here")
			continuedAfterHard = true
		})
		t.Run("panic", func(t *T) {
			var m map[string]int
			m["x"] = 1
		})
		t.Run("skip", func(t *T) {
			t.Skip("not today")
		})
	})

	assert.True(t, continuedAfterSoft)
	assert.False(t, continuedAfterHard)
	assert.True(t, cleanedUp, "deferred calls run when a scenario stops")

	require.Len(t, results.Tests, 5)
	require.Len(t, results.Failures, 3)
	assert.Equal(t, "soft", results.Failures[0].TestID.String())
	assert.Len(t, results.Failures[0].Errors, 2)
	assert.EqualError(t, results.Failures[1].Errors[0], "stop here")
	assert.Contains(t, results.Failures[2].Errors[0].Error(), "unexpected panic in scenario")
	require.Len(t, results.Skipped, 1)
	assert.Equal(t, "skip", results.Skipped[0].TestID.String())
	assert.Equal(t, 1, results.Passed())
	assert.False(t, results.OK())

	logger.AssertLogContains(t, logBuf, "SCENARIO FAILURE")
	logger.AssertLogContains(t, logBuf, "SCENARIO SKIPPED")
}

func TestNestedScenarioIDs(t *testing.T) {
	var seen []string
	Run(context.Background(), nil, nil, nil, nil, func(t *T) {
		t.Run("api", func(t *T) {
			t.Run("get", func(t *T) {
				seen = append(seen, t.ID().String())
			})
			t.Run("create", func(t *T) {
				seen = append(seen, t.ID().String())
			})
		})
	})

	assert.Equal(t, []string{"api/get", "api/create"}, seen)
}

func TestScenarioContextCarriesLogger(t *testing.T) {
	l, logBuf := logger.GetTestLogger(t)
	Run(context.Background(), l, nil, nil, nil, func(t *T) {
		t.Run("ctx", func(t *T) {
			logger.FromContext(t.Context()).Info("inside")
		})
	})

	logger.AssertLogField(t, logBuf, "scenario", "ctx")
}

func TestCheckRecordsSoftFailures(t *testing.T) {
	m := metrics.New()
	var passed bool
	results := Run(context.Background(), nil, m, nil, nil, func(t *T) {
		t.Run("checks", func(t *T) {
			r := check.New()
			r.True(true, "fine")
			r.True(false, "broken")
			check.Equal(r, 1, 2, "numbers")
			passed = t.Check(r)
		})
	})

	assert.False(t, passed)
	require.Len(t, results.Failures, 1)
	assert.Len(t, results.Failures[0].Errors, 2)
	expected := `
# HELP usersqa_soft_assertion_failures_total Soft assertion failures recorded per scenario.
# TYPE usersqa_soft_assertion_failures_total counter
usersqa_soft_assertion_failures_total{scenario="checks"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "usersqa_soft_assertion_failures_total"))
}

func TestFilterExcludesScenarios(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("slow"))
	var ran []string

	results := Run(context.Background(), nil, nil, filters.AsFilter, nil, func(t *T) {
		for _, name := range []string{"fast", "slow", "also_fast"} {
			t.Run(name, func(t *T) { ran = append(ran, name) })
		}
	})

	assert.Equal(t, []string{"fast", "also_fast"}, ran)
	assert.Len(t, results.Tests, 2)
}

func TestRegexFilters(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustMatch.Set("api/create"))
	require.NoError(t, filters.MustMatch.Set("^ui$"))
	require.NoError(t, filters.MustNotMatch.Set("invalid"))

	for path, want := range map[string]bool{
		"api":                     true,
		"api/create":              true,
		"api/create/valid":        true,
		"api/create/invalid_mail": false,
		"api/get":                 false,
		"ui":                      true,
		"ui/rows_per_page/25":     true,
		"uix":                     false,
	} {
		id := TestID{Path: strings.Split(path, "/")}
		assert.Equal(t, want, filters.AsFilter(id), path)
	}

	assert.Equal(t, `skip any not matching "api/create" or "^ui$"`+"\n"+`skip any matching "invalid"`, filters.Describe())
	assert.Empty(t, RegexFilters{}.Describe())
}

func TestRegexListRejectsInvalidPattern(t *testing.T) {
	var list RegexList

	assert.ErrorContains(t, list.Set("api/(unclosed"), "invalid regex")
	assert.False(t, list.IsDefined())
}

func TestConsoleTestLogger(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	c := &ConsoleTestLogger{Out: &buf, Verbose: true}

	Run(context.Background(), nil, nil, nil, c, func(t *T) {
		t.Run("ok", func(t *T) {})
		t.Run("bad", func(t *T) { t.Errorf("line one\nline two") })
		t.Run("later", func(t *T) { t.Skip("no browser") })
	})

	assert.Equal(t, strings.Join([]string{
		"[ok]",
		"  PASSED: ok",
		"[bad]",
		"  line one",
		"  line two",
		"  FAILED: bad",
		"[later]",
		"  SKIPPED: later (no browser)",
		"",
	}, "\n"), buf.String())
}

func TestPrintResults(t *testing.T) {
	color.NoColor = true
	results := Run(context.Background(), nil, nil, nil, nil, func(t *T) {
		t.Run("good", func(t *T) {})
		t.Run("bad", func(t *T) { t.Errorf("status 500 in expected [200]") })
	})

	var buf bytes.Buffer
	PrintResults(&buf, results)

	assert.Contains(t, buf.String(), "FAILED 1 of 2 scenarios:")
	assert.Contains(t, buf.String(), "      status 500 in expected [200]")

	buf.Reset()
	PrintResults(&buf, Results{Tests: []TestResult{{TestID: TestID{Path: []string{"x"}}}}})
	assert.Contains(t, buf.String(), "All scenarios passed (1 passed, 0 skipped)")
}
