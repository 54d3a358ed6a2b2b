package suite

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// TestLogger receives progress events while scenarios run.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, failed bool)
	TestSkipped(id TestID, reason string)
}

type nullTestLogger struct{}

func (nullTestLogger) TestStarted(TestID)         {}
func (nullTestLogger) TestError(TestID, error)    {}
func (nullTestLogger) TestFinished(TestID, bool)  {}
func (nullTestLogger) TestSkipped(TestID, string) {}

var (
	failColor = color.New(color.FgRed, color.Bold)
	skipColor = color.New(color.FgYellow)
	passColor = color.New(color.FgGreen)
	nameColor = color.New(color.Faint)
)

// ConsoleTestLogger prints progress to Out, or stdout when Out is nil.
type ConsoleTestLogger struct {
	Out io.Writer
	// Verbose also prints a line for every passing scenario.
	Verbose bool
}

func (c *ConsoleTestLogger) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *ConsoleTestLogger) TestStarted(id TestID) {
	nameColor.Fprintf(c.out(), "[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(_ TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.out(), "  %s\n", line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id TestID, failed bool) {
	switch {
	case failed:
		failColor.Fprintf(c.out(), "  FAILED: %s\n", id)
	case c.Verbose:
		passColor.Fprintf(c.out(), "  PASSED: %s\n", id)
	}
}

func (c *ConsoleTestLogger) TestSkipped(id TestID, reason string) {
	if reason == "" {
		skipColor.Fprintf(c.out(), "  SKIPPED: %s\n", id)
	} else {
		skipColor.Fprintf(c.out(), "  SKIPPED: %s (%s)\n", id, reason)
	}
}

// PrintResults writes a summary of results to w.
func PrintResults(w io.Writer, results Results) {
	fmt.Fprintln(w)
	if results.OK() {
		passColor.Fprintf(w, "All scenarios passed (%d passed, %d skipped)\n", results.Passed(), len(results.Skipped))
		return
	}
	failColor.Fprintf(w, "FAILED %d of %d scenarios:\n", len(results.Failures), len(results.Tests))
	for _, f := range results.Failures {
		fmt.Fprintf(w, "  %s\n", f.TestID)
		for _, err := range f.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}
}
