package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/phrazzld/users-qa/internal/ciutil"
)

// CIHandler is a slog.Handler that adds CI environment metadata and source
// code location to log records.
type CIHandler struct {
	handler   slog.Handler
	metadata  map[string]string
	addSource bool
}

// NewCIHandler creates a new CIHandler that writes JSON to out.
func NewCIHandler(out io.Writer, opts *slog.HandlerOptions) *CIHandler {
	handlerOpts := &slog.HandlerOptions{}
	if opts != nil {
		// Clone the options to avoid modifying the caller's options
		handlerOptsCopy := *opts
		handlerOpts = &handlerOptsCopy
	}

	return &CIHandler{
		handler:   slog.NewJSONHandler(out, handlerOpts),
		metadata:  getCIMetadata(),
		addSource: handlerOpts.AddSource,
	}
}

// getCIMetadata collects identifying values of the current CI job.
func getCIMetadata() map[string]string {
	md := make(map[string]string)
	add := func(key, env string) {
		if v := os.Getenv(env); v != "" {
			md[key] = v
		}
	}

	switch {
	case ciutil.IsGitHubActions():
		md["ci_provider"] = "github_actions"
		add("ci_run_id", "GITHUB_RUN_ID")
		add("ci_job", "GITHUB_JOB")
		add("ci_ref", "GITHUB_REF")
		add("ci_sha", "GITHUB_SHA")
	case ciutil.IsGitLabCI():
		md["ci_provider"] = "gitlab_ci"
		add("ci_run_id", "CI_PIPELINE_ID")
		add("ci_job", "CI_JOB_NAME")
		add("ci_ref", "CI_COMMIT_REF_NAME")
		add("ci_sha", "CI_COMMIT_SHA")
	case ciutil.IsCI():
		md["ci_provider"] = "generic"
	}
	return md
}

// Enabled implements the slog.Handler interface.
func (h *CIHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *CIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CIHandler{
		handler:   h.handler.WithAttrs(attrs),
		metadata:  h.metadata,
		addSource: h.addSource,
	}
}

// WithGroup implements the slog.Handler interface.
func (h *CIHandler) WithGroup(name string) slog.Handler {
	return &CIHandler{
		handler:   h.handler.WithGroup(name),
		metadata:  h.metadata,
		addSource: h.addSource,
	}
}

// Handle implements the slog.Handler interface.
func (h *CIHandler) Handle(ctx context.Context, record slog.Record) error {
	enhanced := record.Clone()

	if h.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		enhanced.AddAttrs(
			slog.String("source_file", frame.File),
			slog.Int("source_line", frame.Line),
			slog.String("source_func", frame.Function),
		)
	}

	for key, value := range h.metadata {
		enhanced.AddAttrs(slog.String(key, value))
	}
	if id, ok := RunID(ctx); ok {
		enhanced.AddAttrs(slog.String("run_id", id))
	}

	nanoseconds := enhanced.Time.UnixNano() % int64(time.Second)
	enhanced.AddAttrs(slog.Int64("timestamp_nano", nanoseconds))

	return h.handler.Handle(ctx, enhanced)
}

// FailureLogger logs scenario failures and skips in a shape that is easy
// to grep in CI output.
type FailureLogger struct {
	logger *slog.Logger
}

// NewFailureLogger creates a FailureLogger writing to baseLogger.
func NewFailureLogger(baseLogger *slog.Logger) *FailureLogger {
	return &FailureLogger{logger: baseLogger}
}

// LogFailure logs a failed scenario at ERROR level with its details.
func (fl *FailureLogger) LogFailure(
	ctx context.Context,
	scenario string,
	err error,
	details map[string]any,
) {
	attrs := []any{
		"scenario", scenario,
		"status", "failed",
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	for k, v := range details {
		attrs = append(attrs, k, v)
	}
	fl.logger.ErrorContext(ctx, "SCENARIO FAILURE", attrs...)
}

// LogSkip logs a skipped scenario.
func (fl *FailureLogger) LogSkip(ctx context.Context, scenario string, reason string) {
	fl.logger.WarnContext(ctx, "SCENARIO SKIPPED",
		"scenario", scenario,
		"status", "skipped",
		"reason", reason,
	)
}
