// Package main implements usersqa, which runs the Users API and UI
// scenarios against a deployment (or an in-process sandbox) and exits
// non-zero when any scenario fails.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/users-qa/internal/api"
	"github.com/phrazzld/users-qa/internal/ciutil"
	"github.com/phrazzld/users-qa/internal/config"
	"github.com/phrazzld/users-qa/internal/metrics"
	"github.com/phrazzld/users-qa/internal/platform/logger"
	"github.com/phrazzld/users-qa/internal/suite"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2

	sandboxShutdownTimeout = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configFile  string
	filters     suite.RegexFilters
	sandbox     bool
	metricsFile string
	seed        uint64
	verbose     bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("usersqa", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configFile, "config", "", "config file (default: usersqa.yaml in the working directory or project root)")
	fs.Var(&o.filters.MustMatch, "run", "regex pattern(s) to select scenarios to run")
	fs.Var(&o.filters.MustNotMatch, "skip", "regex pattern(s) to select scenarios not to run")
	fs.BoolVar(&o.sandbox, "sandbox", false, "start an in-process sandbox API and run the API scenarios against it")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
	fs.Uint64Var(&o.seed, "seed", 0, "seed for generated users, 0 picks a random one")
	fs.BoolVar(&o.verbose, "v", false, "also print passing scenarios")
	err := fs.Parse(args)
	return o, err
}

// run executes the harness and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	// Logging is not configured until the config is loaded, which with
	// -sandbox needs the sandbox URL first.
	bootstrap := logger.New(stderr, config.LogConfig{
		Level: ciutil.GetEnvWithFallbacks([]string{ciutil.EnvLogLevelPrefixed, ciutil.EnvLogLevel}, ciutil.DefaultLogLevel, nil),
	})

	loadOpts := []config.LoadOption{config.WithLogger(bootstrap)}
	if o.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(o.configFile))
	}
	if o.sandbox {
		sb, err := api.StartSandbox(api.NewRouter(api.WithLogger(bootstrap)), bootstrap)
		if err != nil {
			fmt.Fprintf(stderr, "Sandbox error: %s\n", err)
			return exitFailed
		}
		defer closeSandbox(sb, bootstrap)
		loadOpts = append(loadOpts, config.WithOverride("api.base_url", sb.URL()))
	}

	cfg, err := config.Load(loadOpts...)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %s\n", err)
		return exitFailed
	}

	l, err := logger.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to set up logger: %s\n", err)
		return exitFailed
	}
	l.Info("configuration loaded",
		"api_base_url", cfg.API.BaseURL,
		"ui_base_url", cfg.UI.BaseURL,
		"log_level", cfg.Log.Level,
		"max_latency_ms", cfg.Validation.MaxLatencyMS)
	if cfg.API.JWTSecret != "" {
		l.Debug("auth configuration", "jwt_secret_present", true)
	}

	m := metrics.New()
	s, err := suite.New(cfg,
		suite.WithLogger(l),
		suite.WithMetrics(m),
		suite.WithSeed(o.seed),
		suite.WithRunID(uuid.NewString()),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create suite: %s\n", err)
		return exitFailed
	}

	if desc := o.filters.Describe(); desc != "" {
		fmt.Fprintln(stdout, "Some scenarios will be skipped based on the filter criteria for this run:")
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(stdout, "  %s\n", line)
		}
		fmt.Fprintln(stdout)
	}
	fmt.Fprintln(stdout, "Running scenarios")

	results := s.Run(ctx, o.filters.AsFilter, &suite.ConsoleTestLogger{Out: stdout, Verbose: o.verbose})
	suite.PrintResults(stdout, results)

	if o.metricsFile != "" {
		if err := m.WriteTextfile(o.metricsFile); err != nil {
			l.Error("failed to write metrics", "path", o.metricsFile, "error", err)
			return exitFailed
		}
		l.Info("metrics written", "path", o.metricsFile)
	}

	if !results.OK() {
		return exitFailed
	}
	return exitOK
}

func closeSandbox(sb *api.Sandbox, l *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), sandboxShutdownTimeout)
	defer cancel()
	if err := sb.Close(ctx); err != nil {
		l.Warn("sandbox did not shut down cleanly", "error", err)
	}
}
