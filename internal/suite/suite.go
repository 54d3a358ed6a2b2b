// Package suite runs the Users API and UI scenarios against a deployment.
// Every scenario gets its own API client, and the users it creates are
// deleted when it finishes, whether it passed or not.
package suite

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/users-qa/internal/apiclient"
	"github.com/phrazzld/users-qa/internal/config"
	"github.com/phrazzld/users-qa/internal/domain"
	"github.com/phrazzld/users-qa/internal/factory"
	"github.com/phrazzld/users-qa/internal/metrics"
	"github.com/phrazzld/users-qa/internal/platform/logger"
	"github.com/phrazzld/users-qa/internal/ui"
	"github.com/phrazzld/users-qa/internal/validate"
	"golang.org/x/time/rate"
)

// DriverFactory opens a browser session and returns a function closing it.
type DriverFactory func(ctx context.Context) (ui.Driver, func(), error)

// Suite holds what scenarios share: configuration, logging and metrics.
type Suite struct {
	cfg        *config.Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	limiter    *rate.Limiter
	httpClient *http.Client
	factory    *factory.Factory
	drivers    DriverFactory
	runID      string
}

// Option customizes a Suite.
type Option func(*Suite)

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Suite) { s.logger = l }
}

// WithMetrics records request, cleanup and soft failure metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Suite) { s.metrics = m }
}

// WithHTTPClient makes every scenario client use hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Suite) { s.httpClient = hc }
}

// WithSeed makes generated users reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Suite) { s.factory = factory.New(seed) }
}

// WithDriverFactory replaces the Chrome browser used by UI scenarios.
func WithDriverFactory(f DriverFactory) Option {
	return func(s *Suite) { s.drivers = f }
}

// WithRunID tags minted tokens and logs with id.
func WithRunID(id string) Option {
	return func(s *Suite) { s.runID = id }
}

// New creates a Suite for cfg.
func New(cfg *config.Config, opts ...Option) (*Suite, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: suite needs a config", domain.ErrConfiguration)
	}
	s := &Suite{cfg: cfg, runID: "users-qa"}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory == nil {
		s.factory = factory.New(0)
	}
	if cfg.API.RateLimitRPS > 0 {
		// One limiter for the whole run, since every scenario hits the same fixture.
		s.limiter = apiclient.NewLimiter(cfg.API.RateLimitRPS)
	}
	if s.drivers == nil {
		s.drivers = s.chromeDriver
	}
	if s.logger == nil {
		// Untagged: scenario loggers derive from it.
		s.logger = slog.Default()
	}
	return s, nil
}

// Run executes the scenarios accepted by filter. A nil filter runs all of
// them.
func (s *Suite) Run(ctx context.Context, filter Filter, testLogger TestLogger) Results {
	ctx = logger.WithRunID(ctx, s.runID)
	l := s.logger.With(slog.String("run_id", s.runID))
	log := logger.Component(l, "suite")
	log.Info("starting run", "api", s.cfg.API.BaseURL, "ui", s.cfg.UI.BaseURL)

	results := Run(ctx, l, s.metrics, filter, testLogger, func(t *T) {
		t.Run("api", s.apiScenarios)
		t.Run("ui", s.uiScenarios)
	})

	log.Info("run finished",
		"scenarios", len(results.Tests),
		"failed", len(results.Failures),
		"skipped", len(results.Skipped))
	return results
}

// client returns a fresh API client owned by the scenario t.
func (s *Suite) client(t *T) *apiclient.Client {
	opts := []apiclient.Option{
		apiclient.WithLogger(t.Logger()),
		apiclient.WithMetrics(s.metrics),
		apiclient.WithSubject(s.runID),
	}
	if s.limiter != nil {
		opts = append(opts, apiclient.WithLimiter(s.limiter))
	}
	if s.httpClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(s.httpClient))
	}
	c, err := apiclient.New(s.cfg.API, opts...)
	t.Require(err)
	return c
}

// withClient runs fn with a fresh client and removes everything it created
// afterwards, even when fn stops the scenario or the run is interrupted.
func (s *Suite) withClient(fn func(t *T, c *apiclient.Client)) func(*T) {
	return func(t *T) {
		c := s.client(t)
		defer c.Cleanup(t.Context())
		fn(t, c)
	}
}

func (s *Suite) timing(codes ...int) validate.TimingOptions {
	return validate.TimingOptions{
		Expected:   codes,
		MaxLatency: s.cfg.Validation.MaxLatency(),
	}
}

func (s *Suite) chromeDriver(ctx context.Context) (ui.Driver, func(), error) {
	d, err := ui.NewChromeDriver(ctx, s.cfg.UI, s.logger)
	if err != nil {
		return nil, nil, err
	}
	return d, d.Close, nil
}
