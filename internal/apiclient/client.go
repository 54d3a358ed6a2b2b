// Package apiclient sends requests to the Users REST API and keeps track of
// every user it creates so a test can remove them afterwards.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/users-qa/internal/auth"
	"github.com/phrazzld/users-qa/internal/config"
	"github.com/phrazzld/users-qa/internal/domain"
	"github.com/phrazzld/users-qa/internal/metrics"
	"github.com/phrazzld/users-qa/internal/platform/logger"
	"github.com/phrazzld/users-qa/internal/tracker"
	"golang.org/x/time/rate"
)

// UsersPath is the collection path of the Users API.
const UsersPath = "/user/"

// RequestIDHeader carries a per-request identifier.
const RequestIDHeader = "X-Request-Id"

// ErrUnexpectedStatus is returned by helpers that require a specific status.
var ErrUnexpectedStatus = errors.New("unexpected status")

const logPreviewBytes = 300

// Client talks to one Users API deployment. Each test should own its client:
// the tracker inside it is not shared.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	limiter    *rate.Limiter
	timeout    time.Duration
	tokens     *auth.TokenService
	subject    string
	tracker    *tracker.Tracker
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its timeout is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records request and cleanup metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithSubject sets the subject of minted bearer tokens, usually the run ID.
func WithSubject(subject string) Option {
	return func(c *Client) { c.subject = subject }
}

// WithLimiter shares a rate limiter between clients hitting the same fixture.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// New creates a client for cfg. It fails with domain.ErrConfiguration when
// the base URL is missing or the JWT secret is unusable.
func New(cfg config.APIConfig, opts ...Option) (*Client, error) {
	base := config.NormalizeBaseURL(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("%w: API base URL must be set", domain.ErrConfiguration)
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("%w: invalid API base URL %q: %v", domain.ErrConfiguration, base, err)
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		timeout:    cfg.Timeout(),
		subject:    "users-qa",
	}
	if cfg.RateLimitRPS > 0 {
		c.limiter = NewLimiter(cfg.RateLimitRPS)
	}
	if cfg.JWTSecret != "" {
		tokens, err := auth.NewTokenService(cfg.JWTSecret, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		c.tokens = tokens
	}
	for _, opt := range opts {
		opt(c)
	}

	c.tracker = tracker.New(c, c.logger, c.metrics)
	c.logger = logger.Component(c.logger, "apiclient")
	return c, nil
}

// NewLimiter returns a limiter allowing rps requests per second.
func NewLimiter(rps float64) *rate.Limiter {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tracker returns the tracker holding ids of users created by this client.
func (c *Client) Tracker() *tracker.Tracker {
	return c.tracker
}

// URL joins path to the base URL with a single slash.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Get sends a GET request with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	target := c.URL(path)
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	return c.do(ctx, http.MethodGet, target, nil)
}

// Post sends a POST request with an optional JSON body. A 201 response
// carrying an id is tracked for cleanup.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	resp, err := c.do(ctx, http.MethodPost, c.URL(path), body)
	if err != nil {
		return nil, err
	}
	c.trackCreated(ctx, resp)
	return resp, nil
}

// Put sends a PUT request with an optional JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, c.URL(path), body)
}

// Patch sends a PATCH request with an optional JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, c.URL(path), body)
}

// Delete sends a DELETE request for the resource id under path.
func (c *Client) Delete(ctx context.Context, path string, id int) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.URL(path+strconv.Itoa(id)), nil)
}

// DeleteUser deletes one user and reports the status. It lets the client
// act as the deleter of its own tracker.
func (c *Client) DeleteUser(ctx context.Context, id int) (int, error) {
	resp, err := c.Delete(ctx, UsersPath, id)
	if err != nil {
		return 0, err
	}
	return resp.Status, nil
}

// CreateUserForTest creates a user as test setup and returns the decoded
// record. Anything but 201 is an error.
func (c *Client) CreateUserForTest(ctx context.Context, payload map[string]any) (domain.User, error) {
	resp, err := c.Post(ctx, UsersPath, payload)
	if err != nil {
		return domain.User{}, fmt.Errorf("setup create failed: %w", err)
	}
	if resp.Status != http.StatusCreated {
		return domain.User{}, fmt.Errorf("setup create failed: %w %d: %s", ErrUnexpectedStatus, resp.Status, resp.preview(logPreviewBytes))
	}
	var user domain.User
	if err := resp.JSON(&user); err != nil {
		return domain.User{}, fmt.Errorf("setup create failed: %w", err)
	}
	return user, nil
}

// Cleanup deletes every user created through this client, newest first.
// It keeps the values of ctx but not its cancellation, so an interrupted run
// still removes what it created. Each pending delete gets one request
// timeout instead.
func (c *Client) Cleanup(ctx context.Context) tracker.Summary {
	n := c.tracker.Len()
	c.logger.Info("cleaning up created users", "count", n)

	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(n+1)*c.timeout)
		defer cancel()
	}
	return c.tracker.CleanupAll(ctx)
}

func (c *Client) trackCreated(ctx context.Context, resp *Response) {
	if resp.Status != http.StatusCreated {
		return
	}
	log := logger.FromContextOrDefault(ctx, c.logger)

	var body map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		log.Warn("could not parse id from response", "error", err)
		return
	}
	raw, ok := body["id"]
	if !ok {
		return
	}
	var id int
	if err := json.Unmarshal(raw, &id); err != nil {
		log.Warn("could not parse id from response", "error", err, "id", string(raw))
		return
	}
	c.tracker.Track(id)
	log.Info("tracked created id", "id", id)
}

func (c *Client) do(ctx context.Context, method, target string, body any) (*Response, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s body: %w", method, target, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s: %w", method, target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.tokens != nil {
		token, err := c.tokens.GenerateToken(ctx, c.subject)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	log.Info("sending request", "method", method, "url", target, "request_id", req.Header.Get(RequestIDHeader))
	log.Debug("curl", "command", curlCommand(req, payload))

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, elapsed.Seconds())
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, elapsed.Seconds())
		return nil, fmt.Errorf("failed to read %s %s response: %w", method, target, err)
	}

	resp := &Response{
		Method:  method,
		URL:     target,
		Status:  httpResp.StatusCode,
		Header:  httpResp.Header,
		Elapsed: elapsed,
		Body:    data,
	}
	c.metrics.ObserveRequest(method, resp.Status, elapsed.Seconds())
	log.Debug("received response",
		"method", method,
		"url", target,
		"status", resp.Status,
		"elapsed_ms", elapsed.Milliseconds(),
		"body", resp.preview(logPreviewBytes))
	return resp, nil
}
