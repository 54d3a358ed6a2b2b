package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/phrazzld/users-qa/internal/api"
	"github.com/phrazzld/users-qa/internal/apiclient"
	"github.com/phrazzld/users-qa/internal/auth"
	"github.com/phrazzld/users-qa/internal/config"
	"github.com/phrazzld/users-qa/internal/domain"
	"github.com/phrazzld/users-qa/internal/metrics"
	"github.com/phrazzld/users-qa/internal/platform/logger"
	"github.com/phrazzld/users-qa/internal/store"
	"github.com/phrazzld/users-qa/internal/tracker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newClient(t *testing.T, baseURL string, opts ...apiclient.Option) *apiclient.Client {
	t.Helper()
	c, err := apiclient.New(config.APIConfig{BaseURL: baseURL, TimeoutSeconds: 5}, opts...)
	require.NoError(t, err)
	return c
}

func payload() map[string]any {
	return map[string]any{
		"name":     "John Wick",
		"username": "baba_yaga",
		"email":    "john@wick.com",
		"phone":    "+1 555 010 2030",
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	for _, base := range []string{"", "   ", "not a url"} {
		_, err := apiclient.New(config.APIConfig{BaseURL: base, TimeoutSeconds: 1})
		assert.ErrorIs(t, err, domain.ErrConfiguration, "base %q", base)
	}
}

func TestNewRejectsWeakSecret(t *testing.T) {
	_, err := apiclient.New(config.APIConfig{BaseURL: "http://localhost", TimeoutSeconds: 1, JWTSecret: "short"})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestURLJoinsWithSingleSlash(t *testing.T) {
	c := newClient(t, "HTTP://Example.com/api/")

	assert.Equal(t, "http://example.com/api", c.BaseURL())
	assert.Equal(t, "http://example.com/api/user/", c.URL("/user/"))
	assert.Equal(t, "http://example.com/api/user/", c.URL("user/"))
}

func TestCRUDAgainstSandbox(t *testing.T) {
	srv := httptest.NewServer(api.NewRouter())
	defer srv.Close()
	ctx := context.Background()
	c := newClient(t, srv.URL)

	resp, err := c.Get(ctx, apiclient.UsersPath, url.Values{"id": {"1", "2"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.ContentType(), "json")
	var users []domain.User
	require.NoError(t, resp.JSON(&users))
	assert.Len(t, users, 2)

	created, err := c.CreateUserForTest(ctx, payload())
	require.NoError(t, err)
	assert.Equal(t, 4, created.ID)
	assert.Equal(t, []int{4}, c.Tracker().IDs())

	resp, err = c.Patch(ctx, "/user/4", map[string]any{"email": "new@wick.com"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	resp, err = c.Put(ctx, "/user/4", payload())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	resp, err = c.Delete(ctx, apiclient.UsersPath, 4)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, srv.URL+"/user/4", resp.URL)

	summary := c.Cleanup(ctx)
	assert.Equal(t, 1, summary.Attempted)
	assert.Zero(t, summary.Failed, "404 for an already deleted user counts as clean")
	assert.Zero(t, c.Tracker().Len())
}

func TestCleanupRemovesCreatedUsers(t *testing.T) {
	srv := httptest.NewServer(api.NewRouter())
	defer srv.Close()
	ctx := context.Background()
	c := newClient(t, srv.URL)

	for i := 0; i < 3; i++ {
		_, err := c.Post(ctx, apiclient.UsersPath, payload())
		require.NoError(t, err)
	}
	require.Equal(t, []int{4, 5, 6}, c.Tracker().IDs())

	summary := c.Cleanup(ctx)
	assert.Equal(t, 3, summary.Attempted)
	assert.Zero(t, summary.Failed)

	resp, err := c.Get(ctx, apiclient.UsersPath, nil)
	require.NoError(t, err)
	var users []domain.User
	require.NoError(t, resp.JSON(&users))
	assert.Len(t, users, 3, "only the seed users remain")
}

func TestCleanupOutlivesCanceledContext(t *testing.T) {
	users := store.NewMemoryUserStore(api.SeedUsers...)
	srv := httptest.NewServer(api.NewRouter(api.WithStore(users)))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	c := newClient(t, srv.URL)

	created, err := c.CreateUserForTest(ctx, payload())
	require.NoError(t, err)
	cancel()

	summary := c.Cleanup(ctx)

	assert.Equal(t, tracker.Summary{Attempted: 1}, summary)
	assert.Zero(t, c.Tracker().Len())
	_, err = users.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound, "the user is deleted although the run was interrupted")
}

func TestLogEntriesCarryOneComponent(t *testing.T) {
	l, logBuf := logger.GetTestLogger(t)
	srv := httptest.NewServer(api.NewRouter())
	defer srv.Close()
	c := newClient(t, srv.URL, apiclient.WithLogger(l))

	_, err := c.Post(context.Background(), apiclient.UsersPath, payload())
	require.NoError(t, err)
	c.Cleanup(context.Background())

	logger.AssertLogField(t, logBuf, "component", "apiclient")
	logger.AssertLogField(t, logBuf, "component", "tracker")
	logger.AssertFieldNotRepeated(t, logBuf, "component")
}

func TestPostDoesNotTrackRejectedCreate(t *testing.T) {
	srv := httptest.NewServer(api.NewRouter())
	defer srv.Close()
	c := newClient(t, srv.URL)

	bad := payload()
	bad["email"] = "not-an-email"
	resp, err := c.Post(context.Background(), apiclient.UsersPath, bad)

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Zero(t, c.Tracker().Len())
}

func TestCreateUserForTestRequires201(t *testing.T) {
	h := httphelpers.HandlerWithResponse(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"id":9}`))
	httphelpers.WithServer(h, func(srv *httptest.Server) {
		c := newClient(t, srv.URL)

		_, err := c.CreateUserForTest(context.Background(), payload())

		assert.ErrorIs(t, err, apiclient.ErrUnexpectedStatus)
		assert.Zero(t, c.Tracker().Len(), "only 201 responses are tracked")
	})
}

func TestPostWithUnparseableIDIsNotTracked(t *testing.T) {
	l, logBuf := logger.GetTestLogger(t)
	h := httphelpers.HandlerWithResponse(http.StatusCreated, http.Header{"Content-Type": {"application/json"}}, []byte(`{"id":"seven"}`))
	httphelpers.WithServer(h, func(srv *httptest.Server) {
		c := newClient(t, srv.URL, apiclient.WithLogger(l))

		resp, err := c.Post(context.Background(), apiclient.UsersPath, payload())

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.Status)
		assert.Zero(t, c.Tracker().Len())
		logger.AssertLogContains(t, logBuf, "could not parse id from response")
	})
}

func TestRequestHeaders(t *testing.T) {
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(http.StatusNoContent))
	httphelpers.WithServer(handler, func(srv *httptest.Server) {
		c := newClient(t, srv.URL, apiclient.WithSubject("run-42"))

		_, err := c.Delete(context.Background(), apiclient.UsersPath, 17)
		require.NoError(t, err)

		info := <-requests
		assert.Equal(t, http.MethodDelete, info.Request.Method)
		assert.Equal(t, "/user/17", info.Request.URL.Path)
		assert.Equal(t, "application/json", info.Request.Header.Get("Accept"))
		assert.Empty(t, info.Request.Header.Get("Authorization"), "no secret, no token")
		_, err = uuid.Parse(info.Request.Header.Get(apiclient.RequestIDHeader))
		assert.NoError(t, err)
	})
}

func TestRequestCarriesBearerToken(t *testing.T) {
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(http.StatusOK))
	httphelpers.WithServer(handler, func(srv *httptest.Server) {
		c, err := apiclient.New(config.APIConfig{BaseURL: srv.URL, TimeoutSeconds: 5, JWTSecret: testSecret},
			apiclient.WithSubject("run-42"))
		require.NoError(t, err)

		_, err = c.Post(context.Background(), apiclient.UsersPath, payload())
		require.NoError(t, err)

		info := <-requests
		assert.Equal(t, "application/json", info.Request.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"name":"John Wick","username":"baba_yaga","email":"john@wick.com","phone":"+1 555 010 2030"}`, string(info.Body))

		tokens, err := auth.NewTokenService(testSecret, 0)
		require.NoError(t, err)
		scheme, token, _ := strings.Cut(info.Request.Header.Get("Authorization"), " ")
		assert.Equal(t, "Bearer", scheme)
		claims, err := tokens.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "run-42", claims.Subject)
	})
}

func TestClientAgainstAuthenticatedSandbox(t *testing.T) {
	tokens, err := auth.NewTokenService(testSecret, time.Minute)
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewRouter(api.WithTokenValidator(tokens)))
	defer srv.Close()

	anonymous := newClient(t, srv.URL)
	resp, err := anonymous.Get(context.Background(), apiclient.UsersPath, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	authed, err := apiclient.New(config.APIConfig{BaseURL: srv.URL, TimeoutSeconds: 5, JWTSecret: testSecret})
	require.NoError(t, err)
	resp, err = authed.Get(context.Background(), apiclient.UsersPath, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestElapsedIsMeasured(t *testing.T) {
	srv := httptest.NewServer(api.NewRouter(api.WithLatency(40 * time.Millisecond)))
	defer srv.Close()
	c := newClient(t, srv.URL)

	resp, err := c.Get(context.Background(), apiclient.UsersPath, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, resp.Elapsed, 40*time.Millisecond)
}

func TestTransportErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	m := metrics.New()
	c := newClient(t, base, apiclient.WithMetrics(m))

	_, err := c.Get(context.Background(), apiclient.UsersPath, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET "+base+"/user/")
	expected := `
# HELP usersqa_requests_total Requests sent to the Users API by method and status code.
# TYPE usersqa_requests_total counter
usersqa_requests_total{method="GET",status="error"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "usersqa_requests_total"))
}

func TestDeleteUserReportsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	c := newClient(t, base)

	status, err := c.DeleteUser(context.Background(), 1)

	assert.Zero(t, status)
	assert.Error(t, err)
}

func TestRateLimiterWaitHonoursContext(t *testing.T) {
	handler := httphelpers.HandlerWithStatus(http.StatusOK)
	httphelpers.WithServer(handler, func(srv *httptest.Server) {
		limiter := apiclient.NewLimiter(0.001)
		c := newClient(t, srv.URL, apiclient.WithLimiter(limiter))

		_, err := c.Get(context.Background(), apiclient.UsersPath, nil)
		require.NoError(t, err, "the first request uses the burst")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = c.Get(ctx, apiclient.UsersPath, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limiter")
	})
}

func TestContextLoggerIsUsed(t *testing.T) {
	l, logBuf := logger.GetTestLogger(t)
	httphelpers.WithServer(httphelpers.HandlerWithStatus(http.StatusOK), func(srv *httptest.Server) {
		c := newClient(t, srv.URL)

		_, err := c.Get(logger.WithLogger(context.Background(), l), apiclient.UsersPath, nil)
		require.NoError(t, err)
	})

	logger.AssertLogContains(t, logBuf, "sending request")
	logger.AssertLogContains(t, logBuf, "curl -X GET")
	logger.AssertLogField(t, logBuf, "status", float64(200))
}
