package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/users-qa/internal/api/middleware"
	"github.com/phrazzld/users-qa/internal/api/shared"
	"github.com/phrazzld/users-qa/internal/domain"
	"github.com/phrazzld/users-qa/internal/store"
)

// SeedUsers are the records a fresh sandbox starts with, so read-only
// scenarios have ids 1, 2 and 3 to look up.
var SeedUsers = []domain.User{
	{ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "sincere@april.biz", Phone: "1-770-736-8031 x56442"},
	{ID: 2, Name: "Ervin Howell", Username: "Antonette", Email: "shanna@melissa.tv", Phone: "010-692-6593 x09125"},
	{ID: 3, Name: "Clementine Bauch", Username: "Samantha", Email: "nathan@yesenia.net", Phone: "1-463-123-4447"},
}

type routerOptions struct {
	store   store.UserStore
	logger  *slog.Logger
	latency time.Duration
	tokens  apiMiddleware.TokenValidator
}

// Option configures the sandbox router.
type Option func(*routerOptions)

// WithStore serves users from s instead of a fresh seeded memory store.
func WithStore(s store.UserStore) Option {
	return func(o *routerOptions) { o.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *routerOptions) { o.logger = l }
}

// WithLatency delays every /user/ request by d.
func WithLatency(d time.Duration) Option {
	return func(o *routerOptions) { o.latency = d }
}

// WithTokenValidator requires a valid bearer token on /user/ routes.
func WithTokenValidator(v apiMiddleware.TokenValidator) Option {
	return func(o *routerOptions) { o.tokens = v }
}

// NewRouter builds the sandbox Users API.
func NewRouter(opts ...Option) http.Handler {
	o := routerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = store.NewMemoryUserStore(SeedUsers...)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(o.logger))

	users := NewUserHandler(o.store, o.logger)
	r.Route("/user", func(r chi.Router) {
		r.Use(apiMiddleware.Latency(o.latency))
		if o.tokens != nil {
			r.Use(apiMiddleware.NewAuthMiddleware(o.tokens).Authenticate)
		}
		r.Get("/", users.List)
		r.Post("/", users.Create)
		r.Get("/{id}", users.Get)
		r.Put("/{id}", users.Replace)
		r.Patch("/{id}", users.Patch)
		r.Delete("/{id}", users.Delete)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
