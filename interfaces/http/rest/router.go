package rest

import (
	"context"
	"net/http"
	"time"

	"eternals-backend/domain/core/entities"
	"eternals-backend/interfaces/http/rest/handlers"
	"eternals-backend/interfaces/http/rest/middleware"
	"eternals-backend/pkg/auth"
	"eternals-backend/pkg/common"
	pkgerrors "eternals-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// RouterConfig holds the HTTP surface settings
type RouterConfig struct {
	CORSOrigins        []string
	RateLimitPerMinute int
}

// Handlers groups the REST handlers the router mounts
type Handlers struct {
	Auth    *handlers.AuthHandler
	Store   *handlers.StoreHandler
	Portal  *handlers.PortalHandler
	Content *handlers.ContentHandler
}

// Router creates and configures the HTTP router
type Router struct {
	config   RouterConfig
	handlers Handlers
	tokens   middleware.TokenValidator
	limiter  *auth.IPRateLimiter
	errs     *pkgerrors.ErrorHandler

	// Optional surfaces, mounted when set
	observer middleware.HTTPObserver
	metrics  http.Handler
	field    http.HandlerFunc
	checks   map[string]ReadinessCheck

	logger *zap.Logger
}

// Option configures optional router surfaces
type Option func(*Router)

// WithMetrics records request metrics and serves them at /metrics
func WithMetrics(observer middleware.HTTPObserver, handler http.Handler) Option {
	return func(rt *Router) {
		rt.observer = observer
		rt.metrics = handler
	}
}

// WithFieldSocket mounts the particle field websocket at /ws/field
func WithFieldSocket(handler http.HandlerFunc) Option {
	return func(rt *Router) { rt.field = handler }
}

// WithReadinessCheck adds a named check to /ready
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(rt *Router) { rt.checks[name] = check }
}

// NewRouter creates a new router instance
func NewRouter(
	config RouterConfig,
	h Handlers,
	tokens middleware.TokenValidator,
	limiter *auth.IPRateLimiter,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
	opts ...Option,
) *Router {
	rt := &Router{
		config:   config,
		handlers: h,
		tokens:   tokens,
		limiter:  limiter,
		errs:     errs,
		checks:   make(map[string]ReadinessCheck),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.observer != nil {
		router.Use(middleware.Metrics(rt.observer))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errs.Handle(w, r, pkgerrors.NewNotFoundError("route"))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errs.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics)
	}
	if rt.field != nil {
		router.Get("/ws/field", rt.field)
	}

	authenticate := middleware.Authenticate(rt.tokens, rt.errs)
	admins := middleware.RequireRole(rt.errs, entities.RoleSuperAdmin, entities.RoleAdmin)
	editors := middleware.RequireRole(rt.errs, entities.RoleSuperAdmin, entities.RoleAdmin, entities.RoleEditor)
	limited := middleware.RateLimit(rt.limiter, rt.config.RateLimitPerMinute, rt.errs)

	router.Route("/api", func(r chi.Router) {
		// Anonymous callers are welcome on most routes; a valid token
		// identifies the caller where it matters
		r.Use(middleware.OptionalAuth(rt.tokens))

		r.Route("/auth", func(r chi.Router) {
			authHandler := rt.handlers.Auth
			r.With(limited).Post("/register", authHandler.Register)
			r.With(limited).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.With(authenticate).Get("/me", authHandler.Me)
			r.Get("/{provider}/login", authHandler.OAuthLogin)
			r.Get("/{provider}/callback", authHandler.OAuthCallback)
		})
		r.Get("/oauth/providers", rt.handlers.Auth.Providers)

		// Storefront and cart
		r.Get("/store/products", rt.handlers.Store.ListProducts)
		r.Route("/cart", func(r chi.Router) {
			storeHandler := rt.handlers.Store
			r.Get("/", storeHandler.GetCart)
			r.Delete("/", storeHandler.ClearCart)
			r.Post("/items", storeHandler.AddItem)
			r.Put("/items/{productID}", storeHandler.UpdateItem)
			r.Delete("/items/{productID}", storeHandler.RemoveItem)
		})

		// Public site content
		r.Route("/content", func(r chi.Router) {
			contentHandler := rt.handlers.Content
			r.Get("/", contentHandler.ListSections)
			r.Get("/{name}", contentHandler.GetSection)
			r.With(authenticate, editors).Put("/{name}", contentHandler.UpsertSection)
		})
		r.Route("/testimonials", func(r chi.Router) {
			contentHandler := rt.handlers.Content
			r.Get("/", contentHandler.ListTestimonials)
			r.With(limited).Post("/", contentHandler.SubmitTestimonial)
			r.With(authenticate, admins).Put("/{id}/approve", contentHandler.ApproveTestimonial)
			r.With(authenticate, admins).Delete("/{id}", contentHandler.DeleteTestimonial)
		})
		r.With(authenticate, admins).Get("/admin/testimonials", rt.handlers.Content.ListAllTestimonials)
		r.Get("/counter-stats", rt.handlers.Content.CounterStats)
		r.With(authenticate, admins).Put("/counter-stats", rt.handlers.Content.UpdateCounterStats)

		// Client portal
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			portalHandler := rt.handlers.Portal

			r.Route("/projects", func(r chi.Router) {
				r.With(admins).Post("/", portalHandler.CreateProject)
				r.Get("/", portalHandler.ListProjects)
				r.Get("/{projectID}", portalHandler.GetProject)
			})
			r.Route("/invoices", func(r chi.Router) {
				r.With(admins).Post("/", portalHandler.CreateInvoice)
				r.Get("/", portalHandler.ListInvoices)
				r.Put("/{invoiceID}/pay", portalHandler.PayInvoice)
				r.Post("/{invoiceID}/pay", portalHandler.PayInvoice)
			})
			r.Post("/messages", portalHandler.PostMessage)
			r.Get("/messages/{projectID}", portalHandler.ListMessages)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, common.StatusResponse{Status: "healthy"})
}

// readinessCheck runs every registered check with a short deadline
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	failures := make(map[string]string)
	for name, check := range rt.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		rt.logger.Warn("Readiness check failed", zap.Any("failures", failures))
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not_ready",
			"failures": failures,
		})
		return
	}
	common.RespondJSON(w, http.StatusOK, common.StatusResponse{Status: "ready"})
}
