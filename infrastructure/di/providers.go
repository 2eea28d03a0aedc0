package di

import (
	"context"
	"errors"
	"strings"

	"eternals-backend/application/ports"
	"eternals-backend/application/services"
	"eternals-backend/domain/particles"
	"eternals-backend/infrastructure/catalog"
	"eternals-backend/infrastructure/config"
	"eternals-backend/infrastructure/messaging"
	"eternals-backend/infrastructure/oauth"
	"eternals-backend/infrastructure/observability"
	"eternals-backend/infrastructure/persistence/memory"
	"eternals-backend/interfaces/http/rest"
	"eternals-backend/interfaces/http/rest/handlers"
	"eternals-backend/interfaces/websocket"
	"eternals-backend/pkg/auth"
	pkgerrors "eternals-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build(zap.Fields(zap.String("environment", string(cfg.Environment))))
}

// ProvideTokenManager creates the JWT manager. Outside production a missing
// secret is replaced by a random one, so tokens do not survive a restart.
func ProvideTokenManager(cfg *config.Config, logger *zap.Logger) (*auth.TokenManager, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, pkgerrors.NewValidationError("JWT_SECRET is required in production")
		}
		logger.Warn("JWT_SECRET not set, using an ephemeral development secret")
		secret = uuid.NewString() + uuid.NewString()
	}

	return auth.NewTokenManager(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.Auth.JWTIssuer,
		TTL:       cfg.Auth.AccessTokenTTL,
	})
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(namespace(cfg))
}

// ProvideMetrics returns the collector when metrics are enabled and a no-op
// sink otherwise
func ProvideMetrics(cfg *config.Config, collector *observability.Collector) ports.Metrics {
	if !cfg.Observability.EnableMetrics {
		return ports.NoopMetrics{}
	}
	return collector
}

// ProvideEventBus creates the in-process event bus. Every event is logged.
func ProvideEventBus(logger *zap.Logger) *messaging.InMemoryEventBus {
	bus := messaging.NewInMemoryEventBus(logger)
	bus.Subscribe(messaging.Wildcard, messaging.LogEvents(logger))
	return bus
}

// ProvideCatalog loads the product catalog
func ProvideCatalog(cfg *config.Config, logger *zap.Logger) (*catalog.Catalog, error) {
	return catalog.Load(cfg.Store.CatalogFile, logger)
}

// ProvideCartStore creates the cart session store
func ProvideCartStore(cfg *config.Config) *memory.CartStore {
	return memory.NewCartStore(cfg.Store.CartSessionTTL)
}

// ProvideStateStore creates the OAuth state store
func ProvideStateStore(cfg *config.Config) *memory.OAuthStateStore {
	return memory.NewOAuthStateStore(cfg.OAuth.StateTTL)
}

// ProvideIdentityProviders registers the configured OAuth providers
func ProvideIdentityProviders(cfg *config.Config, metrics ports.Metrics, logger *zap.Logger) *oauth.Registry {
	return oauth.NewRegistry(cfg.OAuth.Providers(), oauth.DefaultBreakerConfig(), metrics, logger)
}

// ProvideRateLimiter creates the per-IP limiter guarding auth and submissions
func ProvideRateLimiter(cfg *config.Config) *auth.IPRateLimiter {
	return auth.NewIPRateLimiter(cfg.Auth.RateLimitPerMinute)
}

// ProvideErrorHandler creates the HTTP error renderer
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideCartService creates the cart service and hooks it to session expiry
func ProvideCartService(
	store *memory.CartStore,
	products ports.ProductCatalog,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	logger *zap.Logger,
) *services.CartService {
	svc := services.NewCartService(store, products, publisher, metrics, logger)
	store.OnExpire(svc.Expired)
	return svc
}

// ProvideAuthService creates the auth service
func ProvideAuthService(
	users ports.UserRepository,
	tokens *auth.TokenManager,
	providers ports.IdentityProviders,
	states ports.StateStore,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	logger *zap.Logger,
) *services.AuthService {
	return services.NewAuthService(users, tokens, providers, states, publisher, metrics, logger)
}

// ProvideFieldSettings derives the runner settings for new field connections
func ProvideFieldSettings(cfg *config.Config) websocket.FieldSettings {
	return websocket.FieldSettings{
		Params:   cfg.Field.Params,
		Viewport: particles.Viewport{Width: cfg.Field.Width, Height: cfg.Field.Height},
		Interval: cfg.Field.TickInterval,
	}
}

// ProvideHub creates the field connection hub
func ProvideHub(cfg *config.Config, settings websocket.FieldSettings, metrics ports.Metrics, logger *zap.Logger) *websocket.Hub {
	return websocket.NewHub(cfg.Field.MaxConnections, settings, metrics, logger)
}

// ProvideWebSocketServer creates the field websocket endpoint
func ProvideWebSocketServer(cfg *config.Config, hub *websocket.Hub, metrics ports.Metrics, logger *zap.Logger) *websocket.Server {
	wsCfg := websocket.DefaultServerConfig()
	wsCfg.AllowedOrigins = cfg.Server.CORSOrigins
	return websocket.NewServer(hub, wsCfg, metrics, logger)
}

// ProvideCartSessions creates the cart cookie manager
func ProvideCartSessions(cfg *config.Config) *handlers.CartSessions {
	return handlers.NewCartSessions(cfg.Store.CartSessionTTL, cfg.IsProduction())
}

// ProvideHandlers creates the REST handlers
func ProvideHandlers(
	cfg *config.Config,
	authService *services.AuthService,
	cartService *services.CartService,
	portalService *services.PortalService,
	contentService *services.ContentService,
	sessions *handlers.CartSessions,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) rest.Handlers {
	return rest.Handlers{
		Auth:    handlers.NewAuthHandler(authService, cartService, sessions, cfg.OAuth.FrontendURL, errs, logger),
		Store:   handlers.NewStoreHandler(cartService, sessions, errs, logger),
		Portal:  handlers.NewPortalHandler(portalService, errs, logger),
		Content: handlers.NewContentHandler(contentService, errs, logger),
	}
}

// ProvideRouter assembles the HTTP surface
func ProvideRouter(
	cfg *config.Config,
	h rest.Handlers,
	tokens *auth.TokenManager,
	limiter *auth.IPRateLimiter,
	errs *pkgerrors.ErrorHandler,
	collector *observability.Collector,
	ws *websocket.Server,
	products *catalog.Catalog,
	logger *zap.Logger,
) *rest.Router {
	opts := []rest.Option{
		rest.WithReadinessCheck("catalog", func(ctx context.Context) error {
			list, err := products.List(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return errors.New("catalog is empty")
			}
			return nil
		}),
	}
	if cfg.Observability.EnableMetrics {
		opts = append(opts, rest.WithMetrics(collector, collector.Handler()))
	}
	// Lambda cannot hold a websocket open
	if !cfg.IsLambda {
		opts = append(opts, rest.WithFieldSocket(ws.HandleField))
	}

	return rest.NewRouter(rest.RouterConfig{
		CORSOrigins:        cfg.Server.CORSOrigins,
		RateLimitPerMinute: cfg.Auth.RateLimitPerMinute,
	}, h, tokens, limiter, errs, logger, opts...)
}

// ProvideConfigWatcher watches the config file and pushes field changes to
// the hub
func ProvideConfigWatcher(cfg *config.Config, hub *websocket.Hub, logger *zap.Logger) *config.ConfigWatcher {
	watcher := config.NewConfigWatcher(cfg, logger)
	watcher.OnChange(func(next *config.Config) {
		hub.UpdateSettings(ProvideFieldSettings(next))
	})
	return watcher
}

func namespace(cfg *config.Config) string {
	name := cfg.Observability.ServiceName
	if name == "" {
		name = "eternals"
	}
	// Prometheus names allow only [a-zA-Z0-9_]
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name)
}
