//go:build wireinject
// +build wireinject

package di

import (
	"eternals-backend/application/ports"
	"eternals-backend/application/services"
	"eternals-backend/infrastructure/catalog"
	"eternals-backend/infrastructure/config"
	"eternals-backend/infrastructure/messaging"
	"eternals-backend/infrastructure/oauth"
	"eternals-backend/infrastructure/persistence/memory"

	"github.com/google/wire"
)

// RepositorySet binds the in-memory stores to their ports
var RepositorySet = wire.NewSet(
	memory.NewUserRepository,
	memory.NewProjectRepository,
	memory.NewInvoiceRepository,
	memory.NewMessageRepository,
	memory.NewContentRepository,
	memory.NewTestimonialRepository,
	memory.NewCounterStatsRepository,
	ProvideCartStore,
	ProvideStateStore,
	ProvideCatalog,
	wire.Bind(new(ports.UserRepository), new(*memory.UserRepository)),
	wire.Bind(new(ports.ProjectRepository), new(*memory.ProjectRepository)),
	wire.Bind(new(ports.InvoiceRepository), new(*memory.InvoiceRepository)),
	wire.Bind(new(ports.MessageRepository), new(*memory.MessageRepository)),
	wire.Bind(new(ports.ContentRepository), new(*memory.ContentRepository)),
	wire.Bind(new(ports.TestimonialRepository), new(*memory.TestimonialRepository)),
	wire.Bind(new(ports.CounterStatsRepository), new(*memory.CounterStatsRepository)),
	wire.Bind(new(ports.StateStore), new(*memory.OAuthStateStore)),
	wire.Bind(new(ports.ProductCatalog), new(*catalog.Catalog)),
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideTokenManager,
	ProvideCollector,
	ProvideMetrics,
	ProvideEventBus,
	wire.Bind(new(ports.EventPublisher), new(*messaging.InMemoryEventBus)),
	RepositorySet,
	ProvideIdentityProviders,
	wire.Bind(new(ports.IdentityProviders), new(*oauth.Registry)),
	ProvideRateLimiter,
	ProvideErrorHandler,
	ProvideCartService,
	ProvideAuthService,
	services.NewPortalService,
	services.NewContentService,
	ProvideFieldSettings,
	ProvideHub,
	ProvideWebSocketServer,
	ProvideCartSessions,
	ProvideHandlers,
	ProvideRouter,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
