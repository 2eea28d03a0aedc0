package di

import (
	"context"

	"eternals-backend/application/services"
	"eternals-backend/infrastructure/config"
	"eternals-backend/infrastructure/persistence/memory"
	"eternals-backend/interfaces/http/rest"
	"eternals-backend/interfaces/websocket"
	"eternals-backend/pkg/auth"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Router  *rest.Router
	Watcher *config.ConfigWatcher

	AuthService *services.AuthService
	CartService *services.CartService

	CartStore   *memory.CartStore
	StateStore  *memory.OAuthStateStore
	RateLimiter *auth.IPRateLimiter
	Hub         *websocket.Hub
}

// Bootstrap performs one-off startup work
func (c *Container) Bootstrap(ctx context.Context) error {
	return c.AuthService.SeedSuperAdmin(ctx,
		c.Config.Auth.SuperAdminEmail,
		c.Config.Auth.SuperAdminPassword,
		"Super Admin",
	)
}

// RunBackground runs the sweepers, the field hub and the config watcher
// until ctx is cancelled or one of them fails.
func (c *Container) RunBackground(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	sweep := c.Config.Store.SweepInterval

	g.Go(func() error { return c.CartStore.Run(ctx, sweep) })
	g.Go(func() error { return c.StateStore.Run(ctx, sweep) })
	g.Go(func() error { return c.RateLimiter.Run(ctx, sweep) })
	g.Go(func() error { return c.Hub.Run(ctx) })
	g.Go(func() error { return c.Watcher.Run(ctx) })

	return g.Wait()
}
