package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eternals-backend/application/ports"
	"eternals-backend/infrastructure/config"
	"eternals-backend/infrastructure/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.LogLevel = "error"
	cfg.Auth.SuperAdminEmail = "owner@eternals.studio"
	cfg.Auth.SuperAdminPassword = "owner-password"
	cfg.Store.SweepInterval = 10 * time.Millisecond
	return cfg
}

func TestInitializeContainer(t *testing.T) {
	cfg := testConfig()
	cfg.Observability.EnableMetrics = true

	container, err := InitializeContainer(cfg)
	require.NoError(t, err)
	require.NoError(t, container.Bootstrap(context.Background()))

	handler := container.Router.Setup()
	for _, path := range []string{"/health", "/ready", "/metrics", "/api/store/products"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	token, err := container.AuthService.Login(context.Background(), "owner@eternals.studio", "owner-password")
	require.NoError(t, err)
	assert.Equal(t, "super_admin", string(token.User.Role))
}

func TestInitializeContainer_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Observability.EnableMetrics = false

	container, err := InitializeContainer(cfg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	container.Router.Setup().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInitializeContainer_RejectsBadLogLevel(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "chatty"

	_, err := InitializeContainer(cfg)
	assert.Error(t, err)
}

func TestProvideTokenManager_RequiresSecretInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.Environment = config.Production
	logger, err := ProvideLogger(cfg)
	require.NoError(t, err)

	_, err = ProvideTokenManager(cfg, logger)
	assert.Error(t, err)

	cfg.Auth.JWTSecret = "a-production-secret-of-decent-length"
	tokens, err := ProvideTokenManager(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, cfg.Auth.AccessTokenTTL, tokens.TTL())
}

func TestProvideMetrics(t *testing.T) {
	cfg := testConfig()
	collector := observability.NewCollector("di_test")

	assert.IsType(t, ports.NoopMetrics{}, ProvideMetrics(cfg, collector))

	cfg.Observability.EnableMetrics = true
	assert.Same(t, collector, ProvideMetrics(cfg, collector))
}

func TestNamespace(t *testing.T) {
	cfg := testConfig()
	cfg.Observability.ServiceName = "eternals-backend.api"
	assert.Equal(t, "eternals_backend_api", namespace(cfg))

	cfg.Observability.ServiceName = ""
	assert.Equal(t, "eternals", namespace(cfg))
}

func TestRunBackground_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	container, err := InitializeContainer(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- container.RunBackground(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("background workers did not stop")
	}
	assert.True(t, container.Hub.Full(), "hub refuses connections after shutdown")
}
