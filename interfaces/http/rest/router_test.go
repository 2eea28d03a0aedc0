package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"eternals-backend/application/services"
	"eternals-backend/infrastructure/catalog"
	"eternals-backend/infrastructure/messaging"
	"eternals-backend/infrastructure/oauth"
	"eternals-backend/infrastructure/observability"
	"eternals-backend/infrastructure/persistence/memory"
	"eternals-backend/interfaces/http/rest"
	"eternals-backend/interfaces/http/rest/handlers"
	"eternals-backend/pkg/auth"
	pkgerrors "eternals-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	adminEmail    = "owner@eternals.studio"
	adminPassword = "owner-password"
	frontendURL   = "http://localhost:3000"
)

type testEnv struct {
	handler http.Handler
}

type envOptions struct {
	rateLimit int
	opts      []rest.Option
}

func newTestEnv(t *testing.T, eo envOptions) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	if eo.rateLimit == 0 {
		eo.rateLimit = 100
	}

	tokens, err := auth.NewTokenManager(auth.JWTConfig{
		SecretKey: "router-test-secret-router-test-secret",
		Issuer:    "eternals-test",
		TTL:       time.Hour,
	})
	require.NoError(t, err)

	products, err := catalog.New(catalog.Defaults())
	require.NoError(t, err)

	bus := messaging.NewInMemoryEventBus(logger)
	users := memory.NewUserRepository()
	providers := oauth.NewRegistry(nil, oauth.DefaultBreakerConfig(), nil, logger)

	authService := services.NewAuthService(users, tokens, providers, memory.NewOAuthStateStore(time.Minute), bus, nil, logger)
	cartService := services.NewCartService(memory.NewCartStore(time.Hour), products, bus, nil, logger)
	portalService := services.NewPortalService(
		memory.NewProjectRepository(),
		memory.NewInvoiceRepository(),
		memory.NewMessageRepository(),
		users, bus, logger,
	)
	contentService := services.NewContentService(
		memory.NewContentRepository(),
		memory.NewTestimonialRepository(),
		memory.NewCounterStatsRepository(),
		bus, logger,
	)

	require.NoError(t, authService.SeedSuperAdmin(context.Background(), adminEmail, adminPassword, "Owner"))

	errs := pkgerrors.NewErrorHandler(logger, true)
	sessions := handlers.NewCartSessions(time.Hour, false)
	router := rest.NewRouter(
		rest.RouterConfig{CORSOrigins: []string{frontendURL}, RateLimitPerMinute: eo.rateLimit},
		rest.Handlers{
			Auth:    handlers.NewAuthHandler(authService, cartService, sessions, frontendURL, errs, logger),
			Store:   handlers.NewStoreHandler(cartService, sessions, errs, logger),
			Portal:  handlers.NewPortalHandler(portalService, errs, logger),
			Content: handlers.NewContentHandler(contentService, errs, logger),
		},
		tokens,
		auth.NewIPRateLimiter(eo.rateLimit),
		errs,
		logger,
		eo.opts...,
	)

	return &testEnv{handler: router.Setup()}
}

type reqOption func(*http.Request)

func withToken(token string) reqOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) reqOption {
	return func(r *http.Request) { r.AddCookie(c) }
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, opts ...reqOption) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email, name string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":     email,
		"password":  "secret-pass",
		"full_name": name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (e *testEnv) login(t *testing.T, email, password string) services.TokenResponse {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp services.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRouter_HealthAndReadiness(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])

	rec = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := newTestEnv(t, envOptions{opts: []rest.Option{
		rest.WithReadinessCheck("catalog", func(context.Context) error { return errors.New("catalog is empty") }),
	}})
	rec = failing.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog is empty")
}

func TestRouter_UnknownRoutes(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodGet, "/api/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[pkgerrors.ErrorResponse](t, rec)
	assert.True(t, body.Error)
	assert.Equal(t, string(pkgerrors.ErrorTypeNotFound), body.Type)

	rec = env.do(t, http.MethodPatch, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, string(pkgerrors.ErrorTypeMethodNotAllowed), decode[pkgerrors.ErrorResponse](t, rec).Type)
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	req := httptest.NewRequest(http.MethodOptions, "/api/cart/items", nil)
	req.Header.Set("Origin", frontendURL)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, frontendURL, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	// Anonymous callers cannot pick their role
	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":     "Mia@Example.com",
		"password":  "secret-pass",
		"full_name": "Mia",
		"role":      "admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "client", user["role"])
	assert.NotContains(t, rec.Body.String(), "password")

	token := env.login(t, "mia@example.com", "secret-pass")
	assert.Equal(t, "bearer", strings.ToLower(token.TokenType))
	require.NotEmpty(t, token.AccessToken)

	rec = env.do(t, http.MethodGet, "/api/auth/me", nil, withToken(token.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mia@example.com", decode[map[string]interface{}](t, rec)["email"])

	rec = env.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/me", nil, withToken("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "mia@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RegisterValidation(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":     "not-an-email",
		"password":  "123",
		"full_name": "Mia",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[pkgerrors.ErrorResponse](t, rec)
	assert.Equal(t, string(pkgerrors.ErrorTypeValidation), body.Type)
	assert.Contains(t, body.Details, "email")
	assert.Contains(t, body.Details, "password")

	env.register(t, "mia@example.com", "Mia")
	rec = env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":     "mia@example.com",
		"password":  "secret-pass",
		"full_name": "Mia Again",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RateLimitsLogin(t *testing.T) {
	env := newTestEnv(t, envOptions{rateLimit: 3})
	body := map[string]string{"email": "nobody@example.com", "password": "whatever"}

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/api/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Unlimited routes are unaffected
	rec = env.do(t, http.MethodGet, "/api/store/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]map[string]interface{}](t, rec))
}

func TestRouter_AnonymousCart(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := findCookie(rec, "cart_session")
	require.NotNil(t, cookie)
	assert.Equal(t, 0, decode[services.CartView](t, rec).ItemCount)

	addLogo := map[string]string{"product_id": "logo-design"}
	for i := 0; i < 2; i++ {
		rec = env.do(t, http.MethodPost, "/api/cart/items", addLogo, withCookie(cookie))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/api/cart/items", map[string]string{"product_id": "youtube-banner"}, withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[services.CartView](t, rec)
	assert.Equal(t, cookie.Value, view.SessionID)
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, "339.97", view.TotalPrice.String())
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "logo-design", view.Lines[0].ProductID)

	rec = env.do(t, http.MethodPut, "/api/cart/items/logo-design", map[string]int{"quantity": 5}, withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decode[services.CartView](t, rec).ItemCount)

	rec = env.do(t, http.MethodPut, "/api/cart/items/logo-design", map[string]int{"quantity": -1}, withCookie(cookie))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/cart/items/youtube-banner", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[services.CartView](t, rec).ItemCount)

	rec = env.do(t, http.MethodPost, "/api/cart/items", map[string]string{"product_id": "no-such-product"}, withCookie(cookie))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Another visitor has their own cart
	rec = env.do(t, http.MethodGet, "/api/cart", nil)
	assert.Equal(t, 0, decode[services.CartView](t, rec).ItemCount)

	rec = env.do(t, http.MethodDelete, "/api/cart", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[services.CartView](t, rec)
	assert.Equal(t, 0, view.ItemCount)
	assert.Equal(t, "0.00", view.TotalPrice.String())
}

func TestRouter_LogoutEndsCartSessions(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.register(t, "mia@example.com", "Mia")
	token := env.login(t, "mia@example.com", "secret-pass").AccessToken

	rec := env.do(t, http.MethodPost, "/api/cart/items", map[string]string{"product_id": "emote-bundle"}, withToken(token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, findCookie(rec, "cart_session"), "signed-in callers shop without a cookie")

	rec = env.do(t, http.MethodGet, "/api/cart", nil, withToken(token))
	assert.Equal(t, 1, decode[services.CartView](t, rec).ItemCount)

	rec = env.do(t, http.MethodPost, "/api/auth/logout", nil, withToken(token))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/cart", nil, withToken(token))
	assert.Equal(t, 0, decode[services.CartView](t, rec).ItemCount)
}

func TestRouter_PortalFlow(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	admin := env.login(t, adminEmail, adminPassword).AccessToken

	env.register(t, "client@example.com", "Client")
	clientLogin := env.login(t, "client@example.com", "secret-pass")
	client := clientLogin.AccessToken
	env.register(t, "other@example.com", "Other")
	other := env.login(t, "other@example.com", "secret-pass").AccessToken

	rec := env.do(t, http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	newProject := map[string]string{"title": "Channel rebrand", "client_id": clientLogin.User.ID}
	rec = env.do(t, http.MethodPost, "/api/projects", newProject, withToken(client))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/projects", newProject, withToken(admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	project := decode[map[string]interface{}](t, rec)
	projectID := project["id"].(string)
	assert.Equal(t, false, project["is_locked"])

	rec = env.do(t, http.MethodGet, "/api/projects", nil, withToken(client))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/projects", nil, withToken(other))
	assert.Len(t, decode[[]map[string]interface{}](t, rec), 0)
	rec = env.do(t, http.MethodGet, "/api/projects/"+projectID, nil, withToken(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/invoices", map[string]string{
		"project_id":  projectID,
		"amount":      "250.00",
		"description": "Deposit",
	}, withToken(admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	invoice := decode[map[string]interface{}](t, rec)
	invoiceID := invoice["id"].(string)
	assert.Equal(t, "250.00", invoice["amount"])
	assert.Equal(t, "pending", invoice["status"])

	rec = env.do(t, http.MethodGet, "/api/projects/"+projectID, nil, withToken(client))
	project = decode[map[string]interface{}](t, rec)
	assert.Equal(t, true, project["is_locked"])
	assert.Equal(t, invoiceID, project["invoice_id"])

	rec = env.do(t, http.MethodPut, "/api/invoices/"+invoiceID+"/pay", nil, withToken(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/invoices/"+invoiceID+"/pay", nil, withToken(client))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "paid", decode[map[string]interface{}](t, rec)["status"])

	rec = env.do(t, http.MethodGet, "/api/projects/"+projectID, nil, withToken(client))
	assert.Equal(t, false, decode[map[string]interface{}](t, rec)["is_locked"])

	// POST stays routed as an alias; paying twice conflicts
	rec = env.do(t, http.MethodPost, "/api/invoices/"+invoiceID+"/pay", nil, withToken(client))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/messages", map[string]string{
		"project_id": projectID,
		"content":    "Loving the first draft",
	}, withToken(client))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/messages/"+projectID, nil, withToken(admin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/messages/"+projectID, nil, withToken(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_ContentAndTestimonials(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	admin := env.login(t, adminEmail, adminPassword).AccessToken
	env.register(t, "client@example.com", "Client")
	client := env.login(t, "client@example.com", "secret-pass").AccessToken

	section := map[string]interface{}{
		"page":    "home",
		"content": map[string]interface{}{"headline": "We build worlds"},
	}
	rec := env.do(t, http.MethodPut, "/api/content/hero", section)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodPut, "/api/content/hero", section, withToken(client))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/content/hero", section, withToken(admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/content/hero", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "hero", got["section_name"])
	assert.Equal(t, "We build worlds", got["content"].(map[string]interface{})["headline"])

	rec = env.do(t, http.MethodGet, "/api/content/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/testimonials", map[string]interface{}{
		"client_name": "Ari",
		"title":       "Great work",
		"content":     "The overlays look amazing on stream",
		"rating":      5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	testimonial := decode[map[string]interface{}](t, rec)
	assert.Equal(t, false, testimonial["approved"])
	id := testimonial["id"].(string)

	rec = env.do(t, http.MethodGet, "/api/testimonials", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/admin/testimonials", nil, withToken(client))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/admin/testimonials", nil, withToken(admin))
	assert.Len(t, decode[[]map[string]interface{}](t, rec), 1)

	rec = env.do(t, http.MethodPut, "/api/testimonials/"+id+"/approve", nil, withToken(admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/testimonials", nil)
	assert.Len(t, decode[[]map[string]interface{}](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/counter-stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode[map[string]interface{}](t, rec)["testimonials_count"])

	rec = env.do(t, http.MethodPut, "/api/counter-stats", map[string]string{"support_available": "24/7"}, withToken(admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "24/7", decode[map[string]interface{}](t, rec)["support_available"])

	rec = env.do(t, http.MethodDelete, "/api/testimonials/"+id, nil, withToken(admin))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/testimonials", nil)
	assert.Len(t, decode[[]map[string]interface{}](t, rec), 0)
}

func TestRouter_OAuthWithoutProviders(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodGet, "/api/oauth/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"providers":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/auth/google/login", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/google/callback", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth", location.Path)
	assert.Equal(t, "missing_parameters", location.Query().Get("error"))
	assert.Equal(t, "google", location.Query().Get("provider"))

	rec = env.do(t, http.MethodGet, "/api/auth/discord/callback?error=access_denied", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	location, err = url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "access_denied", location.Query().Get("error"))
}

func TestRouter_Metrics(t *testing.T) {
	collector := observability.NewCollector("eternals_test")
	env := newTestEnv(t, envOptions{opts: []rest.Option{rest.WithMetrics(collector, collector.Handler())}})

	env.do(t, http.MethodGet, "/api/store/products", nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `eternals_test_http_requests_total{method="GET",route="/api/store/products",status="200"} 1`)
}
