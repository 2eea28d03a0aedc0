// Package config loads the service configuration. Values are layered:
// code defaults, then an optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"eternals-backend/domain/particles"
	"eternals-backend/infrastructure/oauth"
	pkgerrors "eternals-backend/pkg/errors"

	"gopkg.in/yaml.v3"
)

// Environment names the deployment environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// DefaultConfigFile is read when CONFIG_FILE is not set
const DefaultConfigFile = "config/studio.yaml"

// Config holds all application configuration
type Config struct {
	Environment Environment `yaml:"environment"`
	LogLevel    string      `yaml:"log_level"`

	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	OAuth         OAuthConfig         `yaml:"oauth"`
	Store         StoreConfig         `yaml:"store"`
	Field         FieldConfig         `yaml:"field"`
	Observability ObservabilityConfig `yaml:"observability"`

	// File is the YAML file the config was read from, empty if none
	File string `yaml:"-"`

	// IsLambda is set when running inside AWS Lambda
	IsLambda bool `yaml:"-"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address         string        `yaml:"address"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig holds token and account settings
type AuthConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTIssuer          string        `yaml:"jwt_issuer"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl"`
	SuperAdminEmail    string        `yaml:"super_admin_email"`
	SuperAdminPassword string        `yaml:"super_admin_password"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
}

// OAuthConfig holds third-party login settings
type OAuthConfig struct {
	Google      oauth.Credentials `yaml:"google"`
	Discord     oauth.Credentials `yaml:"discord"`
	FrontendURL string            `yaml:"frontend_url"`
	StateTTL    time.Duration     `yaml:"state_ttl"`
}

// Providers returns the credentials keyed by provider name
func (c OAuthConfig) Providers() map[string]oauth.Credentials {
	return map[string]oauth.Credentials{
		oauth.ProviderGoogle:  c.Google,
		oauth.ProviderDiscord: c.Discord,
	}
}

// StoreConfig holds storefront and cart settings
type StoreConfig struct {
	CatalogFile    string        `yaml:"catalog_file"`
	CartSessionTTL time.Duration `yaml:"cart_session_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}

// FieldConfig holds particle field settings
type FieldConfig struct {
	Params         particles.Params `yaml:"params"`
	TickInterval   time.Duration    `yaml:"tick_interval"`
	MaxConnections int              `yaml:"max_connections"`
	Width          float64          `yaml:"width"`
	Height         float64          `yaml:"height"`
}

// ObservabilityConfig holds metrics and tracing settings
type ObservabilityConfig struct {
	EnableMetrics bool    `yaml:"enable_metrics"`
	EnableTracing bool    `yaml:"enable_tracing"`
	ServiceName   string  `yaml:"service_name"`
	OTLPEndpoint  string  `yaml:"otlp_endpoint"`
	SampleRate    float64 `yaml:"sample_rate"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Environment: Development,
		LogLevel:    "info",
		Server: ServerConfig{
			Address:         ":8080",
			CORSOrigins:     []string{"http://localhost:3000"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			JWTIssuer:          "eternals-backend",
			AccessTokenTTL:     30 * time.Minute,
			RateLimitPerMinute: 20,
		},
		OAuth: OAuthConfig{
			FrontendURL: "http://localhost:3000",
			StateTTL:    10 * time.Minute,
		},
		Store: StoreConfig{
			CartSessionTTL: 30 * time.Minute,
			SweepInterval:  time.Minute,
		},
		Field: FieldConfig{
			Params:         particles.DefaultParams(),
			TickInterval:   50 * time.Millisecond,
			MaxConnections: 200,
			Width:          1280,
			Height:         720,
		},
		Observability: ObservabilityConfig{
			ServiceName: "eternals-backend",
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if it exists) and the environment, then validates it.
func LoadConfig() (*Config, error) {
	path := getEnv("CONFIG_FILE", DefaultConfigFile)
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile returns the defaults overlaid with the YAML file at path. A
// missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.File = path
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Environment = Environment(getEnv("ENVIRONMENT", string(c.Environment)))
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Server.Address = getEnv("SERVER_ADDRESS", c.Server.Address)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTIssuer = getEnv("JWT_ISSUER", c.Auth.JWTIssuer)
	c.Auth.AccessTokenTTL = getEnvMinutes("ACCESS_TOKEN_TTL_MINUTES", c.Auth.AccessTokenTTL)
	c.Auth.SuperAdminEmail = getEnv("SUPER_ADMIN_EMAIL", c.Auth.SuperAdminEmail)
	c.Auth.SuperAdminPassword = getEnv("SUPER_ADMIN_PASSWORD", c.Auth.SuperAdminPassword)
	c.Auth.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.Auth.RateLimitPerMinute)

	c.OAuth.Google.ClientID = getEnv("GOOGLE_CLIENT_ID", c.OAuth.Google.ClientID)
	c.OAuth.Google.ClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.OAuth.Google.ClientSecret)
	c.OAuth.Google.RedirectURL = getEnv("GOOGLE_REDIRECT_URL", c.OAuth.Google.RedirectURL)
	c.OAuth.Discord.ClientID = getEnv("DISCORD_CLIENT_ID", c.OAuth.Discord.ClientID)
	c.OAuth.Discord.ClientSecret = getEnv("DISCORD_CLIENT_SECRET", c.OAuth.Discord.ClientSecret)
	c.OAuth.Discord.RedirectURL = getEnv("DISCORD_REDIRECT_URL", c.OAuth.Discord.RedirectURL)
	c.OAuth.FrontendURL = getEnv("FRONTEND_URL", c.OAuth.FrontendURL)

	c.Store.CatalogFile = getEnv("CATALOG_FILE", c.Store.CatalogFile)
	c.Store.CartSessionTTL = getEnvMinutes("CART_SESSION_TTL_MINUTES", c.Store.CartSessionTTL)

	if ms := getEnvInt("FIELD_TICK_MS", 0); ms > 0 {
		c.Field.TickInterval = time.Duration(ms) * time.Millisecond
	}
	c.Field.MaxConnections = getEnvInt("MAX_FIELD_CONNECTIONS", c.Field.MaxConnections)

	c.Observability.EnableMetrics = getEnvBool("ENABLE_METRICS", c.Observability.EnableMetrics)
	c.Observability.EnableTracing = getEnvBool("ENABLE_TRACING", c.Observability.EnableTracing)
	c.Observability.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Observability.OTLPEndpoint)

	c.IsLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// Validate checks that the configuration can run
func (c *Config) Validate() error {
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return pkgerrors.NewValidationError("unknown environment").WithDetail("environment", string(c.Environment))
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return pkgerrors.NewValidationError("JWT_SECRET is required in production")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return pkgerrors.NewValidationError("access token TTL must be positive")
	}
	if c.Store.CartSessionTTL <= 0 || c.Store.SweepInterval <= 0 {
		return pkgerrors.NewValidationError("cart session TTL and sweep interval must be positive")
	}
	if c.Field.TickInterval <= 0 {
		return pkgerrors.NewValidationError("field tick interval must be positive")
	}
	if c.Field.MaxConnections < 1 {
		return pkgerrors.NewValidationError("max field connections must be at least 1")
	}
	if c.Field.Width <= 0 || c.Field.Height <= 0 {
		return pkgerrors.NewValidationError("field viewport must have a positive size")
	}
	return c.Field.Params.Validate()
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvMinutes(key string, defaultValue time.Duration) time.Duration {
	if minutes := getEnvInt(key, 0); minutes > 0 {
		return time.Duration(minutes) * time.Minute
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
