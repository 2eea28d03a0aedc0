package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"eternals-backend/application/ports"
	pkgerrors "eternals-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Credentials are the client registration values issued by a provider
type Credentials struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Configured reports whether both client id and secret are present
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Definition describes one provider: where to send the user, which scopes
// to ask for and how to read its profile payload.
type Definition struct {
	Name        string
	Endpoint    oauth2.Endpoint
	Scopes      []string
	UserInfoURL string
	AuthOptions []oauth2.AuthCodeOption
	Decode      func(body []byte) (*ports.ExternalIdentity, error)
}

// BreakerConfig tunes the circuit breaker around profile fetches
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the settings used for every provider
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Provider runs the authorization-code flow for one Definition
type Provider struct {
	def     Definition
	config  *oauth2.Config
	breaker *gobreaker.CircuitBreaker
	client  *http.Client
	logger  *zap.Logger
}

// NewProvider builds a provider. The breaker reports state transitions to
// metrics as 0 (closed), 1 (half-open) or 2 (open).
func NewProvider(def Definition, creds Credentials, breakerCfg BreakerConfig, metrics ports.Metrics, logger *zap.Logger) *Provider {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	logger = logger.With(zap.String("provider", def.Name))

	settings := gobreaker.Settings{
		Name:        "oauth-" + def.Name,
		MaxRequests: breakerCfg.MaxRequests,
		Interval:    breakerCfg.Interval,
		Timeout:     breakerCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerCfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= breakerCfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(name, breakerStateValue(to))
		},
	}

	return &Provider{
		def: def,
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Scopes:       def.Scopes,
			Endpoint:     def.Endpoint,
		},
		breaker: gobreaker.NewCircuitBreaker(settings),
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Name returns the provider key
func (p *Provider) Name() string {
	return p.def.Name
}

// AuthCodeURL returns the provider's consent page URL
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, p.def.AuthOptions...)
}

// Exchange trades the authorization code for a token and fetches the user's
// profile with it.
func (p *Provider) Exchange(ctx context.Context, code string) (*ports.ExternalIdentity, error) {
	if code == "" {
		return nil, pkgerrors.NewValidationError("authorization code is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		p.logger.Warn("Token exchange failed", zap.Error(err))
		return nil, pkgerrors.NewExternalError(p.def.Name, err)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetchProfile(ctx, token)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, pkgerrors.NewExternalError(p.def.Name, err).WithCode("PROVIDER_UNAVAILABLE")
		}
		return nil, pkgerrors.NewExternalError(p.def.Name, err)
	}

	identity := result.(*ports.ExternalIdentity)
	identity.Provider = p.def.Name
	return identity, nil
}

func (p *Provider) fetchProfile(ctx context.Context, token *oauth2.Token) (*ports.ExternalIdentity, error) {
	client := p.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.def.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	identity, err := p.def.Decode(body)
	if err != nil {
		return nil, err
	}
	if identity.ProviderID == "" {
		return nil, fmt.Errorf("userinfo response has no user id")
	}
	return identity, nil
}

func decodeJSON(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode userinfo: %w", err)
	}
	return nil
}
