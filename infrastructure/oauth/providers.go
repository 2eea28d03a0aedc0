package oauth

import (
	"sort"

	"eternals-backend/application/ports"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGoogle  = "google"
	ProviderDiscord = "discord"
)

// Google returns the Google sign-in definition
func Google() Definition {
	return Definition{
		Name:        ProviderGoogle,
		Endpoint:    google.Endpoint,
		Scopes:      []string{"openid", "profile", "email"},
		UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		AuthOptions: []oauth2.AuthCodeOption{
			oauth2.AccessTypeOffline,
			oauth2.SetAuthURLParam("prompt", "select_account"),
		},
		Decode: decodeGoogle,
	}
}

func decodeGoogle(body []byte) (*ports.ExternalIdentity, error) {
	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := decodeJSON(body, &payload); err != nil {
		return nil, err
	}
	return &ports.ExternalIdentity{
		ProviderID:  payload.ID,
		Email:       payload.Email,
		DisplayName: payload.Name,
		AvatarURL:   payload.Picture,
	}, nil
}

// Discord returns the Discord sign-in definition
func Discord() Definition {
	return Definition{
		Name: ProviderDiscord,
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://discord.com/api/oauth2/authorize",
			TokenURL:  "https://discord.com/api/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes:      []string{"identify", "email"},
		UserInfoURL: "https://discord.com/api/users/@me",
		Decode:      decodeDiscord,
	}
}

func decodeDiscord(body []byte) (*ports.ExternalIdentity, error) {
	var payload struct {
		ID         string `json:"id"`
		Email      string `json:"email"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Avatar     string `json:"avatar"`
	}
	if err := decodeJSON(body, &payload); err != nil {
		return nil, err
	}

	identity := &ports.ExternalIdentity{
		ProviderID:  payload.ID,
		Email:       payload.Email,
		DisplayName: payload.GlobalName,
	}
	if identity.DisplayName == "" {
		identity.DisplayName = payload.Username
	}
	if payload.Avatar != "" {
		identity.AvatarURL = "https://cdn.discordapp.com/avatars/" + payload.ID + "/" + payload.Avatar + ".png"
	}
	return identity, nil
}

// Registry holds the providers that have credentials configured
type Registry struct {
	providers map[string]ports.IdentityProvider
}

// NewRegistry wires every definition whose credentials are configured.
// Unconfigured providers are skipped with an info log.
func NewRegistry(creds map[string]Credentials, breakerCfg BreakerConfig, metrics ports.Metrics, logger *zap.Logger) *Registry {
	r := &Registry{providers: make(map[string]ports.IdentityProvider)}
	for _, def := range []Definition{Google(), Discord()} {
		c, ok := creds[def.Name]
		if !ok || !c.Configured() {
			logger.Info("OAuth provider not configured", zap.String("provider", def.Name))
			continue
		}
		r.Register(NewProvider(def, c, breakerCfg, metrics, logger))
	}
	return r
}

// Register adds or replaces a provider
func (r *Registry) Register(p ports.IdentityProvider) {
	r.providers[p.Name()] = p
}

// Get looks up a provider by name
func (r *Registry) Get(name string) (ports.IdentityProvider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names lists the configured providers in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
