package ports

import "context"

// ExternalIdentity is a user profile returned by a third-party login provider
type ExternalIdentity struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// IdentityProvider runs the authorization-code flow against one provider
type IdentityProvider interface {
	// Name is the provider key used in URLs ("google", "discord")
	Name() string

	// AuthCodeURL returns the consent page URL carrying state
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for the user's profile
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
}

// IdentityProviders looks up the configured login providers
type IdentityProviders interface {
	Get(name string) (IdentityProvider, bool)
	Names() []string
}

// StateStore issues single-use OAuth state values bound to a provider
type StateStore interface {
	// Issue returns a fresh state for provider
	Issue(provider string) string

	// Consume returns the provider a state was issued for and forgets it.
	// Unknown or expired states report false.
	Consume(state string) (string, bool)
}
