package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"eternals-backend/application/ports"
	"eternals-backend/domain/core/entities"
	"eternals-backend/domain/events"
	"eternals-backend/pkg/auth"
	pkgerrors "eternals-backend/pkg/errors"
	"eternals-backend/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	authMethodPassword = "password"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// RegisterInput carries a registration request
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Company  string
	Role     string
}

// TokenResponse is returned by every successful login
type TokenResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	User        *entities.User `json:"user"`
}

// AuthService handles accounts, password login and third-party login
type AuthService struct {
	users     ports.UserRepository
	tokens    *auth.TokenManager
	providers ports.IdentityProviders
	states    ports.StateStore
	publisher ports.EventPublisher
	metrics   ports.Metrics
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users ports.UserRepository,
	tokens *auth.TokenManager,
	providers ports.IdentityProviders,
	states ports.StateStore,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	logger *zap.Logger,
) *AuthService {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		providers: providers,
		states:    states,
		publisher: publisher,
		metrics:   metrics,
		tracer:    observability.NewTracer("auth-service"),
		logger:    logger,
	}
}

// Register creates a password account. Only admins may pick the role of
// the new account; everyone else gets a client account.
func (s *AuthService) Register(ctx context.Context, caller *auth.UserContext, in RegisterInput) (*entities.User, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	role := entities.RoleClient
	if caller != nil && entities.Role(caller.Role).IsAdmin() {
		requested, err := entities.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		if requested == entities.RoleSuperAdmin && entities.Role(caller.Role) != entities.RoleSuperAdmin {
			return nil, pkgerrors.NewForbiddenError("only a super admin can create super admins")
		}
		role = requested
	}

	user, err := entities.NewUser(in.Email, in.FullName, role)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return nil, pkgerrors.NewConflictError("email already registered").WithDetail("email", user.Email)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, pkgerrors.NewValidationError("password must be at least 6 characters").WithDetail("field", "password")
		}
		return nil, pkgerrors.Wrap(err, "failed to hash password")
	}
	user.PasswordHash = hash
	user.Company = strings.TrimSpace(in.Company)

	if err := s.users.Save(ctx, user); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("user.id", user.ID), attribute.String("user.role", string(user.Role)))
	s.logger.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	s.publish(ctx, events.NewUserRegistered(user.ID, user.Email, authMethodPassword, time.Now().UTC()))
	return user, nil
}

// Login checks the password and issues an access token
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil || !user.IsActive || !auth.VerifyPassword(user.PasswordHash, password) {
		s.metrics.AuthAttempt(authMethodPassword, outcomeFailure)
		s.logger.Info("Login rejected", zap.String("email", entities.NormalizeEmail(email)))
		return nil, pkgerrors.NewUnauthorizedError("incorrect email or password")
	}

	resp, err := s.issue(user)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.metrics.AuthAttempt(authMethodPassword, outcomeSuccess)
	s.publish(ctx, events.NewUserLoggedIn(user.ID, user.Email, authMethodPassword, time.Now().UTC()))
	return resp, nil
}

// Me returns the account behind the caller's token
func (s *AuthService) Me(ctx context.Context, userID string) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.NewUnauthorizedError("account is disabled")
	}
	return user, nil
}

// SeedSuperAdmin makes sure the configured super admin exists. An existing
// account with that email is promoted and gets the configured password.
func (s *AuthService) SeedSuperAdmin(ctx context.Context, email, password, fullName string) error {
	if email == "" || password == "" {
		s.logger.Warn("Super admin credentials not configured, skipping seed")
		return nil
	}
	if fullName == "" {
		fullName = "Super Admin"
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return pkgerrors.Wrap(err, "invalid super admin password")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			return err
		}
		if user, err = entities.NewUser(email, fullName, entities.RoleSuperAdmin); err != nil {
			return err
		}
	}
	user.Role = entities.RoleSuperAdmin
	user.IsActive = true
	user.PasswordHash = hash

	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	s.logger.Info("Super admin ready", zap.String("user_id", user.ID))
	return nil
}

// Providers lists the third-party login providers that are configured
func (s *AuthService) Providers() []string {
	if s.providers == nil {
		return []string{}
	}
	return s.providers.Names()
}

// BeginOAuth returns the consent URL for provider and the state it carries
func (s *AuthService) BeginOAuth(provider string) (string, string, error) {
	p, err := s.provider(provider)
	if err != nil {
		return "", "", err
	}
	state := s.states.Issue(provider)
	return p.AuthCodeURL(state), state, nil
}

// CompleteOAuth checks state, exchanges the code and logs the user in,
// linking or creating the account as needed.
func (s *AuthService) CompleteOAuth(ctx context.Context, provider, state, code string) (*TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.CompleteOAuth", attribute.String("oauth.provider", provider))
	defer span.End()

	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}
	if issuedFor, ok := s.states.Consume(state); !ok || issuedFor != provider {
		s.metrics.AuthAttempt(provider, outcomeFailure)
		return nil, pkgerrors.NewUnauthorizedError("invalid or expired login state")
	}

	identity, err := p.Exchange(ctx, code)
	if err != nil {
		s.metrics.AuthAttempt(provider, outcomeFailure)
		observability.RecordError(span, err)
		s.logger.Warn("OAuth exchange failed", zap.String("provider", provider), zap.Error(err))
		return nil, err
	}

	user, created, err := s.upsertExternal(ctx, identity)
	if err != nil {
		s.metrics.AuthAttempt(provider, outcomeFailure)
		observability.RecordError(span, err)
		return nil, err
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.metrics.AuthAttempt(provider, outcomeSuccess)
	now := time.Now().UTC()
	if created {
		s.publish(ctx, events.NewUserRegistered(user.ID, user.Email, provider, now))
	}
	s.publish(ctx, events.NewUserLoggedIn(user.ID, user.Email, provider, now))
	return resp, nil
}

func (s *AuthService) upsertExternal(ctx context.Context, identity *ports.ExternalIdentity) (*entities.User, bool, error) {
	user, err := s.users.GetByProvider(ctx, identity.Provider, identity.ProviderID)
	if err == nil {
		if !user.IsActive {
			return nil, false, pkgerrors.NewUnauthorizedError("account is disabled")
		}
		if identity.AvatarURL != "" && identity.AvatarURL != user.AvatarURL {
			user.AvatarURL = identity.AvatarURL
			if err := s.users.Save(ctx, user); err != nil {
				return nil, false, err
			}
		}
		return user, false, nil
	}
	if !pkgerrors.IsNotFound(err) {
		return nil, false, err
	}

	if identity.Email == "" {
		return nil, false, pkgerrors.NewValidationError("provider did not share an email address").
			WithDetail("provider", identity.Provider)
	}

	user, err = s.users.GetByEmail(ctx, identity.Email)
	created := false
	switch {
	case err == nil:
		if !user.IsActive {
			return nil, false, pkgerrors.NewUnauthorizedError("account is disabled")
		}
	case pkgerrors.IsNotFound(err):
		name := identity.DisplayName
		if name == "" {
			name = strings.SplitN(identity.Email, "@", 2)[0]
		}
		if user, err = entities.NewUser(identity.Email, name, entities.RoleClient); err != nil {
			return nil, false, err
		}
		created = true
	default:
		return nil, false, err
	}

	user.Provider = identity.Provider
	user.ProviderID = identity.ProviderID
	if user.AvatarURL == "" {
		user.AvatarURL = identity.AvatarURL
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, false, err
	}

	s.logger.Info("Linked external account",
		zap.String("user_id", user.ID),
		zap.String("provider", identity.Provider),
		zap.Bool("created", created),
	)
	return user, created, nil
}

func (s *AuthService) provider(name string) (ports.IdentityProvider, error) {
	if s.providers == nil {
		return nil, pkgerrors.NewNotFoundError("oauth provider")
	}
	p, ok := s.providers.Get(name)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("oauth provider").WithDetail("provider", name)
	}
	return p, nil
}

func (s *AuthService) issue(user *entities.User) (*TokenResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to issue token").WithCause(err)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
		User:        user,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish auth event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
