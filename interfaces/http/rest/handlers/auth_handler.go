package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"eternals-backend/application/services"
	"eternals-backend/pkg/auth"
	"eternals-backend/pkg/common"
	pkgerrors "eternals-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const stateCookieName = "oauth_state"

// AuthHandler handles accounts, password login and third-party login
type AuthHandler struct {
	auth        *services.AuthService
	carts       *services.CartService
	sessions    *CartSessions
	frontendURL string
	errs        *pkgerrors.ErrorHandler
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *services.AuthService,
	carts *services.CartService,
	sessions *CartSessions,
	frontendURL string,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:        authService,
		carts:       carts,
		sessions:    sessions,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		errs:        errs,
		logger:      logger,
	}
}

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Company  string `json:"company,omitempty" validate:"omitempty,max=100"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=super_admin admin editor client"`
}

// LoginRequest accepts the OAuth2 password form field names as well as email
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OAuthStartResponse carries the consent URL for a provider
type OAuthStartResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), callerFrom(r), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Company:  req.Company,
		Role:     req.Role,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login. Form posts use username/password,
// JSON bodies may send either username or email.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if isForm(r) {
		r.Body = http.MaxBytesReader(w, r.Body, common.DefaultMaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			h.errs.Handle(w, r, pkgerrors.NewValidationError("invalid form body").WithCause(err))
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	email := req.Username
	if email == "" {
		email = req.Email
	}
	if email == "" || req.Password == "" {
		h.errs.Handle(w, r, pkgerrors.NewValidationError("username and password are required"))
		return
	}

	resp, err := h.auth.Login(r.Context(), email, req.Password)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	user, err := h.auth.Me(r.Context(), caller.UserID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so logging out
// only tears down the caller's carts.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, sessionID := range h.sessions.Release(w, r) {
		h.carts.EndSession(r.Context(), sessionID)
	}
	common.RespondJSON(w, http.StatusOK, common.StatusResponse{Status: "ok", Message: "logged out"})
}

// Providers handles GET /api/oauth/providers
func (h *AuthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string][]string{"providers": h.auth.Providers()})
}

// OAuthLogin handles GET /api/auth/{provider}/login. The consent URL is
// returned as JSON; browsers that follow with ?redirect=true are sent there
// directly.
func (h *AuthHandler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	authURL, state, err := h.auth.BeginOAuth(provider)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	if r.URL.Query().Get("redirect") == "true" {
		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
		return
	}
	common.RespondJSON(w, http.StatusOK, OAuthStartResponse{AuthorizationURL: authURL, State: state})
}

// OAuthCallback handles GET /api/auth/{provider}/callback. Every outcome
// redirects back to the frontend: the token on success, an error code
// otherwise.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	query := r.URL.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		message := query.Get("error_description")
		if message == "" {
			message = "login was cancelled at the provider"
		}
		h.redirectError(w, r, provider, providerErr, message)
		return
	}

	code, state := query.Get("code"), query.Get("state")
	if code == "" || state == "" {
		h.redirectError(w, r, provider, "missing_parameters", "missing required OAuth parameters")
		return
	}
	if cookie, err := r.Cookie(stateCookieName); err == nil && cookie.Value != state {
		h.redirectError(w, r, provider, "invalid_state", "login state does not match")
		return
	}

	resp, err := h.auth.CompleteOAuth(r.Context(), provider, state, code)
	if err != nil {
		h.logger.Warn("OAuth callback failed", zap.String("provider", provider), zap.Error(err))
		h.redirectError(w, r, provider, callbackErrorCode(err), callbackErrorMessage(err))
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/api/auth", MaxAge: -1})
	target := h.frontendURL + "/auth/callback?" + url.Values{
		"token":    {resp.AccessToken},
		"provider": {provider},
	}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, provider, code, message string) {
	target := h.frontendURL + "/auth?" + url.Values{
		"error":    {code},
		"provider": {provider},
		"message":  {message},
	}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func callbackErrorCode(err error) string {
	appErr := pkgerrors.GetAppError(err)
	if appErr == nil {
		return "server_error"
	}
	if appErr.Code != "" {
		return strings.ToLower(appErr.Code)
	}
	switch appErr.Type {
	case pkgerrors.ErrorTypeUnauthorized:
		return "invalid_state"
	case pkgerrors.ErrorTypeNotFound:
		return "unknown_provider"
	case pkgerrors.ErrorTypeValidation:
		return "invalid_request"
	case pkgerrors.ErrorTypeExternal:
		return "exchange_failed"
	default:
		return "server_error"
	}
}

func callbackErrorMessage(err error) string {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return "login failed"
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded")
}
