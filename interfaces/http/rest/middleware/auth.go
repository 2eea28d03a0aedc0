package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"eternals-backend/domain/core/entities"
	"eternals-backend/pkg/auth"
	pkgerrors "eternals-backend/pkg/errors"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller in the request context.
func Authenticate(tokens TokenValidator, errs *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("missing authentication token"))
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				errs.Handle(w, r, unauthorizedFor(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), userFromClaims(claims))))
		})
	}
}

// OptionalAuth attaches the caller when a valid token is presented and lets
// anonymous requests through untouched.
func OptionalAuth(tokens TokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				if claims, err := tokens.ValidateToken(token); err == nil {
					r = r.WithContext(auth.SetUserInContext(r.Context(), userFromClaims(claims)))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole creates middleware that requires one of the given roles. It
// must run after Authenticate.
func RequireRole(errs *pkgerrors.ErrorHandler, roles ...entities.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
				return
			}

			for _, role := range roles {
				if entities.Role(user.Role) == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			errs.Handle(w, r, pkgerrors.NewForbiddenError("insufficient permissions"))
		})
	}
}

// RateLimit limits requests per client IP
func RateLimit(limiter *auth.IPRateLimiter, perMinute int, errs *pkgerrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), getClientIP(r))
			if err != nil {
				errs.Handle(w, r, err)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				errs.Handle(w, r, pkgerrors.NewRateLimitError(perMinute, "minute"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userFromClaims(claims *auth.Claims) *auth.UserContext {
	return &auth.UserContext{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}
}

func unauthorizedFor(err error) *pkgerrors.AppError {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return pkgerrors.NewUnauthorizedError("token has expired")
	case errors.Is(err, auth.ErrInvalidSignature):
		return pkgerrors.NewUnauthorizedError("invalid token signature")
	default:
		return pkgerrors.NewUnauthorizedError("invalid token")
	}
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the auth_token cookie
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// getClientIP extracts the client IP address
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
