// Package handlers holds the REST handlers. Handlers decode and validate the
// request, resolve the caller and hand off to an application service; every
// failure is rendered by the shared error handler.
package handlers

import (
	"net/http"
	"time"

	"eternals-backend/pkg/auth"
	"eternals-backend/pkg/common"
	"eternals-backend/pkg/utils"

	"github.com/google/uuid"
)

const cartCookieName = "cart_session"

// decodeRequest parses the JSON body into v and runs its validation tags
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := common.ParseJSONBody(w, r, v, common.DefaultMaxBodyBytes); err != nil {
		return err
	}
	return utils.ValidateStruct(v)
}

// callerFrom returns the authenticated caller, or nil for anonymous requests
func callerFrom(r *http.Request) *auth.UserContext {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return nil
	}
	return user
}

// CartSessions binds requests to cart sessions. Signed-in callers shop under
// their user id; anonymous visitors get a random id in a cookie.
type CartSessions struct {
	ttl    time.Duration
	secure bool
}

// NewCartSessions creates a session binder whose cookie lives as long as an
// idle cart
func NewCartSessions(ttl time.Duration, secure bool) *CartSessions {
	return &CartSessions{ttl: ttl, secure: secure}
}

// Resolve returns the request's cart session id, issuing a cookie for new
// anonymous visitors
func (s *CartSessions) Resolve(w http.ResponseWriter, r *http.Request) string {
	if user := callerFrom(r); user != nil {
		return "user:" + user.UserID
	}
	if id, ok := s.cookieSession(r); ok {
		return id
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Release returns every session id the request is bound to and expires the
// anonymous cookie
func (s *CartSessions) Release(w http.ResponseWriter, r *http.Request) []string {
	var ids []string
	if user := callerFrom(r); user != nil {
		ids = append(ids, "user:"+user.UserID)
	}
	if id, ok := s.cookieSession(r); ok {
		ids = append(ids, id)
		http.SetCookie(w, &http.Cookie{
			Name:     cartCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return ids
}

func (s *CartSessions) cookieSession(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(cartCookieName)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", false
	}
	return cookie.Value, true
}
