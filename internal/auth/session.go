package auth

import (
	"errors"
	"net/http"
	"time"

	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
)

// CookieName is the session cookie. The value is an opaque token; everything
// about the session lives server-side.
const CookieName = "helpdesk_session"

// CookieConfig controls how the session cookie is issued.
type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

// SetSessionCookie writes the session cookie on a successful login
func SetSessionCookie(w http.ResponseWriter, token string, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on logout
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadSessionToken extracts the session token from the request cookie
func ReadSessionToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", apperrors.ErrUnauthorized
		}
		return "", err
	}
	if cookie.Value == "" {
		return "", apperrors.ErrUnauthorized
	}
	return cookie.Value, nil
}
