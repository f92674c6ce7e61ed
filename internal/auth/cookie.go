package auth

import (
	"net/http"
	"time"
)

// CookieName is the session cookie's name.
const CookieName = "sessionId"

// CookiePolicy decides the cookie attributes that depend on deployment.
// In production the frontend lives on another origin, so the cookie must be
// Secure with SameSite=None to be sent on credentialed cross-site requests.
// Locally it stays SameSite=Lax over plain HTTP.
type CookiePolicy struct {
	Secure bool
}

func (p CookiePolicy) sameSite() http.SameSite {
	if p.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// Set writes the session cookie.
func (p CookiePolicy) Set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	})
}

// Clear tells the browser to drop the session cookie.
func (p CookiePolicy) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	})
}
