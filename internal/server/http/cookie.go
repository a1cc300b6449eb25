package httpserver

import (
	"net/http"
	"time"

	"github.com/and161185/authsite/internal/model"
)

// SessionCookieName is the cookie carrying the signed session reference.
const SessionCookieName = "session"

type cookieJar struct {
	secure bool
}

// set replaces any session cookie already queued on w.
func (c cookieJar) set(w http.ResponseWriter, issued model.Issued) {
	w.Header().Del("Set-Cookie")
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    issued.Cookie,
		Path:     "/",
		Expires:  issued.ExpiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c cookieJar) clear(w http.ResponseWriter) {
	w.Header().Del("Set-Cookie")
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func sessionCookie(r *http.Request) string {
	ck, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}
