package http

import (
	"net/http"
	"time"

	"carlog/internal/shell"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "carlog_session"

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// withApp resolves the request's session state through the registry.
// Requests without a live session are bounced to the login page; the
// registry probes the provider for tokens it has not seen yet, so
// sessions survive a server restart.
func (s *Server) withApp(next func(http.ResponseWriter, *http.Request, *shell.App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := s.registry.Lookup(r.Context(), sessionToken(r))
		if err != nil {
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, app)
	}
}
