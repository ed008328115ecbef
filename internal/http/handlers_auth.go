package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"carlog/internal/auth"
	"carlog/internal/notify"
	"carlog/internal/shell"
)

type loginData struct {
	Email         string
	Error         string
	Info          string
	Notifications []notify.Message
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// Already signed in? Straight to the app.
	if _, err := s.registry.Lookup(r.Context(), sessionToken(r)); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", loginData{
		Notifications: s.registry.Anonymous().Active(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")

	sess, err := s.provider.SignInWithPassword(r.Context(), email, password)
	if err != nil {
		msg := "Sign-in failed"
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrEmailNotConfirmed) {
			msg = err.Error()
		} else {
			slog.ErrorContext(r.Context(), "Sign-in error", "error", err)
		}
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, r, "login.html", loginData{Email: email, Error: msg})
		return
	}

	s.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleRegister creates an account. Three outcomes: a session comes
// back and the user is signed straight in; the account exists but no
// session could be issued; or confirmation is pending. The latter two
// land on the login page with a notice.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")

	res, err := s.provider.SignUp(r.Context(), email, password)
	if err != nil {
		msg := "Registration failed"
		if errors.Is(err, auth.ErrInvalidEmail) || errors.Is(err, auth.ErrEmailTaken) || errors.Is(err, auth.ErrWeakPassword) {
			msg = err.Error()
		} else {
			slog.ErrorContext(r.Context(), "Sign-up error", "error", err)
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "login.html", loginData{Email: email, Error: msg})
		return
	}

	switch {
	case res.Session != nil:
		s.setSessionCookie(w, res.Session.Token, res.Session.ExpiresAt)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case res.ConfirmationSent:
		s.render(w, r, "login.html", loginData{
			Email: email,
			Info:  "Check your email to confirm your account, then sign in.",
		})
	default:
		// Account created but no session issued; sign in manually.
		s.render(w, r, "login.html", loginData{
			Email: email,
			Info:  "Account created. Please sign in.",
		})
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.provider.SignOut(r.Context(), token); err != nil {
			slog.ErrorContext(r.Context(), "Sign-out error", "error", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	if err := s.provider.ResetPasswordForEmail(r.Context(), email, "/reset"); err != nil {
		slog.ErrorContext(r.Context(), "Password reset request error", "error", err)
	}
	// Same response whether or not the account exists.
	s.render(w, r, "login.html", loginData{
		Email: email,
		Info:  "If that email is registered, a reset link has been issued.",
	})
}

type resetData struct {
	Token string
	Error string
}

func (s *Server) handleResetPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("reset_token")
	if token == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.render(w, r, "reset.html", resetData{Token: token})
}

func (s *Server) handleResetComplete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	token := r.Form.Get("reset_token")
	password := r.Form.Get("password")

	if err := s.provider.CompletePasswordReset(r.Context(), token, password); err != nil {
		msg := "Password reset failed"
		if errors.Is(err, auth.ErrInvalidResetToken) || errors.Is(err, auth.ErrWeakPassword) {
			msg = err.Error()
		} else {
			slog.ErrorContext(r.Context(), "Password reset error", "error", err)
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "reset.html", resetData{Token: token, Error: msg})
		return
	}

	s.registry.Anonymous().Publish("Password updated. Please sign in.", notify.Success)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	password := r.Form.Get("password")
	confirm := r.Form.Get("confirm")

	if password != confirm {
		app.Notify("Passwords do not match", notify.Error)
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	if err := s.provider.UpdatePassword(r.Context(), app.Session().Token, password); err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			app.Notify(err.Error(), notify.Error)
		} else {
			slog.ErrorContext(r.Context(), "Password update error", "error", err)
			app.Notify("Could not update password", notify.Error)
		}
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	app.Notify("Password updated", notify.Success)
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
