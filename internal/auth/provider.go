// Package auth implements the identity provider: account registration,
// password sign-in, server-side sessions, password reset and update, and
// a subscribable stream of auth-state events.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"carlog/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrNoSession          = errors.New("not signed in")
	ErrInvalidResetToken  = errors.New("reset link is invalid or expired")
)

// User is the identity attached to a session.
type User struct {
	ID    string
	Email string
}

// Session is a live authenticated session.
type Session struct {
	Token     string
	User      User
	ExpiresAt time.Time
}

// SignUpResult distinguishes the three sign-up outcomes: a session was
// issued (login), a user exists but no session could be issued, or email
// confirmation is pending and neither is returned.
type SignUpResult struct {
	Session          *Session
	User             *User
	ConfirmationSent bool
}

// Provider implements the identity operations over the store and pushes
// every state transition onto its event broker.
type Provider struct {
	store          *store.Store
	broker         *Broker
	sessionTTL     time.Duration
	resetTTL       time.Duration
	requireConfirm bool
}

func NewProvider(st *store.Store, broker *Broker, sessionTTL, resetTTL time.Duration, requireConfirm bool) *Provider {
	return &Provider{
		store:          st,
		broker:         broker,
		sessionTTL:     sessionTTL,
		resetTTL:       resetTTL,
		requireConfirm: requireConfirm,
	}
}

// Events exposes the auth event broker for session-gate subscriptions.
func (p *Provider) Events() *Broker {
	return p.broker
}

// SignUp registers a new account. With confirmation disabled it signs the
// user straight in; with confirmation enabled the account stays locked
// until confirmed and no session is issued.
func (p *Provider) SignUp(ctx context.Context, email, password string) (SignUpResult, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return SignUpResult{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return SignUpResult{}, ErrWeakPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return SignUpResult{}, err
	}

	user, err := p.store.CreateUser(ctx, email, hash, !p.requireConfirm)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return SignUpResult{}, ErrEmailTaken
		}
		return SignUpResult{}, fmt.Errorf("create user: %w", err)
	}

	if p.requireConfirm {
		slog.InfoContext(ctx, "sign-up pending confirmation", "user_id", user.ID, "email", email)
		return SignUpResult{ConfirmationSent: true}, nil
	}

	sess, err := p.issueSession(ctx, user)
	if err != nil {
		// The account exists even though no session could be issued;
		// callers treat this ambiguous outcome as a success.
		slog.WarnContext(ctx, "sign-up session issue failed", "user_id", user.ID, "error", err)
		return SignUpResult{User: &User{ID: user.ID, Email: user.Email}}, nil
	}

	return SignUpResult{Session: sess, User: &sess.User}, nil
}

// SignInWithPassword authenticates email+password and issues a session.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	user, err := p.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.Confirmed {
		return nil, ErrEmailNotConfirmed
	}
	return p.issueSession(ctx, user)
}

func (p *Provider) issueSession(ctx context.Context, user *store.User) (*Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(p.sessionTTL)
	if err := p.store.CreateSession(ctx, token, user.ID, expiresAt); err != nil {
		return nil, err
	}

	sess := &Session{
		Token:     token,
		User:      User{ID: user.ID, Email: user.Email},
		ExpiresAt: expiresAt,
	}
	p.broker.Publish(Event{Type: EventSignedIn, Token: token, Session: sess})
	slog.InfoContext(ctx, "user signed in", "user_id", user.ID)
	return sess, nil
}

// SignOut destroys the session and broadcasts the transition.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if err := p.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	p.broker.Publish(Event{Type: EventSignedOut, Token: token})
	return nil
}

// GetSession resolves a token to a live session, the start-up probe of the
// session gate. Unknown and expired tokens report ErrNoSession.
func (p *Provider) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	sess, user, err := p.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &Session{
		Token:     sess.Token,
		User:      User{ID: user.ID, Email: user.Email},
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// GetUser returns the identity behind a session token.
func (p *Provider) GetUser(ctx context.Context, token string) (*User, error) {
	sess, err := p.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return &sess.User, nil
}

// UpdatePassword changes the password of the session's user.
func (p *Provider) UpdatePassword(ctx context.Context, token, newPassword string) error {
	sess, err := p.GetSession(ctx, token)
	if err != nil {
		return err
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := p.store.SetPasswordHash(ctx, sess.User.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	slog.InfoContext(ctx, "password updated", "user_id", sess.User.ID)
	return nil
}

// ResetPasswordForEmail creates a reset token and records the recovery
// link. There is no mailer; the link is logged for out-of-band delivery.
// Unknown emails succeed silently so the endpoint cannot be used to probe
// for accounts.
func (p *Provider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	user, err := p.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("look up user: %w", err)
	}

	token, err := GenerateToken()
	if err != nil {
		return err
	}
	if err := p.store.CreateResetToken(ctx, token, user.ID, redirectTo, time.Now().Add(p.resetTTL)); err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	link := redirectTo
	if u, err := url.Parse(redirectTo); err == nil {
		q := u.Query()
		q.Set("reset_token", token)
		u.RawQuery = q.Encode()
		link = u.String()
	}
	p.broker.Publish(Event{Type: EventPasswordRecovery, Token: token})
	slog.InfoContext(ctx, "password reset link issued", "user_id", user.ID, "link", link)
	return nil
}

// CompletePasswordReset consumes a reset token and sets the new password.
func (p *Provider) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	userID, _, err := p.store.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := p.store.SetPasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	slog.InfoContext(ctx, "password reset completed", "user_id", userID)
	return nil
}

// ExpireSessions prunes sessions past their deadline and broadcasts a
// sign-out for each, so gates holding those tokens lock their UI.
func (p *Provider) ExpireSessions(ctx context.Context) error {
	tokens, err := p.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("expire sessions: %w", err)
	}
	for _, token := range tokens {
		p.broker.Publish(Event{Type: EventSignedOut, Token: token})
	}
	if len(tokens) > 0 {
		slog.InfoContext(ctx, "expired sessions pruned", "count", len(tokens))
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
