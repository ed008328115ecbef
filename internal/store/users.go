package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is an account row. PasswordHash never leaves this layer except to
// the auth provider.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Confirmed    bool
	CreatedAt    time.Time
}

// Session is a server-side session row keyed by its opaque token.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// CreateUser inserts a new account. Duplicate emails report ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string, confirmed bool) (*User, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, confirmed) VALUES (?, ?, ?, ?)",
		id, email, passwordHash, confirmed,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, confirmed, created_at FROM users WHERE id = ?", id))
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, confirmed, created_at FROM users WHERE email = ?", email))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Confirmed, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// SetPasswordHash replaces a user's password hash.
func (s *Store) SetPasswordHash(ctx context.Context, userID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, userID)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ConfirmUser marks an account's email as confirmed.
func (s *Store) ConfirmUser(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET confirmed = 1 WHERE id = ?", userID)
	if err != nil {
		return fmt.Errorf("confirm user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateSession persists a new session token for a user.
func (s *Store) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns the session for token together with its user, or
// ErrNotFound for unknown and expired tokens alike.
func (s *Store) GetSession(ctx context.Context, token string) (*Session, *User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.token, s.user_id, s.expires_at, u.id, u.email, u.password_hash, u.confirmed, u.created_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?`, token, time.Now().UTC())

	var (
		sess Session
		u    User
	)
	err := row.Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt,
		&u.ID, &u.Email, &u.PasswordHash, &u.Confirmed, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, &u, nil
}

// DeleteSession removes a session by token.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions prunes sessions past their expiry and returns the
// tokens removed, so the caller can broadcast sign-outs for them.
func (s *Store) DeleteExpiredSessions(ctx context.Context) ([]string, error) {
	now := time.Now().UTC()
	rows, err := s.db.QueryContext(ctx,
		"SELECT token FROM sessions WHERE expires_at <= ?", now)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, fmt.Errorf("scan expired session: %w", err)
		}
		tokens = append(tokens, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(tokens) > 0 {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM sessions WHERE expires_at <= ?", now); err != nil {
			return nil, fmt.Errorf("delete expired sessions: %w", err)
		}
	}
	return tokens, nil
}

// CreateResetToken persists a password-reset token.
func (s *Store) CreateResetToken(ctx context.Context, token, userID, redirectTo string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (token, user_id, redirect_to, expires_at) VALUES (?, ?, ?, ?)",
		token, userID, redirectTo, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken deletes a valid reset token and returns its user id
// and redirect target. Expired and unknown tokens report ErrNotFound.
func (s *Store) ConsumeResetToken(ctx context.Context, token string) (userID, redirectTo string, err error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT user_id, redirect_to FROM password_reset_tokens WHERE token = ? AND expires_at > ?",
		token, time.Now().UTC())
	if err := row.Scan(&userID, &redirectTo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrNotFound
		}
		return "", "", fmt.Errorf("scan reset token: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE token = ?", token); err != nil {
		return "", "", fmt.Errorf("consume reset token: %w", err)
	}
	return userID, redirectTo, nil
}
