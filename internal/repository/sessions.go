package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Session is one cookie-backed website session.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// PostgresSessionRepository implements session persistence on PostgreSQL.
type PostgresSessionRepository struct {
	DB *sql.DB
}

// NewPostgresSessionRepository creates a repository over the given connection.
func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{DB: db}
}

// Create inserts a session row.
func (r *PostgresSessionRepository) Create(ctx context.Context, s *Session) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		s.Token, s.UserID, s.ExpiresAt,
	)
	return err
}

// Get returns the session with the given token, or ErrNotFound. Expired
// sessions are reported as absent; the cleaner removes the rows later.
func (r *PostgresSessionRepository) Get(ctx context.Context, token string) (*Session, error) {
	var s Session
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT token, user_id, expires_at FROM sessions WHERE token = $1 AND expires_at > NOW()`,
		token,
	).Scan(&s.Token, &s.UserID, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes a session row.
func (r *PostgresSessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// DeleteExpired removes all expired sessions and reports how many went.
func (r *PostgresSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
