// Package repository provides PostgreSQL persistence for users, sessions,
// and saved jobs.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jobtrail/extension-host/internal/models"
)

// ErrNotFound reports a row that does not exist.
var ErrNotFound = errors.New("not found")

// UserRow is a user record including the password hash. It never leaves
// the service layer.
type UserRow struct {
	ID            string
	Email         string
	PasswordHash  []byte
	WebsiteLinked bool
	WebsiteEmail  string
}

// User strips the credential fields for callers above the service layer.
func (u *UserRow) User() *models.User {
	return &models.User{
		ID:            u.ID,
		Email:         u.Email,
		WebsiteLinked: u.WebsiteLinked,
		WebsiteEmail:  u.WebsiteEmail,
	}
}

// PostgresUserRepository implements user persistence on PostgreSQL.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a repository over the given connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

const userColumns = `id, email, password_hash, website_linked, COALESCE(website_email, '')`

// Create inserts a new user.
func (r *PostgresUserRepository) Create(ctx context.Context, u *UserRow) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)`,
		u.ID, u.Email, u.PasswordHash,
	)
	return err
}

// GetByEmail returns the user with the given email, or ErrNotFound.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*UserRow, error) {
	return r.scanOne(r.DB.QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
}

// GetByID returns the user with the given ID, or ErrNotFound.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*UserRow, error) {
	return r.scanOne(r.DB.QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
}

// SetWebsiteLink marks the user as linked to a website account.
func (r *PostgresUserRepository) SetWebsiteLink(ctx context.Context, id, websiteEmail string) error {
	res, err := r.DB.ExecContext(
		ctx,
		`UPDATE users SET website_linked = TRUE, website_email = $2 WHERE id = $1`,
		id, websiteEmail,
	)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) scanOne(row *sql.Row) (*UserRow, error) {
	var u UserRow
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.WebsiteLinked, &u.WebsiteEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
