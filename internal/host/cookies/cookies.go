// Package cookies discovers authenticated website sessions by reading the
// browser profile's cookie database. It is the fallback signal when the
// local credential store is empty or expired; values it returns are
// candidates only and must be verified against the backend before use.
package cookies

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Cookie is a name/value pair read from the browser profile.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Reader is the session-discovery contract handlers depend on.
type Reader interface {
	// AuthCookies returns the product domain's cookies that match the
	// auth allow-list, best candidate first.
	AuthCookies(ctx context.Context) ([]Cookie, error)
	// RemoveAuthCookies deletes the matched cookies, used by the
	// broad-clearing sign-out.
	RemoveAuthCookies(ctx context.Context) error
}

// exactNames are cookie names known to carry a session token, in
// preference order.
var exactNames = []string{
	"jobtrail_session",
	"sb-access-token",
	"sb-refresh-token",
}

// patterns are substring fallbacks for provider-specific cookie names.
var patterns = []string{"auth", "session", "supabase"}

// matchRank returns the allow-list rank of a cookie name, lower is better,
// or -1 when the name does not match.
func matchRank(name string) int {
	for i, n := range exactNames {
		if name == n {
			return i
		}
	}
	lower := strings.ToLower(name)
	for i, p := range patterns {
		if strings.Contains(lower, p) {
			return len(exactNames) + i
		}
	}
	return -1
}

// SQLiteReader reads a Firefox-layout cookie database (moz_cookies table).
type SQLiteReader struct {
	db     *sql.DB
	domain string
}

// NewSQLiteReader wraps an open cookie database handle. domain is the
// product host, e.g. "jobtrail.io"; host-prefixed variants are included.
func NewSQLiteReader(db *sql.DB, domain string) *SQLiteReader {
	return &SQLiteReader{db: db, domain: domain}
}

// Open opens the cookie database at path for the given product domain.
func Open(path, domain string) (*SQLiteReader, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cookie db: %w", err)
	}
	return NewSQLiteReader(db, domain), nil
}

// AuthCookies returns the product domain's auth-related cookies ordered by
// allow-list rank.
func (r *SQLiteReader) AuthCookies(ctx context.Context) ([]Cookie, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT name, value FROM moz_cookies WHERE host = ? OR host = ?`,
		r.domain, "."+r.domain,
	)
	if err != nil {
		return nil, fmt.Errorf("query cookies: %w", err)
	}
	defer rows.Close()

	type ranked struct {
		c    Cookie
		rank int
	}
	var matched []ranked
	for rows.Next() {
		var c Cookie
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, fmt.Errorf("scan cookie: %w", err)
		}
		if c.Value == "" {
			continue
		}
		if rank := matchRank(c.Name); rank >= 0 {
			matched = append(matched, ranked{c: c, rank: rank})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cookies: %w", err)
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].rank < matched[j].rank })
	out := make([]Cookie, 0, len(matched))
	for _, m := range matched {
		out = append(out, m.c)
	}
	return out, nil
}

// RemoveAuthCookies deletes every matched auth cookie for the product domain.
func (r *SQLiteReader) RemoveAuthCookies(ctx context.Context) error {
	matched, err := r.AuthCookies(ctx)
	if err != nil {
		return err
	}
	for _, c := range matched {
		_, err := r.db.ExecContext(
			ctx,
			`DELETE FROM moz_cookies WHERE (host = ? OR host = ?) AND name = ?`,
			r.domain, "."+r.domain, c.Name,
		)
		if err != nil {
			return fmt.Errorf("delete cookie %s: %w", c.Name, err)
		}
	}
	return nil
}
