// Package models defines the core data structures shared between the
// extension host and the backend: credentials, job drafts, and users.
package models

import "time"

// CredentialRecord is the locally persisted authentication state of an
// extension install: a bearer token, its expiry, and website-link metadata.
type CredentialRecord struct {
	// Token is the opaque bearer string sent as "Authorization: Bearer <token>".
	Token string `json:"token"`
	// UserID is the backend identifier of the authenticated user.
	UserID string `json:"userId"`
	// Email is the account email returned by the backend.
	Email string `json:"email"`
	// ExpiresAt is the absolute expiry in epoch milliseconds. A record with
	// ExpiresAt <= now is treated as absent.
	ExpiresAt int64 `json:"expiresAt"`
	// WebsiteLinked reports whether the token is tied to an authenticated
	// website account rather than extension-only usage.
	WebsiteLinked bool `json:"websiteLinked"`
	// WebsiteEmail is the linked website account's email. It differs from
	// Email only when the link-account flow diverges.
	WebsiteEmail string `json:"websiteEmail,omitempty"`
}

// Expired reports whether the record must be treated as absent.
func (r *CredentialRecord) Expired(now time.Time) bool {
	return r.ExpiresAt <= now.UnixMilli()
}

// JobDraft is the transient record scraped from a job-listing page. It lives
// for a single message round-trip and is never persisted by the host.
type JobDraft struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location,omitempty"`
	JobType        string   `json:"jobType,omitempty"`
	Description    string   `json:"description,omitempty"`
	Salary         string   `json:"salary,omitempty"`
	ApplicationURL string   `json:"applicationUrl,omitempty"`
	URL            string   `json:"url,omitempty"`
	Source         string   `json:"source,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	Status         string   `json:"status,omitempty"`
	AppliedDate    string   `json:"appliedDate,omitempty"`
}

// StatusSaved is the default status stamped on a draft before it is
// forwarded to the backend.
const StatusSaved = "saved"

// Normalize fills the defaults the backend expects: status "saved" and an
// applied date of now.
func (d *JobDraft) Normalize(now time.Time) {
	if d.Status == "" {
		d.Status = StatusSaved
	}
	if d.AppliedDate == "" {
		d.AppliedDate = now.UTC().Format(time.RFC3339)
	}
	if d.ApplicationURL == "" {
		d.ApplicationURL = d.URL
	}
}

// User is the identity shape the backend reports on login and verify.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Email is the account email.
	Email string `json:"email"`
	// WebsiteLinked reports whether the account is linked to a website login.
	WebsiteLinked bool `json:"websiteLinked"`
	// WebsiteEmail is the linked website account email, if any.
	WebsiteEmail string `json:"websiteEmail,omitempty"`
}

// SavedJob is a job row as stored by the backend.
type SavedJob struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location,omitempty"`
	JobType         string    `json:"jobType,omitempty"`
	Description     string    `json:"description,omitempty"`
	Salary          string    `json:"salary,omitempty"`
	ApplicationURL  string    `json:"applicationUrl,omitempty"`
	Source          string    `json:"source,omitempty"`
	Skills          []string  `json:"skills,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	Status          string    `json:"status"`
	AppliedDate     string    `json:"appliedDate"`
	SyncedToWebsite bool      `json:"syncedToWebsite"`
	CreatedAt       time.Time `json:"createdAt"`
}
