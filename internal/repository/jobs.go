package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/jobtrail/extension-host/internal/models"
)

// PostgresJobRepository implements saved-job persistence on PostgreSQL.
type PostgresJobRepository struct {
	DB *sql.DB
}

// NewPostgresJobRepository creates a repository over the given connection.
func NewPostgresJobRepository(db *sql.DB) *PostgresJobRepository {
	return &PostgresJobRepository{DB: db}
}

// Create inserts a saved job.
func (r *PostgresJobRepository) Create(ctx context.Context, job *models.SavedJob) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO jobs
		   (id, user_id, title, company, location, job_type, description,
		    salary, application_url, source, skills, notes, status,
		    applied_date, synced_to_website, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		job.ID, job.UserID, job.Title, job.Company, job.Location, job.JobType,
		job.Description, job.Salary, job.ApplicationURL, job.Source,
		pq.Array(job.Skills), job.Notes, job.Status, job.AppliedDate,
		job.SyncedToWebsite, job.CreatedAt,
	)
	return err
}

// ListByUser returns the user's saved jobs, newest first.
func (r *PostgresJobRepository) ListByUser(ctx context.Context, userID string) ([]models.SavedJob, error) {
	rows, err := r.DB.QueryContext(
		ctx,
		`SELECT id, user_id, title, company, location, job_type, description,
		        salary, application_url, source, skills, notes, status,
		        applied_date, synced_to_website, created_at
		   FROM jobs WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.SavedJob
	for rows.Next() {
		var j models.SavedJob
		if err := rows.Scan(
			&j.ID, &j.UserID, &j.Title, &j.Company, &j.Location, &j.JobType,
			&j.Description, &j.Salary, &j.ApplicationURL, &j.Source,
			pq.Array(&j.Skills), &j.Notes, &j.Status, &j.AppliedDate,
			&j.SyncedToWebsite, &j.CreatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
