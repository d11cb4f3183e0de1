package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobtrail/extension-host/internal/models"
)

// JobRepository defines the persistence operations required by the job
// service.
type JobRepository interface {
	Create(ctx context.Context, job *models.SavedJob) error
	ListByUser(ctx context.Context, userID string) ([]models.SavedJob, error)
}

// JobService stores jobs forwarded by the extension.
type JobService struct {
	repo JobRepository
}

// NewJobService constructs a new JobService using the provided repository.
func NewJobService(repo JobRepository) *JobService {
	return &JobService{repo: repo}
}

// CreateJob persists a job draft for the user. Draft defaults are applied
// again here; the backend does not trust the client to have normalized.
func (s *JobService) CreateJob(ctx context.Context, userID string, draft *models.JobDraft, syncToWebsite bool) (*models.SavedJob, error) {
	draft.Normalize(time.Now())

	job := &models.SavedJob{
		ID:              uuid.NewString(),
		UserID:          userID,
		Title:           draft.Title,
		Company:         draft.Company,
		Location:        draft.Location,
		JobType:         draft.JobType,
		Description:     draft.Description,
		Salary:          draft.Salary,
		ApplicationURL:  draft.ApplicationURL,
		Source:          draft.Source,
		Skills:          draft.Skills,
		Notes:           draft.Notes,
		Status:          draft.Status,
		AppliedDate:     draft.AppliedDate,
		SyncedToWebsite: syncToWebsite,
		CreatedAt:       time.Now(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// ListJobs returns the user's saved jobs.
func (s *JobService) ListJobs(ctx context.Context, userID string) ([]models.SavedJob, error) {
	return s.repo.ListByUser(ctx, userID)
}
