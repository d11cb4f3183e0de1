package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jobtrail/extension-host/internal/middleware"
	"github.com/jobtrail/extension-host/internal/models"
)

// JobService defines the interface for saved-job operations required by
// the JobsHandler.
type JobService interface {
	// CreateJob persists a job draft for the user.
	CreateJob(ctx context.Context, userID string, draft *models.JobDraft, syncToWebsite bool) (*models.SavedJob, error)
	// ListJobs returns the user's saved jobs.
	ListJobs(ctx context.Context, userID string) ([]models.SavedJob, error)
}

// JobsHandler handles HTTP requests for saved jobs.
type JobsHandler struct {
	JobService JobService
}

// Create handles POST /jobs[?syncToWebsite=true]. The syncToWebsite query
// parameter selects the dual-write variant used by website-linked
// extensions.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var draft models.JobDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil || draft.Title == "" {
		writeError(w, http.StatusBadRequest, "job title required")
		return
	}
	syncToWebsite := r.URL.Query().Get("syncToWebsite") == "true"

	job, err := h.JobService.CreateJob(r.Context(), userID, &draft, syncToWebsite)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save job")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":              job.ID,
		"syncedToWebsite": job.SyncedToWebsite,
	})
}

// List handles GET /jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	jobs, err := h.JobService.ListJobs(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []models.SavedJob{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}
